package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserType string

const (
	UserTypeRider  UserType = "rider"
	UserTypeDriver UserType = "driver"
)

// Gender values used both on user profiles and ride preferences
const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
	GenderNone   = "NONE"
)

type User struct {
	gorm.Model
	Username     string `gorm:"column:username;uniqueIndex;not null" json:"username"`
	Email        string `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Password     string `gorm:"-:all" json:"-"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
	PhoneNumber  string `gorm:"column:phone_number" json:"phoneNumber"`
	Gender       string `gorm:"column:gender;default:'NONE'" json:"gender"`
	UserType     string `gorm:"column:user_type;not null;default:'rider'" json:"userType"`
	FCMToken     string `gorm:"column:fcm_token" json:"-"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

func (u *User) HashPassword() error {
	if u.Password == "" {
		return nil
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
