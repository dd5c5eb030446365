package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleDispatcher Role = "dispatcher"
	RoleDriver     Role = "driver"
	RoleCustomer   Role = "customer"
)

type User struct {
	gorm.Model
	Username     string `json:"username" gorm:"column:username;unique;not null"`
	Email        string `json:"email" gorm:"column:email;unique;not null"`
	Password     string `json:"-" gorm:"-:migration"` // Temporary field for password handling
	PasswordHash string `json:"-" gorm:"column:password_hash;not null"`
	PhoneNumber  string `json:"phoneNumber" gorm:"column:phone_number"`
	Role         Role   `json:"role" gorm:"column:role;not null;default:'customer'"`
	LicenseURL   string `json:"licenseUrl,omitempty" gorm:"column:license_url"`
	InsuranceURL string `json:"insuranceUrl,omitempty" gorm:"column:insurance_url"`
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
