package models

import (
	"fmt"

	"gorm.io/gorm"
)

// User is a marketplace account: a buyer, a listing agent, or an admin
type User struct {
	gorm.Model
	UserID       string `json:"user_id" gorm:"uniqueIndex"`
	Name         string `json:"name" gorm:"not null"`
	Phone        string `json:"phone" gorm:"uniqueIndex;not null"`
	Email        string `json:"email"`
	PasswordHash string `json:"-" gorm:"not null"`
	Role         string `json:"role" gorm:"default:buyer"` // "buyer", "agent", "admin"
	Verified     bool   `json:"verified" gorm:"default:false"`
	Active       bool   `json:"active" gorm:"default:true"`
}

// Role constants
const (
	RoleBuyer = "buyer"
	RoleAgent = "agent"
	RoleAdmin = "admin"
)

// BeforeCreate generates UserID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == "" {
		var count int64
		tx.Model(&User{}).Count(&count)
		u.UserID = fmt.Sprintf("USR%05d", count+1)
	}
	return nil
}

// UserRegistration is the register request payload.
type UserRegistration struct {
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone" validate:"required,min=10"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=buyer agent"`
}
