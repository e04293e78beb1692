package models

import "gorm.io/gorm"

// User est un administrateur du catalogue de facteurs.
type User struct {
	gorm.Model
	Name     string `json:"name"`
	Email    string `gorm:"uniqueIndex" json:"email"`
	Password string `json:"-"`
}
