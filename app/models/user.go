package models

import "time"

// User is an account that can sign in. Password and RefreshToken never
// leave the server.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Password     string    `gorm:"size:255;not null" json:"-"`
	Firstname    string    `gorm:"size:100;not null" json:"firstname"`
	Lastname     *string   `gorm:"size:100" json:"lastname"`
	Admin        bool      `gorm:"not null;default:false" json:"admin"`
	RefreshToken *string   `gorm:"type:text" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
