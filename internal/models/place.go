package models

import (
	"time"
)

// Place is a community that posts are submitted to.
type Place struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;unique" json:"name"`
	Slug        string    `gorm:"uniqueIndex;size:64;not null" json:"slug"`
	Description string    `json:"description"`
	IsDefault   bool      `gorm:"default:false;index" json:"is_default"` // new users are subscribed to default places
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
