package models

import (
	"time"
)

// Subscription 用户订阅的社区
type Subscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_place" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	PlaceID   uint      `gorm:"not null;uniqueIndex:idx_user_place;index" json:"place_id"`
	Place     Place     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"place"`
	CreatedAt time.Time `json:"created_at"`
}
