package models

import (
	"time"
)

type Post struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	User    User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	PlaceID uint   `gorm:"not null;index" json:"place_id"`
	Place   Place  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"place"`
	Title   string `gorm:"not null" json:"title"`
	URL     string `json:"url"` // Optional
	// Host of URL, or self.<place slug> for text posts
	Domain  string `gorm:"size:255;index" json:"domain"`
	Content string `gorm:"type:text" json:"content"` // Markdown

	// Score is the sum of all vote values on the post. Only the vote ledger writes it.
	Score     int       `gorm:"not null;default:0" json:"score"`
	HotRank   float64   `gorm:"not null;default:0;index" json:"hot_rank"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
