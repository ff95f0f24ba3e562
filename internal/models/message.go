package models

import "time"

// Message is a post left by a visitor about a unicorn. The public API calls it a "post".
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Author    string    `gorm:"size:255;not null" json:"author"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	UnicornID uint      `gorm:"not null;index" json:"unicorn"`
	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}
