// Package models contains data structures for the application's domain models.
package models

import "time"

// Unicorn is an animal living on the farm until someone purchases it.
type Unicorn struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Purchased bool      `gorm:"not null;default:false;index" json:"purchased"`
	Messages  []Message `gorm:"foreignKey:UnicornID;constraint:OnDelete:CASCADE" json:"messages"`
	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// OnFarm reports whether the unicorn is still available for purchase.
func (u *Unicorn) OnFarm() bool {
	return !u.Purchased
}
