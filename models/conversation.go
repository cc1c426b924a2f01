package models

import "gorm.io/gorm"

type Conversation struct {
	gorm.Model
	Title    string    `gorm:"size:200"`
	Messages []Message `gorm:"constraint:OnDelete:CASCADE"`
}
