package models

import "gorm.io/gorm"

type Subscriber struct {
	gorm.Model
	Email      string `gorm:"uniqueIndex;size:255;not null"`
	Subscribed bool   `gorm:"default:true"`
}
