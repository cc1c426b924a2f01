package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"trustblocks/models"
	"trustblocks/pkg/mail"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Subscribe handles POST /api/subscribe. The store's unique index on email
// is the only duplicate check; a second subscribe surfaces as
// gorm.ErrDuplicatedKey and maps to 409.
func Subscribe(db *gorm.DB, mailer *mail.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Email string `json:"email"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Email) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Email is required"})
			return
		}
		email := strings.TrimSpace(strings.ToLower(body.Email))

		sub := models.Subscriber{Email: email, Subscribed: true}
		if err := db.Create(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusConflict, gin.H{"message": "Already subscribed"})
				return
			}
			log.Printf("[newsletter] subscribe failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to subscribe"})
			return
		}

		// best effort; never blocks or fails the subscribe response
		go mailer.SendSubscriptionConfirmation(email)

		c.JSON(http.StatusCreated, gin.H{"message": "Subscribed"})
	}
}
