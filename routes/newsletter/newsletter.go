package newsletter

import (
	"trustblocks/controllers"
	"trustblocks/pkg/mail"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Register registers the newsletter subscription route.
func Register(g *gin.RouterGroup, db *gorm.DB, mailer *mail.Mailer) {
	g.POST("/subscribe", controllers.Subscribe(db, mailer))
}
