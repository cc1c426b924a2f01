package routes

import (
	"net/http"
	"time"

	"trustblocks/pkg/cache"
	"trustblocks/pkg/mail"
	svc "trustblocks/pkg/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	chatRoutes "trustblocks/routes/chat"
	convRoutes "trustblocks/routes/conversation"
	newsletterRoutes "trustblocks/routes/newsletter"
	websocketRoutes "trustblocks/routes/websocket"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, provider svc.ChatProvider, mailer *mail.Mailer, replies *cache.Cache, cacheTTL time.Duration) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	chatRoutes.Register(api, provider, replies, cacheTTL)
	convRoutes.Register(api, db, provider)
	newsletterRoutes.Register(api, db, mailer)

	websocketRoutes.Register(r, provider)
}
