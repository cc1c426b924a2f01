package chat

import (
	"time"

	"trustblocks/controllers"
	"trustblocks/middleware"
	"trustblocks/pkg/cache"
	svc "trustblocks/pkg/services"

	"github.com/gin-gonic/gin"
)

// Register registers the stateless chat relay routes.
func Register(g *gin.RouterGroup, provider svc.ChatProvider, replies *cache.Cache, cacheTTL time.Duration) {
	// Basic rate limiting on chat POST endpoints
	g.POST("/chat", middleware.RateLimit(), controllers.Chat(provider, replies, cacheTTL))
	g.POST("/chat/stream", middleware.RateLimit(), controllers.ChatStream(provider))
}
