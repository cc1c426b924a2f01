package websocket

import (
	"trustblocks/controllers"
	"trustblocks/middleware"
	svc "trustblocks/pkg/services"

	"github.com/gin-gonic/gin"
)

func Register(r *gin.Engine, provider svc.ChatProvider) {
	r.GET("/ws/chat", middleware.RateLimit(), controllers.ChatWS(provider))
}
