package conversation

import (
	"trustblocks/controllers"
	"trustblocks/middleware"
	svc "trustblocks/pkg/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Register registers conversation CRUD and the streaming message route.
func Register(g *gin.RouterGroup, db *gorm.DB, provider svc.ChatProvider) {
	g.GET("/conversations", controllers.ListConversations(db))
	g.POST("/conversations", controllers.CreateConversation(db))
	g.GET("/conversations/:conversation_id", controllers.GetConversation(db))
	g.DELETE("/conversations/:conversation_id", controllers.DeleteConversation(db))
	g.POST("/conversations/:conversation_id/messages", middleware.RateLimit(), controllers.CreateMessageStream(db, provider))
}
