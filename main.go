package main

import (
	"log"
	"time"

	"trustblocks/middleware"
	"trustblocks/models"
	"trustblocks/pkg/cache"
	"trustblocks/pkg/config"
	"trustblocks/pkg/mail"
	svc "trustblocks/pkg/services"
	"trustblocks/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// config init via package init()

	if config.DatabaseURL == "" {
		log.Fatal("DATABASE_URL must be set. Did you forget to provision a database?")
	}

	// TranslateError turns the driver's unique-violation into gorm.ErrDuplicatedKey
	db, err := gorm.Open(postgres.Open(config.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	// auto-migrate
	if err := db.AutoMigrate(&models.Subscriber{}, &models.Conversation{}, &models.Message{}); err != nil {
		log.Fatalf("failed migrate: %v", err)
	}

	// pick the chat provider once at startup; handlers never look at credentials
	var provider svc.ChatProvider
	if config.GeminiAPIKey != "" {
		provider = svc.NewGeminiService(config.GeminiAPIKey, config.GeminiModel, config.GeminiBaseURL)
	} else {
		log.Printf("[chat] GEMINI_API_KEY not set, using local tutor fallback")
		provider = svc.NewLocalTutorService()
	}

	mailer := mail.New(config.SMTPHost, config.SMTPPort, config.SMTPEmail, config.SMTPPassword)
	replies := cache.New(config.ChatCacheMaxItems)

	middleware.SetRateLimitConfig(
		time.Duration(config.RateLimitWindowSeconds)*time.Second,
		config.RateLimitCapacity,
	)

	r := gin.Default()
	r.Use(middleware.RequestID())

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:5173", "http://127.0.0.1:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, provider, mailer, replies, time.Duration(config.ChatCacheTTLSeconds)*time.Second)
	r.Run(":" + config.Port)
}
