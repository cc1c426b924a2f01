package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"trustblocks/models"
	svc "trustblocks/pkg/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func orderByTimestamp(tx *gorm.DB) *gorm.DB {
	return tx.Order("timestamp ASC")
}

// CreateConversation handles POST /api/conversations.
func CreateConversation(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Title string `json:"title"`
		}
		// title is optional; an empty body is fine
		_ = c.ShouldBindJSON(&body)

		title := strings.TrimSpace(body.Title)
		if title == "" {
			title = "New Chat"
		}
		// truncate on runes so a multi-byte character is never split
		if r := []rune(title); len(r) > 200 {
			title = string(r[:200])
		}

		conv := models.Conversation{Title: title}
		if err := db.Create(&conv).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create conversation"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"id":         conv.ID,
			"title":      conv.Title,
			"created_at": conv.CreatedAt,
		})
	}
}

// ListConversations handles GET /api/conversations.
func ListConversations(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var convs []models.Conversation
		if err := db.Preload("Messages").Order("created_at DESC").Find(&convs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch conversations"})
			return
		}

		result := make([]gin.H, 0, len(convs))
		for _, conv := range convs {
			result = append(result, gin.H{
				"id":             conv.ID,
				"title":          conv.Title,
				"created_at":     conv.CreatedAt,
				"messages_count": len(conv.Messages),
			})
		}
		c.JSON(http.StatusOK, result)
	}
}

// GetConversation handles GET /api/conversations/:conversation_id and
// returns the conversation with its messages in chronological order.
func GetConversation(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cid, err := strconv.Atoi(c.Param("conversation_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid conversation id"})
			return
		}

		var conv models.Conversation
		if err := db.Preload("Messages", orderByTimestamp).First(&conv, cid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "Conversation not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch conversation"})
			return
		}

		messages := make([]gin.H, 0, len(conv.Messages))
		for _, m := range conv.Messages {
			messages = append(messages, gin.H{
				"id":        m.ID,
				"role":      m.Role,
				"content":   m.Content,
				"timestamp": m.Timestamp,
			})
		}
		c.JSON(http.StatusOK, gin.H{
			"id":         conv.ID,
			"title":      conv.Title,
			"created_at": conv.CreatedAt,
			"messages":   messages,
		})
	}
}

// DeleteConversation handles DELETE /api/conversations/:conversation_id and
// removes the conversation together with its messages.
func DeleteConversation(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cid, err := strconv.Atoi(c.Param("conversation_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid conversation id"})
			return
		}

		var conv models.Conversation
		if err := db.First(&conv, cid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "Conversation not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch conversation"})
			return
		}

		// deleting the associations too keeps messages unreachable on every
		// driver, with or without FK cascade support
		if err := db.Select(clause.Associations).Delete(&conv).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete conversation"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// CreateMessageStream handles POST /api/conversations/:conversation_id/messages.
// The user turn is persisted first, the assistant reply is streamed over SSE
// and persisted in full once the stream ends.
func CreateMessageStream(db *gorm.DB, provider svc.ChatProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		cid, err := strconv.Atoi(c.Param("conversation_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid conversation id"})
			return
		}

		var body struct {
			Content string `json:"content"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Content) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input"})
			return
		}

		var conv models.Conversation
		if err := db.Preload("Messages", orderByTimestamp).First(&conv, cid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "Conversation not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch conversation"})
			return
		}

		userMsg := models.Message{
			ConversationID: conv.ID,
			Role:           "user",
			Content:        body.Content,
			Timestamp:      time.Now(),
		}
		if err := db.Create(&userMsg).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to send message"})
			return
		}

		// prior turns plus the one just received
		history := make([]svc.ChatMessage, 0, len(conv.Messages)+1)
		for _, m := range conv.Messages {
			history = append(history, svc.ChatMessage{Role: m.Role, Content: m.Content})
		}
		history = append(history, svc.ChatMessage{Role: "user", Content: body.Content})

		flusher := setupSSE(c)
		if flusher == nil {
			return
		}

		var full strings.Builder
		onDelta := func(chunk string) {
			full.WriteString(chunk)
			writeSSE(c, flusher, gin.H{"content": chunk})
		}
		if _, err := provider.StreamChat(c.Request.Context(), history, onDelta); err != nil {
			log.Printf("[chat] stream error: %v", err)
			writeSSE(c, flusher, gin.H{"error": "Failed to send message"})
			return
		}

		if text := strings.TrimSpace(full.String()); text != "" {
			botMsg := models.Message{
				ConversationID: conv.ID,
				Role:           "assistant",
				Content:        text,
				Timestamp:      time.Now(),
			}
			if err := db.Create(&botMsg).Error; err != nil {
				log.Printf("[chat] failed to save assistant reply: %v", err)
			}
		}

		writeSSE(c, flusher, gin.H{"done": true})
	}
}
