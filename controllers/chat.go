package controllers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"trustblocks/pkg/cache"
	svc "trustblocks/pkg/services"

	"github.com/gin-gonic/gin"
)

type chatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Message string     `json:"message"`
	History []chatTurn `json:"history"`
}

func (r chatRequest) validate() bool {
	if strings.TrimSpace(r.Message) == "" {
		return false
	}
	for _, t := range r.History {
		if t.Role != "user" && t.Role != "assistant" {
			return false
		}
	}
	return true
}

// toHistory appends the new message as the final user turn.
func (r chatRequest) toHistory() []svc.ChatMessage {
	history := make([]svc.ChatMessage, 0, len(r.History)+1)
	for _, t := range r.History {
		history = append(history, svc.ChatMessage{Role: t.Role, Content: t.Content})
	}
	return append(history, svc.ChatMessage{Role: "user", Content: r.Message})
}

func chatCacheKey(history []svc.ChatMessage) string {
	parts := make([]string, 0, len(history)*2)
	for _, m := range history {
		parts = append(parts, m.Role, m.Content)
	}
	return cache.KeyFromStrings(parts...)
}

// Chat handles POST /api/chat: one full relay round trip, JSON in and out.
// Successful replies are cached keyed by the complete history.
func Chat(provider svc.ChatProvider, replies *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body chatRequest
		if err := c.ShouldBindJSON(&body); err != nil || !body.validate() {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input"})
			return
		}

		history := body.toHistory()
		key := chatCacheKey(history)
		if v, ok := replies.Get(key); ok {
			if text, ok := v.(string); ok && text != "" {
				c.JSON(http.StatusOK, gin.H{"message": text})
				return
			}
		}

		reply, err := provider.SendChat(c.Request.Context(), history)
		if err != nil {
			log.Printf("[chat] provider error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to get AI response"})
			return
		}

		if strings.TrimSpace(reply) != "" {
			replies.Set(key, reply, ttl)
		}
		c.JSON(http.StatusOK, gin.H{"message": reply})
	}
}

// ChatStream handles POST /api/chat/stream. The reply is relayed as SSE
// lines of the form data: {"content": "..."} and closed with
// data: {"done": true}; a provider failure ends the stream with
// data: {"error": "..."} instead.
func ChatStream(provider svc.ChatProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body chatRequest
		if err := c.ShouldBindJSON(&body); err != nil || !body.validate() {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input"})
			return
		}

		flusher := setupSSE(c)
		if flusher == nil {
			return
		}

		onDelta := func(chunk string) {
			writeSSE(c, flusher, gin.H{"content": chunk})
		}
		if _, err := provider.StreamChat(c.Request.Context(), body.toHistory(), onDelta); err != nil {
			log.Printf("[chat] stream error: %v", err)
			writeSSE(c, flusher, gin.H{"error": "Failed to get AI response"})
			return
		}
		writeSSE(c, flusher, gin.H{"done": true})
	}
}

func setupSSE(c *gin.Context) http.Flusher {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no") // nginx buffering off

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.String(http.StatusInternalServerError, "streaming unsupported")
		return nil
	}
	return flusher
}

func writeSSE(c *gin.Context, flusher http.Flusher, payload gin.H) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[chat] failed to marshal sse payload: %v", err)
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", data)
	flusher.Flush()
}
