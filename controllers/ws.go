package controllers

import (
	"log"
	"net/http"

	svc "trustblocks/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS handled at HTTP level; allow WS here
		return true
	},
}

type wsStartPayload struct {
	Type    string     `json:"type"`
	Message string     `json:"message"`
	History []chatTurn `json:"history"`
}

// ChatWS handles WebSocket chat streaming. Nothing is persisted; history is
// supplied by the client, as on the SSE endpoints.
// Client protocol (JSON messages):
//
//	-> {type: "start", message: string, history?: [{role, content}]}
//	<- {type: "delta", data: string}
//	<- {type: "done", ok: true}
//	<- {type: "error", error: string}
func ChatWS(provider svc.ChatProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[ws] upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		var start wsStartPayload
		if err := conn.ReadJSON(&start); err != nil || start.Type != "start" {
			_ = conn.WriteJSON(gin.H{"type": "error", "error": "expected start message"})
			return
		}

		req := chatRequest{Message: start.Message, History: start.History}
		if !req.validate() {
			_ = conn.WriteJSON(gin.H{"type": "error", "error": "message is required"})
			return
		}

		onDelta := func(chunk string) {
			_ = conn.WriteJSON(gin.H{"type": "delta", "data": chunk})
		}
		if _, err := provider.StreamChat(c.Request.Context(), req.toHistory(), onDelta); err != nil {
			log.Printf("[ws] stream error: %v", err)
			_ = conn.WriteJSON(gin.H{"type": "error", "error": "Failed to get AI response"})
			return
		}
		_ = conn.WriteJSON(gin.H{"type": "done", "ok": true})
	}
}
