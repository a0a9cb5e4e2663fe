package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"conversa/internal/infrastructure/auth"
	queueport "conversa/internal/infrastructure/queue/port"
	"conversa/internal/pkg/chat/application/task"

	"github.com/gin-gonic/gin"
)

// SendMessageController handles the REST send-message endpoint (one
// controller per endpoint). The message is enqueued and a worker persists
// and fans it out, so live websocket members see REST-sent messages too.
type SendMessageController struct {
	authn auth.Authenticator
	queue queueport.Client
}

func NewSendMessageController(authn auth.Authenticator, client queueport.Client) *SendMessageController {
	return &SendMessageController{authn: authn, queue: client}
}

// sendMessageRequest is the DTO for the HTTP request body
type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// Handle returns a gin handler that enqueues a background task to send a
// message into the conversation named in the path.
func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, err := h.authn.Authenticate(c.Request)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		name := c.Param("conversationName")
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversationName is required"})
			return
		}

		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		payload := task.SendMessageTaskPayload{
			ConversationName: name,
			Sender:           username,
			Content:          req.Content,
		}
		b, err := json.Marshal(payload)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode task payload"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		opts := queueport.EnqueueOption{Queue: "chat", MaxRetry: 10}
		id, err := h.queue.Enqueue(ctx, queueport.Task{Type: task.SendMessageTaskType, Payload: b}, opts)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to enqueue message"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":       "queued",
			"task_id":      id,
			"conversation": name,
			"sender":       username,
		})
	}
}
