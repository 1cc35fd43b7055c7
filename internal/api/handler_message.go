package api

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"taskbot/internal/service"
	"taskbot/pkg/trace"

	"github.com/gin-gonic/gin"
)

// MessageProcessor is satisfied by *service.Assistant.
type MessageProcessor interface {
	HandleMessage(ctx context.Context, chatID int64, text string, r service.Replier) string
}

type MessageHandler struct {
	processor MessageProcessor
}

func NewMessageHandler(processor MessageProcessor) *MessageHandler {
	return &MessageHandler{processor: processor}
}

// SimulateMessage handles POST /simulate/message. It runs the full chat
// pipeline and returns the replies instead of sending them to Telegram.
func (h *MessageHandler) SimulateMessage(c *gin.Context) {
	var req struct {
		ChatID int64  `json:"chat_id"`
		Text   string `json:"text"`
	}

	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ctx, traceID := trace.Ensure(c.Request.Context())
	replies := &bufferReplier{}
	outcome := h.processor.HandleMessage(ctx, req.ChatID, req.Text, replies)

	c.JSON(http.StatusOK, gin.H{
		"trace_id": traceID,
		"outcome":  outcome,
		"replies":  replies.all(),
	})
}

// bufferReplier collects replies in memory.
type bufferReplier struct {
	mu      sync.Mutex
	replies []string
}

func (r *bufferReplier) Reply(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, text)
	return nil
}

func (r *bufferReplier) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.replies))
	copy(out, r.replies)
	return out
}
