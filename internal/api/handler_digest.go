package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DigestRunner is satisfied by *service.DigestJob.
type DigestRunner interface {
	Run(ctx context.Context) error
}

type DigestHandler struct {
	job DigestRunner
}

func NewDigestHandler(job DigestRunner) *DigestHandler {
	return &DigestHandler{job: job}
}

// RunNow handles POST /jobs/daily-digest.
func (h *DigestHandler) RunNow(c *gin.Context) {
	if err := h.job.Run(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "digest delivery failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}
