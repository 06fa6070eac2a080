package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reimbly/backend/internal/services"
)

// AuditLogHandler exposes the audit trail to admins. Read-only: entries are
// only ever written by the recorder.
type AuditLogHandler struct {
	recorder *services.AuditRecorder
}

func NewAuditLogHandler(recorder *services.AuditRecorder) *AuditLogHandler {
	return &AuditLogHandler{recorder: recorder}
}

func (h *AuditLogHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.List)
	r.GET("/stats", h.Stats)
}

func (h *AuditLogHandler) List(c *gin.Context) {
	logs, pagination, err := h.recorder.List(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      len(logs),
		"pagination": pagination,
		"data":       logs,
	})
}

func (h *AuditLogHandler) Stats(c *gin.Context) {
	stats, err := h.recorder.Stats()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}
