package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reimbly/backend/internal/services"
)

// AnalyticsHandler serves the admin analytics endpoints and the CSV export.
type AnalyticsHandler struct {
	analytics *services.AnalyticsService
	export    *services.ExportService
}

func NewAnalyticsHandler(analytics *services.AnalyticsService, export *services.ExportService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, export: export}
}

func (h *AnalyticsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/categories", h.Categories)
	r.GET("/status", h.Status)
	r.GET("/trend", h.Trend)
	r.GET("/export", h.Export)
}

func (h *AnalyticsHandler) Categories(c *gin.Context) {
	r, err := dateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := h.analytics.ByCategory(r)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(data), "data": data})
}

func (h *AnalyticsHandler) Status(c *gin.Context) {
	r, err := dateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := h.analytics.ByStatus(r)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(data), "data": data})
}

func (h *AnalyticsHandler) Trend(c *gin.Context) {
	r, err := dateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := h.analytics.Trend(r)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(data), "data": data})
}

// Export streams the three analytics sections as a CSV attachment.
func (h *AnalyticsHandler) Export(c *gin.Context) {
	r, err := dateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}

	data, filename, err := h.export.AnalyticsCSV(r)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}
