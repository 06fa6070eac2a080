package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/reimbly/backend/internal/api/middleware"
	"github.com/reimbly/backend/internal/models"
	"github.com/reimbly/backend/internal/services"
)

// AdminHandler covers the admin-only surface: user management, the
// all-expenses listing and the analytics dashboard.
type AdminHandler struct {
	DB        *gorm.DB
	recorder  *services.AuditRecorder
	expenses  *services.ExpenseService
	analytics *services.AnalyticsService
}

func NewAdminHandler(db *gorm.DB, recorder *services.AuditRecorder, expenses *services.ExpenseService, analytics *services.AnalyticsService) *AdminHandler {
	return &AdminHandler{DB: db, recorder: recorder, expenses: expenses, analytics: analytics}
}

func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/users", h.ListUsers)
	r.GET("/users/:id", h.GetUser)
	r.PUT("/users/:id", h.UpdateUser)
	r.DELETE("/users/:id", h.DeleteUser)
	r.GET("/expenses", h.ListAllExpenses)
	r.GET("/analytics/expenses", h.ExpenseAnalytics)
}

func userID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid user id"})
		return 0, false
	}
	return uint(id), true
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	var users []models.User
	if err := h.DB.Order("created_at asc").Find(&users).Error; err != nil {
		respondError(c, err)
		return
	}

	if err := h.recorder.Record(services.AuditEntry{
		Action:  models.ActionAdminListUsers,
		ActorID: middleware.Identity(c).ID,
		Details: map[string]interface{}{"count": len(users)},
		Meta:    middleware.Meta(c),
	}); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(users), "data": users})
}

func (h *AdminHandler) loadUser(c *gin.Context) (*models.User, bool) {
	id, ok := userID(c)
	if !ok {
		return nil, false
	}
	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, services.ErrUserNotFound)
		} else {
			respondError(c, err)
		}
		return nil, false
	}
	return &user, true
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	if err := h.recorder.Record(services.AuditEntry{
		Action:       models.ActionAdminViewUser,
		ActorID:      middleware.Identity(c).ID,
		TargetUserID: &user.ID,
		Meta:         middleware.Meta(c),
	}); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

type adminUpdateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" binding:"omitempty,email"`
	Role  string `json:"role" binding:"omitempty,oneof=employee admin"`
}

// UpdateUser edits a user's name, email or role. Passwords never change
// through this route.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	var req adminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	updated := []string{}
	if req.Name != "" && req.Name != user.Name {
		user.Name = req.Name
		updated = append(updated, "name")
	}
	if req.Email != "" && req.Email != user.Email {
		user.Email = req.Email
		updated = append(updated, "email")
	}
	if req.Role != "" && req.Role != user.Role {
		user.Role = req.Role
		updated = append(updated, "role")
	}

	if err := h.DB.Save(user).Error; err != nil {
		respondError(c, err)
		return
	}

	if err := h.recorder.Record(services.AuditEntry{
		Action:       models.ActionAdminUpdateUser,
		ActorID:      middleware.Identity(c).ID,
		TargetUserID: &user.ID,
		Details:      map[string]interface{}{"updatedFields": updated},
		Meta:         middleware.Meta(c),
	}); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

// DeleteUser removes an account. Admins cannot delete their own account
// through this route.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	actor := middleware.Identity(c)
	if user.ID == actor.ID {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "You cannot delete your own account"})
		return
	}

	if err := h.DB.Delete(&models.User{}, user.ID).Error; err != nil {
		respondError(c, err)
		return
	}

	if err := h.recorder.Record(services.AuditEntry{
		Action:       models.ActionAdminDeleteUser,
		ActorID:      actor.ID,
		TargetUserID: &user.ID,
		Meta:         middleware.Meta(c),
	}); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
}

// ListAllExpenses is the admin view over every user's expenses.
func (h *AdminHandler) ListAllExpenses(c *gin.Context) {
	actor := middleware.Identity(c)
	expenses, pagination, err := h.expenses.List(actor, c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.recorder.Record(services.AuditEntry{
		Action:  models.ActionAdminListExpenses,
		ActorID: actor.ID,
		Details: map[string]interface{}{"count": len(expenses)},
		Meta:    middleware.Meta(c),
	}); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      len(expenses),
		"pagination": pagination,
		"data":       expenses,
	})
}

// ExpenseAnalytics is the admin dashboard summary: categories, statuses and
// the monthly series.
func (h *AdminHandler) ExpenseAnalytics(c *gin.Context) {
	r, err := dateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}

	categories, err := h.analytics.ByCategory(r)
	if err != nil {
		respondError(c, err)
		return
	}
	statuses, err := h.analytics.ByStatus(r)
	if err != nil {
		respondError(c, err)
		return
	}
	monthly, err := h.analytics.Monthly(r)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.recorder.Record(services.AuditEntry{
		Action:  models.ActionAdminViewAnalytics,
		ActorID: middleware.Identity(c).ID,
		Details: map[string]interface{}{
			"categories": len(categories),
			"statuses":   len(statuses),
			"months":     len(monthly),
		},
		Meta: middleware.Meta(c),
	}); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"categories": categories,
			"statuses":   statuses,
			"monthly":    monthly,
		},
	})
}
