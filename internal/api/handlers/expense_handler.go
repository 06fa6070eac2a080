package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/reimbly/backend/internal/api/middleware"
	"github.com/reimbly/backend/internal/models"
	"github.com/reimbly/backend/internal/query"
	"github.com/reimbly/backend/internal/services"
)

type ExpenseHandler struct {
	expenses *services.ExpenseService
	receipts *services.ReceiptService
}

func NewExpenseHandler(expenses *services.ExpenseService, receipts *services.ReceiptService) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses, receipts: receipts}
}

func (h *ExpenseHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/expenses", h.List)
	r.POST("/expenses", h.Create)
	r.GET("/expenses/:id", h.Get)
	r.PUT("/expenses/:id", h.Update)
	r.DELETE("/expenses/:id", h.Delete)
}

type createExpenseRequest struct {
	Amount   float64 `json:"amount" form:"amount" binding:"required"`
	Category string  `json:"category" form:"category" binding:"required"`
	Date     string  `json:"date" form:"date"`
	Notes    string  `json:"notes" form:"notes"`
}

// parseDate accepts RFC3339 timestamps and bare calendar days.
func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := query.ParseDay(raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// receiptFromForm stores an uploaded receipt when the request is multipart
// and carries one. A JSON request simply has no receipt.
func (h *ExpenseHandler) receiptFromForm(c *gin.Context) (*models.Receipt, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return nil, nil
	}
	file, err := c.FormFile("receipt")
	if err != nil {
		return nil, nil // no file attached
	}
	return h.receipts.Store(file)
}

// Create submits a new expense claim, optionally with a multipart receipt.
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req createExpenseRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	date, ok := parseDate(req.Date)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid date format"})
		return
	}

	receipt, err := h.receiptFromForm(c)
	if err != nil {
		respondError(c, err)
		return
	}

	expense, err := h.expenses.Create(middleware.Identity(c), services.ExpenseInput{
		Amount:   req.Amount,
		Category: req.Category,
		Date:     date,
		Notes:    req.Notes,
		Receipt:  receipt,
	}, middleware.Meta(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": expense})
}

// List returns the caller's expenses (all of them for admins), filtered,
// sorted and paginated by the query string.
func (h *ExpenseHandler) List(c *gin.Context) {
	expenses, pagination, err := h.expenses.List(middleware.Identity(c), c.Request.URL.Query())
	if err != nil {
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

func expenseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid expense id"})
		return 0, false
	}
	return uint(id), true
}

func (h *ExpenseHandler) Get(c *gin.Context) {
	id, ok := expenseID(c)
	if !ok {
		return
	}

	expense, err := h.expenses.Get(middleware.Identity(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": expense})
}

type updateExpenseRequest struct {
	Amount          *float64 `json:"amount" form:"amount"`
	Category        *string  `json:"category" form:"category"`
	Date            *string  `json:"date" form:"date"`
	Notes           *string  `json:"notes" form:"notes"`
	Status          *string  `json:"status" form:"status"`
	RejectionReason *string  `json:"rejectionReason" form:"rejectionReason"`
	RemoveReceipt   bool     `json:"removeReceipt" form:"removeReceipt"`
}

func (h *ExpenseHandler) Update(c *gin.Context) {
	id, ok := expenseID(c)
	if !ok {
		return
	}

	var req updateExpenseRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	upd := services.ExpenseUpdate{
		Amount:          req.Amount,
		Category:        req.Category,
		Notes:           req.Notes,
		Status:          req.Status,
		RejectionReason: req.RejectionReason,
		RemoveReceipt:   req.RemoveReceipt,
	}

	if req.Date != nil {
		date, ok := parseDate(*req.Date)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid date format"})
			return
		}
		upd.Date = &date
	}

	receipt, err := h.receiptFromForm(c)
	if err != nil {
		respondError(c, err)
		return
	}
	upd.Receipt = receipt

	expense, err := h.expenses.Update(middleware.Identity(c), id, upd, middleware.Meta(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": expense})
}

func (h *ExpenseHandler) Delete(c *gin.Context) {
	id, ok := expenseID(c)
	if !ok {
		return
	}

	if err := h.expenses.Delete(middleware.Identity(c), id, middleware.Meta(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
}
