package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reimbly/backend/internal/api/middleware"
	"github.com/reimbly/backend/internal/query"
	"github.com/reimbly/backend/internal/services"
)

// respondError maps service errors onto the `{success:false, error}` payload
// with an HTTP-status-equivalent code. Anything unrecognized is treated as
// an upstream failure and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Server Error"

	switch {
	case errors.Is(err, services.ErrExpenseNotFound),
		errors.Is(err, services.ErrUserNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrNotAuthorized),
		errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrWrongPassword),
		errors.Is(err, services.ErrInvalidToken):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, services.ErrStatusForbidden):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidCategory),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrNotesTooLong),
		errors.Is(err, services.ErrExpenseLocked),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrReceiptTooLarge),
		errors.Is(err, services.ErrReceiptType),
		errors.Is(err, query.ErrUnknownField),
		errors.Is(err, query.ErrUnknownOperator),
		errors.Is(err, query.ErrBadDate),
		errors.Is(err, query.ErrBadPageParam):
		status, message = http.StatusBadRequest, err.Error()
	default:
		middleware.GetRequestLogger(c).WithField("error", err.Error()).Error("request failed")
	}

	c.JSON(status, gin.H{"success": false, "error": message})
}

// dateRange reads the optional startDate/endDate analytics parameters.
func dateRange(c *gin.Context) (services.DateRange, error) {
	var r services.DateRange
	if raw := c.Query("startDate"); raw != "" {
		t, err := query.ParseDay(raw)
		if err != nil {
			return r, err
		}
		from := query.DayStart(t)
		r.From = &from
	}
	if raw := c.Query("endDate"); raw != "" {
		t, err := query.ParseDay(raw)
		if err != nil {
			return r, err
		}
		to := query.DayEnd(t)
		r.To = &to
	}
	return r, nil
}
