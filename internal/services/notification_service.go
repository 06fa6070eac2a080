package services

import (
	"fmt"

	"github.com/containrrr/shoutrrr"

	"github.com/reimbly/backend/internal/logger"
	"github.com/reimbly/backend/internal/models"
)

// NotificationService pushes expense events to external channels via
// shoutrrr URLs (discord, slack, smtp, ...). Delivery failures are logged
// and never propagate into the primary action.
type NotificationService struct {
	urls []string
	send func(url, message string) error
}

func NewNotificationService(urls []string) *NotificationService {
	return &NotificationService{urls: urls, send: shoutrrr.Send}
}

func (s *NotificationService) dispatch(message string) {
	for _, url := range s.urls {
		if err := s.send(url, message); err != nil {
			logger.WithFields(map[string]interface{}{"error": err.Error()}).
				Warn("notification delivery failed")
		}
	}
}

// ExpenseSubmitted announces a newly created expense claim.
func (s *NotificationService) ExpenseSubmitted(e *models.Expense) {
	s.dispatch(fmt.Sprintf("New expense submitted: %.2f (%s) awaiting review", e.Amount, e.Category))
}

// StatusChanged announces a review decision.
func (s *NotificationService) StatusChanged(e *models.Expense, previous string) {
	msg := fmt.Sprintf("Expense %s moved %s -> %s", e.UUID, previous, e.Status)
	if e.Status == models.StatusRejected && e.RejectionReason != "" {
		msg += ": " + e.RejectionReason
	}
	s.dispatch(msg)
}

// PendingDigest announces the nightly count of expenses awaiting review.
func (s *NotificationService) PendingDigest(pending int64) {
	if pending == 0 {
		return
	}
	s.dispatch(fmt.Sprintf("%d expense(s) awaiting review", pending))
}
