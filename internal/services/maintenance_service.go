package services

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/reimbly/backend/internal/logger"
)

// MaintenanceService runs scheduled housekeeping: a nightly pending-review
// digest for admins and a sweep of orphaned receipt files.
type MaintenanceService struct {
	db        *gorm.DB
	analytics *AnalyticsService
	receipts  *ReceiptService
	notifier  *NotificationService
	cron      *cron.Cron
}

func NewMaintenanceService(db *gorm.DB, analytics *AnalyticsService, receipts *ReceiptService, notifier *NotificationService) *MaintenanceService {
	return &MaintenanceService{
		db:        db,
		analytics: analytics,
		receipts:  receipts,
		notifier:  notifier,
		cron:      cron.New(),
	}
}

// Start schedules the nightly job at 02:00 and begins the cron loop.
func (s *MaintenanceService) Start() error {
	if _, err := s.cron.AddFunc("0 2 * * *", s.RunNightly); err != nil {
		return fmt.Errorf("schedule nightly maintenance: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop; running jobs finish.
func (s *MaintenanceService) Stop() {
	s.cron.Stop()
}

// RunNightly executes one maintenance cycle. Exposed for the seed/ops path
// and tests; the scheduler calls it nightly.
func (s *MaintenanceService) RunNightly() {
	log := logger.WithFields(map[string]interface{}{"job": "nightly-maintenance"})

	pending, err := s.analytics.PendingCount()
	if err != nil {
		log.WithField("error", err.Error()).Error("pending digest failed")
	} else {
		if s.notifier != nil {
			s.notifier.PendingDigest(pending)
		}
		log.WithField("pending", pending).Info("pending digest sent")
	}

	removed, err := s.receipts.SweepOrphans(s.db)
	if err != nil {
		log.WithField("error", err.Error()).Error("receipt sweep failed")
		return
	}
	log.WithField("removed", removed).Info("receipt sweep complete")
}
