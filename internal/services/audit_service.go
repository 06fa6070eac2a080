package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"gorm.io/gorm"

	"github.com/reimbly/backend/internal/metrics"
	"github.com/reimbly/backend/internal/models"
	"github.com/reimbly/backend/internal/query"
	"github.com/reimbly/backend/internal/util"
)

var (
	ErrUnknownAuditAction = errors.New("unknown audit action")
	ErrMissingActor       = errors.New("audit entry requires an actor")
)

// RequestMeta carries caller metadata captured from the HTTP layer into
// audit records.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// AuditEntry is the input to the recorder: one per successful mutation.
type AuditEntry struct {
	Action          models.AuditAction
	ActorID         uint
	TargetUserID    *uint
	TargetExpenseID *uint
	Details         interface{}
	Meta            RequestMeta
}

// AuditRecorder appends immutable audit log records. It is the single point
// every mutating operation reports through; entries are never updated or
// deleted. An insert failure propagates to the caller, so the primary action
// and its record are not atomic.
type AuditRecorder struct {
	db *gorm.DB
}

func NewAuditRecorder(db *gorm.DB) *AuditRecorder {
	return &AuditRecorder{db: db}
}

// Record validates and inserts a single audit entry.
func (r *AuditRecorder) Record(e AuditEntry) error {
	if !e.Action.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownAuditAction, e.Action)
	}
	if e.ActorID == 0 {
		return ErrMissingActor
	}

	var details string
	if e.Details != nil {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		details = string(raw)
	}

	entry := models.AuditLog{
		Action:          e.Action,
		UserID:          e.ActorID,
		TargetUserID:    e.TargetUserID,
		TargetExpenseID: e.TargetExpenseID,
		Details:         details,
		IPAddress:       util.SanitizeForLog(e.Meta.IPAddress),
		UserAgent:       util.Truncate(util.SanitizeForLog(e.Meta.UserAgent), 512),
	}

	if err := r.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}

	metrics.IncAuditEntry()
	return nil
}

// auditAllowed is the filter allow-list for the admin audit log listing.
var auditAllowed = query.Allowed{
	Fields: map[string]string{
		"action":     "action",
		"userId":     "user_id",
		"created_at": "created_at",
	},
	DateColumn: "created_at",
}

// List returns audit entries for admins, newest first by default, with
// action/user/date-range filters and pagination.
func (r *AuditRecorder) List(values url.Values) ([]models.AuditLog, query.Pagination, error) {
	opts, err := query.Parse(values, auditAllowed)
	if err != nil {
		return nil, query.Pagination{}, err
	}

	scoped := func() *gorm.DB {
		return r.db.Model(&models.AuditLog{}).
			Scopes(opts.Scope(), opts.DateScope(auditAllowed.DateColumn))
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, query.Pagination{}, fmt.Errorf("count audit logs: %w", err)
	}

	var logs []models.AuditLog
	err = opts.ApplyWindow(scoped(), "created_at desc").
		Preload("User").
		Preload("TargetUser").
		Preload("TargetExpense").
		Find(&logs).Error
	if err != nil {
		return nil, query.Pagination{}, fmt.Errorf("list audit logs: %w", err)
	}

	return logs, query.Paginate(opts.Page, opts.Limit, total), nil
}

// ActionCount is the number of audit entries carrying one action tag.
type ActionCount struct {
	Action string `json:"action" gorm:"column:action"`
	Count  int64  `json:"count"`
}

// UserActivity summarizes audit volume per actor.
type UserActivity struct {
	UserID       uint      `json:"user_id" gorm:"column:user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Count        int64     `json:"count"`
	LastActivity time.Time `json:"last_activity"`
}

// DayActivity is audit volume for a single calendar day.
type DayActivity struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// AuditStats is the admin dashboard summary over the audit log.
type AuditStats struct {
	Actions     []ActionCount  `json:"actions"`
	ActiveUsers []UserActivity `json:"active_users"`
	Timeline    []DayActivity  `json:"activity_timeline"`
}

// Stats aggregates action counts, the ten most active users and a 30-day
// activity timeline.
func (r *AuditRecorder) Stats() (*AuditStats, error) {
	stats := &AuditStats{}

	err := r.db.Model(&models.AuditLog{}).
		Select("action, COUNT(*) AS count").
		Group("action").
		Order("count desc").
		Scan(&stats.Actions).Error
	if err != nil {
		return nil, fmt.Errorf("audit action stats: %w", err)
	}

	err = r.db.Model(&models.AuditLog{}).
		Select("audit_logs.user_id, users.name, users.email, COUNT(*) AS count, MAX(audit_logs.created_at) AS last_activity").
		Joins("JOIN users ON users.id = audit_logs.user_id").
		Group("audit_logs.user_id, users.name, users.email").
		Order("count desc").
		Limit(10).
		Scan(&stats.ActiveUsers).Error
	if err != nil {
		return nil, fmt.Errorf("audit user stats: %w", err)
	}

	since := query.DayStart(time.Now().UTC().AddDate(0, 0, -29))
	err = r.db.Model(&models.AuditLog{}).
		Select("strftime('%Y-%m-%d', created_at) AS date, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("date").
		Order("date asc").
		Scan(&stats.Timeline).Error
	if err != nil {
		return nil, fmt.Errorf("audit timeline stats: %w", err)
	}

	return stats, nil
}
