package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/reimbly/backend/internal/models"
	"github.com/reimbly/backend/internal/query"
)

// DateRange is an optional inclusive day-boundary range for analytics.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// CategorySummary aggregates expenses sharing a category.
type CategorySummary struct {
	Category      string  `json:"category"`
	Count         int64   `json:"count"`
	TotalAmount   float64 `json:"total_amount"`
	AverageAmount float64 `json:"average_amount"`
	MinAmount     float64 `json:"min_amount"`
	MaxAmount     float64 `json:"max_amount"`
}

// StatusSummary aggregates expenses sharing a review status.
type StatusSummary struct {
	Status        string  `json:"status"`
	Count         int64   `json:"count"`
	TotalAmount   float64 `json:"total_amount"`
	AverageAmount float64 `json:"average_amount"`
}

// TrendPoint is one calendar day of expense activity. Days without activity
// still appear with zero count and amount.
type TrendPoint struct {
	Date        string  `json:"date"`
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// MonthSummary aggregates one calendar month of expense activity.
type MonthSummary struct {
	Month       string  `json:"month"` // YYYY-MM
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// AnalyticsService runs grouped summaries over the expense collection for
// dashboards and export.
type AnalyticsService struct {
	db *gorm.DB
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

func (s *AnalyticsService) ranged(r DateRange) *gorm.DB {
	db := s.db.Model(&models.Expense{})
	if r.From != nil {
		db = db.Where("date >= ?", *r.From)
	}
	if r.To != nil {
		db = db.Where("date <= ?", *r.To)
	}
	return db
}

// ByCategory groups expenses by category, highest total first. Categories
// with no expenses in range are omitted.
func (s *AnalyticsService) ByCategory(r DateRange) ([]CategorySummary, error) {
	var out []CategorySummary
	err := s.ranged(r).
		Select("category, COUNT(*) AS count, SUM(amount) AS total_amount, AVG(amount) AS average_amount, MIN(amount) AS min_amount, MAX(amount) AS max_amount").
		Group("category").
		Order("total_amount desc").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("category summary: %w", err)
	}
	return out, nil
}

// ByStatus groups expenses by review status, sorted by status label.
// Statuses with no expenses in range are omitted.
func (s *AnalyticsService) ByStatus(r DateRange) ([]StatusSummary, error) {
	var out []StatusSummary
	err := s.ranged(r).
		Select("status, COUNT(*) AS count, SUM(amount) AS total_amount, AVG(amount) AS average_amount").
		Group("status").
		Order("status asc").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("status summary: %w", err)
	}
	return out, nil
}

// Trend buckets expenses per calendar day across the range, zero-filling
// days with no activity so the caller always gets one point per day. A
// missing range defaults to the trailing 30 days.
func (s *AnalyticsService) Trend(r DateRange) ([]TrendPoint, error) {
	now := time.Now().UTC()
	from := query.DayStart(now.AddDate(0, 0, -30))
	to := query.DayEnd(now)
	if r.From != nil {
		from = query.DayStart(*r.From)
	}
	if r.To != nil {
		to = query.DayEnd(*r.To)
	}

	var rows []TrendPoint
	err := s.db.Model(&models.Expense{}).
		Select("strftime('%Y-%m-%d', date) AS date, COUNT(*) AS count, SUM(amount) AS total_amount").
		Where("date >= ? AND date <= ?", from, to).
		Group("date").
		Order("date asc").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("trend summary: %w", err)
	}

	byDay := make(map[string]TrendPoint, len(rows))
	for _, row := range rows {
		byDay[row.Date] = row
	}

	var points []TrendPoint
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		if row, ok := byDay[key]; ok {
			points = append(points, row)
			continue
		}
		points = append(points, TrendPoint{Date: key})
	}
	return points, nil
}

// Monthly groups expenses by calendar month, oldest first, capped to the
// most recent 12 months with activity.
func (s *AnalyticsService) Monthly(r DateRange) ([]MonthSummary, error) {
	var out []MonthSummary
	err := s.ranged(r).
		Select("strftime('%Y-%m', date) AS month, COUNT(*) AS count, SUM(amount) AS total_amount").
		Group("month").
		Order("month desc").
		Limit(12).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("monthly summary: %w", err)
	}

	// Reverse to ascending for charting.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// PendingCount reports how many expenses currently await review.
func (s *AnalyticsService) PendingCount() (int64, error) {
	var count int64
	err := s.db.Model(&models.Expense{}).
		Where("status = ?", models.StatusPending).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("pending count: %w", err)
	}
	return count, nil
}
