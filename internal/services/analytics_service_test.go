package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/reimbly/backend/internal/models"
	"github.com/reimbly/backend/internal/query"
)

func seedExpense(t *testing.T, db *gorm.DB, userID uint, amount float64, category, status string, date time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.Expense{
		UUID:     uuid.NewString(),
		UserID:   userID,
		Amount:   amount,
		Category: category,
		Status:   status,
		Date:     date,
	}).Error)
}

func TestAnalyticsService_ByCategory(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "Owner", models.RoleEmployee)
	service := NewAnalyticsService(db)

	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	seedExpense(t, db, user.ID, 100, "travel", models.StatusApproved, day)
	seedExpense(t, db, user.ID, 300, "travel", models.StatusPending, day)
	seedExpense(t, db, user.ID, 50, "food", models.StatusApproved, day)

	out, err := service.ByCategory(DateRange{})
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Highest total first
	assert.Equal(t, "travel", out[0].Category)
	assert.Equal(t, int64(2), out[0].Count)
	assert.Equal(t, 400.0, out[0].TotalAmount)
	assert.Equal(t, 200.0, out[0].AverageAmount)
	assert.Equal(t, 100.0, out[0].MinAmount)
	assert.Equal(t, 300.0, out[0].MaxAmount)

	assert.Equal(t, "food", out[1].Category)
	assert.Equal(t, 50.0, out[1].TotalAmount)
}

func TestAnalyticsService_ByCategoryDateRange(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "Owner", models.RoleEmployee)
	service := NewAnalyticsService(db)

	seedExpense(t, db, user.ID, 10, "food", models.StatusPending, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
	seedExpense(t, db, user.ID, 20, "food", models.StatusPending, time.Date(2026, 2, 5, 9, 0, 0, 0, time.UTC))

	from := query.DayStart(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	out, err := service.ByCategory(DateRange{From: &from})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].Count)
	assert.Equal(t, 20.0, out[0].TotalAmount)
}

func TestAnalyticsService_ByStatus(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "Owner", models.RoleEmployee)
	service := NewAnalyticsService(db)

	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	seedExpense(t, db, user.ID, 10, "food", models.StatusPending, day)
	seedExpense(t, db, user.ID, 30, "food", models.StatusPending, day)
	seedExpense(t, db, user.ID, 99, "travel", models.StatusApproved, day)

	out, err := service.ByStatus(DateRange{})
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Sorted by status label; rejected is absent entirely
	assert.Equal(t, models.StatusApproved, out[0].Status)
	assert.Equal(t, int64(1), out[0].Count)
	assert.Equal(t, models.StatusPending, out[1].Status)
	assert.Equal(t, int64(2), out[1].Count)
	assert.Equal(t, 40.0, out[1].TotalAmount)
	assert.Equal(t, 20.0, out[1].AverageAmount)
}

func TestAnalyticsService_TrendZeroFills(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "Owner", models.RoleEmployee)
	service := NewAnalyticsService(db)

	seedExpense(t, db, user.ID, 10, "food", models.StatusPending, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	seedExpense(t, db, user.ID, 15, "food", models.StatusPending, time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
	seedExpense(t, db, user.ID, 40, "travel", models.StatusPending, time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC))

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	points, err := service.Trend(DateRange{From: &from, To: &to})
	require.NoError(t, err)

	// One point per calendar day, quiet days included
	require.Len(t, points, 5)
	assert.Equal(t, "2026-03-01", points[0].Date)
	assert.Equal(t, int64(2), points[0].Count)
	assert.Equal(t, 25.0, points[0].TotalAmount)
	assert.Equal(t, int64(0), points[1].Count)
	assert.Equal(t, int64(0), points[2].Count)
	assert.Equal(t, "2026-03-04", points[3].Date)
	assert.Equal(t, int64(1), points[3].Count)
	assert.Equal(t, int64(0), points[4].Count)
}

func TestAnalyticsService_TrendDefaultsToTrailingMonth(t *testing.T) {
	db := setupTestDB(t)
	service := NewAnalyticsService(db)

	points, err := service.Trend(DateRange{})
	require.NoError(t, err)
	assert.Len(t, points, 31)
	for _, p := range points {
		assert.Zero(t, p.Count)
	}
}

func TestAnalyticsService_Monthly(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "Owner", models.RoleEmployee)
	service := NewAnalyticsService(db)

	seedExpense(t, db, user.ID, 10, "food", models.StatusPending, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	seedExpense(t, db, user.ID, 20, "food", models.StatusPending, time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC))
	seedExpense(t, db, user.ID, 5, "food", models.StatusPending, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))

	out, err := service.Monthly(DateRange{})
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Ascending by month for charting
	assert.Equal(t, "2026-01", out[0].Month)
	assert.Equal(t, int64(2), out[0].Count)
	assert.Equal(t, 30.0, out[0].TotalAmount)
	assert.Equal(t, "2026-03", out[1].Month)
	assert.Equal(t, 5.0, out[1].TotalAmount)
}

func TestAnalyticsService_PendingCount(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "Owner", models.RoleEmployee)
	service := NewAnalyticsService(db)

	day := time.Now().UTC()
	seedExpense(t, db, user.ID, 10, "food", models.StatusPending, day)
	seedExpense(t, db, user.ID, 10, "food", models.StatusApproved, day)
	seedExpense(t, db, user.ID, 10, "food", models.StatusPending, day)

	count, err := service.PendingCount()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
