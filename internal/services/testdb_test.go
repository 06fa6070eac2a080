package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/reimbly/backend/internal/models"
)

// setupTestDB creates a SQLite in-memory DB unique per test and migrates the
// full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsnName := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_journal_mode=WAL&_busy_timeout=5000", dsnName)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Expense{}, &models.AuditLog{}))
	return db
}

func createUser(t *testing.T, db *gorm.DB, name, role string) *models.User {
	t.Helper()
	user := &models.User{
		UUID:  uuid.NewString(),
		Name:  name,
		Email: strings.ToLower(name) + "@example.com",
		Role:  role,
	}
	require.NoError(t, user.SetPassword("password123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

// silentNotifier records messages instead of delivering them.
func silentNotifier(captured *[]string) *NotificationService {
	n := NewNotificationService([]string{"test://local"})
	n.send = func(url, message string) error {
		if captured != nil {
			*captured = append(*captured, message)
		}
		return nil
	}
	return n
}

func countAudits(t *testing.T, db *gorm.DB, action models.AuditAction) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Where("action = ?", action).Count(&count).Error)
	return count
}
