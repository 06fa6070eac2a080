package services

import (
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reimbly/backend/internal/models"
)

func TestAuditRecorder_Record(t *testing.T) {
	db := setupTestDB(t)
	recorder := NewAuditRecorder(db)
	user := createUser(t, db, "Actor", models.RoleEmployee)

	err := recorder.Record(AuditEntry{
		Action:  models.ActionExpenseCreate,
		ActorID: user.ID,
		Details: map[string]interface{}{"amount": 12.5},
		Meta:    RequestMeta{IPAddress: "192.168.1.9", UserAgent: "curl/8.0"},
	})
	require.NoError(t, err)

	var entry models.AuditLog
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, models.ActionExpenseCreate, entry.Action)
	assert.Equal(t, user.ID, entry.UserID)
	assert.Contains(t, entry.Details, "12.5")
	assert.Equal(t, "192.168.1.9", entry.IPAddress)
	assert.Equal(t, "curl/8.0", entry.UserAgent)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestAuditRecorder_RecordValidation(t *testing.T) {
	db := setupTestDB(t)
	recorder := NewAuditRecorder(db)
	user := createUser(t, db, "Actor", models.RoleEmployee)

	err := recorder.Record(AuditEntry{Action: "cache:flush", ActorID: user.ID})
	assert.ErrorIs(t, err, ErrUnknownAuditAction)

	err = recorder.Record(AuditEntry{Action: models.ActionUserLogin})
	assert.ErrorIs(t, err, ErrMissingActor)

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAuditRecorder_RecordSanitizesMeta(t *testing.T) {
	db := setupTestDB(t)
	recorder := NewAuditRecorder(db)
	user := createUser(t, db, "Actor", models.RoleEmployee)

	longAgent := make([]byte, 600)
	for i := range longAgent {
		longAgent[i] = 'a'
	}

	err := recorder.Record(AuditEntry{
		Action:  models.ActionUserLogin,
		ActorID: user.ID,
		Meta:    RequestMeta{IPAddress: "10.0.0.1\nfake", UserAgent: string(longAgent)},
	})
	require.NoError(t, err)

	var entry models.AuditLog
	require.NoError(t, db.First(&entry).Error)
	assert.NotContains(t, entry.IPAddress, "\n")
	assert.LessOrEqual(t, len(entry.UserAgent), 512)
}

func TestAuditRecorder_List(t *testing.T) {
	db := setupTestDB(t)
	recorder := NewAuditRecorder(db)
	alice := createUser(t, db, "Alice", models.RoleEmployee)
	bob := createUser(t, db, "Bob", models.RoleEmployee)

	for i := 0; i < 3; i++ {
		require.NoError(t, recorder.Record(AuditEntry{Action: models.ActionUserLogin, ActorID: alice.ID}))
	}
	require.NoError(t, recorder.Record(AuditEntry{Action: models.ActionExpenseCreate, ActorID: bob.ID}))

	logs, pagination, err := recorder.List(url.Values{})
	require.NoError(t, err)
	assert.Len(t, logs, 4)
	assert.Equal(t, int64(4), pagination.Total)

	logs, _, err = recorder.List(url.Values{"action": {string(models.ActionExpenseCreate)}})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, bob.ID, logs[0].UserID)
	require.NotNil(t, logs[0].User)
	assert.Equal(t, bob.Email, logs[0].User.Email)

	logs, pagination, err = recorder.List(url.Values{"userId": {strconv.Itoa(int(alice.ID))}, "limit": {"2"}})
	require.NoError(t, err)
	assert.Len(t, logs, 2)
	assert.Equal(t, int64(3), pagination.Total)
	require.NotNil(t, pagination.Next)

	// Only allow-listed fields filter the audit trail
	_, _, err = recorder.List(url.Values{"ip_address": {"10.0.0.1"}})
	assert.Error(t, err)
}

func TestAuditRecorder_Stats(t *testing.T) {
	db := setupTestDB(t)
	recorder := NewAuditRecorder(db)
	alice := createUser(t, db, "Alice", models.RoleEmployee)
	bob := createUser(t, db, "Bob", models.RoleEmployee)

	for i := 0; i < 3; i++ {
		require.NoError(t, recorder.Record(AuditEntry{Action: models.ActionUserLogin, ActorID: alice.ID}))
	}
	require.NoError(t, recorder.Record(AuditEntry{Action: models.ActionExpenseCreate, ActorID: bob.ID}))

	stats, err := recorder.Stats()
	require.NoError(t, err)

	require.Len(t, stats.Actions, 2)
	assert.Equal(t, string(models.ActionUserLogin), stats.Actions[0].Action)
	assert.Equal(t, int64(3), stats.Actions[0].Count)

	require.Len(t, stats.ActiveUsers, 2)
	assert.Equal(t, alice.ID, stats.ActiveUsers[0].UserID)
	assert.Equal(t, alice.Email, stats.ActiveUsers[0].Email)
	assert.Equal(t, int64(3), stats.ActiveUsers[0].Count)

	require.NotEmpty(t, stats.Timeline)
	var total int64
	for _, day := range stats.Timeline {
		total += day.Count
	}
	assert.Equal(t, int64(4), total)
}
