package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/reimbly/backend/internal/api/middleware"
	"github.com/reimbly/backend/internal/models"
	"github.com/reimbly/backend/internal/services"
)

// testEnv bundles the service graph the handlers under test need.
type testEnv struct {
	db        *gorm.DB
	recorder  *services.AuditRecorder
	expenses  *services.ExpenseService
	analytics *services.AnalyticsService
	receipts  *services.ReceiptService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := OpenTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Expense{}, &models.AuditLog{}))

	recorder := services.NewAuditRecorder(db)
	return &testEnv{
		db:        db,
		recorder:  recorder,
		expenses:  services.NewExpenseService(db, recorder, nil),
		analytics: services.NewAnalyticsService(db),
		receipts:  services.NewReceiptService(t.TempDir()),
	}
}

func (env *testEnv) createUser(t *testing.T, name, role string) *models.User {
	t.Helper()
	user := &models.User{
		UUID:  uuid.NewString(),
		Name:  name,
		Email: strings.ToLower(name) + "@example.com",
		Role:  role,
	}
	require.NoError(t, user.SetPassword("password123"))
	require.NoError(t, env.db.Create(user).Error)
	return user
}

// asUser injects an authenticated identity the way AuthMiddleware would.
func asUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, user.ID)
		c.Set(middleware.RoleKey, user.Role)
		c.Next()
	}
}

func jsonRequest(method, target string, payload interface{}) *http.Request {
	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
