package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reimbly/backend/internal/config"
	"github.com/reimbly/backend/internal/metrics"
	"github.com/reimbly/backend/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid token")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

const tokenTTL = 24 * time.Hour

// Claims is the identity carried by the session token: the per-request
// resolved {id, role} pair the rest of the system consumes.
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles registration, login, token validation and profile
// updates.
type AuthService struct {
	db       *gorm.DB
	recorder *AuditRecorder
	secret   []byte
}

func NewAuthService(db *gorm.DB, cfg config.Config, recorder *AuditRecorder) *AuthService {
	return &AuthService{db: db, recorder: recorder, secret: []byte(cfg.JWTSecret)}
}

// Register creates a new account. The first account ever created becomes the
// admin; everyone after that registers as an employee.
func (s *AuthService) Register(name, email, password string, meta RequestMeta) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var count int64
	if err := s.db.Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	role := models.RoleEmployee
	if count == 0 {
		role = models.RoleAdmin
	}

	user := models.User{
		UUID:  uuid.New().String(),
		Name:  name,
		Email: email,
		Role:  role,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.recorder.Record(AuditEntry{
		Action:  models.ActionUserRegister,
		ActorID: user.ID,
		Details: map[string]interface{}{"role": user.Role},
		Meta:    meta,
	}); err != nil {
		return nil, err
	}

	return &user, nil
}

// Login verifies credentials and issues a signed session token.
func (s *AuthService) Login(email, password string, meta RequestMeta) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.IncLogin("failed")
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if !user.CheckPassword(password) {
		metrics.IncLogin("failed")
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(&user)
	if err != nil {
		return "", nil, err
	}

	if err := s.recorder.Record(AuditEntry{
		Action:  models.ActionUserLogin,
		ActorID: user.ID,
		Meta:    meta,
	}); err != nil {
		return "", nil, err
	}

	metrics.IncLogin("ok")
	return token, &user, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UUID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a session token.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GetUserByID loads a user by primary key.
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// ProfileUpdate is the set of changes a user may apply to their own account.
// A password change requires the current password.
type ProfileUpdate struct {
	Name            string
	Email           string
	CurrentPassword string
	NewPassword     string
}

// UpdateProfile applies a profile update for the authenticated user.
func (s *AuthService) UpdateProfile(userID uint, upd ProfileUpdate, meta RequestMeta) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	changed := []string{}
	if upd.Name != "" && upd.Name != user.Name {
		user.Name = upd.Name
		changed = append(changed, "name")
	}
	if upd.Email != "" {
		email := strings.ToLower(strings.TrimSpace(upd.Email))
		if email != user.Email {
			user.Email = email
			changed = append(changed, "email")
		}
	}
	if upd.NewPassword != "" {
		if !user.CheckPassword(upd.CurrentPassword) {
			return nil, ErrWrongPassword
		}
		if err := user.SetPassword(upd.NewPassword); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		changed = append(changed, "password")
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	if err := s.recorder.Record(AuditEntry{
		Action:  models.ActionUserUpdate,
		ActorID: user.ID,
		Details: map[string]interface{}{"updatedFields": changed},
		Meta:    meta,
	}); err != nil {
		return nil, err
	}

	return user, nil
}
