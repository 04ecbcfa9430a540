package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/models"
	"github.com/omnivet/vetpms/internal/tenant"
	"gorm.io/gorm"
)

// SessionCookie is the name of the HTTP-only session cookie
const SessionCookie = "vetpms_session"

// ErrUnauthenticated indicates no valid session accompanies the
// request. Handlers translate it to 401 with the stable
// "Unauthorized" message.
var ErrUnauthenticated = errors.New("unauthenticated")

// Sessions manages server-side sessions in the tenant database
type Sessions struct {
	ttl time.Duration
	now func() time.Time
}

// NewSessions creates a session manager with the given TTL
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{ttl: ttl, now: time.Now}
}

// Create opens a session for a user and returns the session row
func (s *Sessions) Create(ctx context.Context, userID uuid.UUID) (*models.Session, error) {
	db := tenant.DBFromContext(ctx)
	if db == nil {
		return nil, fmt.Errorf("no tenant database in context")
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	sess := &models.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: s.now().Add(s.ttl),
	}

	if err := db.WithContext(ctx).Create(sess).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// CurrentUser resolves the request's session cookie to a user record.
// Missing, expired or revoked sessions yield ErrUnauthenticated.
func (s *Sessions) CurrentUser(r *http.Request) (*models.User, error) {
	ctx := r.Context()
	db := tenant.DBFromContext(ctx)
	if db == nil {
		return nil, ErrUnauthenticated
	}

	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return nil, ErrUnauthenticated
	}

	var sess models.Session
	if err := db.WithContext(ctx).First(&sess, "token = ?", c.Value).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !sess.Valid(s.now()) {
		return nil, ErrUnauthenticated
	}

	var user models.User
	if err := db.WithContext(ctx).First(&user, "id = ?", sess.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUnauthenticated
	}

	return &user, nil
}

// Revoke invalidates the session behind the given token
func (s *Sessions) Revoke(ctx context.Context, token string) error {
	db := tenant.DBFromContext(ctx)
	if db == nil {
		return fmt.Errorf("no tenant database in context")
	}
	now := s.now()
	return db.WithContext(ctx).
		Model(&models.Session{}).
		Where("token = ?", token).
		Update("revoked_at", &now).Error
}

// Cookie builds the HTTP-only cookie carrying a session token
func (s *Sessions) Cookie(sess *models.Session) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   true,
	}
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
