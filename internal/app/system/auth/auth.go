// Package auth issues and verifies bearer tokens and carries the signed-in
// staff member through the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinSecretLen is the shortest signing secret accepted in production.
const MinSecretLen = 32

// ErrInvalidToken covers malformed, expired and wrongly signed tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// SessionUser is the user injected into r.Context() for authenticated requests.
type SessionUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UserFetcher loads the current state of a user on every request so that
// role changes and disabled accounts take effect before the token expires.
// It returns nil when the user is missing or disabled.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

// Claims is the JWT payload.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs tokens and provides the auth middleware.
type Manager struct {
	secret  []byte
	ttl     time.Duration
	fetcher UserFetcher
	log     *zap.Logger
}

// NewManager builds a Manager. An empty secret is rejected.
func NewManager(secret string, ttl time.Duration, logger *zap.Logger) (*Manager, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is empty; provide %d+ random chars", MinSecretLen)
	}
	if len(secret) < MinSecretLen {
		logger.Warn("jwt secret is short", zap.Int("length", len(secret)), zap.Int("recommended", MinSecretLen))
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl, log: logger}, nil
}

// SetUserFetcher installs the fetcher used by Authenticate.
func (m *Manager) SetUserFetcher(f UserFetcher) { m.fetcher = f }

// TTL returns the token lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// IssueToken returns a signed HS256 token for u and its expiry.
func (m *Manager) IssueToken(u SessionUser) (string, time.Time, error) {
	exp := time.Now().Add(m.ttl)
	claims := &Claims{
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	return tok, exp, err
}

// ParseToken verifies signature, algorithm and expiry.
func (m *Manager) ParseToken(s string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(s, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tok.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate requires a valid bearer token. The token is read from the
// Authorization header, or from ?token= for WebSocket upgrades where
// browsers cannot set headers.
func (m *Manager) Authenticate(next http.Handler) http.Handler {
	return m.authenticate(next, TokenFromRequest)
}

// AuthenticateFiles is Authenticate for file downloads: it also accepts
// ?token= on plain GETs, since links and <img> tags cannot set headers.
func (m *Manager) AuthenticateFiles(next http.Handler) http.Handler {
	return m.authenticate(next, func(r *http.Request) string {
		if raw := TokenFromRequest(r); raw != "" {
			return raw
		}
		return r.URL.Query().Get("token")
	})
}

func (m *Manager) authenticate(next http.Handler, token func(*http.Request) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := token(r)
		if raw == "" {
			httpx.Unauthorized(w, "Authentication required")
			return
		}
		claims, err := m.ParseToken(raw)
		if err != nil {
			httpx.Unauthorized(w, "Invalid or expired token")
			return
		}

		u := &SessionUser{ID: claims.Subject, Name: claims.Name, Email: claims.Email, Role: claims.Role}
		if m.fetcher != nil {
			u = m.fetcher.FetchUser(r.Context(), claims.Subject)
			if u == nil {
				httpx.Unauthorized(w, "Account not found or disabled")
				return
			}
		}
		next.ServeHTTP(w, withUser(r, u))
	})
}

// TokenFromRequest extracts the raw token, or "".
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			return strings.TrimSpace(h[7:])
		}
		return ""
	}
	if websocketUpgrade(r) {
		return r.URL.Query().Get("token")
	}
	return ""
}

func websocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// RequireRole rejects anonymous requests with 401 and users outside the
// allowed roles with 403.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				httpx.Unauthorized(w, "Authentication required")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				httpx.Forbidden(w, "You do not have permission to perform this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the authenticated user, if any.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser injects u without a token. Tests only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// HashPassword returns a bcrypt hash.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
