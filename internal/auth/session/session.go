// Package session issues and verifies the signed bearer tokens that
// carry the user identity. A missing token is not rejected here; the
// draft facade decides which operations require a user.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/folio/internal/clock"
	"github.com/smallbiznis/folio/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const issuer = "folio"

var (
	// ErrNoSecret means the session secret is not configured.
	ErrNoSecret = errors.New("session secret not configured")

	// ErrInvalidToken covers expired, malformed and badly signed tokens.
	ErrInvalidToken = errors.New("invalid session token")
)

// Manager signs and parses session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
	log    *zap.Logger
}

type Params struct {
	fx.In

	Cfg   config.Config
	Clock clock.Clock
	Log   *zap.Logger
}

func New(p Params) *Manager {
	return &Manager{
		secret: []byte(p.Cfg.SessionSecret),
		ttl:    p.Cfg.SessionTTL,
		clock:  p.Clock,
		log:    p.Log.Named("session"),
	}
}

// Issue signs a token for the user.
func (m *Manager) Issue(userID string) (string, error) {
	if len(m.secret) == 0 {
		return "", ErrNoSecret
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}

	ttl := m.ttl
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	now := m.clock.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse verifies the token and returns the user id it carries.
func (m *Manager) Parse(tokenString string) (string, error) {
	if len(m.secret) == 0 {
		return "", ErrNoSecret
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.clock.Now),
	)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
