// Package auth is a stand-in for real authentication. Sign-in and sign-up
// only validate that the form fields are filled in; credentials are never
// checked. A successful call returns a signed HS256 token identifying the
// user, which the HTTP guard accepts on protected routes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caffeineduck/codecollab/internal/apperr"
	"github.com/caffeineduck/codecollab/internal/latency"
	jwt "github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

// DefaultTokenTTL is how long issued tokens stay valid.
const DefaultTokenTTL = 24 * time.Hour

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrNotImplemented = errors.New("not implemented")
)

var providers = map[string]string{
	"google": "Google",
	"github": "GitHub",
}

// Identity is who a token was issued to.
type Identity struct {
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

// Session is the result of a successful sign-in or sign-up.
type Session struct {
	Token     string    `json:"token"`
	Identity  Identity  `json:"identity"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Claims is the JWT payload.
type Claims struct {
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	jwt.StandardClaims
}

// Service issues and verifies tokens.
type Service struct {
	key   []byte
	ttl   time.Duration
	delay time.Duration
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithDelay adds an artificial delay to SignIn and SignUp.
func WithDelay(d time.Duration) Option {
	return func(s *Service) {
		s.delay = d
	}
}

// NewService returns a Service signing with secret. An empty secret is
// replaced by a random one, so tokens do not survive a restart.
func NewService(secret string, opts ...Option) *Service {
	if secret == "" {
		secret = uuid.NewString()
	}
	s := &Service{
		key: []byte(secret),
		ttl: DefaultTokenTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignIn accepts any non-blank email and password.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return Session{}, apperr.NewClientError("Email and password are required")
	}
	if err := latency.Simulate(ctx, s.delay); err != nil {
		return Session{}, err
	}
	return s.Issue(Identity{Email: email})
}

// SignUp accepts any non-blank username, email and password.
func (s *Service) SignUp(ctx context.Context, username, email, password string) (Session, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return Session{}, apperr.NewClientError("All fields are required")
	}
	if err := latency.Simulate(ctx, s.delay); err != nil {
		return Session{}, err
	}
	return s.Issue(Identity{Email: email, Username: username})
}

// OAuth is the placeholder for third-party sign-in. For a known provider it
// returns the user-facing notice together with ErrNotImplemented.
func (s *Service) OAuth(provider string) (string, error) {
	name, ok := providers[strings.ToLower(provider)]
	if !ok {
		return "", apperr.NewClientError(fmt.Sprintf("Unsupported sign-in provider: %s", provider))
	}
	return name + " sign-in would be implemented here", ErrNotImplemented
}

// Issue signs a token for id.
func (s *Service) Issue(id Identity) (Session, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := &Claims{
		Email:    id.Email,
		Username: id.Username,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Subject:   id.Email,
			IssuedAt:  now.Unix(),
			ExpiresAt: expires.Unix(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	return Session{Token: token, Identity: id, ExpiresAt: expires}, nil
}

// Parse verifies token and returns the identity it carries.
func (s *Service) Parse(token string) (Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Email == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{Email: claims.Email, Username: claims.Username}, nil
}
