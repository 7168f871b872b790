// Package room keeps the registry of collaboration rooms: creating them,
// joining them by invite link and expiring them after a TTL.
package room

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/caffeineduck/codecollab/internal/apperr"
	"github.com/caffeineduck/codecollab/internal/latency"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultTTL is how long a room lives after creation.
	DefaultTTL = 24 * time.Hour

	// JoinedMessage is shown after a successful join.
	JoinedMessage = "Joined room successfully!"

	// MaxPasswordLen is the longest password bcrypt can hash.
	MaxPasswordLen = 72

	idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	idLength   = 8
	idAttempts = 5
)

var (
	ErrNotFound  = errors.New("room not found")
	ErrForbidden = errors.New("incorrect room password")
)

// Room is a created room. The password hash never leaves the package.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Protected bool      `json:"protected"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`

	hash []byte
}

// CreatedMessage is the confirmation shown after the room is created.
func (r Room) CreatedMessage() string {
	return fmt.Sprintf("Room \"%s\" created successfully! Room ID: %s", r.Name, r.ID)
}

// Service is an in-memory room registry. It is safe for concurrent use.
type Service struct {
	ttl        time.Duration
	delay      time.Duration
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
	newID      func() (string, error)

	mu     sync.RWMutex
	rooms  map[string]*Room
	timers map[string]*time.Timer
}

// Option configures a Service.
type Option func(*Service)

// WithTTL sets the room lifetime.
func WithTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithDelay adds an artificial delay to Create and Join.
func WithDelay(d time.Duration) Option {
	return func(s *Service) {
		s.delay = d
	}
}

// WithBcryptCost sets the cost used to hash room passwords.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService returns an empty registry.
func NewService(opts ...Option) *Service {
	s := &Service{
		ttl:        DefaultTTL,
		bcryptCost: bcrypt.DefaultCost,
		logger:     zap.NewNop(),
		now:        time.Now,
		newID:      func() (string, error) { return gonanoid.Generate(idAlphabet, idLength) },
		rooms:      make(map[string]*Room),
		timers:     make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a room called name. A blank password makes the room
// public.
func (s *Service) Create(ctx context.Context, name, password string) (Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Room{}, apperr.NewClientError("Room name is required")
	}
	if len(password) > MaxPasswordLen {
		return Room{}, apperr.NewClientError(fmt.Sprintf("Room password must be at most %d bytes", MaxPasswordLen))
	}
	if err := latency.Simulate(ctx, s.delay); err != nil {
		return Room{}, err
	}

	now := s.now()
	r := &Room{
		Name:      name,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
		if err != nil {
			return Room{}, fmt.Errorf("hash room password: %w", err)
		}
		r.hash = hash
		r.Protected = true
	}

	s.mu.Lock()
	id, err := s.uniqueID()
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("failed to generate room id", zap.Error(err))
		return Room{}, fmt.Errorf("generate room id: %w", err)
	}
	r.ID = id
	s.rooms[id] = r
	s.timers[id] = time.AfterFunc(s.ttl, func() { s.expire(id) })
	s.mu.Unlock()

	s.logger.Info("room created", zap.String("room", id), zap.Bool("protected", r.Protected))
	return *r, nil
}

// uniqueID returns an ID no live room uses. The caller holds s.mu.
func (s *Service) uniqueID() (string, error) {
	for i := 0; i < idAttempts; i++ {
		id, err := s.newID()
		if err != nil {
			return "", err
		}
		if _, taken := s.rooms[id]; !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("no free id after %d attempts", idAttempts)
}

// Join looks up the room an invite link points at and checks its password.
func (s *Service) Join(ctx context.Context, link, password string) (Room, error) {
	if strings.TrimSpace(link) == "" {
		return Room{}, apperr.NewClientError("Room link is required")
	}
	if err := latency.Simulate(ctx, s.delay); err != nil {
		return Room{}, err
	}

	r, err := s.Get(ParseLink(link))
	if err != nil {
		return Room{}, err
	}
	if r.Protected && bcrypt.CompareHashAndPassword(r.hash, []byte(password)) != nil {
		return Room{}, ErrForbidden
	}
	return r, nil
}

// Get returns the room with the given ID.
func (s *Service) Get(id string) (Room, error) {
	s.mu.RLock()
	r, ok := s.rooms[id]
	s.mu.RUnlock()
	if !ok {
		return Room{}, ErrNotFound
	}
	if !s.now().Before(r.ExpiresAt) {
		s.expire(id)
		return Room{}, ErrNotFound
	}
	return *r, nil
}

// Len returns the number of live rooms.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Close stops all expiry timers and forgets every room.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	clear(s.rooms)
}

func (s *Service) expire(id string) {
	s.mu.Lock()
	_, ok := s.rooms[id]
	delete(s.rooms, id)
	if t, found := s.timers[id]; found {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	if ok {
		s.logger.Info("deleted expired room", zap.String("room", id))
	}
}

// ParseLink extracts a room ID from an invite link. The link may be a bare
// ID or a URL such as https://codesync.app/join/<id>.
func ParseLink(link string) string {
	link = strings.TrimSpace(link)
	if u, err := url.Parse(link); err == nil && u.Path != "" {
		link = u.Path
	}
	link = strings.TrimRight(link, "/")
	if i := strings.LastIndexByte(link, '/'); i >= 0 {
		link = link[i+1:]
	}
	return link
}
