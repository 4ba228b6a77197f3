package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/inventory-ds/inventory-ds/internal/rbac"
	"github.com/inventory-ds/inventory-ds/internal/shared"
)

// SessionEvents receives login and logout notifications for the audit trail.
type SessionEvents interface {
	LogLogin(ctx context.Context, p rbac.Principal)
	LogLogout(ctx context.Context, p rbac.Principal, session time.Duration)
}

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	sessions *shared.SessionManager
	events   SessionEvents
	now      func() time.Time
	compare  func(hash, password []byte) error
}

// absentUserHash is checked on unknown usernames so that path costs one bcrypt
// comparison like a wrong password does.
var absentUserHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("absent-user"), bcrypt.DefaultCost)
	return hash
})

// NewService constructs a new Service.
func NewService(repo Repository, sessions *shared.SessionManager, events SessionEvents) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
		compare:  bcrypt.CompareHashAndPassword,
	}
}

// Authenticate validates username/password credentials. Storage faults surface as
// such; every other failure is ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrStorageUnavailable) {
			return nil, err
		}
		_ = s.compare(absentUserHash(), []byte(password))
		return nil, shared.ErrInvalidCredentials
	}
	if err := s.compare([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and opens a session.
func (s *Service) Login(ctx context.Context, username, password string) (*shared.Session, rbac.Principal, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, rbac.Principal{}, err
	}
	p := user.Principal()
	sess, err := s.sessions.Create(ctx, shared.Session{
		UserID:       p.ID,
		Username:     p.Username,
		Role:         string(p.Role),
		Capabilities: p.Capabilities.Encode(),
	})
	if err != nil {
		return nil, rbac.Principal{}, err
	}
	if s.events != nil {
		s.events.LogLogin(ctx, p)
	}
	return sess, p, nil
}

// Logout destroys the session and records its duration.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return err
	}
	if s.events != nil {
		p := rbac.NewPrincipal(sess.UserID, sess.Username, sess.Role, sess.Capabilities)
		s.events.LogLogout(ctx, p, sess.Duration(s.now()))
	}
	return nil
}

// Resolve maps a session id to the current principal. Role and capabilities are
// reloaded from storage so changes apply to open sessions; a session whose user
// no longer exists is destroyed.
func (s *Service) Resolve(ctx context.Context, sessionID string) (*shared.Session, rbac.Principal, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, rbac.Principal{}, err
	}
	user, err := s.repo.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			_ = s.sessions.Destroy(ctx, sessionID)
			return nil, rbac.Principal{}, shared.ErrSessionNotFound
		}
		return nil, rbac.Principal{}, err
	}
	return sess, user.Principal(), nil
}
