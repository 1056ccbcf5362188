package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"shopsense/internal/models"
)

var ErrInvalidTransition = errors.New("invalid screen transition")

const demoEmail = "alex@example.com"

type Service struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewService(store Store, ttl time.Duration) *Service {
	return &Service{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Login is simulated: any address is accepted and the session moves
// straight on to the permission step.
func (s *Service) Login(ctx context.Context, email string) (*models.Session, error) {
	sess := &models.Session{
		ID:        uuid.NewString(),
		User:      profileFor(email),
		Screen:    models.ScreenPermissions,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Save(ctx, sess, s.ttl); err != nil {
		return nil, err
	}
	slog.Info("User logged in", "session_id", sess.ID, "email", sess.User.Email)
	return sess, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Session, error) {
	return s.store.Get(ctx, id)
}

// SetPermission records the grant or skip decision. It is only valid on
// the permission screen.
func (s *Service) SetPermission(ctx context.Context, id string, grant bool) (*models.Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Screen != models.ScreenPermissions {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sess.Screen, models.ScreenDashboard)
	}

	sess.HasPermission = grant
	sess.Screen = models.ScreenDashboard
	if err := s.store.Save(ctx, sess, s.remaining(sess)); err != nil {
		return nil, err
	}
	slog.Info("Permission decided", "session_id", sess.ID, "granted", grant)
	return sess, nil
}

// Dashboard returns the session if it has reached the dashboard.
func (s *Service) Dashboard(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Screen != models.ScreenDashboard {
		return nil, fmt.Errorf("%w: dashboard not reachable from %s", ErrInvalidTransition, sess.Screen)
	}
	return sess, nil
}

// Logout destroys the session together with its profile and permission.
func (s *Service) Logout(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("User logged out", "session_id", id)
	return nil
}

// remaining keeps the original expiry when a session is rewritten.
func (s *Service) remaining(sess *models.Session) time.Duration {
	left := s.ttl - s.now().Sub(sess.CreatedAt)
	if left < time.Second {
		return time.Second
	}
	return left
}

func profileFor(email string) models.UserProfile {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == demoEmail {
		return models.UserProfile{Name: "Alex Mercer", Email: email}
	}

	local, _, _ := strings.Cut(email, "@")
	words := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	name := cases.Title(language.English).String(strings.Join(words, " "))
	if name == "" {
		name = "Shopper"
	}
	return models.UserProfile{Name: name, Email: email}
}
