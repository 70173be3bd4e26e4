package service

import (
	"context"
	"errors"
	"time"

	"github.com/tutormatch/tutormatch-api/internal/models"
	appErrors "github.com/tutormatch/tutormatch-api/pkg/errors"
)

// SessionWatcher is a session store that can publish session changes.
type SessionWatcher interface {
	Find(ctx context.Context, id string) (*models.Session, error)
	Subscribe(ctx context.Context, id string) (<-chan struct{}, error)
}

// SessionIdentityStore answers "who is signed in" for one browser session. A
// closed, expired or unknown session means nobody is.
type SessionIdentityStore struct {
	sessions  SessionWatcher
	sessionID string
	now       func() time.Time
}

// NewSessionIdentityStore binds the store to sessionID. An empty id is an anonymous viewer.
func NewSessionIdentityStore(sessions SessionWatcher, sessionID string) *SessionIdentityStore {
	return &SessionIdentityStore{sessions: sessions, sessionID: sessionID, now: time.Now}
}

// CurrentUserID implements IdentityStore.
func (s *SessionIdentityStore) CurrentUserID(ctx context.Context) (string, error) {
	if s.sessionID == "" || s.sessions == nil {
		return "", nil
	}
	session, err := s.sessions.Find(ctx, s.sessionID)
	if err != nil {
		if errors.Is(err, appErrors.ErrSessionExpired) {
			return "", nil
		}
		return "", err
	}
	if !session.ExpiresAt.IsZero() && s.now().After(session.ExpiresAt) {
		return "", nil
	}
	return session.UserID, nil
}

// IdentityChanges implements IdentityNotifier. Anonymous viewers never change.
func (s *SessionIdentityStore) IdentityChanges(ctx context.Context) (<-chan struct{}, error) {
	if s.sessionID == "" || s.sessions == nil {
		return nil, nil
	}
	return s.sessions.Subscribe(ctx, s.sessionID)
}
