package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tutormatch/tutormatch-api/internal/models"
	appErrors "github.com/tutormatch/tutormatch-api/pkg/errors"
)

type mockAuthRepo struct {
	users map[string]*models.User
	err   error
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	watchers map[string][]chan struct{}
	findErr  error
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[string]*models.Session{}, watchers: map[string][]chan struct{}{}}
}

func (m *memorySessions) Create(ctx context.Context, session *models.Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

func (m *memorySessions) Find(ctx context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, appErrors.ErrSessionExpired
	}
	cp := *s
	return &cp, nil
}

func (m *memorySessions) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	for _, ch := range m.watchers[id] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (m *memorySessions) Subscribe(ctx context.Context, id string) (<-chan struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan struct{}, 1)
	m.watchers[id] = append(m.watchers[id], ch)
	return ch, nil
}

func newAuthFixture(t *testing.T) (*AuthService, *memorySessions) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secreto123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockAuthRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "ana@example.com", PasswordHash: string(hash), FirstName: "Ana", LastName: "Pérez", Role: models.RoleTutor},
	}}
	sessions := newMemorySessions()
	svc := NewAuthService(repo, sessions, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "tutormatch-test",
	})
	return svc, sessions
}

func TestAuthServiceLoginIssuesSessionBoundToken(t *testing.T) {
	svc, sessions := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "secreto123", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "Ana", resp.User.FirstName)

	claims, err := svc.ValidateToken(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "tutormatch-test", claims.Issuer)

	session, err := sessions.Find(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", session.UserID)
	assert.Equal(t, "10.0.0.1", session.IP)
}

func TestAuthServiceLoginInvalidCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "nadie@example.com", Password: "secreto123"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "x"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthServiceLogoutInvalidatesToken(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, models.LoginRequest{Email: "ana@example.com", Password: "secreto123"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(ctx, resp.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))

	_, err = svc.ValidateToken(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrSessionExpired)
	assert.ErrorIs(t, svc.Logout(ctx, nil), appErrors.ErrUnauthorized)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateToken(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceMe(t *testing.T) {
	svc, _ := newAuthFixture(t)

	info, err := svc.Me(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTutor, info.Role)

	_, err = svc.Me(context.Background(), "ghost")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSessionIdentityStore(t *testing.T) {
	sessions := newMemorySessions()
	ctx := context.Background()
	require.NoError(t, sessions.Create(ctx, &models.Session{ID: "s1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}, time.Hour))

	store := NewSessionIdentityStore(sessions, "s1")
	id, err := store.CurrentUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	id, err = store.CurrentUserID(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)

	anonymous := NewSessionIdentityStore(sessions, "")
	id, err = anonymous.CurrentUserID(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)

	sessions.findErr = errors.New("redis down")
	_, err = NewSessionIdentityStore(sessions, "s1").CurrentUserID(ctx)
	assert.Error(t, err)
}

func TestOwnershipMonitorFollowsLogout(t *testing.T) {
	svc, sessions := newAuthFixture(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, models.LoginRequest{Email: "ana@example.com", Password: "secreto123"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(ctx, resp.AccessToken)
	require.NoError(t, err)

	monitor := NewOwnershipMonitor(NewSessionIdentityStore(sessions, claims.ID), "u1", time.Hour, nil, nil)
	monitor.Start(ctx)
	defer monitor.Stop()
	require.True(t, monitor.IsOwner())
	<-monitor.Updates()

	require.NoError(t, svc.Logout(ctx, claims))

	select {
	case state := <-monitor.Updates():
		assert.Equal(t, NotOwner, state)
	case <-time.After(time.Second):
		t.Fatal("logout did not revoke ownership")
	}
}
