package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tutormatch/tutormatch-api/internal/models"
	appErrors "github.com/tutormatch/tutormatch-api/pkg/errors"
)

const sessionRevokedEvent = "revoked"

func sessionKey(id string) string     { return "session:" + id }
func sessionChannel(id string) string { return "session:" + id + ":events" }

// SessionRepository keeps signed-in sessions in Redis and broadcasts their changes.
type SessionRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(client *redis.Client, logger *zap.Logger) *SessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRepository{client: client, logger: logger}
}

// Create stores the session until ttl elapses.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(session.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Find loads a live session. Missing or expired sessions return ErrSessionExpired.
func (r *SessionRepository) Find(ctx context.Context, id string) (*models.Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrSessionExpired
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

// Delete removes the session and notifies subscribers.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := r.client.Publish(ctx, sessionChannel(id), sessionRevokedEvent).Err(); err != nil {
		r.logger.Warn("session revoke broadcast failed", zap.String("session_id", id), zap.Error(err))
	}
	return nil
}

// Subscribe returns a channel that receives a value whenever the session changes.
// Bursts are coalesced. The channel closes when ctx is done.
func (r *SessionRepository) Subscribe(ctx context.Context, id string) (<-chan struct{}, error) {
	pubsub := r.client.Subscribe(ctx, sessionChannel(id))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe session events: %w", err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-messages:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}
