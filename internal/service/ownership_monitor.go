package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tutormatch/tutormatch-api/internal/models"
)

// DefaultOwnershipRecheckInterval is how often a monitor re-reads the identity store.
const DefaultOwnershipRecheckInterval = 30 * time.Second

// IdentityStore reports who is signed in. An empty id means nobody is.
type IdentityStore interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// IdentityNotifier is implemented by identity stores that can push changes. Each
// value received on the channel triggers an immediate re-check. The channel closes
// when ctx is done.
type IdentityNotifier interface {
	IdentityChanges(ctx context.Context) (<-chan struct{}, error)
}

// IdentityFunc adapts a plain function to IdentityStore.
type IdentityFunc func(ctx context.Context) (string, error)

// CurrentUserID implements IdentityStore.
func (f IdentityFunc) CurrentUserID(ctx context.Context) (string, error) {
	return f(ctx)
}

// OwnershipState is the two-valued result of an ownership evaluation.
type OwnershipState int

const (
	NotOwner OwnershipState = iota
	Owner
)

func (s OwnershipState) String() string {
	if s == Owner {
		return "owner"
	}
	return "not_owner"
}

// ComputeOwnership reports whether the signed-in user owns the resource. Both ids
// must be present and equal.
func ComputeOwnership(currentUserID, ownerID string) bool {
	return currentUserID != "" && ownerID != "" && currentUserID == ownerID
}

// ResolveOwnerID prefers the tutoring's tutor id and falls back to the embedded tutor.
func ResolveOwnerID(tutorID string, tutor *models.User) string {
	if tutorID != "" {
		return tutorID
	}
	if tutor != nil {
		return tutor.ID
	}
	return ""
}

// OwnershipMonitor keeps an ownership state fresh for one resource view. It
// evaluates on Start, whenever the owner changes, on every interval tick and on
// identity pushes when the store supports them. Any identity failure resolves to
// NotOwner.
type OwnershipMonitor struct {
	identity IdentityStore
	interval time.Duration
	logger   *zap.Logger
	metrics  *MetricsService

	mu         sync.Mutex
	ownerID    string
	generation uint64
	state      OwnershipState
	running    bool
	cancel     context.CancelFunc
	done       chan struct{}
	updates    chan OwnershipState
}

// NewOwnershipMonitor builds a stopped monitor for ownerID.
func NewOwnershipMonitor(identity IdentityStore, ownerID string, interval time.Duration, logger *zap.Logger, metrics *MetricsService) *OwnershipMonitor {
	if interval <= 0 {
		interval = DefaultOwnershipRecheckInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OwnershipMonitor{
		identity: identity,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
		ownerID:  ownerID,
		state:    NotOwner,
		updates:  make(chan OwnershipState, 1),
	}
}

// Start evaluates immediately and launches the periodic re-check. Calling Start on
// a running monitor is a no-op.
func (m *OwnershipMonitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	m.running = true
	m.mu.Unlock()

	m.metrics.MonitorStarted()
	m.Check(runCtx)

	var changes <-chan struct{}
	if notifier, ok := m.identity.(IdentityNotifier); ok {
		ch, err := notifier.IdentityChanges(runCtx)
		if err != nil {
			m.logger.Warn("identity push unavailable, polling only", zap.Error(err))
		} else {
			changes = ch
		}
	}

	go m.loop(runCtx, changes, done)
}

// Stop cancels the re-check and waits for it to exit. Safe to call more than once.
func (m *OwnershipMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel, done := m.cancel, m.done
	m.running = false
	m.mu.Unlock()

	cancel()
	<-done
	m.metrics.MonitorStopped()
}

// SetOwner swaps the owner reference and re-evaluates when it actually changed.
func (m *OwnershipMonitor) SetOwner(ctx context.Context, ownerID string) {
	m.mu.Lock()
	if ownerID == m.ownerID {
		m.mu.Unlock()
		return
	}
	m.ownerID = ownerID
	m.generation++
	m.mu.Unlock()

	m.Check(ctx)
}

// IsOwner returns the last evaluated state.
func (m *OwnershipMonitor) IsOwner() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Owner
}

// Updates delivers state transitions. Only the latest unread transition is kept.
func (m *OwnershipMonitor) Updates() <-chan OwnershipState {
	return m.updates
}

// Check evaluates ownership now and returns the resulting state. A result computed
// for an owner that was replaced mid-check is discarded.
func (m *OwnershipMonitor) Check(ctx context.Context) OwnershipState {
	m.mu.Lock()
	ownerID, generation := m.ownerID, m.generation
	m.mu.Unlock()

	next := NotOwner
	if ComputeOwnership(m.currentUserID(ctx), ownerID) {
		next = Owner
	}
	m.metrics.ObserveOwnershipCheck(next == Owner)

	m.mu.Lock()
	defer m.mu.Unlock()
	if generation != m.generation {
		return m.state
	}
	if next != m.state {
		m.state = next
		select {
		case <-m.updates:
		default:
		}
		m.updates <- next
	}
	return m.state
}

func (m *OwnershipMonitor) loop(ctx context.Context, changes <-chan struct{}, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			m.Check(ctx)
		}
	}
}

func (m *OwnershipMonitor) currentUserID(ctx context.Context) (id string) {
	if m.identity == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("identity store panicked", zap.String("panic", fmt.Sprint(r)))
			id = ""
		}
	}()

	id, err := m.identity.CurrentUserID(ctx)
	if err != nil {
		m.logger.Debug("identity lookup failed", zap.Error(err))
		return ""
	}
	return id
}
