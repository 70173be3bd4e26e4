package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tutormatch/tutormatch-api/internal/dto"
	"github.com/tutormatch/tutormatch-api/internal/service"
	"github.com/tutormatch/tutormatch-api/pkg/response"
)

const defaultHeartbeat = 15 * time.Second

type ownerResolver interface {
	OwnerID(ctx context.Context, tutoringID string) (string, error)
}

// OwnershipStreamHandler pushes ownership changes of one tutoring over server-sent
// events for as long as the client stays connected.
type OwnershipStreamHandler struct {
	owners    ownerResolver
	sessions  service.SessionWatcher
	interval  time.Duration
	heartbeat time.Duration
	metrics   *service.MetricsService
	logger    *zap.Logger
}

// NewOwnershipStreamHandler builds the stream handler. interval is the periodic
// re-check; session revocations are pushed immediately.
func NewOwnershipStreamHandler(owners ownerResolver, sessions service.SessionWatcher, interval time.Duration, metrics *service.MetricsService, logger *zap.Logger) *OwnershipStreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OwnershipStreamHandler{
		owners:    owners,
		sessions:  sessions,
		interval:  interval,
		heartbeat: defaultHeartbeat,
		metrics:   metrics,
		logger:    logger,
	}
}

// Stream godoc
// @Summary Stream ownership changes
// @Description Server-sent events. Emits an "ownership" event on connect and on every change. Browsers may pass the token as access_token.
// @Tags Tutorings
// @Produce text/event-stream
// @Param id path string true "Tutoring ID"
// @Param access_token query string false "Access token"
// @Success 200 {object} dto.OwnershipResponse
// @Router /tutorings/{id}/ownership/stream [get]
func (h *OwnershipStreamHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	tutoringID := c.Param("id")

	ownerID, err := h.owners.OwnerID(ctx, tutoringID)
	if err != nil {
		response.Error(c, err)
		return
	}

	sessionID := ""
	if claims := claimsFromContext(c); claims != nil {
		sessionID = claims.ID
	}
	store := service.NewSessionIdentityStore(h.sessions, sessionID)
	monitor := service.NewOwnershipMonitor(store, ownerID, h.interval, h.logger, h.metrics)
	monitor.Start(ctx)
	defer monitor.Stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	last := monitor.IsOwner()
	h.send(c, tutoringID, last)

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("ownership stream closed", zap.String("tutoring_id", tutoringID))
			return
		case state := <-monitor.Updates():
			isOwner := state == service.Owner
			if isOwner == last {
				continue
			}
			last = isOwner
			h.send(c, tutoringID, isOwner)
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			c.Writer.Flush()
		}
	}
}

func (h *OwnershipStreamHandler) send(c *gin.Context, tutoringID string, isOwner bool) {
	c.SSEvent("ownership", dto.OwnershipResponse{TutoringID: tutoringID, IsOwner: isOwner})
	c.Writer.Flush()
}
