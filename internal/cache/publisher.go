package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/clarityops/console-sentinel/internal/models"
)

const statusKeyPrefix = "console-sentinel:session:"

// StatusPublisher pushes live session status snapshots into a Provider so
// CI dashboards can poll monitoring progress out-of-process. Publishing is
// best-effort: cache failures are logged, never propagated.
type StatusPublisher struct {
	provider Provider
	ttl      time.Duration
	logger   *slog.Logger
}

// NewStatusPublisher wraps a Provider; a nil provider publishes nowhere.
func NewStatusPublisher(provider Provider, ttl time.Duration, logger *slog.Logger) *StatusPublisher {
	if provider == nil {
		provider = NoopProvider{}
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusPublisher{provider: provider, ttl: ttl, logger: logger}
}

// Publish stores the status snapshot under the session key.
func (p *StatusPublisher) Publish(ctx context.Context, status models.MonitoringStatus) {
	payload, err := json.Marshal(status)
	if err != nil {
		p.logger.Warn("status snapshot marshal failed", slog.Any("error", err))
		return
	}
	if err := p.provider.Set(ctx, StatusKey(status.SessionID), payload, p.ttl); err != nil {
		p.logger.Warn("status publish failed", slog.Any("error", err))
	}
}

// StatusKey returns the cache key for a session id.
func StatusKey(sessionID string) string {
	return statusKeyPrefix + sessionID
}
