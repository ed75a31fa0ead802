// Package dedup suppresses repeated identical events per endpoint. An
// endpoint with skip_dups > 0 drops an event whose content hash equals the
// previous one delivered within the window.
package dedup

import (
	"context"
	"time"

	"github.com/alttch/roboger/internal/logger"
	"github.com/alttch/roboger/pkg/metrics"
)

type Service interface {
	// Allow reports whether the event with the given content hash may be
	// delivered through the endpoint. windowSec <= 0 disables dedup.
	Allow(ctx context.Context, endpointID, hash string, windowSec int) bool
}

type service struct {
	repo   Repository
	logger logger.Logger
}

func NewService(repo Repository, log logger.Logger) Service {
	return &service{repo: repo, logger: log}
}

func (s *service) Allow(ctx context.Context, endpointID, hash string, windowSec int) bool {
	if windowSec <= 0 {
		return true
	}

	window := time.Duration(windowSec) * time.Second

	last, err := s.repo.LastHash(ctx, endpointID)
	if err != nil {
		// Store trouble must not block delivery.
		s.logger.WarnwCtx(ctx, "dedup store unavailable, allowing event",
			"endpoint_id", endpointID, "error", err)
		metrics.FallbackUsageTotal.WithLabelValues("dedup", "allow").Inc()
		return true
	}

	if last == hash {
		metrics.DedupTotal.WithLabelValues("suppressed").Inc()
		return false
	}

	if err := s.repo.SetLastHash(ctx, endpointID, hash, window); err != nil {
		s.logger.WarnwCtx(ctx, "dedup store write failed",
			"endpoint_id", endpointID, "error", err)
		metrics.FallbackUsageTotal.WithLabelValues("dedup", "allow").Inc()
	}

	metrics.DedupTotal.WithLabelValues("allowed").Inc()
	return true
}
