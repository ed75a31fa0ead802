// Package limits enforces per-address event quotas. A slice of each quota
// is reserved for WARNING and above, so routine INFO chatter cannot starve
// out alerts.
package limits

import (
	"context"

	"github.com/alttch/roboger/internal/config"
	"github.com/alttch/roboger/internal/constants"
	"github.com/alttch/roboger/internal/logger"
	pkgerrors "github.com/alttch/roboger/pkg/errors"
	"github.com/alttch/roboger/pkg/metrics"
	"github.com/alttch/roboger/pkg/models"
)

// Quota is the per-address limit pair. Zero means unlimited.
type Quota struct {
	Count int64
	Size  int64
}

type Service interface {
	// Admit checks the addr's quota for one event of the given byte size
	// and, when admitted, records the usage. Returns ErrOverlimit when the
	// quota is exhausted.
	Admit(ctx context.Context, addrID string, quota Quota, size int64, level int) error
}

type service struct {
	repo   Repository
	cfg    config.LimitsConfig
	logger logger.Logger
}

func NewService(repo Repository, cfg config.LimitsConfig, log logger.Logger) Service {
	if cfg.Period <= 0 {
		cfg.Period = constants.DefaultLimitPeriod
	}
	if cfg.ReserveFraction == 0 {
		cfg.ReserveFraction = constants.DefaultReserveFraction
	}
	return &service{repo: repo, cfg: cfg, logger: log}
}

func (s *service) Admit(ctx context.Context, addrID string, quota Quota, size int64, level int) error {
	if !s.cfg.Enabled || (quota.Count <= 0 && quota.Size <= 0) {
		return nil
	}

	count, used, err := s.repo.Usage(ctx, addrID)
	if err != nil {
		return s.storeError(ctx, addrID, err)
	}

	// Events below WARNING may only use the unreserved part of the quota.
	reserved := level < models.LevelWarning

	if quota.Count > 0 {
		limit := quota.Count
		if reserved {
			limit = unreserved(quota.Count, s.cfg.ReserveFraction)
		}
		if count >= limit {
			metrics.LimiterTotal.WithLabelValues("rejected").Inc()
			return pkgerrors.ErrOverlimit.WithDetail("addr_id", addrID)
		}
	}

	if quota.Size > 0 {
		limit := quota.Size
		if reserved {
			limit = unreserved(quota.Size, s.cfg.ReserveFraction)
		}
		if used+size > limit {
			metrics.LimiterTotal.WithLabelValues("rejected").Inc()
			return pkgerrors.ErrOverlimit.WithDetail("addr_id", addrID)
		}
	}

	if err := s.repo.Record(ctx, addrID, size, s.cfg.Period); err != nil {
		return s.storeError(ctx, addrID, err)
	}

	metrics.LimiterTotal.WithLabelValues("admitted").Inc()
	return nil
}

func (s *service) storeError(ctx context.Context, addrID string, err error) error {
	if s.cfg.OnStoreError == constants.FallbackDeny {
		s.logger.WarnwCtx(ctx, "limiter store unavailable, rejecting event",
			"addr_id", addrID, "error", err)
		metrics.FallbackUsageTotal.WithLabelValues("limiter", "deny").Inc()
		return pkgerrors.ErrOverlimit.WithCause(err)
	}

	s.logger.WarnwCtx(ctx, "limiter store unavailable, allowing event",
		"addr_id", addrID, "error", err)
	metrics.FallbackUsageTotal.WithLabelValues("limiter", "allow").Inc()
	return nil
}

// unreserved returns the part of the quota available to sub-WARNING
// events.
func unreserved(quota int64, reserve float64) int64 {
	return quota - int64(float64(quota)*reserve)
}
