package subscription

import (
	"context"

	"github.com/alttch/roboger/internal/endpoint"
	"github.com/alttch/roboger/internal/logger"
	"github.com/alttch/roboger/pkg/cel"
	pkgerrors "github.com/alttch/roboger/pkg/errors"
	"github.com/alttch/roboger/pkg/models"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Subscription, error)
	Get(ctx context.Context, id string) (*Subscription, error)
	ListByEndpoint(ctx context.Context, endpointID string) ([]Subscription, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Subscription, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo      Repository
	endpoints endpoint.Repository
	evaluator *cel.Evaluator
	logger    logger.Logger
}

func NewService(repo Repository, endpoints endpoint.Repository, evaluator *cel.Evaluator, log logger.Logger) Service {
	return &service{repo: repo, endpoints: endpoints, evaluator: evaluator, logger: log}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Subscription, error) {
	if req.EndpointID == "" {
		return nil, pkgerrors.ErrValidation.WithDetail("message", "endpoint_id is required")
	}

	ep, err := s.endpoints.Get(ctx, req.EndpointID)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		EndpointID: ep.ID,
		AddrID:     ep.AddrID,
		Active:     true,
		Location:   req.Location,
		Tags:       normalizeList(req.Tags),
		Senders:    normalizeList(req.Senders),
		Level:      models.LevelInfo,
		LevelMatch: models.LevelMatchGE,
		Filter:     req.Filter,
	}
	if req.Active != nil {
		sub.Active = *req.Active
	}
	if req.Level != nil {
		sub.Level = models.ParseLevel(req.Level)
	}
	if req.LevelMatch != "" {
		sub.LevelMatch = req.LevelMatch
	}

	if err := s.validate(sub); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.InfowCtx(ctx, "subscription created",
		"subscription_id", sub.ID, "endpoint_id", sub.EndpointID)
	return sub, nil
}

func (s *service) Get(ctx context.Context, id string) (*Subscription, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) ListByEndpoint(ctx context.Context, endpointID string) ([]Subscription, error) {
	return s.repo.ListByEndpoint(ctx, endpointID)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Subscription, error) {
	sub, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Active != nil {
		sub.Active = *req.Active
	}
	if req.Location != nil {
		sub.Location = *req.Location
	}
	if req.Tags != nil {
		sub.Tags = normalizeList(req.Tags)
	}
	if req.Senders != nil {
		sub.Senders = normalizeList(req.Senders)
	}
	if req.Level != nil {
		sub.Level = models.ParseLevel(req.Level)
	}
	if req.LevelMatch != nil {
		sub.LevelMatch = *req.LevelMatch
	}
	if req.Filter != nil {
		sub.Filter = *req.Filter
	}

	if err := s.validate(sub); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.InfowCtx(ctx, "subscription updated", "subscription_id", sub.ID)
	return sub, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfowCtx(ctx, "subscription deleted", "subscription_id", id)
	return nil
}

func (s *service) validate(sub *Subscription) error {
	if !models.IsValidLevel(sub.Level) {
		return pkgerrors.ErrValidation.WithDetail("message", "invalid level")
	}
	if !models.IsValidLevelMatch(sub.LevelMatch) {
		return pkgerrors.ErrValidation.WithDetail("message", "invalid level_match, expected one of e/g/l/ge/le")
	}
	if sub.Filter != "" {
		if err := s.evaluator.ValidateFilterExpression(sub.Filter); err != nil {
			return pkgerrors.ErrValidation.WithCause(err).WithDetail("message", err.Error())
		}
	}
	return nil
}

func normalizeList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
