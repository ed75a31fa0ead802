package endpoint

import (
	"context"

	"github.com/alttch/roboger/internal/logger"
	"github.com/alttch/roboger/internal/plugin"
	pkgerrors "github.com/alttch/roboger/pkg/errors"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Endpoint, error)
	Get(ctx context.Context, id string) (*Endpoint, error)
	ListByAddr(ctx context.Context, addrID string) ([]Endpoint, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Endpoint, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo     Repository
	registry *plugin.Registry
	logger   logger.Logger
}

func NewService(repo Repository, registry *plugin.Registry, log logger.Logger) Service {
	return &service{repo: repo, registry: registry, logger: log}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Endpoint, error) {
	if req.AddrID == "" {
		return nil, pkgerrors.ErrValidation.WithDetail("message", "addr_id is required")
	}

	pluginName, err := ResolvePluginName(req.PluginName, req.Type)
	if err != nil {
		return nil, pkgerrors.ErrValidation.WithCause(err).WithDetail("message", err.Error())
	}

	sender, ok := s.registry.Get(pluginName)
	if !ok {
		return nil, pkgerrors.ErrValidation.
			WithDetail("message", "unknown plugin: "+pluginName)
	}

	cfg := req.Config
	if cfg == nil {
		cfg = plugin.Config{}
	}
	if err := sender.ValidateConfig(cfg); err != nil {
		return nil, pkgerrors.ErrValidation.WithCause(err).WithDetail("message", err.Error())
	}

	if req.SkipDups < 0 {
		return nil, pkgerrors.ErrValidation.WithDetail("message", "skip_dups must be non-negative")
	}

	e := &Endpoint{
		AddrID:      req.AddrID,
		PluginName:  pluginName,
		Config:      cfg,
		Active:      true,
		Description: req.Description,
		SkipDups:    req.SkipDups,
	}
	if req.Active != nil {
		e.Active = *req.Active
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	s.logger.InfowCtx(ctx, "endpoint created",
		"endpoint_id", e.ID, "addr_id", e.AddrID, "plugin", e.PluginName)
	return e, nil
}

func (s *service) Get(ctx context.Context, id string) (*Endpoint, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) ListByAddr(ctx context.Context, addrID string) ([]Endpoint, error) {
	return s.repo.ListByAddr(ctx, addrID)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Endpoint, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Config != nil {
		sender, ok := s.registry.Get(e.PluginName)
		if !ok {
			return nil, pkgerrors.ErrInternal.
				WithDetail("message", "plugin not registered: "+e.PluginName)
		}
		if err := sender.ValidateConfig(*req.Config); err != nil {
			return nil, pkgerrors.ErrValidation.WithCause(err).WithDetail("message", err.Error())
		}
		e.Config = *req.Config
	}
	if req.Active != nil {
		e.Active = *req.Active
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.SkipDups != nil {
		if *req.SkipDups < 0 {
			return nil, pkgerrors.ErrValidation.WithDetail("message", "skip_dups must be non-negative")
		}
		e.SkipDups = *req.SkipDups
	}

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}

	s.logger.InfowCtx(ctx, "endpoint updated", "endpoint_id", e.ID)
	return e, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfowCtx(ctx, "endpoint deleted", "endpoint_id", id)
	return nil
}
