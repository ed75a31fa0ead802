package addr

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/alttch/roboger/internal/constants"
	"github.com/alttch/roboger/internal/logger"
	pkgerrors "github.com/alttch/roboger/pkg/errors"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Addr, error)
	Get(ctx context.Context, id string) (*Addr, error)
	GetByToken(ctx context.Context, token string) (*Addr, error)
	List(ctx context.Context) ([]Addr, error)
	SetActive(ctx context.Context, id string, active bool) error
	SetLimits(ctx context.Context, id string, req UpdateLimitsRequest) (*Addr, error)
	ChangeToken(ctx context.Context, id string) (*Addr, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo   Repository
	logger logger.Logger
}

func NewService(repo Repository, log logger.Logger) Service {
	return &service{repo: repo, logger: log}
}

// newToken returns a fresh 64-character random hex token.
func newToken() (string, error) {
	buf := make([]byte, constants.TokenLength/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Addr, error) {
	if req.LimCount < 0 || req.LimSize < 0 {
		return nil, pkgerrors.ErrValidation.WithDetail("message", "limits must be non-negative")
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	a := &Addr{
		Token:    token,
		Active:   true,
		LimCount: req.LimCount,
		LimSize:  req.LimSize,
	}
	if req.Active != nil {
		a.Active = *req.Active
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.InfowCtx(ctx, "addr created", "addr_id", a.ID)
	return a, nil
}

func (s *service) Get(ctx context.Context, id string) (*Addr, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) GetByToken(ctx context.Context, token string) (*Addr, error) {
	return s.repo.GetByToken(ctx, token)
}

func (s *service) List(ctx context.Context) ([]Addr, error) {
	return s.repo.List(ctx)
}

func (s *service) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.logger.InfowCtx(ctx, "addr state changed", "addr_id", id, "active", active)
	return nil
}

func (s *service) SetLimits(ctx context.Context, id string, req UpdateLimitsRequest) (*Addr, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	limCount := current.LimCount
	limSize := current.LimSize
	if req.LimCount != nil {
		limCount = *req.LimCount
	}
	if req.LimSize != nil {
		limSize = *req.LimSize
	}
	if limCount < 0 || limSize < 0 {
		return nil, pkgerrors.ErrValidation.WithDetail("message", "limits must be non-negative")
	}

	if err := s.repo.SetLimits(ctx, id, limCount, limSize); err != nil {
		return nil, err
	}

	current.LimCount = limCount
	current.LimSize = limSize
	s.logger.InfowCtx(ctx, "addr limits changed", "addr_id", id,
		"lim_count", limCount, "lim_size", limSize)
	return current, nil
}

// ChangeToken invalidates the current token and returns the addr with the
// replacement. Pushes using the old token start failing immediately.
func (s *service) ChangeToken(ctx context.Context, id string) (*Addr, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	if err := s.repo.ChangeToken(ctx, id, token); err != nil {
		return nil, err
	}

	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.InfowCtx(ctx, "addr token rotated", "addr_id", id)
	return a, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfowCtx(ctx, "addr deleted", "addr_id", id)
	return nil
}
