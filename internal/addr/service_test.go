package addr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alttch/roboger/internal/logger"
	pkgerrors "github.com/alttch/roboger/pkg/errors"
)

type fakeRepo struct {
	byID map[string]*Addr
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[string]*Addr)}
}

func (f *fakeRepo) Create(_ context.Context, a *Addr) error {
	if a.ID == "" {
		a.ID = "addr-" + a.Token[:8]
	}
	cp := *a
	f.byID[a.ID] = &cp
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (*Addr, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeRepo) GetByToken(_ context.Context, token string) (*Addr, error) {
	for _, a := range f.byID {
		if a.Token == token {
			cp := *a
			return &cp, nil
		}
	}
	return nil, pkgerrors.ErrNotFound
}

func (f *fakeRepo) List(_ context.Context) ([]Addr, error) {
	var out []Addr
	for _, a := range f.byID {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeRepo) SetActive(_ context.Context, id string, active bool) error {
	a, ok := f.byID[id]
	if !ok {
		return pkgerrors.ErrNotFound
	}
	a.Active = active
	return nil
}

func (f *fakeRepo) SetLimits(_ context.Context, id string, limCount, limSize int64) error {
	a, ok := f.byID[id]
	if !ok {
		return pkgerrors.ErrNotFound
	}
	a.LimCount = limCount
	a.LimSize = limSize
	return nil
}

func (f *fakeRepo) ChangeToken(_ context.Context, id, newToken string) error {
	a, ok := f.byID[id]
	if !ok {
		return pkgerrors.ErrNotFound
	}
	a.Token = newToken
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return pkgerrors.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func TestServiceCreateGeneratesToken(t *testing.T) {
	svc := NewService(newFakeRepo(), logger.NopLogger())

	a, err := svc.Create(context.Background(), CreateRequest{})
	require.NoError(t, err)
	assert.Len(t, a.Token, 64)
	assert.True(t, a.Active)
}

func TestServiceChangeTokenRotates(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, logger.NopLogger())

	a, err := svc.Create(context.Background(), CreateRequest{})
	require.NoError(t, err)
	oldToken := a.Token

	rotated, err := svc.ChangeToken(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Len(t, rotated.Token, 64)
	assert.NotEqual(t, oldToken, rotated.Token)

	_, err = svc.GetByToken(context.Background(), oldToken)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestServiceSetLimitsPartialUpdate(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, logger.NopLogger())

	a, err := svc.Create(context.Background(), CreateRequest{LimCount: 100, LimSize: 2048})
	require.NoError(t, err)

	newCount := int64(50)
	updated, err := svc.SetLimits(context.Background(), a.ID, UpdateLimitsRequest{LimCount: &newCount})
	require.NoError(t, err)
	assert.Equal(t, int64(50), updated.LimCount)
	assert.Equal(t, int64(2048), updated.LimSize)
}

func TestServiceCreateRejectsNegativeLimits(t *testing.T) {
	svc := NewService(newFakeRepo(), logger.NopLogger())

	_, err := svc.Create(context.Background(), CreateRequest{LimCount: -1})
	assert.True(t, pkgerrors.IsValidation(err))
}
