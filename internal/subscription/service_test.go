package subscription

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alttch/roboger/internal/endpoint"
	"github.com/alttch/roboger/internal/logger"
	"github.com/alttch/roboger/pkg/cel"
	pkgerrors "github.com/alttch/roboger/pkg/errors"
	"github.com/alttch/roboger/pkg/models"
)

type fakeRepo struct {
	byID map[string]*Subscription
	seq  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[string]*Subscription)}
}

func (f *fakeRepo) Create(_ context.Context, sub *Subscription) error {
	f.seq++
	sub.ID = fmt.Sprintf("sub-%d", f.seq)
	cp := *sub
	f.byID[sub.ID] = &cp
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (*Subscription, error) {
	sub, ok := f.byID[id]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (f *fakeRepo) ListByEndpoint(_ context.Context, endpointID string) ([]Subscription, error) {
	var out []Subscription
	for _, sub := range f.byID {
		if sub.EndpointID == endpointID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (f *fakeRepo) Update(_ context.Context, sub *Subscription) error {
	if _, ok := f.byID[sub.ID]; !ok {
		return pkgerrors.ErrNotFound
	}
	cp := *sub
	f.byID[sub.ID] = &cp
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return pkgerrors.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeEndpointRepo struct {
	endpoints map[string]*endpoint.Endpoint
}

func (f *fakeEndpointRepo) Create(context.Context, *endpoint.Endpoint) error { return nil }

func (f *fakeEndpointRepo) Get(_ context.Context, id string) (*endpoint.Endpoint, error) {
	e, ok := f.endpoints[id]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}
	return e, nil
}

func (f *fakeEndpointRepo) ListByAddr(context.Context, string) ([]endpoint.Endpoint, error) {
	return nil, nil
}

func (f *fakeEndpointRepo) Update(context.Context, *endpoint.Endpoint) error { return nil }

func (f *fakeEndpointRepo) Delete(context.Context, string) error { return nil }

func newTestService(t *testing.T) Service {
	t.Helper()
	evaluator, err := cel.NewEvaluator()
	require.NoError(t, err)
	endpoints := &fakeEndpointRepo{endpoints: map[string]*endpoint.Endpoint{
		"ep-1": {ID: "ep-1", AddrID: "addr-1"},
	}}
	return NewService(newFakeRepo(), endpoints, evaluator, logger.NopLogger())
}

func TestServiceCreateDefaults(t *testing.T) {
	svc := newTestService(t)

	sub, err := svc.Create(context.Background(), CreateRequest{EndpointID: "ep-1"})
	require.NoError(t, err)
	assert.True(t, sub.Active)
	assert.Equal(t, "addr-1", sub.AddrID)
	assert.Equal(t, models.LevelInfo, sub.Level)
	assert.Equal(t, models.LevelMatchGE, sub.LevelMatch)
	assert.Empty(t, sub.Location)
}

func TestServiceCreateParsesLevelAlias(t *testing.T) {
	svc := newTestService(t)

	sub, err := svc.Create(context.Background(), CreateRequest{
		EndpointID: "ep-1",
		Level:      "warning",
	})
	require.NoError(t, err)
	assert.Equal(t, models.LevelWarning, sub.Level)

	sub, err = svc.Create(context.Background(), CreateRequest{
		EndpointID: "ep-1",
		Level:      float64(40),
	})
	require.NoError(t, err)
	assert.Equal(t, models.LevelError, sub.Level)
}

func TestServiceCreateRejectsBadLevelMatch(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), CreateRequest{
		EndpointID: "ep-1",
		LevelMatch: "gte",
	})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestServiceCreateValidatesFilter(t *testing.T) {
	svc := newTestService(t)

	sub, err := svc.Create(context.Background(), CreateRequest{
		EndpointID: "ep-1",
		Filter:     `level >= 30 && sender == "monitor"`,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sub.Filter)

	_, err = svc.Create(context.Background(), CreateRequest{
		EndpointID: "ep-1",
		Filter:     `location`,
	})
	assert.True(t, pkgerrors.IsValidation(err), "non-bool filter must be rejected")

	_, err = svc.Create(context.Background(), CreateRequest{
		EndpointID: "ep-1",
		Filter:     `level >>> 3`,
	})
	assert.True(t, pkgerrors.IsValidation(err), "broken filter must be rejected")
}

func TestServiceCreateUnknownEndpoint(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), CreateRequest{EndpointID: "ep-missing"})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestServiceUpdateClearsLocation(t *testing.T) {
	svc := newTestService(t)

	sub, err := svc.Create(context.Background(), CreateRequest{
		EndpointID: "ep-1",
		Location:   "dc1/rack2",
	})
	require.NoError(t, err)

	empty := ""
	updated, err := svc.Update(context.Background(), sub.ID, UpdateRequest{Location: &empty})
	require.NoError(t, err)
	assert.Empty(t, updated.Location)
}
