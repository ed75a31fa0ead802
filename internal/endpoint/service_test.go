package endpoint

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alttch/roboger/internal/logger"
	"github.com/alttch/roboger/internal/plugin"
	pkgerrors "github.com/alttch/roboger/pkg/errors"
	"github.com/alttch/roboger/pkg/models"
)

type fakeSender struct {
	name      string
	configErr error
}

func (f *fakeSender) Name() string { return f.name }

func (f *fakeSender) ValidateConfig(plugin.Config) error { return f.configErr }

func (f *fakeSender) Send(context.Context, plugin.Config, *models.EventContext) error {
	return nil
}

type fakeRepo struct {
	byID map[string]*Endpoint
	seq  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[string]*Endpoint)}
}

func (f *fakeRepo) Create(_ context.Context, e *Endpoint) error {
	f.seq++
	e.ID = fmt.Sprintf("ep-%d", f.seq)
	cp := *e
	f.byID[e.ID] = &cp
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (*Endpoint, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeRepo) ListByAddr(_ context.Context, addrID string) ([]Endpoint, error) {
	var out []Endpoint
	for _, e := range f.byID {
		if e.AddrID == addrID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeRepo) Update(_ context.Context, e *Endpoint) error {
	if _, ok := f.byID[e.ID]; !ok {
		return pkgerrors.ErrNotFound
	}
	cp := *e
	f.byID[e.ID] = &cp
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return pkgerrors.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func newTestService(t *testing.T, senders ...plugin.Sender) Service {
	t.Helper()
	registry := plugin.NewRegistry()
	for _, s := range senders {
		require.NoError(t, registry.Register(s))
	}
	return NewService(newFakeRepo(), registry, logger.NopLogger())
}

func TestServiceCreateValidatesPluginConfig(t *testing.T) {
	svc := newTestService(t,
		&fakeSender{name: "webhook"},
		&fakeSender{name: "email", configErr: fmt.Errorf("rcpt is required")},
	)

	e, err := svc.Create(context.Background(), CreateRequest{
		AddrID:     "addr-1",
		PluginName: "webhook",
		Config:     plugin.Config{"url": "https://example.com/hook"},
	})
	require.NoError(t, err)
	assert.True(t, e.Active)
	assert.Equal(t, "webhook", e.PluginName)

	_, err = svc.Create(context.Background(), CreateRequest{
		AddrID:     "addr-1",
		PluginName: "email",
	})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestServiceCreateUnknownPlugin(t *testing.T) {
	svc := newTestService(t, &fakeSender{name: "webhook"})

	_, err := svc.Create(context.Background(), CreateRequest{
		AddrID:     "addr-1",
		PluginName: "pager",
	})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestServiceCreateLegacyTypeID(t *testing.T) {
	svc := newTestService(t, &fakeSender{name: "telegram"})

	// JSON numbers decode as float64
	e, err := svc.Create(context.Background(), CreateRequest{
		AddrID: "addr-1",
		Type:   float64(101),
		Config: plugin.Config{"chat_id": "42"},
	})
	require.NoError(t, err)
	assert.Equal(t, "telegram", e.PluginName)

	_, err = svc.Create(context.Background(), CreateRequest{
		AddrID: "addr-1",
		Type:   float64(99),
	})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestServiceUpdateRevalidatesConfig(t *testing.T) {
	registry := plugin.NewRegistry()
	sender := &fakeSender{name: "webhook"}
	require.NoError(t, registry.Register(sender))
	repo := newFakeRepo()
	svc := NewService(repo, registry, logger.NopLogger())

	e, err := svc.Create(context.Background(), CreateRequest{
		AddrID:     "addr-1",
		PluginName: "webhook",
		Config:     plugin.Config{"url": "https://example.com/hook"},
	})
	require.NoError(t, err)

	sender.configErr = fmt.Errorf("url is required")
	bad := plugin.Config{}
	_, err = svc.Update(context.Background(), e.ID, UpdateRequest{Config: &bad})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestResolvePluginName(t *testing.T) {
	tests := []struct {
		name       string
		pluginName string
		legacyType interface{}
		want       string
		wantErr    bool
	}{
		{"explicit name", "webhook", nil, "webhook", false},
		{"name wins over type", "slack", float64(2), "slack", false},
		{"legacy android", "", float64(1), "android", false},
		{"legacy email", "", float64(2), "email", false},
		{"legacy webhook", "", float64(4), "webhook", false},
		{"legacy slack", "", float64(100), "slack", false},
		{"legacy telegram", "", float64(101), "telegram", false},
		{"string type", "", "email", "email", false},
		{"unknown id", "", float64(3), "", true},
		{"missing", "", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePluginName(tt.pluginName, tt.legacyType)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
