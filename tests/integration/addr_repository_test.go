package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alttch/roboger/internal/addr"
	"github.com/alttch/roboger/internal/endpoint"
	"github.com/alttch/roboger/internal/subscription"
	pkgerrors "github.com/alttch/roboger/pkg/errors"
)

func TestAddrRepository_DeleteCascades(t *testing.T) {
	infra := SetupTestInfra(t)

	addrRepo := addr.NewRepository(infra.PostgresDB)
	endpointRepo := endpoint.NewRepository(infra.PostgresDB)
	subscriptionRepo := subscription.NewRepository(infra.PostgresDB)
	ctx := context.Background()

	a := createTestAddr()
	require.NoError(t, addrRepo.Create(ctx, a))

	ep := createTestEndpoint(a.ID)
	require.NoError(t, endpointRepo.Create(ctx, ep))

	sub := createTestSubscription(a.ID, ep.ID)
	require.NoError(t, subscriptionRepo.Create(ctx, sub))

	require.NoError(t, addrRepo.Delete(ctx, a.ID))

	_, err := addrRepo.Get(ctx, a.ID)
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = endpointRepo.Get(ctx, ep.ID)
	assert.True(t, pkgerrors.IsNotFound(err), "endpoint must go with its addr")

	_, err = subscriptionRepo.Get(ctx, sub.ID)
	assert.True(t, pkgerrors.IsNotFound(err), "subscription must go with its addr")
}

func TestAddrRepository_DeleteEndpointCascadesSubscriptions(t *testing.T) {
	infra := SetupTestInfra(t)

	addrRepo := addr.NewRepository(infra.PostgresDB)
	endpointRepo := endpoint.NewRepository(infra.PostgresDB)
	subscriptionRepo := subscription.NewRepository(infra.PostgresDB)
	ctx := context.Background()

	a := createTestAddr()
	require.NoError(t, addrRepo.Create(ctx, a))

	ep := createTestEndpoint(a.ID)
	require.NoError(t, endpointRepo.Create(ctx, ep))

	sub := createTestSubscription(a.ID, ep.ID)
	require.NoError(t, subscriptionRepo.Create(ctx, sub))

	require.NoError(t, endpointRepo.Delete(ctx, ep.ID))

	_, err := subscriptionRepo.Get(ctx, sub.ID)
	assert.True(t, pkgerrors.IsNotFound(err))

	retrieved, err := addrRepo.Get(ctx, a.ID)
	require.NoError(t, err, "deleting an endpoint must not touch the addr")
	assert.Equal(t, a.Token, retrieved.Token)
}

func TestAddrRepository_ChangeToken(t *testing.T) {
	infra := SetupTestInfra(t)

	addrRepo := addr.NewRepository(infra.PostgresDB)
	ctx := context.Background()

	a := createTestAddr()
	require.NoError(t, addrRepo.Create(ctx, a))
	oldToken := a.Token

	newToken := newTestToken()
	require.NoError(t, addrRepo.ChangeToken(ctx, a.ID, newToken))

	_, err := addrRepo.GetByToken(ctx, oldToken)
	assert.True(t, pkgerrors.IsNotFound(err), "old token must stop resolving")

	retrieved, err := addrRepo.GetByToken(ctx, newToken)
	require.NoError(t, err)
	assert.Equal(t, a.ID, retrieved.ID)
	assert.Equal(t, a.LimCount, retrieved.LimCount)
}

func TestAddrRepository_TokenUnique(t *testing.T) {
	infra := SetupTestInfra(t)

	addrRepo := addr.NewRepository(infra.PostgresDB)
	ctx := context.Background()

	a := createTestAddr()
	require.NoError(t, addrRepo.Create(ctx, a))

	dup := createTestAddr()
	dup.Token = a.Token
	err := addrRepo.Create(ctx, dup)
	assert.True(t, pkgerrors.IsConflict(err))
}

func TestEndpointRepository_CreateRejectsUnknownAddr(t *testing.T) {
	infra := SetupTestInfra(t)

	endpointRepo := endpoint.NewRepository(infra.PostgresDB)
	ctx := context.Background()

	ep := createTestEndpoint("00000000-0000-0000-0000-000000000000")
	err := endpointRepo.Create(ctx, ep)
	assert.True(t, pkgerrors.IsNotFound(err))
}
