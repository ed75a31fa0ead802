package integration

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/alttch/roboger/internal/addr"
	"github.com/alttch/roboger/internal/endpoint"
	"github.com/alttch/roboger/internal/plugin"
	"github.com/alttch/roboger/internal/subscription"
	"github.com/alttch/roboger/pkg/models"
)

const containerStartupTimeout = 60

func newTestToken() string {
	buf := make([]byte, 32)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}

func createTestAddr() *addr.Addr {
	return &addr.Addr{
		Token:    newTestToken(),
		Active:   true,
		LimCount: 100,
		LimSize:  1 << 20,
	}
}

func createTestEndpoint(addrID string) *endpoint.Endpoint {
	return &endpoint.Endpoint{
		AddrID:     addrID,
		PluginName: "webhook",
		Config:     plugin.Config{"url": "https://example.com/hook"},
		Active:     true,
	}
}

func createTestSubscription(addrID, endpointID string) *subscription.Subscription {
	return &subscription.Subscription{
		EndpointID: endpointID,
		AddrID:     addrID,
		Active:     true,
		Location:   "dc1/#",
		Level:      models.LevelInfo,
		LevelMatch: models.LevelMatchGE,
	}
}
