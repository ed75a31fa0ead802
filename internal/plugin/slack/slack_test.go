package slack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alttch/roboger/internal/logger"
	"github.com/alttch/roboger/internal/plugin"
	"github.com/alttch/roboger/pkg/models"
)

func testEvent() *models.EventContext {
	return &models.EventContext{
		Level:            models.LevelError,
		LevelName:        "ERROR",
		Sender:           "monitor",
		FormattedSubject: "ERROR monitor@dc1: down",
		Msg:              "srv3 unreachable",
	}
}

func TestValidateConfig(t *testing.T) {
	s := New(logger.NopLogger())

	assert.Error(t, s.ValidateConfig(plugin.Config{}))
	assert.Error(t, s.ValidateConfig(plugin.Config{"url": "example.com"}))
	assert.Error(t, s.ValidateConfig(plugin.Config{"url": "https://hooks.slack.com/x", "rich": "yes"}))
	assert.NoError(t, s.ValidateConfig(plugin.Config{"url": "https://hooks.slack.com/x"}))
	assert.NoError(t, s.ValidateConfig(plugin.Config{"url": "https://hooks.slack.com/x", "rich": true}))
}

func TestSendPlain(t *testing.T) {
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
	}))
	defer srv.Close()

	s := New(logger.NopLogger())
	require.NoError(t, s.Send(context.Background(), plugin.Config{"url": srv.URL}, testEvent()))

	text, _ := received["text"].(string)
	assert.Contains(t, text, "*monitor*")
	assert.Contains(t, text, "ERROR monitor@dc1: down")
	assert.Contains(t, text, "srv3 unreachable")
	assert.Nil(t, received["attachments"])
}

func TestSendRich(t *testing.T) {
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
	}))
	defer srv.Close()

	s := New(logger.NopLogger())
	require.NoError(t, s.Send(context.Background(),
		plugin.Config{"url": srv.URL, "rich": true}, testEvent()))

	attachments, ok := received["attachments"].([]interface{})
	require.True(t, ok)
	require.Len(t, attachments, 1)

	attachment := attachments[0].(map[string]interface{})
	assert.Equal(t, "danger", attachment["color"], "ERROR maps to danger")
	assert.Equal(t, "ERROR monitor@dc1: down", attachment["fallback"])
}
