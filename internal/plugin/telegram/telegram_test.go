package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alttch/roboger/internal/logger"
	"github.com/alttch/roboger/internal/plugin"
	"github.com/alttch/roboger/pkg/models"
)

func TestValidateConfig(t *testing.T) {
	s := New(map[string]interface{}{"token": "bot-token"}, logger.NopLogger())

	assert.Error(t, s.ValidateConfig(plugin.Config{}))
	assert.NoError(t, s.ValidateConfig(plugin.Config{"chat_id": "42"}))
}

func TestSendWithoutTokenFails(t *testing.T) {
	s := New(nil, logger.NopLogger())

	err := s.Send(context.Background(), plugin.Config{"chat_id": "42"},
		&models.EventContext{Msg: "hi"})
	assert.Error(t, err)
}

func TestSendMessage(t *testing.T) {
	var path string
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
	}))
	defer srv.Close()

	s := New(map[string]interface{}{"token": "bot-token", "api_base": srv.URL}, logger.NopLogger())

	event := &models.EventContext{
		Level:            models.LevelWarning,
		Sender:           "monitor",
		FormattedSubject: "WARNING monitor@dc1: disk",
		Msg:              "disk 95% <full>",
	}
	require.NoError(t, s.Send(context.Background(), plugin.Config{"chat_id": "42"}, event))

	assert.Equal(t, "/botbot-token/sendMessage", path)
	assert.Equal(t, "42", received["chat_id"])
	assert.Equal(t, "HTML", received["parse_mode"])
	assert.Equal(t, false, received["disable_notification"])

	text, _ := received["text"].(string)
	assert.Contains(t, text, "&lt;full&gt;", "message body must be HTML-escaped")
	assert.Contains(t, text, "<pre>monitor</pre>")
}

func TestSendDebugIsQuiet(t *testing.T) {
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
	}))
	defer srv.Close()

	s := New(map[string]interface{}{"token": "bot-token", "api_base": srv.URL}, logger.NopLogger())

	event := &models.EventContext{Level: models.LevelDebug, Msg: "trace"}
	require.NoError(t, s.Send(context.Background(), plugin.Config{"chat_id": "42"}, event))

	assert.Equal(t, true, received["disable_notification"])
}

func TestSendMediaUploadsDocument(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "sendDocument") {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "42", r.FormValue("chat_id"))
			_, header, err := r.FormFile("document")
			require.NoError(t, err)
			assert.Equal(t, "dump.bin", header.Filename)
		}
	}))
	defer srv.Close()

	s := New(map[string]interface{}{"token": "bot-token", "api_base": srv.URL}, logger.NopLogger())

	event := &models.EventContext{
		Level:      models.LevelInfo,
		Msg:        "see attached",
		Media:      []byte("payload"),
		MediaFname: "dump.bin",
	}
	require.NoError(t, s.Send(context.Background(), plugin.Config{"chat_id": "42"}, event))

	assert.Equal(t, []string{"/botbot-token/sendMessage", "/botbot-token/sendDocument"}, paths)
}

func TestSendMediaUploadsImageAsPhoto(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "sendPhoto") {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			_, _, err := r.FormFile("photo")
			require.NoError(t, err)
		}
	}))
	defer srv.Close()

	s := New(map[string]interface{}{"token": "bot-token", "api_base": srv.URL}, logger.NopLogger())

	event := &models.EventContext{
		Level:      models.LevelInfo,
		Msg:        "chart attached",
		Media:      append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...),
		MediaFname: "chart.png",
	}
	require.NoError(t, s.Send(context.Background(), plugin.Config{"chat_id": "42"}, event))

	assert.Equal(t, []string{"/botbot-token/sendMessage", "/botbot-token/sendPhoto"}, paths)
}
