package email

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alttch/roboger/internal/logger"
	"github.com/alttch/roboger/internal/plugin"
	"github.com/alttch/roboger/pkg/models"
)

func testSender(t *testing.T) (*Sender, *capturedMail) {
	t.Helper()
	s := New(map[string]interface{}{"smtp_server": "localhost:2525"}, logger.NopLogger())
	captured := &capturedMail{}
	s.sendMail = func(addr, from string, to []string, msg []byte) error {
		captured.addr = addr
		captured.from = from
		captured.to = to
		captured.msg = string(msg)
		return nil
	}
	return s, captured
}

type capturedMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func TestValidateConfig(t *testing.T) {
	s, _ := testSender(t)

	assert.Error(t, s.ValidateConfig(plugin.Config{}))
	assert.Error(t, s.ValidateConfig(plugin.Config{"rcpt": "not-an-address"}))
	assert.NoError(t, s.ValidateConfig(plugin.Config{"rcpt": "ops@example.com"}))
}

func TestSendPlainMessage(t *testing.T) {
	s, captured := testSender(t)

	event := &models.EventContext{
		FormattedSubject: "WARNING monitor@dc1: disk",
		Msg:              "disk 95%",
	}
	require.NoError(t, s.Send(context.Background(),
		plugin.Config{"rcpt": "ops@example.com"}, event))

	assert.Equal(t, "localhost:2525", captured.addr)
	assert.Equal(t, []string{"ops@example.com"}, captured.to)
	assert.Equal(t, defaultFrom, captured.from)
	assert.Contains(t, captured.msg, "To: ops@example.com")
	assert.Contains(t, captured.msg, "disk 95%")
	assert.Contains(t, captured.msg, "Content-Type: text/plain")
}

func TestSendUsesSenderAsFrom(t *testing.T) {
	s, captured := testSender(t)

	event := &models.EventContext{Sender: "alerts@example.com", Msg: "hi"}
	require.NoError(t, s.Send(context.Background(),
		plugin.Config{"rcpt": "ops@example.com"}, event))

	assert.Equal(t, "alerts@example.com", captured.from)
}

func TestSendAttachment(t *testing.T) {
	s, captured := testSender(t)

	event := &models.EventContext{
		Msg:        "see attached",
		Media:      []byte("binary-payload"),
		MediaFname: "dump.bin",
	}
	require.NoError(t, s.Send(context.Background(),
		plugin.Config{"rcpt": "ops@example.com"}, event))

	assert.Contains(t, captured.msg, "multipart/mixed")
	assert.Contains(t, captured.msg, `filename="dump.bin"`)
	assert.Contains(t, captured.msg, "Content-Transfer-Encoding: base64")
}

func TestSendWithoutRelayFails(t *testing.T) {
	s := New(nil, logger.NopLogger())

	err := s.Send(context.Background(),
		plugin.Config{"rcpt": "ops@example.com"}, &models.EventContext{Msg: "hi"})
	assert.Error(t, err)
}

func TestWrap76(t *testing.T) {
	long := strings.Repeat("A", 200)
	wrapped := wrap76(long)
	for _, line := range strings.Split(wrapped, "\r\n") {
		assert.LessOrEqual(t, len(line), 76)
	}
}
