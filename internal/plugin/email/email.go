// Package email delivers events over SMTP. The relay is global plugin
// configuration; each endpoint only carries the recipient.
package email

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/alttch/roboger/internal/logger"
	"github.com/alttch/roboger/internal/plugin"
	"github.com/alttch/roboger/pkg/models"
)

const PluginName = "email"

const defaultFrom = "roboger"

type Sender struct {
	host   string
	port   string
	from   string
	logger logger.Logger

	// sendMail is swappable for tests.
	sendMail func(addr, from string, to []string, msg []byte) error
}

// New configures the plugin from its global config ("smtp_server" as
// host:port, optional "from"). Without a relay the plugin stays inactive
// and fails every send.
func New(globalCfg map[string]interface{}, log logger.Logger) *Sender {
	s := &Sender{
		from:   defaultFrom,
		logger: log,
	}
	s.sendMail = func(addr, from string, to []string, msg []byte) error {
		return smtp.SendMail(addr, nil, from, to, msg)
	}

	if server, ok := globalCfg["smtp_server"].(string); ok && server != "" {
		host, port, found := strings.Cut(server, ":")
		if !found {
			port = "25"
		}
		s.host = host
		s.port = port
	} else {
		log.Warn("email plugin not active, no SMTP server configured")
	}
	if from, ok := globalCfg["from"].(string); ok && from != "" {
		s.from = from
	}

	return s
}

func (s *Sender) Name() string {
	return PluginName
}

func (s *Sender) ValidateConfig(cfg plugin.Config) error {
	rcpt := cfg.GetString("rcpt")
	if rcpt == "" {
		return fmt.Errorf("email: rcpt is required")
	}
	if !strings.Contains(rcpt, "@") {
		return fmt.Errorf("email: rcpt is not a valid address")
	}
	return nil
}

func (s *Sender) Send(ctx context.Context, cfg plugin.Config, event *models.EventContext) error {
	if s.host == "" {
		return fmt.Errorf("email: plugin not active, no SMTP server configured")
	}

	rcpt := cfg.GetString("rcpt")
	from := event.Sender
	if from == "" || !strings.Contains(from, "@") {
		from = s.from
	}

	msg := s.buildMessage(from, rcpt, event)

	done := make(chan error, 1)
	go func() {
		done <- s.sendMail(s.host+":"+s.port, from, []string{rcpt}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("email: send to %s failed: %w", rcpt, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sender) buildMessage(from, rcpt string, event *models.EventContext) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + rcpt + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", event.FormattedSubject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")

	if len(event.Media) == 0 {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
		b.WriteString("\r\n")
		b.WriteString(event.Msg)
		return []byte(b.String())
	}

	const boundary = "roboger-attachment-boundary"
	fname := event.MediaFname
	if fname == "" {
		fname = "attachment.bin"
	}

	b.WriteString("Content-Type: multipart/mixed; boundary=" + boundary + "\r\n\r\n")
	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(event.Msg + "\r\n")
	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: application/octet-stream; name=\"" + fname + "\"\r\n")
	b.WriteString("Content-Disposition: attachment; filename=\"" + fname + "\"\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
	b.WriteString(wrap76(base64.StdEncoding.EncodeToString(event.Media)))
	b.WriteString("\r\n--" + boundary + "--\r\n")
	return []byte(b.String())
}

func wrap76(s string) string {
	var b strings.Builder
	for len(s) > 76 {
		b.WriteString(s[:76] + "\r\n")
		s = s[76:]
	}
	b.WriteString(s)
	return b.String()
}
