// Package slack delivers events to a Slack incoming webhook. With
// "rich": true the message is sent as a level-colored attachment.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/alttch/roboger/internal/constants"
	"github.com/alttch/roboger/internal/logger"
	"github.com/alttch/roboger/internal/plugin"
	"github.com/alttch/roboger/pkg/models"
	"github.com/alttch/roboger/pkg/retry"
)

const PluginName = "slack"

var levelColor = map[int]string{
	models.LevelDebug:    "#555555",
	models.LevelInfo:     "good",
	models.LevelWarning:  "warning",
	models.LevelError:    "danger",
	models.LevelCritical: "#FF2222",
}

type Sender struct {
	client *http.Client
	policy retry.Policy
	logger logger.Logger
}

func New(log logger.Logger) *Sender {
	return &Sender{
		client: &http.Client{Timeout: constants.DefaultHTTPTimeout},
		policy: retry.DefaultPolicy(),
		logger: log,
	}
}

func (s *Sender) Name() string {
	return PluginName
}

func (s *Sender) ValidateConfig(cfg plugin.Config) error {
	url := cfg.GetString("url")
	if url == "" {
		return fmt.Errorf("slack: url is required")
	}
	if !strings.HasPrefix(url, "https://") && !strings.HasPrefix(url, "http://") {
		return fmt.Errorf("slack: url must be http(s)")
	}
	if rich, ok := cfg["rich"]; ok {
		if _, isBool := rich.(bool); !isBool {
			return fmt.Errorf("slack: rich must be a boolean")
		}
	}
	return nil
}

func (s *Sender) Send(ctx context.Context, cfg plugin.Config, event *models.EventContext) error {
	var payload map[string]interface{}

	if rich, _ := cfg["rich"].(bool); rich {
		color, ok := levelColor[event.Level]
		if !ok {
			color = "good"
		}
		payload = map[string]interface{}{
			"text": senderLine(event),
			"attachments": []map[string]interface{}{{
				"fallback": event.FormattedSubject,
				"color":    color,
				"fields": []map[string]interface{}{{
					"title": event.FormattedSubject,
					"value": event.Msg,
					"short": false,
				}},
			}},
		}
	} else {
		text := event.FormattedSubject + "\n" + event.Msg
		if line := senderLine(event); line != "" {
			text = line + "\n" + text
		}
		payload = map[string]interface{}{"text": text}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("slack: failed to marshal payload: %w", err)
	}

	url := cfg.GetString("url")

	return retry.Retry(ctx, s.policy, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return retry.NewFatalError(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= 300 {
			err := fmt.Errorf("slack: webhook status %d", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return retry.NewFatalError(err)
			}
			return err
		}
		return nil
	})
}

func senderLine(event *models.EventContext) string {
	if event.Sender == "" {
		return ""
	}
	return "*" + event.Sender + "*"
}
