// Package telegram delivers events through the Telegram bot API. The bot
// token is global plugin configuration; each endpoint carries its chat_id.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/alttch/roboger/internal/constants"
	"github.com/alttch/roboger/internal/logger"
	"github.com/alttch/roboger/internal/plugin"
	"github.com/alttch/roboger/pkg/models"
	"github.com/alttch/roboger/pkg/retry"
)

const PluginName = "telegram"

const defaultAPIBase = "https://api.telegram.org"

type Sender struct {
	token   string
	apiBase string
	client  *http.Client
	policy  retry.Policy
	logger  logger.Logger
}

// New configures the plugin from its global config ("token" required,
// "api_base" overridable for tests). Without a token the plugin stays
// inactive and fails every send.
func New(globalCfg map[string]interface{}, log logger.Logger) *Sender {
	s := &Sender{
		apiBase: defaultAPIBase,
		client:  &http.Client{Timeout: constants.DefaultHTTPTimeout},
		policy:  retry.DefaultPolicy(),
		logger:  log,
	}

	if token, ok := globalCfg["token"].(string); ok && token != "" {
		s.token = token
	} else {
		log.Warn("telegram plugin not active, no bot token configured")
	}
	if base, ok := globalCfg["api_base"].(string); ok && base != "" {
		s.apiBase = base
	}

	return s
}

func (s *Sender) Name() string {
	return PluginName
}

func (s *Sender) ValidateConfig(cfg plugin.Config) error {
	if cfg.GetString("chat_id") == "" {
		return fmt.Errorf("telegram: chat_id is required")
	}
	return nil
}

func (s *Sender) Send(ctx context.Context, cfg plugin.Config, event *models.EventContext) error {
	if s.token == "" {
		return fmt.Errorf("telegram: plugin not active, no bot token configured")
	}

	chatID := cfg.GetString("chat_id")

	text := fmt.Sprintf("<b>%s</b>\n%s",
		html.EscapeString(event.FormattedSubject), html.EscapeString(event.Msg))
	if event.Sender != "" {
		text = "<pre>" + html.EscapeString(event.Sender) + "</pre>\n" + text
	}

	// DEBUG traffic arrives without a notification sound.
	quiet := event.Level <= models.LevelDebug

	if err := s.sendMessage(ctx, chatID, text, quiet); err != nil {
		return err
	}

	if len(event.Media) > 0 {
		if err := s.sendMedia(ctx, chatID, event, quiet); err != nil {
			s.logger.WarnwCtx(ctx, "telegram media send failed",
				"event_id", event.EventID, "error", err)
		}
	}

	return nil
}

func (s *Sender) sendMessage(ctx context.Context, chatID, text string, quiet bool) error {
	payload := map[string]interface{}{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
		"disable_notification":     quiet,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	url := s.apiBase + "/bot" + s.token + "/sendMessage"

	return retry.Retry(ctx, s.policy, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return retry.NewFatalError(err)
		}
		req.Header.Set("Content-Type", "application/json")

		return s.do(req)
	})
}

// sendMedia uploads the attachment as a photo when it looks like an image,
// as a generic document otherwise.
func (s *Sender) sendMedia(ctx context.Context, chatID string, event *models.EventContext, quiet bool) error {
	method, field := "sendDocument", "document"
	if strings.HasPrefix(http.DetectContentType(event.Media), "image/") {
		method, field = "sendPhoto", "photo"
	}

	fname := event.MediaFname
	if fname == "" {
		fname = "attachment.bin"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("chat_id", chatID)
	if quiet {
		w.WriteField("disable_notification", "true")
	}
	part, err := w.CreateFormFile(field, fname)
	if err != nil {
		return fmt.Errorf("telegram: failed to build upload: %w", err)
	}
	part.Write(event.Media)
	w.Close()

	url := s.apiBase + "/bot" + s.token + "/" + method

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return s.do(req)
}

func (s *Sender) do(req *http.Request) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		err := fmt.Errorf("telegram: API status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return retry.NewFatalError(err)
		}
		return err
	}
	return nil
}
