// Package webhook delivers events as JSON POSTs to a configured URL. An
// optional template in the endpoint config controls the posted body;
// without one the full event context is sent.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/alttch/roboger/internal/constants"
	"github.com/alttch/roboger/internal/logger"
	"github.com/alttch/roboger/internal/plugin"
	"github.com/alttch/roboger/pkg/models"
	"github.com/alttch/roboger/pkg/retry"
)

const PluginName = "webhook"

// Template placeholders, substituted as $name. "level" is numeric, the
// rest are JSON strings; "media" expands to the base64 payload.
var templateFields = []string{
	"event_id", "addr", "msg", "subject", "formatted_subject", "level",
	"level_name", "location", "tag", "sender", "media",
}

var templateRe = make(map[string]*regexp.Regexp, len(templateFields))

func init() {
	for _, f := range templateFields {
		// $name must not be followed by an identifier character, so
		// $level does not eat into $level_name.
		templateRe[f] = regexp.MustCompile(`\$` + f + `([^_a-z]|$)`)
	}
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
		return fmt.Errorf("webhook: url is required")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("webhook: url must be http(s)")
	}
	if tpl, ok := cfg["template"]; ok {
		tplStr, ok := tpl.(string)
		if !ok {
			return fmt.Errorf("webhook: template must be a string")
		}
		rendered := renderTemplate(tplStr, templateProbe())
		if !json.Valid([]byte(rendered)) {
			return fmt.Errorf("webhook: template does not produce valid JSON")
		}
	}
	return nil
}

func (s *Sender) Send(ctx context.Context, cfg plugin.Config, event *models.EventContext) error {
	var body []byte
	if tpl := cfg.GetString("template"); tpl != "" {
		body = []byte(renderTemplate(tpl, templateValues(event)))
	} else {
		var err error
		body, err = json.Marshal(event)
		if err != nil {
			return fmt.Errorf("webhook: failed to marshal event: %w", err)
		}
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
			err := fmt.Errorf("webhook: server %s status %d", url, resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return retry.NewFatalError(err)
			}
			return err
		}
		return nil
	})
}

func templateValues(event *models.EventContext) map[string]string {
	return map[string]string{
		"event_id":          jsonString(event.EventID),
		"addr":              jsonString(event.Addr),
		"msg":               jsonString(event.Msg),
		"subject":           jsonString(event.Subject),
		"formatted_subject": jsonString(event.FormattedSubject),
		"level":             strconv.Itoa(event.Level),
		"level_name":        jsonString(event.LevelName),
		"location":          jsonString(event.Location),
		"tag":               jsonString(strings.Join(event.Tags, ",")),
		"sender":            jsonString(event.Sender),
		"media":             jsonString(event.MediaEncoded),
	}
}

// templateProbe provides dummy values for validate-time rendering.
func templateProbe() map[string]string {
	probe := make(map[string]string, len(templateFields))
	for _, f := range templateFields {
		probe[f] = `""`
	}
	probe["level"] = "0"
	return probe
}

func renderTemplate(tpl string, values map[string]string) string {
	out := strings.NewReplacer("\n", "", "\r", "").Replace(tpl)
	for _, f := range templateFields {
		out = templateRe[f].ReplaceAllString(out, values[f]+"$1")
	}
	return out
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
