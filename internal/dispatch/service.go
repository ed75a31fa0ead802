package dispatch

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"github.com/alttch/roboger/internal/addr"
	"github.com/alttch/roboger/internal/audit"
	"github.com/alttch/roboger/internal/constants"
	"github.com/alttch/roboger/internal/dedup"
	"github.com/alttch/roboger/internal/limits"
	"github.com/alttch/roboger/internal/logger"
	"github.com/alttch/roboger/internal/matcher"
	"github.com/alttch/roboger/internal/plugin"
	"github.com/alttch/roboger/pkg/cel"
	pkgerrors "github.com/alttch/roboger/pkg/errors"
	"github.com/alttch/roboger/pkg/logging"
	"github.com/alttch/roboger/pkg/metrics"
	"github.com/alttch/roboger/pkg/models"
)

// Result is the outcome of a push as reported to the caller. Delivery
// itself is asynchronous and best effort; Accepted only means the event
// passed admission and was fanned out.
type Result int

const (
	Accepted Result = iota
	NotFound
	Disabled
	Overlimit
	Unavailable
)

func (r Result) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case NotFound:
		return "not_found"
	case Disabled:
		return "disabled"
	case Overlimit:
		return "overlimit"
	case Unavailable:
		return "unavailable"
	}
	return "unknown"
}

// PushRequest is the public push payload. Level and tags are deliberately
// loose: level accepts numbers and names, tags a list or a comma-separated
// string.
type PushRequest struct {
	Addr       string      `json:"addr"`
	Msg        string      `json:"msg"`
	Subject    string      `json:"subject"`
	Level      interface{} `json:"level"`
	Location   string      `json:"location"`
	Tags       interface{} `json:"tags"`
	Sender     string      `json:"sender"`
	Media      string      `json:"media"`
	MediaFname string      `json:"media_fname"`
}

type Service interface {
	// Push admits, matches and enqueues one event. The returned Result is
	// final for the caller even though deliveries are still in flight.
	Push(ctx context.Context, req PushRequest) Result
}

type service struct {
	addrs     addr.Service
	targets   Repository
	registry  *plugin.Registry
	dedup     dedup.Service
	limiter   limits.Service
	evaluator *cel.Evaluator
	pool      *Pool
	audit     audit.Producer
	logger    logger.Logger
}

func NewService(
	addrs addr.Service,
	targets Repository,
	registry *plugin.Registry,
	dedupSvc dedup.Service,
	limiter limits.Service,
	evaluator *cel.Evaluator,
	pool *Pool,
	auditProducer audit.Producer,
	log logger.Logger,
) Service {
	return &service{
		addrs:     addrs,
		targets:   targets,
		registry:  registry,
		dedup:     dedupSvc,
		limiter:   limiter,
		evaluator: evaluator,
		pool:      pool,
		audit:     auditProducer,
		logger:    log,
	}
}

func (s *service) Push(ctx context.Context, req PushRequest) Result {
	result := s.push(ctx, req)
	metrics.PushTotal.WithLabelValues(result.String()).Inc()
	return result
}

func (s *service) push(ctx context.Context, req PushRequest) Result {
	if req.Addr == "" {
		return NotFound
	}

	a, err := s.addrs.GetByToken(ctx, req.Addr)
	if err != nil {
		if !pkgerrors.IsNotFound(err) {
			s.logger.ErrorwCtx(ctx, "addr lookup failed", "error", err)
			return Unavailable
		}
		return NotFound
	}
	if !a.Active {
		return Disabled
	}

	event := s.buildEvent(ctx, a.ID, req)
	ctx = logging.WithEventID(logging.WithAddr(ctx, a.ID), event.ID)

	size := int64(len(event.Msg) + len(event.Media))
	quota := limits.Quota{Count: a.LimCount, Size: a.LimSize}
	if err := s.limiter.Admit(ctx, a.ID, quota, size, event.Level); err != nil {
		if pkgerrors.IsOverlimit(err) {
			s.auditPush(ctx, event, "", "", "overlimit", nil)
			return Overlimit
		}
		s.logger.ErrorwCtx(ctx, "limiter failed", "error", err)
		return Unavailable
	}

	targets, err := s.targets.ActiveTargets(ctx, a.ID)
	if err != nil {
		s.logger.ErrorwCtx(ctx, "failed to load dispatch targets", "error", err)
		return Unavailable
	}

	eventCtx := models.NewEventContext(event, a.Token)
	hash := event.ContentHash()

	// First matching subscription wins per endpoint; the event is never
	// delivered twice through the same endpoint.
	delivered := make(map[string]bool)
	queued := 0

	for _, t := range targets {
		if delivered[t.EndpointID] {
			continue
		}
		if !s.matches(ctx, t, event) {
			continue
		}
		delivered[t.EndpointID] = true

		if !s.dedup.Allow(ctx, t.EndpointID, hash, t.SkipDups) {
			s.logger.DebugwCtx(ctx, "duplicate suppressed", "endpoint_id", t.EndpointID)
			s.auditPush(ctx, event, t.EndpointID, t.PluginName, "duplicate", nil)
			continue
		}

		sender, ok := s.registry.Get(t.PluginName)
		if !ok {
			s.logger.ErrorwCtx(ctx, "endpoint references unknown plugin",
				"endpoint_id", t.EndpointID, "plugin", t.PluginName)
			s.auditPush(ctx, event, t.EndpointID, t.PluginName, "no_plugin", nil)
			continue
		}

		endpointID := t.EndpointID
		pluginName := t.PluginName
		unit := sendUnit{
			endpointID: endpointID,
			sender:     sender,
			config:     t.Config,
			event:      eventCtx,
			onResult: func(status string, err error) {
				s.auditPush(context.Background(), event, endpointID, pluginName, status, err)
			},
		}

		if err := s.pool.Submit(ctx, unit); err != nil {
			s.logger.ErrorwCtx(ctx, "failed to queue delivery",
				"endpoint_id", t.EndpointID, "error", err)
			continue
		}
		queued++
	}

	s.logger.InfowCtx(ctx, "event accepted",
		"level", models.LevelName(event.Level), "location", event.Location,
		"matched", len(delivered), "queued", queued)

	s.audit.Publish(ctx, audit.Record{
		EventID:  event.ID,
		AddrID:   event.AddrID,
		Level:    event.Level,
		Location: event.Location,
		Status:   "accepted",
		Matched:  len(delivered),
	})
	return Accepted
}

func (s *service) buildEvent(ctx context.Context, addrID string, req PushRequest) *models.Event {
	event := &models.Event{
		ID:        uuid.New().String(),
		AddrID:    addrID,
		Level:     models.ParseLevel(req.Level),
		Location:  req.Location,
		Tags:      parseRequestTags(req.Tags),
		Sender:    req.Sender,
		Subject:   req.Subject,
		Msg:       req.Msg,
		CreatedAt: time.Now(),
	}

	if len(event.Msg) > constants.MaxMsgLen {
		event.Msg = event.Msg[:constants.MaxMsgLen]
	}

	if req.Media != "" {
		media, err := base64.StdEncoding.DecodeString(req.Media)
		switch {
		case err != nil:
			s.logger.WarnwCtx(ctx, "media decode failed, dropping attachment", "error", err)
		case len(media) > constants.MaxMediaSize:
			s.logger.WarnwCtx(ctx, "media too large, dropping attachment",
				"size", len(media))
		default:
			event.Media = media
			event.MediaFname = req.MediaFname
		}
	}

	event.FormattedSubject = models.FormatSubject(event.Level, event.Sender, event.Location, event.Subject)
	return event
}

func (s *service) matches(ctx context.Context, t Target, event *models.Event) bool {
	rule := matcher.Rule{
		Location:   t.Location,
		Tags:       t.Tags,
		Senders:    t.Senders,
		Level:      t.Level,
		LevelMatch: t.LevelMatch,
	}
	if !matcher.Matches(rule, event) {
		return false
	}

	if t.Filter != "" {
		ok, err := s.evaluator.EvaluateFilter(ctx, t.Filter, event)
		if err != nil {
			// A broken filter disables the subscription rather than the
			// whole push.
			s.logger.WarnwCtx(ctx, "filter evaluation failed, skipping subscription",
				"subscription_id", t.SubscriptionID, "error", err)
			return false
		}
		return ok
	}

	return true
}

func (s *service) auditPush(ctx context.Context, event *models.Event, endpointID, pluginName, status string, err error) {
	rec := audit.Record{
		EventID:    event.ID,
		AddrID:     event.AddrID,
		EndpointID: endpointID,
		Plugin:     pluginName,
		Level:      event.Level,
		Location:   event.Location,
		Status:     status,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	s.audit.Publish(ctx, rec)
}

// parseRequestTags accepts the tag forms the push API allows: a JSON list
// of strings or a single comma-separated string.
func parseRequestTags(v interface{}) []string {
	switch tags := v.(type) {
	case string:
		return models.ParseTags(tags)
	case []string:
		return normalizeTags(tags)
	case []interface{}:
		out := make([]string, 0, len(tags))
		for _, t := range tags {
			if s, ok := t.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
