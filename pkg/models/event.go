package models

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Event is the ephemeral unit of work created per push. It is owned by the
// dispatch invocation that built it and never mutated afterwards.
type Event struct {
	ID               string    `json:"id"`
	AddrID           string    `json:"addr_id"`
	Level            int       `json:"level"`
	Location         string    `json:"location"`
	Tags             []string  `json:"tags"`
	Sender           string    `json:"sender"`
	Subject          string    `json:"subject"`
	Msg              string    `json:"msg"`
	Media            []byte    `json:"-"`
	MediaFname       string    `json:"media_fname,omitempty"`
	FormattedSubject string    `json:"formatted_subject"`
	CreatedAt        time.Time `json:"created_at"`
}

// FormatSubject builds the derived subject line
// "{LEVEL_NAME} {sender}@{location}: {subject}" with empty parts omitted.
func FormatSubject(level int, sender, location, subject string) string {
	var b strings.Builder
	b.WriteString(LevelName(level))
	switch {
	case sender != "" && location != "":
		b.WriteString(" " + sender + "@" + location)
	case location != "":
		b.WriteString(" @" + location)
	case sender != "":
		b.WriteString(" " + sender)
	}
	if subject != "" {
		b.WriteString(": " + subject)
	}
	return b.String()
}

// ContentHash returns a stable SHA-256 digest over the event content, used
// by the per-endpoint duplicate filter. The field order and NUL separators
// are part of the contract: changing them invalidates stored hashes.
func (e *Event) ContentHash() string {
	h := sha256.New()
	h.Write([]byte(e.Location))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(e.Tags, ",")))
	h.Write([]byte{0})
	h.Write([]byte(e.Sender))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(e.Level)))
	h.Write([]byte{0})
	h.Write([]byte(e.Subject))
	h.Write([]byte{0})
	h.Write([]byte(e.Msg))
	h.Write([]byte{0})
	if len(e.Media) > 0 {
		h.Write(e.Media)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// EventContext is the payload handed to delivery plugins. It is a flat,
// plugin-friendly view of an Event plus the owning address.
type EventContext struct {
	EventID          string   `json:"event_id"`
	Addr             string   `json:"addr"`
	AddrID           string   `json:"addr_id"`
	Level            int      `json:"level"`
	LevelName        string   `json:"level_name"`
	Location         string   `json:"location"`
	Tags             []string `json:"tags"`
	Sender           string   `json:"sender"`
	Subject          string   `json:"subject"`
	FormattedSubject string   `json:"formatted_subject"`
	Msg              string   `json:"msg"`
	Media            []byte   `json:"-"`
	MediaEncoded     string   `json:"media,omitempty"`
	MediaFname       string   `json:"media_fname,omitempty"`
}

// NewEventContext flattens an event for plugin consumption.
func NewEventContext(e *Event, addrToken string) *EventContext {
	ec := &EventContext{
		EventID:          e.ID,
		Addr:             addrToken,
		AddrID:           e.AddrID,
		Level:            e.Level,
		LevelName:        LevelName(e.Level),
		Location:         e.Location,
		Tags:             e.Tags,
		Sender:           e.Sender,
		Subject:          e.Subject,
		FormattedSubject: e.FormattedSubject,
		Msg:              e.Msg,
		MediaFname:       e.MediaFname,
	}
	if len(e.Media) > 0 {
		ec.Media = e.Media
		ec.MediaEncoded = base64.StdEncoding.EncodeToString(e.Media)
	}
	return ec
}

// ParseTags splits a comma-separated tag string, trimming whitespace and
// dropping empty entries.
func ParseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
