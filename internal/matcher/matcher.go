// Package matcher decides which subscriptions an event satisfies. All
// functions are pure: no I/O, no shared state.
package matcher

import (
	"strings"

	"github.com/alttch/roboger/pkg/models"
)

// Rule is the filter part of a subscription. Empty fields are permissive,
// so the zero Rule matches every event.
type Rule struct {
	Location   string
	Tags       []string
	Senders    []string
	Level      int
	LevelMatch string
}

// Matches reports whether the event satisfies every predicate of the rule.
func Matches(r Rule, e *models.Event) bool {
	return LocationMatch(r.Location, e.Location) &&
		TagMatch(r.Tags, e.Tags) &&
		SenderMatch(r.Senders, e.Sender) &&
		LevelMatch(r.Level, r.LevelMatch, e.Level)
}

// LocationMatch implements the hierarchical location filter. Segments are
// separated by "/"; "#" matches this segment and everything after it, "+"
// matches exactly one segment.
func LocationMatch(mask, location string) bool {
	if mask == "" || mask == "#" || mask == location {
		return true
	}
	if p := strings.Index(mask, "#"); p > -1 {
		if len(location) >= p && mask[:p] == location[:p] {
			return true
		}
	}
	if strings.Contains(mask, "+") {
		mg := strings.Split(mask, "/")
		lg := strings.Split(location, "/")
		if len(mg) != len(lg) {
			return false
		}
		for i := range mg {
			if mg[i] != "+" && mg[i] != lg[i] {
				return false
			}
		}
		return true
	}
	return false
}

// TagMatch reports whether the event carries at least one of the
// subscription's tags. An empty subscription tag set matches everything.
func TagMatch(subTags, eventTags []string) bool {
	if len(subTags) == 0 {
		return true
	}
	for _, t := range eventTags {
		for _, st := range subTags {
			if t == st {
				return true
			}
		}
	}
	return false
}

// SenderMatch reports whether the event sender is accepted. An empty
// sender list or a literal "*" entry matches everything.
func SenderMatch(senders []string, sender string) bool {
	if len(senders) == 0 {
		return true
	}
	for _, s := range senders {
		if s == "*" || s == sender {
			return true
		}
	}
	return false
}

// LevelMatch compares the event level against the subscription threshold
// using the given operator. Unknown operators never match.
func LevelMatch(threshold int, op string, level int) bool {
	if threshold == 0 {
		return true
	}
	switch op {
	case models.LevelMatchEqual:
		return level == threshold
	case models.LevelMatchLess:
		return level < threshold
	case models.LevelMatchLE:
		return level <= threshold
	case models.LevelMatchGreater:
		return level > threshold
	case models.LevelMatchGE:
		return level >= threshold
	}
	return false
}
