package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alttch/roboger/pkg/models"
)

func TestLocationMatch(t *testing.T) {
	tests := []struct {
		mask     string
		location string
		want     bool
	}{
		{"", "dc1/rack2", true},
		{"", "", true},
		{"#", "dc1/rack2", true},
		{"#", "", true},
		{"dc1/rack2", "dc1/rack2", true},
		{"dc1/rack2", "dc1/rack3", false},
		{"dc1/rack2", "dc1", false},
		{"dc1/#", "dc1/rack2", true},
		{"dc1/#", "dc1/rack2/srv3", true},
		{"dc1/#", "dc2/rack2", false},
		{"dc1/#", "dc1", false},
		{"dc1/+/srv1", "dc1/rack2/srv1", true},
		{"dc1/+/srv1", "dc1/rack9/srv1", true},
		{"dc1/+/srv1", "dc1/srv1", false},
		{"dc1/+/srv1", "dc2/rack2/srv1", false},
		{"dc1/+/srv1", "dc1/rack2/srv2", false},
		{"+/rack2", "dc1/rack2", true},
		{"+", "dc1", true},
		{"+", "dc1/rack2", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LocationMatch(tt.mask, tt.location),
			"mask=%q location=%q", tt.mask, tt.location)
	}
}

func TestTagMatch(t *testing.T) {
	assert.True(t, TagMatch(nil, []string{"a"}))
	assert.True(t, TagMatch(nil, nil))
	assert.True(t, TagMatch([]string{"a", "b"}, []string{"b", "c"}))
	assert.False(t, TagMatch([]string{"a"}, []string{"b"}))
	assert.False(t, TagMatch([]string{"a"}, nil))
}

func TestSenderMatch(t *testing.T) {
	assert.True(t, SenderMatch(nil, "cron"))
	assert.True(t, SenderMatch([]string{"*"}, "cron"))
	assert.True(t, SenderMatch([]string{"monitor", "cron"}, "cron"))
	assert.False(t, SenderMatch([]string{"monitor"}, "cron"))
	assert.False(t, SenderMatch([]string{"monitor"}, ""))
}

func TestLevelMatch(t *testing.T) {
	tests := []struct {
		threshold int
		op        string
		level     int
		want      bool
	}{
		{0, "", models.LevelDebug, true},
		{models.LevelWarning, models.LevelMatchGE, models.LevelWarning, true},
		{models.LevelWarning, models.LevelMatchGE, models.LevelError, true},
		{models.LevelWarning, models.LevelMatchGE, models.LevelInfo, false},
		{models.LevelWarning, models.LevelMatchEqual, models.LevelWarning, true},
		{models.LevelWarning, models.LevelMatchEqual, models.LevelError, false},
		{models.LevelWarning, models.LevelMatchGreater, models.LevelWarning, false},
		{models.LevelWarning, models.LevelMatchGreater, models.LevelError, true},
		{models.LevelWarning, models.LevelMatchLess, models.LevelInfo, true},
		{models.LevelWarning, models.LevelMatchLess, models.LevelWarning, false},
		{models.LevelWarning, models.LevelMatchLE, models.LevelWarning, true},
		{models.LevelWarning, models.LevelMatchLE, models.LevelError, false},
		{models.LevelWarning, "bogus", models.LevelError, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelMatch(tt.threshold, tt.op, tt.level),
			"threshold=%d op=%q level=%d", tt.threshold, tt.op, tt.level)
	}
}

func TestMatchesCombinesPredicates(t *testing.T) {
	event := &models.Event{
		Level:    models.LevelError,
		Location: "dc1/rack2",
		Tags:     []string{"infra"},
		Sender:   "monitor",
	}

	assert.True(t, Matches(Rule{}, event))
	assert.True(t, Matches(Rule{
		Location:   "dc1/#",
		Tags:       []string{"infra", "net"},
		Senders:    []string{"monitor"},
		Level:      models.LevelWarning,
		LevelMatch: models.LevelMatchGE,
	}, event))
	assert.False(t, Matches(Rule{Location: "dc2/#"}, event))
	assert.False(t, Matches(Rule{Tags: []string{"db"}}, event))
	assert.False(t, Matches(Rule{Senders: []string{"cron"}}, event))
	assert.False(t, Matches(Rule{
		Level: models.LevelCritical, LevelMatch: models.LevelMatchGE,
	}, event))
}
