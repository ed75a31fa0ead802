package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel(10))
	assert.Equal(t, LevelCritical, ParseLevel(float64(50)))
	assert.Equal(t, LevelInfo, ParseLevel(42), "unknown numbers default to INFO")
	assert.Equal(t, LevelInfo, ParseLevel(nil))

	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarning, ParseLevel("warn"))
	assert.Equal(t, LevelWarning, ParseLevel("WARNING"))
	assert.Equal(t, LevelError, ParseLevel("err"))
	assert.Equal(t, LevelCritical, ParseLevel("c"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelName(LevelDebug))
	assert.Equal(t, "CRITICAL", LevelName(LevelCritical))
	assert.Equal(t, "", LevelName(99))
}

func TestIsValidLevelMatch(t *testing.T) {
	for _, op := range []string{"e", "g", "l", "ge", "le"} {
		assert.True(t, IsValidLevelMatch(op), op)
	}
	assert.False(t, IsValidLevelMatch("gte"))
	assert.False(t, IsValidLevelMatch(""))
}
