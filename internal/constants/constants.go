package constants

import "time"

const (
	DefaultHTTPTimeout = 10 * time.Second
	DefaultSendTimeout = 5 * time.Second
)

const (
	CacheKeyPrefixDedup     = "dedup:ep:"
	CacheKeyPrefixLimCount  = "lim:c:"
	CacheKeyPrefixLimSize   = "lim:s:"
)

const (
	ShutdownTimeout = 10 * time.Second
)

const (
	// MaxMsgLen is the push message cap; longer messages are silently
	// truncated.
	MaxMsgLen = 4096
	// MaxMediaSize is the decoded media cap; larger attachments are
	// silently dropped, not truncated.
	MaxMediaSize = 16 * 1024 * 1024
)

const (
	DefaultDispatchWorkers    = 10
	DefaultDispatchQueueDepth = 1024
)

const (
	DefaultLimitPeriod     = time.Hour
	DefaultReserveFraction = 0.1
)

const (
	AuthKeyHeader = "X-Auth-Key"
)

const (
	FallbackAllow = "allow"
	FallbackDeny  = "deny"
)

// TokenLength is the length of an address token in hex characters.
const TokenLength = 64
