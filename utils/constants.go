// Package utils provides utility functions for the application.
package utils

import (
	"time"
)

// Webhook constants
const (
	// SignatureHeader carries the hex HMAC-SHA256 of the raw request body
	SignatureHeader = "X-Webhook-Signature"

	// DefaultExternalSource labels ledger entries produced by the learning platform
	DefaultExternalSource = "learning_platform"
)

// Cache constants
const (
	// LeaderboardCacheTTL is how long a computed leaderboard stays cached
	LeaderboardCacheTTL = 60 * time.Second
)

// Scheduler constants
const (
	// BackfillInterval is the default period between reconciliation sweeps
	BackfillInterval = 5 * time.Minute

	// BackfillScanLimit caps the contacts examined per sweep
	BackfillScanLimit = 500
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Leaderboard constants
const (
	// DefaultLeaderboardSize is the row count returned when no limit is given
	DefaultLeaderboardSize = 10
)
