package mapsync

import (
	"fmt"
	"time"
)

// Mode selects how local changes are written to the remote store
type Mode string

const (
	// ModeLegacy saves the whole state on every change with unordered
	// fire-and-forget calls. Pending deletions are dropped after each
	// attempt whether or not the delete succeeded.
	ModeLegacy Mode = "legacy"
	// ModeDurable queues changed records for a single writer that retries
	// with backoff and keeps deletions until they are confirmed
	ModeDurable Mode = "durable"
)

// ParseMode validates a configured mode. Empty means legacy.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeLegacy:
		return ModeLegacy, nil
	case ModeDurable:
		return ModeDurable, nil
	default:
		return "", fmt.Errorf("unknown sync mode %q", s)
	}
}

// Config controls the sync layer
type Config struct {
	Mode Mode
	// RetryDelay is the first backoff delay in durable mode; it doubles on
	// every failed attempt up to MaxRetryDelay
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// DefaultConfig returns the legacy configuration
func DefaultConfig() Config {
	return Config{
		Mode:          ModeLegacy,
		RetryDelay:    time.Second,
		MaxRetryDelay: time.Minute,
	}
}

// backoff returns the delay before retry number attempt (starting at 1)
func (c Config) backoff(attempt int) time.Duration {
	d := c.RetryDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= c.MaxRetryDelay {
			return c.MaxRetryDelay
		}
	}
	if d > c.MaxRetryDelay {
		return c.MaxRetryDelay
	}
	return d
}
