package world

import (
	"time"

	"golang.org/x/time/rate"
)

type WorldConfig struct {
	// HarvestRadius is the inclusive reach for ACTION_HARVEST.
	HarvestRadius float64

	ChatMaxRunes int
	ChatRate     rate.Limit
	ChatBurst    int

	InboxSize int

	// FlushInterval bounds how long a position-only ledger change may stay unwritten.
	// Zero disables the periodic flush.
	FlushInterval time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

func (c WorldConfig) withDefaults() WorldConfig {
	if c.HarvestRadius <= 0 {
		c.HarvestRadius = 3.0
	}
	if c.ChatMaxRunes <= 0 {
		c.ChatMaxRunes = 280
	}
	if c.ChatRate <= 0 {
		c.ChatRate = rate.Limit(1)
	}
	if c.ChatBurst <= 0 {
		c.ChatBurst = 5
	}
	if c.InboxSize <= 0 {
		c.InboxSize = 1024
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}
