package notify

import "time"

// Config controls the notification worker pool.
type Config struct {
	Enabled      bool
	Concurrency  int
	PollInterval time.Duration
	MaxAttempts  int
}

// DefaultConfig returns the default worker configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		Concurrency:  2,
		PollInterval: 2 * time.Second,
		MaxAttempts:  3,
	}
}

// withDefaults fills in zero values so a partially specified config
// still runs.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	return c
}
