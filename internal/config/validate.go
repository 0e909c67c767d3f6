package config

import (
	"github.com/axondata/go-launchd/internal/logger"
	"github.com/cockroachdb/errors"
)

// Validate checks values that would otherwise fail later and less clearly
func (c *Config) Validate() error {
	if c.Launchctl.Path == "" {
		return errors.New("launchctl.path cannot be empty")
	}
	if c.Launchctl.Timeout < 0 {
		return errors.Newf("launchctl.timeout must be >= 0, got %s", c.Launchctl.Timeout)
	}
	if c.Manager.Concurrency < 1 {
		return errors.Newf("manager.concurrency must be >= 1, got %d", c.Manager.Concurrency)
	}
	if c.Logs.TailLines < 0 {
		return errors.Newf("logs.tail_lines must be >= 0, got %d", c.Logs.TailLines)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	return nil
}
