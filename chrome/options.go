package chrome

import (
	"time"

	"go.uber.org/zap"
)

// config holds internal configuration for an Engine.
type config struct {
	timeout      time.Duration
	chromePath   string
	noSandbox    bool
	autoDownload bool
	logger       *zap.Logger
}

func defaultConfig() config {
	return config{
		timeout: 30 * time.Second,
		logger:  zap.NewNop(),
	}
}

// Option configures an [Engine].
type Option func(*config)

// WithTimeout sets the maximum duration of a single load or render.
// Defaults to 30 seconds. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithChromePath sets the path to the Chrome or Chromium executable.
// If empty, the system default is used.
func WithChromePath(path string) Option {
	return func(c *config) {
		c.chromePath = path
	}
}

// WithNoSandbox disables the Chrome sandbox. This is often required when
// running inside Docker containers or CI environments.
func WithNoSandbox() Option {
	return func(c *config) {
		c.noSandbox = true
	}
}

// WithAutoDownload downloads a compatible Chromium build on first use when
// no executable path is configured. The binary is cached in the user's
// cache directory.
func WithAutoDownload() Option {
	return func(c *config) {
		c.autoDownload = true
	}
}

// WithLogger sets the logger for browser and tab lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
