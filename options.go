package htmlbook

import (
	"go.uber.org/zap"

	"github.com/porticus-lab/htmlbook/engine"
)

// documentConfig holds internal configuration for a Document.
type documentConfig struct {
	engine        engine.Engine
	logger        *zap.Logger
	maxOutputSize int
}

func defaultDocumentConfig() documentConfig {
	return documentConfig{
		logger: Logger(),
	}
}

// Option configures a [Document].
type Option func(*documentConfig)

// WithEngine sets the engine the document is rendered with. By default the
// shared engine returned by [DefaultEngine] is used.
func WithEngine(e engine.Engine) Option {
	return func(c *documentConfig) {
		c.engine = e
	}
}

// WithLogger sets the logger for document lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(c *documentConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxOutputSize limits the size of in-memory render results. A render
// whose output grows past n bytes fails with [ErrSinkFull]. Zero or a
// negative value means no limit, which is the default.
func WithMaxOutputSize(n int) Option {
	return func(c *documentConfig) {
		c.maxOutputSize = n
	}
}
