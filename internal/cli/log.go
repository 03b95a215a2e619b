package cli

import (
	"context"
	"io"
	"slices"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger creates a logger writing to w at level, with timestamps
// formatted as "15:04:05.00".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long an operation took.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Rendered 3 pages (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached to ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// zapLogger returns a zap logger whose entries are written by l.
func zapLogger(l *log.Logger) *zap.Logger {
	return zap.New(&charmCore{l: l})
}

// charmCore is a zapcore.Core that forwards entries to a charm logger.
type charmCore struct {
	l      *log.Logger
	fields []zapcore.Field
}

func (c *charmCore) Enabled(lvl zapcore.Level) bool {
	return charmLevel(lvl) >= c.l.GetLevel()
}

func (c *charmCore) With(fields []zapcore.Field) zapcore.Core {
	return &charmCore{l: c.l, fields: append(slices.Clip(c.fields), fields...)}
}

func (c *charmCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *charmCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	keyvals := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		keyvals = append(keyvals, k, enc.Fields[k])
	}
	c.l.Log(charmLevel(ent.Level), ent.Message, keyvals...)
	return nil
}

func (c *charmCore) Sync() error { return nil }

func charmLevel(l zapcore.Level) log.Level {
	switch {
	case l <= zapcore.DebugLevel:
		return log.DebugLevel
	case l == zapcore.InfoLevel:
		return log.InfoLevel
	case l == zapcore.WarnLevel:
		return log.WarnLevel
	}
	return log.ErrorLevel
}
