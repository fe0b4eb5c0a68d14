// Package reconcile derives, classifies and cross-checks the tax and monetary
// facts of an invoice independently of the document format they come from.
// Every function works on values owned by a single conversion and reports
// problems as findings instead of failing.
package reconcile

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Context carries the state of a single document conversion: the
// configuration, the caller's finding sink and the tax category cache.
// A Context must not be shared between conversions.
type Context struct {
	id       string
	cfg      Config
	sink     Sink
	resolver *Resolver
	log      zerolog.Logger
}

// Option is used to prepare a new Context.
type Option func(*Context)

// WithConfig sets the numeric configuration.
func WithConfig(cfg Config) Option {
	return func(c *Context) {
		c.cfg = cfg
	}
}

// WithSink sets the sink that will receive findings.
func WithSink(s Sink) Option {
	return func(c *Context) {
		c.sink = s
	}
}

// WithLogger sets the logger used to trace findings.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Context) {
		c.log = l
	}
}

// WithID overrides the generated conversion id.
func WithID(id string) Option {
	return func(c *Context) {
		c.id = id
	}
}

// NewContext prepares a context for one conversion. Without options it
// uses DefaultConfig, a fresh Findings sink and a no-op logger.
func NewContext(opts ...Option) *Context {
	c := &Context{
		cfg: DefaultConfig(),
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.id == "" {
		c.id = uuid.NewString()
	}
	if c.sink == nil {
		c.sink = new(Findings)
	}
	c.resolver = NewResolver()
	c.log = c.log.With().Str("conversion_id", c.id).Logger()
	return c
}

// ID returns the conversion id used in log entries.
func (c *Context) ID() string {
	return c.id
}

// Config returns the numeric configuration.
func (c *Context) Config() Config {
	return c.cfg
}

// Sink returns the sink findings are sent to.
func (c *Context) Sink() Sink {
	return c.sink
}

// Resolver returns the per-document tax category resolver.
func (c *Context) Resolver() *Resolver {
	return c.resolver
}

// Logger returns the conversion logger.
func (c *Context) Logger() *zerolog.Logger {
	return &c.log
}

// Info records an informational finding.
func (c *Context) Info(path, format string, args ...any) {
	c.report(SeverityInfo, path, fmt.Sprintf(format, args...))
}

// Warn records a warning finding.
func (c *Context) Warn(path, format string, args ...any) {
	c.report(SeverityWarning, path, fmt.Sprintf(format, args...))
}

// Error records an error finding. Conversions carry on after an error
// finding and still produce a best-effort document.
func (c *Context) Error(path, format string, args ...any) {
	c.report(SeverityError, path, fmt.Sprintf(format, args...))
}

func (c *Context) report(s Severity, path, msg string) {
	c.sink.Add(Finding{Path: path, Severity: s, Message: msg})

	level := zerolog.DebugLevel
	switch s {
	case SeverityWarning:
		level = zerolog.WarnLevel
	case SeverityError:
		level = zerolog.ErrorLevel
	}
	c.log.WithLevel(level).Str("path", path).Msg(msg)
}
