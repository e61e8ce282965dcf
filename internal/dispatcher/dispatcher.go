package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OCAP2/combatlog/pkg/core"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrUnhandled is returned for an event kind with no handler and no fallback.
var ErrUnhandled = errors.New("no handler for event kind")

// HandlerFunc processes one decoded event.
type HandlerFunc func(*core.Event) error

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	logged bool
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher routes events to the handler registered for their kind. Handlers
// run synchronously on the caller's goroutine, in dispatch order.
type Dispatcher struct {
	handlers map[core.EventKind]HandlerFunc
	fallback HandlerFunc
	logger   Logger

	processed metric.Int64Counter
	unhandled metric.Int64Counter
	failed    metric.Int64Counter
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[core.EventKind]HandlerFunc),
		logger:   logger,
	}

	m := meter()

	var err error

	d.processed, err = m.Int64Counter(
		"dispatcher.events.processed",
		metric.WithDescription("Total events processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.unhandled, err = m.Int64Counter(
		"dispatcher.events.unhandled",
		metric.WithDescription("Events whose kind has no handler"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating unhandled counter: %w", err)
	}

	d.failed, err = m.Int64Counter(
		"dispatcher.events.failed",
		metric.WithDescription("Events whose handler returned an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given kind with optional configuration.
func (d *Dispatcher) Register(kind core.EventKind, h HandlerFunc, opts ...Option) {
	d.handlers[kind] = d.wrap(string(kind), h, opts)
}

// Fallback sets the handler for kinds without a registered handler.
func (d *Dispatcher) Fallback(h HandlerFunc, opts ...Option) {
	d.fallback = d.wrap("fallback", h, opts)
}

func (d *Dispatcher) wrap(name string, h HandlerFunc, opts []Option) HandlerFunc {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logged {
		h = d.withLogging(name, h)
	}
	return h
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e *core.Event) error {
	kindAttr := metric.WithAttributes(attribute.String("kind", string(e.Kind)))

	h, ok := d.handlers[e.Kind]
	if !ok {
		d.unhandled.Add(context.Background(), 1, kindAttr)
		if d.fallback == nil {
			return fmt.Errorf("%w: %s", ErrUnhandled, e.Kind)
		}
		h = d.fallback
	}

	if err := h(e); err != nil {
		d.failed.Add(context.Background(), 1, kindAttr)
		return err
	}
	d.processed.Add(context.Background(), 1, kindAttr)
	return nil
}

// HasHandler returns true if a handler is registered for the kind.
func (d *Dispatcher) HasHandler(kind core.EventKind) bool {
	_, ok := d.handlers[kind]
	return ok
}

func (d *Dispatcher) withLogging(name string, h HandlerFunc) HandlerFunc {
	return func(e *core.Event) error {
		start := time.Now()
		d.logger.Debug("handling event", "handler", name, "kind", e.Kind, "line", e.Line, "stream", e.Stream)

		err := h(e)

		if err != nil {
			d.logger.Error("event failed", "handler", name, "line", e.Line, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "handler", name, "line", e.Line, "duration", time.Since(start))
		}

		return err
	}
}
