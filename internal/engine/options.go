package engine

import (
	"log/slog"

	"github.com/OCAP2/combatlog/internal/cache"
	"github.com/OCAP2/combatlog/internal/fight"
	"github.com/coder/quartz"
)

// DefaultDecodeFailureThreshold is the share of undecodable bytes above which a
// buffer is not treated as text.
const DefaultDecodeFailureThreshold = 0.3

// DefaultMaxDiagnostics bounds the diagnostics kept in a snapshot.
const DefaultMaxDiagnostics = 100

type options struct {
	logger         *slog.Logger
	year           int
	clock          quartz.Clock
	threshold      float64
	maxDiagnostics int
	fight          fight.Config
	names          cache.NameLookup
}

func defaultOptions() options {
	return options{
		logger:         slog.Default(),
		threshold:      DefaultDecodeFailureThreshold,
		maxDiagnostics: DefaultMaxDiagnostics,
		fight:          fight.DefaultConfig(),
	}
}

// Option configures a parse.
type Option func(*options)

// WithLogger sets the logger used by every stage of the parse.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithYear fixes the year for timestamps, which the log does not carry.
func WithYear(year int) Option {
	return func(o *options) {
		o.year = year
	}
}

// WithClock sets the clock used to guess the year.
func WithClock(clock quartz.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithDecodeFailureThreshold sets the undecodable share above which a buffer is rejected.
func WithDecodeFailureThreshold(threshold float64) Option {
	return func(o *options) {
		o.threshold = threshold
	}
}

// WithMaxDiagnostics bounds how many diagnostics the snapshot lists. Counts stay exact.
func WithMaxDiagnostics(n int) Option {
	return func(o *options) {
		o.maxDiagnostics = n
	}
}

// WithFightConfig sets the fight detection policy.
func WithFightConfig(cfg fight.Config) Option {
	return func(o *options) {
		o.fight = cfg
	}
}

// WithNames sets the NPC entry name table.
func WithNames(names cache.NameLookup) Option {
	return func(o *options) {
		o.names = names
	}
}
