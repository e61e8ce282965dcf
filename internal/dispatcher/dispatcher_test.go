package dispatcher

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/OCAP2/combatlog/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("DEBUG: %s %v", msg, keysAndValues))
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("INFO: %s %v", msg, keysAndValues))
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("ERROR: %s %v", msg, keysAndValues))
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	t.Helper()
	logger := &testLogger{}

	d, err := New(logger)
	require.NoError(t, err)

	return d, logger
}

func TestDispatcher_RoutesByKind(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var got []core.EventKind
	record := func(e *core.Event) error {
		got = append(got, e.Kind)
		return nil
	}
	d.Register(core.EventSpellDamage, record)
	d.Register(core.EventUnitDied, record)

	require.NoError(t, d.Dispatch(&core.Event{Kind: core.EventUnitDied}))
	require.NoError(t, d.Dispatch(&core.Event{Kind: core.EventSpellDamage}))

	assert.Equal(t, []core.EventKind{core.EventUnitDied, core.EventSpellDamage}, got)
	assert.True(t, d.HasHandler(core.EventSpellDamage))
	assert.False(t, d.HasHandler(core.EventSpellHeal))
}

func TestDispatcher_Unhandled(t *testing.T) {
	d, _ := newTestDispatcher(t)

	err := d.Dispatch(&core.Event{Kind: "SPELL_ABSORBED"})
	assert.ErrorIs(t, err, ErrUnhandled)
}

func TestDispatcher_Fallback(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var kinds []core.EventKind
	d.Fallback(func(e *core.Event) error {
		kinds = append(kinds, e.Kind)
		return nil
	})

	require.NoError(t, d.Dispatch(&core.Event{Kind: "SPELL_ABSORBED"}))
	assert.Equal(t, []core.EventKind{"SPELL_ABSORBED"}, kinds)
}

func TestDispatcher_HandlerError(t *testing.T) {
	d, _ := newTestDispatcher(t)

	boom := errors.New("boom")
	d.Register(core.EventSpellHeal, func(e *core.Event) error { return boom })

	assert.ErrorIs(t, d.Dispatch(&core.Event{Kind: core.EventSpellHeal}), boom)
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register(core.EventSpellDamage, func(e *core.Event) error { return nil }, Logged())
	require.NoError(t, d.Dispatch(&core.Event{Kind: core.EventSpellDamage, Line: 4}))

	logger.mu.Lock()
	defer logger.mu.Unlock()
	assert.GreaterOrEqual(t, len(logger.messages), 2)
}

func TestDispatcher_LoggedHandlerError(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register(core.EventUnitDied, func(e *core.Event) error {
		return fmt.Errorf("test error")
	}, Logged())

	assert.Error(t, d.Dispatch(&core.Event{Kind: core.EventUnitDied}))

	logger.mu.Lock()
	defer logger.mu.Unlock()

	hasError := false
	for _, msg := range logger.messages {
		if strings.HasPrefix(msg, "ERROR") {
			hasError = true
		}
	}
	assert.True(t, hasError, "expected error log message")
}
