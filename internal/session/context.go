package session

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/OCAP2/combatlog/pkg/core"
	"github.com/google/uuid"
)

// Context holds the parse run currently in progress. The watch command swaps
// runs while the logger keeps reading from the same Context.
type Context struct {
	mu  sync.RWMutex
	run *core.Run
}

// NewContext creates a Context with no run loaded.
func NewContext() *Context {
	return &Context{}
}

// Begin starts a new run over the given files and makes it current.
func (c *Context) Begin(primaryFile, rawFile string, now time.Time) *core.Run {
	run := &core.Run{
		ID:          uuid.NewString(),
		PrimaryFile: primaryFile,
		RawFile:     rawFile,
		StartedAt:   now,
	}
	c.SetRun(run)
	return run
}

// Run returns the current run, or nil.
func (c *Context) Run() *core.Run {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.run
}

// SetRun replaces the current run.
func (c *Context) SetRun(run *core.Run) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.run = run
}

// Attrs returns log attributes for the current run. It is a logging.ContextProvider.
func (c *Context) Attrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.run == nil {
		return nil
	}
	attrs := []slog.Attr{
		slog.String("run", c.run.ID),
		slog.String("primary", filepath.Base(c.run.PrimaryFile)),
	}
	if c.run.RawFile != "" {
		attrs = append(attrs, slog.String("raw", filepath.Base(c.run.RawFile)))
	}
	return attrs
}
