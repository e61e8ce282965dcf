// Package monitor watches combat log files and triggers a re-parse when they grow.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last write before OnChange runs.
const DefaultDebounce = 500 * time.Millisecond

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Paths    []string
	Debounce time.Duration
	OnChange func(ctx context.Context) error
	Logger   *slog.Logger
}

type fileState struct {
	modTime time.Time
	size    int64
}

// Service watches the configured files. OnChange calls never overlap.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
	files     map[string]*fileState
	watcher   *fsnotify.Watcher
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Debounce <= 0 {
		deps.Debounce = DefaultDebounce
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
		files:    map[string]*fileState{},
	}
}

// IsRunning returns whether the watch loop is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Start registers the files and starts the watch loop. The loop ends when ctx
// is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	files := map[string]*fileState{}
	dirs := map[string]struct{}{}
	for _, p := range s.deps.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = w.Close()
			return fmt.Errorf("failed to resolve path %s: %w", p, err)
		}
		st, err := os.Stat(abs)
		if err != nil {
			_ = w.Close()
			return fmt.Errorf("failed to stat %s: %w", abs, err)
		}
		files[abs] = &fileState{modTime: st.ModTime(), size: st.Size()}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	// fsnotify is more reliable on the parent directory than on the file
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	s.watcher = w
	s.files = files
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})

	go s.loop(ctx)
	return nil
}

func (s *Service) loop(ctx context.Context) {
	defer func() {
		_ = s.watcher.Close()
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		close(s.done)
	}()

	logger := s.deps.Logger
	trigger := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, watched := s.files[abs]; !watched {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(s.deps.Debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			if !s.changed() {
				continue
			}
			if s.deps.OnChange == nil {
				continue
			}
			if err := s.deps.OnChange(ctx); err != nil {
				logger.Error("re-parse failed", "error", err)
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

// changed refreshes the recorded size and mtime and reports whether any file moved.
func (s *Service) changed() bool {
	moved := false
	for path, st := range s.files {
		info, err := os.Stat(path)
		if err != nil {
			s.deps.Logger.Warn("failed to stat watched file", "path", path, "error", err)
			continue
		}
		if info.ModTime().Equal(st.modTime) && info.Size() == st.size {
			continue
		}
		st.modTime = info.ModTime()
		st.size = info.Size()
		moved = true
	}
	return moved
}

// Stop stops the watch loop and waits for it to exit
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.isRunning = false
	s.mu.Unlock()
	<-done
}

// Done is closed when the watch loop exits.
func (s *Service) Done() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done
}
