package cache

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// NameLookup resolves creature template entries to display names.
type NameLookup interface {
	LookupName(entryID uint32) (string, bool)
}

// StaticNames is a fixed entry -> name table.
type StaticNames map[uint32]string

func (s StaticNames) LookupName(entryID uint32) (string, bool) {
	n, ok := s[entryID]
	return n, ok
}

// LoadNames reads an entry -> name table from a YAML or JSON file.
func LoadNames(path string) (StaticNames, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read name table: %w", err)
	}

	// JSON keys are always strings, so decode keys as text and convert them here.
	raw := map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode name table %s: %w", path, err)
	}

	names := make(StaticNames, len(raw))
	for k, name := range raw {
		id, err := strconv.ParseUint(strings.TrimSpace(k), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid entry id %q in name table %s: %w", k, path, err)
		}
		names[uint32(id)] = name
	}
	return names, nil
}

// NameCache memoizes lookups against a slower NameLookup, including misses.
type NameCache struct {
	mu    sync.RWMutex
	src   NameLookup
	names map[uint32]string
	miss  map[uint32]struct{}
}

// NewNameCache wraps src. A nil src makes every lookup a miss.
func NewNameCache(src NameLookup) *NameCache {
	return &NameCache{
		src:   src,
		names: make(map[uint32]string),
		miss:  make(map[uint32]struct{}),
	}
}

func (c *NameCache) LookupName(entryID uint32) (string, bool) {
	c.mu.RLock()
	if n, ok := c.names[entryID]; ok {
		c.mu.RUnlock()
		return n, true
	}
	if _, ok := c.miss[entryID]; ok {
		c.mu.RUnlock()
		return "", false
	}
	c.mu.RUnlock()

	var (
		n  string
		ok bool
	)
	if c.src != nil {
		n, ok = c.src.LookupName(entryID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ok {
		c.names[entryID] = n
	} else {
		c.miss[entryID] = struct{}{}
	}
	return n, ok
}
