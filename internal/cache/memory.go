// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	projection UserProjection
	expiresAt  time.Time
}

// Memory is an in-process Cache backend. It is used in tests and as
// the fallback when no redis address is configured.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) GetUser(_ context.Context, username string) (*UserProjection, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[userKey(username)]
	if !ok {
		return nil, false, nil
	}
	if m.now().After(entry.expiresAt) {
		delete(m.entries, userKey(username))
		return nil, false, nil
	}
	p := entry.projection
	return &p, true, nil
}

func (m *Memory) SetUser(_ context.Context, p *UserProjection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[userKey(p.Username)] = memoryEntry{
		projection: *p,
		expiresAt:  m.now().Add(TTL),
	}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, userKey(username))
	return nil
}

// SetClock replaces the time source, for expiry tests.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}
