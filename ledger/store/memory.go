// Package store provides in-memory EventStore implementations.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/warp/worklog/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	events map[ledger.EventID]ledger.PunchEvent
	audit  []ledger.AuditEntry
	nextID ledger.EventID
}

func NewMemory() *Memory {
	return &Memory{
		events: make(map[ledger.EventID]ledger.PunchEvent),
		nextID: 1,
	}
}

func (m *Memory) FetchEvents(_ context.Context, interval ledger.DateInterval) ([]ledger.PunchEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fetchLocked(interval), nil
}

func (m *Memory) fetchLocked(interval ledger.DateInterval) []ledger.PunchEvent {
	var out []ledger.PunchEvent
	for _, e := range m.events {
		if interval.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

func (m *Memory) EventsByDate(_ context.Context, date ledger.Date) ([]ledger.PunchEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	day := m.fetchLocked(ledger.SingleDay(date))
	ledger.SortEvents(day)
	return day, nil
}

func (m *Memory) InsertEvent(_ context.Context, e ledger.PunchEvent) (ledger.EventID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(e), nil
}

func (m *Memory) insertLocked(e ledger.PunchEvent) ledger.EventID {
	e.ID = m.nextID
	m.nextID++
	m.events[e.ID] = e
	return e.ID
}

func (m *Memory) UpdateEvent(_ context.Context, e ledger.PunchEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(e)
}

func (m *Memory) updateLocked(e ledger.PunchEvent) error {
	if _, ok := m.events[e.ID]; !ok {
		return fmt.Errorf("event %d not found", e.ID)
	}
	m.events[e.ID] = e
	return nil
}

func (m *Memory) DeleteEvents(_ context.Context, ids ...ledger.EventID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.events, id)
	}
	return nil
}

func (m *Memory) SavePairIndices(_ context.Context, date ledger.Date, indices map[ledger.EventID]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.savePairsLocked(date, indices)
	return nil
}

func (m *Memory) savePairsLocked(date ledger.Date, indices map[ledger.EventID]int) {
	for id, idx := range indices {
		if e, ok := m.events[id]; ok && e.Date == date {
			e.PairIndex = idx
			m.events[id] = e
		}
	}
}

func (m *Memory) Dates(_ context.Context) ([]ledger.Date, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.datesLocked(), nil
}

func (m *Memory) datesLocked() []ledger.Date {
	seen := make(map[ledger.Date]bool)
	var dates []ledger.Date
	for _, e := range m.events {
		if !seen[e.Date] {
			seen[e.Date] = true
			dates = append(dates, e.Date)
		}
	}
	slices.SortFunc(dates, func(a, b ledger.Date) int {
		switch {
		case a.Before(b):
			return -1
		case a.After(b):
			return 1
		}
		return 0
	})
	return dates
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (m *Memory) AppendAudit(_ context.Context, entry ledger.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	return nil
}

// ListAudit returns the newest entries first.
func (m *Memory) ListAudit(_ context.Context, limit int) ([]ledger.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Clone(m.audit)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Reset clears all data (for testing/demo).
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make(map[ledger.EventID]ledger.PunchEvent)
	m.audit = nil
	m.nextID = 1
	return nil
}

// =============================================================================
// TRANSACTIONAL VIEW
// =============================================================================

// WithTx runs fn under the write lock and restores the previous state if fn fails.
func (m *Memory) WithTx(_ context.Context, fn func(ledger.EventStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	if err := fn(&txView{parent: m}); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	events map[ledger.EventID]ledger.PunchEvent
	nextID ledger.EventID
}

func (m *Memory) snapshot() memorySnapshot {
	events := make(map[ledger.EventID]ledger.PunchEvent, len(m.events))
	for k, v := range m.events {
		events[k] = v
	}
	return memorySnapshot{events: events, nextID: m.nextID}
}

func (m *Memory) restore(s memorySnapshot) {
	m.events = s.events
	m.nextID = s.nextID
}

// txView operates on the parent with its lock already held.
type txView struct {
	parent *Memory
}

func (tv *txView) FetchEvents(_ context.Context, interval ledger.DateInterval) ([]ledger.PunchEvent, error) {
	return tv.parent.fetchLocked(interval), nil
}

func (tv *txView) EventsByDate(_ context.Context, date ledger.Date) ([]ledger.PunchEvent, error) {
	day := tv.parent.fetchLocked(ledger.SingleDay(date))
	ledger.SortEvents(day)
	return day, nil
}

func (tv *txView) InsertEvent(_ context.Context, e ledger.PunchEvent) (ledger.EventID, error) {
	return tv.parent.insertLocked(e), nil
}

func (tv *txView) UpdateEvent(_ context.Context, e ledger.PunchEvent) error {
	return tv.parent.updateLocked(e)
}

func (tv *txView) DeleteEvents(_ context.Context, ids ...ledger.EventID) error {
	for _, id := range ids {
		delete(tv.parent.events, id)
	}
	return nil
}

func (tv *txView) SavePairIndices(_ context.Context, date ledger.Date, indices map[ledger.EventID]int) error {
	tv.parent.savePairsLocked(date, indices)
	return nil
}

func (tv *txView) Dates(_ context.Context) ([]ledger.Date, error) {
	return tv.parent.datesLocked(), nil
}
