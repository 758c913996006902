package storage

import (
	"context"
	"sort"
	"sync"

	"kanban-flow/domain"
)

// Memory is the default in-process card store. Safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	cards map[string]domain.Card
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{cards: make(map[string]domain.Card)}
}

// cloneCard copies the card so callers never alias the stored comment slice.
func cloneCard(c domain.Card) domain.Card {
	if c.Comments != nil {
		c.Comments = append([]domain.Comment(nil), c.Comments...)
	}
	return c
}

func (m *Memory) Put(ctx context.Context, card domain.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards[card.ID] = cloneCard(card)
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (domain.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cards[id]
	if !ok {
		return domain.Card{}, domain.ErrNotFound
	}
	return cloneCard(c), nil
}

func (m *Memory) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[id]; !ok {
		return false, nil
	}
	delete(m.cards, id)
	return true, nil
}

func (m *Memory) List(ctx context.Context, f ListFilter) ([]domain.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Card, 0, len(m.cards))
	for _, c := range m.cards {
		if f.matches(c) {
			out = append(out, cloneCard(c))
		}
	}
	return out, nil
}

func (m *Memory) Projects(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, c := range m.cards {
		seen[c.Project] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for p := range seen {
		names = append(names, p)
	}
	sort.Strings(names)
	return names, nil
}
