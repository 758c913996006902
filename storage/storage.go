// Package storage provides the durable card mapping behind the board
// service. Two backends exist: an in-memory store for single-process
// deployments and tests, and a Redis-backed store for deployments that need
// the board to survive restarts. Neither backend sorts listings; ordering by
// the card's order field is the caller's concern.
package storage

import (
	"context"

	"kanban-flow/domain"
)

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	Project string
	Status  domain.Status
}

func (f ListFilter) matches(c domain.Card) bool {
	if f.Project != "" && c.Project != f.Project {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	return true
}

// CardStore is the durable id -> card mapping plus derived listings.
type CardStore interface {
	// Put upserts the card under its id.
	Put(ctx context.Context, card domain.Card) error
	// Get returns the card or domain.ErrNotFound.
	Get(ctx context.Context, id string) (domain.Card, error)
	// Delete removes the card, reporting whether it existed. Deleting an
	// absent id is a no-op, not an error.
	Delete(ctx context.Context, id string) (bool, error)
	// List returns all cards matching the filter, in no guaranteed order.
	List(ctx context.Context, f ListFilter) ([]domain.Card, error)
	// Projects returns the distinct project names, lexicographically sorted.
	Projects(ctx context.Context) ([]string, error)
}
