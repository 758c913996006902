// Package board implements the ordering and move engine on top of a card
// store, and fans resulting mutations out to the change broadcaster.
//
// Order values are dense integer ranks within a (project, status) bucket.
// Appending to a bucket takes one past the current maximum and leaves the
// rest of the bucket untouched; any positioned placement splices the card in
// and renumbers the whole destination bucket 1..N.
package board

import (
	"sort"

	"kanban-flow/domain"
)

// SortBucket orders one bucket's cards for display: ascending order, id as
// the deterministic tie-break.
func SortBucket(cards []domain.Card) {
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].Order != cards[j].Order {
			return cards[i].Order < cards[j].Order
		}
		return cards[i].ID < cards[j].ID
	})
}

// SortCards orders a cross-bucket listing: project, status in board order,
// then bucket order with id tie-break.
func SortCards(cards []domain.Card) {
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].Project != cards[j].Project {
			return cards[i].Project < cards[j].Project
		}
		if r1, r2 := cards[i].Status.Rank(), cards[j].Status.Rank(); r1 != r2 {
			return r1 < r2
		}
		if cards[i].Order != cards[j].Order {
			return cards[i].Order < cards[j].Order
		}
		return cards[i].ID < cards[j].ID
	})
}

// NextOrder returns the append rank for a bucket: one past the current
// maximum, starting at 1 on an empty bucket.
func NextOrder(bucket []domain.Card) int {
	max := 0
	for _, c := range bucket {
		if c.Order > max {
			max = c.Order
		}
	}
	return max + 1
}

// InsertAt splices moved into the bucket at the given 0-based index and
// returns the resulting bucket order. The input bucket must not contain the
// moved card; it is sorted in place first. Out-of-range indexes clamp to the
// end of the bucket.
func InsertAt(bucket []domain.Card, moved domain.Card, index int) []domain.Card {
	SortBucket(bucket)
	if index < 0 {
		index = 0
	}
	if index > len(bucket) {
		index = len(bucket)
	}
	out := make([]domain.Card, 0, len(bucket)+1)
	out = append(out, bucket[:index]...)
	out = append(out, moved)
	out = append(out, bucket[index:]...)
	return out
}

// Renumber assigns dense ranks 1..N to the bucket slice in place and returns
// the cards whose order actually changed.
func Renumber(bucket []domain.Card) []domain.Card {
	var changed []domain.Card
	for i := range bucket {
		if want := i + 1; bucket[i].Order != want {
			bucket[i].Order = want
			changed = append(changed, bucket[i])
		}
	}
	return changed
}

// indexOf returns the position of id within the sorted bucket, or -1.
func indexOf(bucket []domain.Card, id string) int {
	for i, c := range bucket {
		if c.ID == id {
			return i
		}
	}
	return -1
}
