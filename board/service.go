package board

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"kanban-flow/domain"
	"kanban-flow/storage"
)

// Publisher receives mutation events after they are committed to the store.
// Publish must not block; delivery failures stay inside the broadcaster.
type Publisher interface {
	Publish(ev domain.Event)
}

// Service coordinates the card store, the ordering engine and the change
// broadcaster. Mutating operations are serialized with one mutex so each
// completed request leaves every bucket with a strict total order; reads go
// straight to the store.
type Service struct {
	store  storage.CardStore
	broker Publisher
	log    *log.Logger

	mu sync.Mutex
}

// NewService wires a service from its collaborators. broker may be nil in
// tests that do not care about fan-out.
func NewService(store storage.CardStore, broker Publisher, logger *log.Logger) *Service {
	if store == nil {
		panic("board.NewService: store is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Service{store: store, broker: broker, log: logger}
}

func (s *Service) publish(ev domain.Event) {
	if s.broker != nil {
		s.broker.Publish(ev)
	}
}

// Create assigns a fresh id and an append-to-bucket order, then persists the
// card. project defaults to domain.DefaultProject, status to not-started; a
// caller-supplied positive order is honored as-is.
func (s *Service) Create(ctx context.Context, card domain.Card) (domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(ctx, card)
}

func (s *Service) createLocked(ctx context.Context, card domain.Card) (domain.Card, error) {
	card.ID = uuid.NewString()
	if card.Project == "" {
		card.Project = domain.DefaultProject
	}
	if card.Status == "" {
		card.Status = domain.StatusNotStarted
	}
	if card.Order <= 0 {
		bucket, err := s.bucketCards(ctx, domain.BucketOf(card), "")
		if err != nil {
			return domain.Card{}, err
		}
		card.Order = NextOrder(bucket)
	}
	if err := s.store.Put(ctx, card); err != nil {
		return domain.Card{}, err
	}
	s.log.WithFields(log.Fields{"card": card.ID, "project": card.Project, "status": card.Status}).Debug("card created")
	s.publish(domain.CardCreated{Card: card})
	return card, nil
}

// Get fetches one card by id.
func (s *Service) Get(ctx context.Context, id string) (domain.Card, error) {
	return s.store.Get(ctx, id)
}

// List returns cards matching the filter, sorted by project, status rank,
// order and id.
func (s *Service) List(ctx context.Context, f storage.ListFilter) ([]domain.Card, error) {
	cards, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	SortCards(cards)
	return cards, nil
}

// Projects returns the distinct project names, sorted.
func (s *Service) Projects(ctx context.Context) ([]string, error) {
	return s.store.Projects(ctx)
}

// CardUpdate is a partial field update. Nil pointers leave fields untouched.
// Status, project and order are deliberately absent: bucket changes must go
// through Move so order stays consistent.
type CardUpdate struct {
	Title       *string
	Description *string
	Link        *string
	Notes       *string
	TaskList    *string
	Comments    *[]domain.Comment
}

func (u CardUpdate) empty() bool {
	return u.Title == nil && u.Description == nil && u.Link == nil &&
		u.Notes == nil && u.TaskList == nil && u.Comments == nil
}

// Update shallow-merges the supplied fields over the existing card. An empty
// update is a no-op returning the current card, not an error.
func (s *Service) Update(ctx context.Context, id string, upd CardUpdate) (domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Card{}, err
	}
	if upd.empty() {
		return card, nil
	}
	if upd.Title != nil {
		card.Title = *upd.Title
	}
	if upd.Description != nil {
		card.Description = *upd.Description
	}
	if upd.Link != nil {
		card.Link = *upd.Link
	}
	if upd.Notes != nil {
		card.Notes = *upd.Notes
	}
	if upd.TaskList != nil {
		card.TaskList = *upd.TaskList
	}
	if upd.Comments != nil {
		card.Comments = *upd.Comments
	}
	if err := s.store.Put(ctx, card); err != nil {
		return domain.Card{}, err
	}
	s.publish(domain.CardUpdated{Card: card})
	return card, nil
}

// AddComment appends a comment with a fresh id and timestamp to the card and
// returns the updated card.
func (s *Service) AddComment(ctx context.Context, id, content, author string) (domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Card{}, err
	}
	card.Comments = append(card.Comments, domain.Comment{
		ID:        uuid.NewString(),
		Content:   content,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Author:    author,
	})
	if err := s.store.Put(ctx, card); err != nil {
		return domain.Card{}, err
	}
	s.publish(domain.CardUpdated{Card: card})
	return card, nil
}

// MoveRequest describes one move intent. Exactly one of TargetCardID or
// Status drives the destination: a target card means "place at that card's
// current slot in its bucket"; a bare status means append, unless Position
// pins a 0-based index (clamped to the bucket size).
type MoveRequest struct {
	ID           string
	Status       domain.Status
	Position     *int
	TargetCardID string
}

// Move repositions a single card and returns it with its new bucket and
// order.
func (s *Service) Move(ctx context.Context, req MoveRequest) (domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moveLocked(ctx, req)
}

func (s *Service) moveLocked(ctx context.Context, req MoveRequest) (domain.Card, error) {
	card, err := s.store.Get(ctx, req.ID)
	if err != nil {
		return domain.Card{}, err
	}

	if req.TargetCardID == card.ID {
		// Dropping a card onto itself changes nothing.
		return card, nil
	}

	dest := domain.Bucket{Project: card.Project, Status: req.Status}
	position := req.Position
	if req.TargetCardID != "" {
		target, err := s.store.Get(ctx, req.TargetCardID)
		if err != nil {
			return domain.Card{}, fmt.Errorf("target card %s: %w", req.TargetCardID, err)
		}
		dest = domain.BucketOf(target)
		bucket, err := s.bucketCards(ctx, dest, card.ID)
		if err != nil {
			return domain.Card{}, err
		}
		idx := indexOf(bucket, target.ID)
		position = &idx
	}

	card.Project = dest.Project
	card.Status = dest.Status

	if position == nil {
		// Bare-status drop: append past the bucket maximum, nothing else
		// shifts.
		bucket, err := s.bucketCards(ctx, dest, card.ID)
		if err != nil {
			return domain.Card{}, err
		}
		card.Order = NextOrder(bucket)
		if err := s.store.Put(ctx, card); err != nil {
			return domain.Card{}, err
		}
		s.publish(domain.CardUpdated{Card: card})
		return card, nil
	}

	bucket, err := s.bucketCards(ctx, dest, card.ID)
	if err != nil {
		return domain.Card{}, err
	}
	reordered := InsertAt(bucket, card, *position)
	changed := Renumber(reordered)

	// The moved card is persisted and announced even when its rank happens
	// to be unchanged: its bucket may have changed.
	moved := reordered[indexOf(reordered, card.ID)]
	if err := s.store.Put(ctx, moved); err != nil {
		return domain.Card{}, err
	}
	for _, c := range changed {
		if c.ID == moved.ID {
			continue
		}
		if err := s.store.Put(ctx, c); err != nil {
			return domain.Card{}, err
		}
	}
	s.publish(domain.CardUpdated{Card: moved})
	for _, c := range changed {
		if c.ID == moved.ID {
			continue
		}
		s.publish(domain.CardUpdated{Card: c})
	}
	s.log.WithFields(log.Fields{
		"card":       moved.ID,
		"project":    moved.Project,
		"status":     moved.Status,
		"order":      moved.Order,
		"renumbered": len(changed),
	}).Debug("card moved")
	return moved, nil
}

// bucketCards lists one bucket, excluding the given card id.
func (s *Service) bucketCards(ctx context.Context, b domain.Bucket, excludeID string) ([]domain.Card, error) {
	cards, err := s.store.List(ctx, storage.ListFilter{Project: b.Project, Status: b.Status})
	if err != nil {
		return nil, err
	}
	out := cards[:0]
	for _, c := range cards {
		if c.ID != excludeID {
			out = append(out, c)
		}
	}
	return out, nil
}

// MoveOutcome reports one batch-move entry's result.
type MoveOutcome struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

// BatchMoveResult is the per-entry summary of a batch move.
type BatchMoveResult struct {
	SucceededCount int           `json:"succeededCount"`
	FailedCount    int           `json:"failedCount"`
	Succeeded      []MoveOutcome `json:"succeeded"`
	Failed         []MoveOutcome `json:"failed"`
}

// BatchMove applies the moves in list order; later entries observe the
// effects of earlier ones. Each entry fails independently.
func (s *Service) BatchMove(ctx context.Context, reqs []MoveRequest) BatchMoveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := BatchMoveResult{Succeeded: []MoveOutcome{}, Failed: []MoveOutcome{}}
	for _, req := range reqs {
		if _, err := s.moveLocked(ctx, req); err != nil {
			res.FailedCount++
			res.Failed = append(res.Failed, MoveOutcome{ID: req.ID, Error: err.Error()})
			continue
		}
		res.SucceededCount++
		res.Succeeded = append(res.Succeeded, MoveOutcome{ID: req.ID})
	}
	return res
}

// Delete removes the card, reporting whether it existed. The second delete
// of the same id returns false and no error.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existed, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if existed {
		s.publish(domain.CardDeleted{ID: id})
	}
	return existed, nil
}

// BulkDeleteResult is the per-id summary of a bulk delete.
type BulkDeleteResult struct {
	DeletedCount int      `json:"deletedCount"`
	FailedCount  int      `json:"failedCount"`
	DeletedIDs   []string `json:"deletedIds"`
	FailedIDs    []string `json:"failedIds"`
}

// BulkDelete removes each id independently and emits one bulk event for the
// ids that existed.
func (s *Service) BulkDelete(ctx context.Context, ids []string) (BulkDeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := BulkDeleteResult{DeletedIDs: []string{}, FailedIDs: []string{}}
	for _, id := range ids {
		existed, err := s.store.Delete(ctx, id)
		if err != nil {
			return res, err
		}
		if existed {
			res.DeletedCount++
			res.DeletedIDs = append(res.DeletedIDs, id)
		} else {
			res.FailedCount++
			res.FailedIDs = append(res.FailedIDs, id)
		}
	}
	if len(res.DeletedIDs) > 0 {
		s.publish(domain.CardsBulkDeleted{IDs: res.DeletedIDs})
	}
	return res, nil
}
