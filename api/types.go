package api

import (
	"context"

	"kanban-flow/board"
	"kanban-flow/domain"
	"kanban-flow/storage"
)

// BoardService abstracts the board operations handlers need.
type BoardService interface {
	Create(ctx context.Context, card domain.Card) (domain.Card, error)
	Get(ctx context.Context, id string) (domain.Card, error)
	List(ctx context.Context, f storage.ListFilter) ([]domain.Card, error)
	Projects(ctx context.Context) ([]string, error)
	Update(ctx context.Context, id string, upd board.CardUpdate) (domain.Card, error)
	AddComment(ctx context.Context, id, content, author string) (domain.Card, error)
	Move(ctx context.Context, req board.MoveRequest) (domain.Card, error)
	BatchMove(ctx context.Context, reqs []board.MoveRequest) board.BatchMoveResult
	Delete(ctx context.Context, id string) (bool, error)
	BulkDelete(ctx context.Context, ids []string) (board.BulkDeleteResult, error)
}

// Subscriber hands out per-connection event channels for the SSE endpoint.
type Subscriber interface {
	Subscribe() (<-chan []byte, func())
}
