package api

import "kanban-flow/domain"

// requestMaxSize caps mutation bodies. 64 KiB fits any sane card payload.
const requestMaxSize = 64 * 1024

// bulkCreateMax bounds one bulk create request.
const bulkCreateMax = 20

type createCardRequest struct {
	Title string `json:"title"`
	// Description is required but may be the empty string, so presence is
	// tracked with a pointer.
	Description *string `json:"description"`
	Link        string  `json:"link"`
	Status      string  `json:"status"`
	Project     string  `json:"project"`
	Order       int     `json:"order"`
	Notes       string  `json:"notes"`
	TaskList    string  `json:"taskList"`
}

// updateCardRequest deliberately has no status, project or order fields:
// bucket changes go through the move endpoint, and the strict decoder turns
// any attempt into a 400.
type updateCardRequest struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Link        *string           `json:"link"`
	Notes       *string           `json:"notes"`
	TaskList    *string           `json:"taskList"`
	Comments    *[]domain.Comment `json:"comments"`
}

type moveCardRequest struct {
	Status       string `json:"status"`
	Position     *int   `json:"position"`
	TargetCardID string `json:"targetCardId"`
}

type batchMoveEntry struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Position *int   `json:"position"`
}

type addCommentRequest struct {
	Content string `json:"content"`
	Author  string `json:"author"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

type bulkCreateFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type bulkCreateResponse struct {
	SucceededCount int                 `json:"succeededCount"`
	FailedCount    int                 `json:"failedCount"`
	Created        []domain.Card       `json:"created"`
	Failed         []bulkCreateFailure `json:"failed"`
}
