package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"kanban-flow/board"
	"kanban-flow/domain"
	"kanban-flow/storage"
	"kanban-flow/stream"
)

func newTestBoard(t *testing.T) (*board.Service, *stream.Broker) {
	t.Helper()
	logger := log.New()
	broker := stream.NewBroker(8, logger)
	return board.NewService(storage.NewMemory(), broker, logger), broker
}

func doJSON(t *testing.T, handler echo.HandlerFunc, method, target, body string, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	if err := handler(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func decodeCard(t *testing.T, rec *httptest.ResponseRecorder) domain.Card {
	t.Helper()
	var card domain.Card
	if err := sonic.Unmarshal(rec.Body.Bytes(), &card); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return card
}

func seedCard(t *testing.T, svc *board.Service, card domain.Card) domain.Card {
	t.Helper()
	created, err := svc.Create(context.Background(), card)
	if err != nil {
		t.Fatalf("seed card: %v", err)
	}
	return created
}

func TestCreateCard(t *testing.T) {
	svc, _ := newTestBoard(t)

	rec := doJSON(t, createCard(svc), http.MethodPost, "/api/cards",
		`{"title":"T","description":"D","project":"P","status":"blocked"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	card := decodeCard(t, rec)
	if card.ID == "" || card.Title != "T" || card.Description != "D" || card.Project != "P" || card.Status != domain.StatusBlocked {
		t.Fatalf("unexpected card: %#v", card)
	}
	if card.Order != 1 {
		t.Fatalf("expected order 1, got %d", card.Order)
	}
}

func TestCreateCardValidation(t *testing.T) {
	svc, _ := newTestBoard(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing title", `{"description":"D"}`},
		{"empty title", `{"title":"","description":"D"}`},
		{"missing description", `{"title":"T"}`},
		{"bad status", `{"title":"T","description":"","status":"done"}`},
		{"negative order", `{"title":"T","description":"","order":-1}`},
		{"unknown field", `{"title":"T","description":"","color":"red"}`},
		{"malformed json", `{"title":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, createCard(svc), http.MethodPost, "/api/cards", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateCardEmptyDescriptionAllowed(t *testing.T) {
	svc, _ := newTestBoard(t)
	rec := doJSON(t, createCard(svc), http.MethodPost, "/api/cards", `{"title":"T","description":""}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	card := decodeCard(t, rec)
	if card.Project != domain.DefaultProject || card.Status != domain.StatusNotStarted {
		t.Fatalf("expected defaults, got %#v", card)
	}
}

func TestGetCardNotFound(t *testing.T) {
	svc, _ := newTestBoard(t)
	rec := doJSON(t, getCard(svc), http.MethodGet, "/api/cards/x", "", "id", "x")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUpdateCardMerges(t *testing.T) {
	svc, _ := newTestBoard(t)
	c := seedCard(t, svc, domain.Card{Title: "old", Description: "D", Notes: "keep"})

	rec := doJSON(t, updateCard(svc), http.MethodPatch, "/api/cards/"+c.ID,
		`{"title":"new","link":"https://example.com"}`, "id", c.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	card := decodeCard(t, rec)
	if card.Title != "new" || card.Link != "https://example.com" || card.Notes != "keep" {
		t.Fatalf("unexpected merge: %#v", card)
	}
}

func TestUpdateCardRejectsStatusChange(t *testing.T) {
	svc, _ := newTestBoard(t)
	c := seedCard(t, svc, domain.Card{Title: "T"})

	// Bucket fields are not part of the update schema; the strict decoder
	// rejects them, forcing callers through the move endpoint.
	for _, body := range []string{`{"status":"complete"}`, `{"project":"p2"}`, `{"order":5}`} {
		rec := doJSON(t, updateCard(svc), http.MethodPatch, "/api/cards/"+c.ID, body, "id", c.ID)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestUpdateCardEmptyBodyIsNoOp(t *testing.T) {
	svc, _ := newTestBoard(t)
	c := seedCard(t, svc, domain.Card{Title: "T"})

	rec := doJSON(t, updateCard(svc), http.MethodPatch, "/api/cards/"+c.ID, `{}`, "id", c.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if card := decodeCard(t, rec); card.Title != "T" {
		t.Fatalf("unexpected card: %#v", card)
	}
}

func TestDeleteCardThenNotFound(t *testing.T) {
	svc, _ := newTestBoard(t)
	c := seedCard(t, svc, domain.Card{Title: "T"})

	rec := doJSON(t, deleteCard(svc), http.MethodDelete, "/api/cards/"+c.ID, "", "id", c.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = doJSON(t, deleteCard(svc), http.MethodDelete, "/api/cards/"+c.ID, "", "id", c.ID)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on repeat delete, got %d", rec.Code)
	}
}

func TestMoveCardToPositionZero(t *testing.T) {
	svc, _ := newTestBoard(t)
	seedCard(t, svc, domain.Card{Title: "A", Status: domain.StatusInProgress})
	seedCard(t, svc, domain.Card{Title: "B", Status: domain.StatusInProgress})
	c := seedCard(t, svc, domain.Card{Title: "C"})

	rec := doJSON(t, moveCard(svc), http.MethodPost, "/api/cards/"+c.ID+"/move",
		`{"status":"in-progress","position":0}`, "id", c.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	card := decodeCard(t, rec)
	if card.Status != domain.StatusInProgress || card.Order != 1 {
		t.Fatalf("unexpected moved card: %#v", card)
	}
}

func TestMoveCardValidation(t *testing.T) {
	svc, _ := newTestBoard(t)
	c := seedCard(t, svc, domain.Card{Title: "C"})

	cases := []struct {
		name string
		body string
		code int
	}{
		{"missing status and target", `{}`, http.StatusBadRequest},
		{"bad status", `{"status":"done"}`, http.StatusBadRequest},
		{"negative position", `{"status":"complete","position":-1}`, http.StatusBadRequest},
		{"unknown target card", `{"targetCardId":"missing"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, moveCard(svc), http.MethodPost, "/api/cards/"+c.ID+"/move", tc.body, "id", c.ID)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d: %s", tc.code, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestMoveCardUnknownID(t *testing.T) {
	svc, _ := newTestBoard(t)
	rec := doJSON(t, moveCard(svc), http.MethodPost, "/api/cards/x/move", `{"status":"complete"}`, "id", "x")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestBatchMovePartialFailure(t *testing.T) {
	svc, _ := newTestBoard(t)
	y := seedCard(t, svc, domain.Card{Title: "Y"})

	rec := doJSON(t, batchMoveCards(svc), http.MethodPost, "/api/cards/batch-move",
		`[{"id":"x-missing","status":"complete"},{"id":"`+y.ID+`","status":"complete"}]`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res board.BatchMoveResult
	if err := sonic.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if res.FailedCount != 1 || res.SucceededCount != 1 {
		t.Fatalf("unexpected result: %#v", res)
	}

	moved, err := svc.Get(context.Background(), y.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if moved.Status != domain.StatusComplete {
		t.Fatalf("expected Y moved, got %s", moved.Status)
	}
}

func TestBulkCreateBounds(t *testing.T) {
	svc, _ := newTestBoard(t)

	items := make([]string, 21)
	for i := range items {
		items[i] = `{"title":"T","description":""}`
	}
	rec := doJSON(t, bulkCreateCards(svc), http.MethodPost, "/api/cards/bulk",
		"["+strings.Join(items, ",")+"]")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for 21 items, got %d", rec.Code)
	}

	rec = doJSON(t, bulkCreateCards(svc), http.MethodPost, "/api/cards/bulk", `[]`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty list, got %d", rec.Code)
	}
}

func TestBulkCreatePerItemOutcomes(t *testing.T) {
	svc, _ := newTestBoard(t)

	rec := doJSON(t, bulkCreateCards(svc), http.MethodPost, "/api/cards/bulk",
		`[{"title":"A","description":""},{"title":"","description":""},{"title":"B","description":"d"}]`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res bulkCreateResponse
	if err := sonic.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if res.SucceededCount != 2 || res.FailedCount != 1 {
		t.Fatalf("unexpected counts: %#v", res)
	}
	if len(res.Failed) != 1 || res.Failed[0].Index != 1 {
		t.Fatalf("expected item 1 to fail, got %#v", res.Failed)
	}
}

func TestBulkDeletePartial(t *testing.T) {
	svc, _ := newTestBoard(t)
	a := seedCard(t, svc, domain.Card{Title: "A"})
	b := seedCard(t, svc, domain.Card{Title: "B"})

	rec := doJSON(t, bulkDeleteCards(svc), http.MethodPost, "/api/cards/bulk-delete",
		`{"ids":["`+a.ID+`","missing","`+b.ID+`"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res board.BulkDeleteResult
	if err := sonic.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if res.DeletedCount != 2 || res.FailedCount != 1 {
		t.Fatalf("unexpected result: %#v", res)
	}

	cards, err := svc.List(context.Background(), storage.ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cards) != 0 {
		t.Fatalf("expected empty board, got %d cards", len(cards))
	}
}

func TestAddCommentHandler(t *testing.T) {
	svc, _ := newTestBoard(t)
	c := seedCard(t, svc, domain.Card{Title: "T"})

	rec := doJSON(t, addComment(svc), http.MethodPost, "/api/cards/"+c.ID+"/comments",
		`{"content":"hello","author":"alice"}`, "id", c.ID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	card := decodeCard(t, rec)
	if len(card.Comments) != 1 || card.Comments[0].Content != "hello" || card.Comments[0].Author != "alice" {
		t.Fatalf("unexpected comments: %#v", card.Comments)
	}
	if card.Comments[0].ID == "" || card.Comments[0].Timestamp == "" {
		t.Fatalf("expected assigned comment id and timestamp, got %#v", card.Comments[0])
	}

	rec = doJSON(t, addComment(svc), http.MethodPost, "/api/cards/"+c.ID+"/comments", `{"content":""}`, "id", c.ID)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty content, got %d", rec.Code)
	}
}

func TestListCardsSortedAndFiltered(t *testing.T) {
	svc, _ := newTestBoard(t)
	seedCard(t, svc, domain.Card{Title: "A", Project: "p1", Status: domain.StatusComplete})
	seedCard(t, svc, domain.Card{Title: "B", Project: "p1"})
	seedCard(t, svc, domain.Card{Title: "C", Project: "p1"})
	seedCard(t, svc, domain.Card{Title: "D", Project: "p2"})

	rec := doJSON(t, listCards(svc, log.New()), http.MethodGet, "/api/cards?project=p1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var cards []domain.Card
	if err := sonic.Unmarshal(rec.Body.Bytes(), &cards); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(cards))
	}
	// not-started ranks before complete; within a bucket ascending order.
	if cards[0].Title != "B" || cards[1].Title != "C" || cards[2].Title != "A" {
		t.Fatalf("unexpected sort: %v %v %v", cards[0].Title, cards[1].Title, cards[2].Title)
	}
}

func TestListCardsInvalidStatusFilter(t *testing.T) {
	svc, _ := newTestBoard(t)
	rec := doJSON(t, listCards(svc, log.New()), http.MethodGet, "/api/cards?status=done", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListProjects(t *testing.T) {
	svc, _ := newTestBoard(t)
	seedCard(t, svc, domain.Card{Title: "A", Project: "zeta"})
	seedCard(t, svc, domain.Card{Title: "B", Project: "alpha"})

	rec := doJSON(t, listProjects(svc), http.MethodGet, "/api/projects", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var projects []string
	if err := sonic.Unmarshal(rec.Body.Bytes(), &projects); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(projects) != 2 || projects[0] != "alpha" || projects[1] != "zeta" {
		t.Fatalf("unexpected projects: %v", projects)
	}
}
