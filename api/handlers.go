package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"kanban-flow/board"
	"kanban-flow/domain"
	"kanban-flow/storage"
)

// Register wires up all board routes on the provided Echo instance. An empty
// passcode disables authentication.
func Register(e *echo.Echo, svc BoardService, broker Subscriber, logger *log.Logger, passcode string) {
	e.GET("/healthz", healthz(svc))

	g := e.Group("/api", PasscodeMiddleware(passcode))
	g.GET("/cards", listCards(svc, logger))
	g.POST("/cards", createCard(svc))
	g.POST("/cards/bulk", bulkCreateCards(svc))
	g.POST("/cards/bulk-delete", bulkDeleteCards(svc))
	g.POST("/cards/batch-move", batchMoveCards(svc))
	g.GET("/cards/:id", getCard(svc))
	g.PATCH("/cards/:id", updateCard(svc))
	g.DELETE("/cards/:id", deleteCard(svc))
	g.POST("/cards/:id/move", moveCard(svc))
	g.POST("/cards/:id/comments", addComment(svc))
	g.GET("/projects", listProjects(svc))
	g.GET("/events", streamEvents(svc, broker))
}

func healthz(_ BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// decodeBody parses a JSON request body strictly: unknown fields are
// rejected and the body size is capped.
func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.String(http.StatusNotFound, err.Error())
	case domain.IsValidation(err):
		return c.String(http.StatusBadRequest, err.Error())
	default:
		c.Logger().Error(err)
		return c.String(http.StatusInternalServerError, err.Error())
	}
}

func listCards(svc BoardService, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newListRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		filter := storage.ListFilter{Project: c.QueryParam("project")}
		if raw := c.QueryParam("status"); raw != "" {
			status, perr := domain.ParseStatus(raw)
			if perr != nil {
				metrics.SetErrorStage("invalid_status")
				err = c.String(http.StatusBadRequest, perr.Error())
				return err
			}
			filter.Status = status
		}

		fetchStart := time.Now()
		cards, ferr := svc.List(ctx, filter)
		metrics.ObserveFetch(time.Since(fetchStart))
		if ferr != nil {
			metrics.SetErrorStage("storage")
			err = respondError(c, ferr)
			return err
		}
		metrics.SetCardsReturned(len(cards))
		err = c.JSON(http.StatusOK, cards)
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func getCard(svc BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		card, err := svc.Get(c.Request().Context(), c.Param("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, card)
	}
}

func (r createCardRequest) validate() (domain.Card, error) {
	if r.Title == "" {
		return domain.Card{}, domain.NewValidationError("title", "must not be empty")
	}
	if r.Description == nil {
		return domain.Card{}, domain.NewValidationError("description", "is required (empty string allowed)")
	}
	card := domain.Card{
		Title:       r.Title,
		Description: *r.Description,
		Link:        r.Link,
		Project:     r.Project,
		Order:       r.Order,
		Notes:       r.Notes,
		TaskList:    r.TaskList,
	}
	if r.Order < 0 {
		return domain.Card{}, domain.NewValidationError("order", "must not be negative")
	}
	if r.Status != "" {
		status, err := domain.ParseStatus(r.Status)
		if err != nil {
			return domain.Card{}, err
		}
		card.Status = status
	}
	return card, nil
}

func createCard(svc BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createCardRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		card, err := req.validate()
		if err != nil {
			return respondError(c, err)
		}
		created, err := svc.Create(c.Request().Context(), card)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, created)
	}
}

func updateCard(svc BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req updateCardRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if req.Title != nil && *req.Title == "" {
			return respondError(c, domain.NewValidationError("title", "must not be empty"))
		}
		card, err := svc.Update(c.Request().Context(), c.Param("id"), board.CardUpdate{
			Title:       req.Title,
			Description: req.Description,
			Link:        req.Link,
			Notes:       req.Notes,
			TaskList:    req.TaskList,
			Comments:    req.Comments,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, card)
	}
}

func deleteCard(svc BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		existed, err := svc.Delete(c.Request().Context(), c.Param("id"))
		if err != nil {
			return respondError(c, err)
		}
		if !existed {
			return c.String(http.StatusNotFound, "card not found")
		}
		return c.JSON(http.StatusOK, map[string]any{"deleted": true})
	}
}

func (r moveCardRequest) validate(id string) (board.MoveRequest, error) {
	req := board.MoveRequest{ID: id, Position: r.Position, TargetCardID: r.TargetCardID}
	if r.Position != nil && *r.Position < 0 {
		return board.MoveRequest{}, domain.NewValidationError("position", "must not be negative")
	}
	if r.TargetCardID == "" {
		if r.Status == "" {
			return board.MoveRequest{}, domain.NewValidationError("status", "required unless targetCardId is given")
		}
		status, err := domain.ParseStatus(r.Status)
		if err != nil {
			return board.MoveRequest{}, err
		}
		req.Status = status
	}
	return req, nil
}

func moveCard(svc BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req moveCardRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		move, err := req.validate(c.Param("id"))
		if err != nil {
			return respondError(c, err)
		}
		card, err := svc.Move(c.Request().Context(), move)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, card)
	}
}

func batchMoveCards(svc BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var entries []batchMoveEntry
		if err := decodeBody(c, &entries); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if len(entries) == 0 {
			return respondError(c, domain.NewValidationError("moves", "at least one entry required"))
		}
		reqs := make([]board.MoveRequest, 0, len(entries))
		for _, e := range entries {
			if e.ID == "" {
				return respondError(c, domain.NewValidationError("id", "required on every entry"))
			}
			if e.Position != nil && *e.Position < 0 {
				return respondError(c, domain.NewValidationError("position", "must not be negative"))
			}
			status, err := domain.ParseStatus(e.Status)
			if err != nil {
				return respondError(c, err)
			}
			reqs = append(reqs, board.MoveRequest{ID: e.ID, Status: status, Position: e.Position})
		}
		return c.JSON(http.StatusOK, svc.BatchMove(c.Request().Context(), reqs))
	}
}

func bulkCreateCards(svc BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var items []createCardRequest
		if err := decodeBody(c, &items); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if len(items) == 0 || len(items) > bulkCreateMax {
			return respondError(c, domain.NewValidationError("cards", "between 1 and 20 items required"))
		}
		resp := bulkCreateResponse{Created: []domain.Card{}, Failed: []bulkCreateFailure{}}
		for i, item := range items {
			card, err := item.validate()
			if err == nil {
				card, err = svc.Create(c.Request().Context(), card)
			}
			if err != nil {
				resp.FailedCount++
				resp.Failed = append(resp.Failed, bulkCreateFailure{Index: i, Error: err.Error()})
				continue
			}
			resp.SucceededCount++
			resp.Created = append(resp.Created, card)
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func bulkDeleteCards(svc BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req bulkDeleteRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if len(req.IDs) == 0 {
			return respondError(c, domain.NewValidationError("ids", "at least one id required"))
		}
		res, err := svc.BulkDelete(c.Request().Context(), req.IDs)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, res)
	}
}

func addComment(svc BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req addCommentRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if req.Content == "" {
			return respondError(c, domain.NewValidationError("content", "must not be empty"))
		}
		card, err := svc.AddComment(c.Request().Context(), c.Param("id"), req.Content, req.Author)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, card)
	}
}

func listProjects(svc BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		projects, err := svc.Projects(c.Request().Context())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, projects)
	}
}
