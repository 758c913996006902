// Package tools exposes every board operation as an MCP tool. The tool
// server is a thin adapter: each handler forwards to the board API over
// HTTP, so agents and browser clients mutate the same board and everyone
// sees the same broadcast events.
package tools

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"kanban-flow/domain"
)

// Client talks to the board API server.
type Client struct {
	baseURL  string
	passcode string
	http     *http.Client
}

// NewClient creates a board API client. passcode may be empty when the
// server runs open.
func NewClient(baseURL, passcode string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		passcode: passcode,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// do performs one API call, decoding the JSON response into out when out is
// non-nil. Non-2xx responses surface as errors carrying the response body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.passcode != "" {
		req.Header.Set("Authorization", "Bearer "+c.passcode)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("board api %s %s: %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return sonic.Unmarshal(data, out)
}

// CreateCardRequest mirrors the API create payload. Description is always
// serialized because the API requires the field, empty or not.
type CreateCardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link,omitempty"`
	Status      string `json:"status,omitempty"`
	Project     string `json:"project,omitempty"`
	Notes       string `json:"notes,omitempty"`
	TaskList    string `json:"taskList,omitempty"`
}

// MoveCardRequest mirrors the API move payload.
type MoveCardRequest struct {
	Status       string `json:"status,omitempty"`
	Position     *int   `json:"position,omitempty"`
	TargetCardID string `json:"targetCardId,omitempty"`
}

// BatchMoveEntry mirrors one API batch-move entry.
type BatchMoveEntry struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Position *int   `json:"position,omitempty"`
}

func (c *Client) ListCards(ctx context.Context, project, status string) ([]domain.Card, error) {
	q := url.Values{}
	if project != "" {
		q.Set("project", project)
	}
	if status != "" {
		q.Set("status", status)
	}
	path := "/api/cards"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var cards []domain.Card
	if err := c.do(ctx, http.MethodGet, path, nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (c *Client) GetCard(ctx context.Context, id string) (domain.Card, error) {
	var card domain.Card
	err := c.do(ctx, http.MethodGet, "/api/cards/"+url.PathEscape(id), nil, &card)
	return card, err
}

func (c *Client) CreateCard(ctx context.Context, req CreateCardRequest) (domain.Card, error) {
	var card domain.Card
	err := c.do(ctx, http.MethodPost, "/api/cards", req, &card)
	return card, err
}

// UpdateCard sends only the provided fields so absent keys stay untouched.
func (c *Client) UpdateCard(ctx context.Context, id string, fields map[string]any) (domain.Card, error) {
	var card domain.Card
	err := c.do(ctx, http.MethodPatch, "/api/cards/"+url.PathEscape(id), fields, &card)
	return card, err
}

func (c *Client) MoveCard(ctx context.Context, id string, req MoveCardRequest) (domain.Card, error) {
	var card domain.Card
	err := c.do(ctx, http.MethodPost, "/api/cards/"+url.PathEscape(id)+"/move", req, &card)
	return card, err
}

func (c *Client) DeleteCard(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/cards/"+url.PathEscape(id), nil, nil)
}

func (c *Client) BatchMove(ctx context.Context, moves []BatchMoveEntry) (map[string]any, error) {
	var res map[string]any
	err := c.do(ctx, http.MethodPost, "/api/cards/batch-move", moves, &res)
	return res, err
}

func (c *Client) BulkCreate(ctx context.Context, items []CreateCardRequest) (map[string]any, error) {
	var res map[string]any
	err := c.do(ctx, http.MethodPost, "/api/cards/bulk", items, &res)
	return res, err
}

func (c *Client) BulkDelete(ctx context.Context, ids []string) (map[string]any, error) {
	var res map[string]any
	err := c.do(ctx, http.MethodPost, "/api/cards/bulk-delete", map[string]any{"ids": ids}, &res)
	return res, err
}

func (c *Client) AddComment(ctx context.Context, id, content, author string) (domain.Card, error) {
	body := map[string]any{"content": content}
	if author != "" {
		body["author"] = author
	}
	var card domain.Card
	err := c.do(ctx, http.MethodPost, "/api/cards/"+url.PathEscape(id)+"/comments", body, &card)
	return card, err
}

func (c *Client) ListProjects(ctx context.Context) ([]string, error) {
	var projects []string
	err := c.do(ctx, http.MethodGet, "/api/projects", nil, &projects)
	return projects, err
}
