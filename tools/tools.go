package tools

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"kanban-flow/domain"
)

// RegisterTools adds every board tool to the MCP server, each delegating to
// the board API through the client.
func RegisterTools(s *server.MCPServer, c *Client) {
	s.AddTool(mcp.NewTool("list_cards",
		mcp.WithDescription("List cards on the board, optionally filtered by project and/or status."),
		mcp.WithString("project", mcp.Description("Filter by project name. Omit for all projects.")),
		mcp.WithString("status", mcp.Description("Filter by status (not-started, blocked, in-progress, complete, verified).")),
	), listCards(c))

	s.AddTool(mcp.NewTool("get_card",
		mcp.WithDescription("Get one card by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Card id.")),
	), getCard(c))

	s.AddTool(mcp.NewTool("create_card",
		mcp.WithDescription("Create a card. It is appended to the end of its (project, status) column."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Card title, must not be empty.")),
		mcp.WithString("description", mcp.Required(), mcp.Description("Card description; empty string is allowed.")),
		mcp.WithString("project", mcp.Description("Project name, defaults to \"default\".")),
		mcp.WithString("status", mcp.Description("Initial status, defaults to not-started.")),
		mcp.WithString("link", mcp.Description("Optional URL attached to the card.")),
		mcp.WithString("notes", mcp.Description("Optional free-form notes.")),
		mcp.WithString("taskList", mcp.Description("Optional markdown checkbox task list.")),
	), createCard(c))

	s.AddTool(mcp.NewTool("update_card",
		mcp.WithDescription("Update card fields. Status, project and order cannot change here; use move_card."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Card id.")),
		mcp.WithString("title", mcp.Description("New title.")),
		mcp.WithString("description", mcp.Description("New description.")),
		mcp.WithString("link", mcp.Description("New link.")),
		mcp.WithString("notes", mcp.Description("New notes.")),
		mcp.WithString("taskList", mcp.Description("New task list.")),
	), updateCard(c))

	s.AddTool(mcp.NewTool("move_card",
		mcp.WithDescription("Move a card to a status column, an explicit 0-based position, or next to a target card."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Card id to move.")),
		mcp.WithString("status", mcp.Description("Destination status. Required unless targetCardId is given.")),
		mcp.WithNumber("position", mcp.Description("0-based index in the destination column. Omitted means append.")),
		mcp.WithString("targetCardId", mcp.Description("Place the card at this card's current slot instead of naming a status.")),
	), moveCard(c))

	s.AddTool(mcp.NewTool("delete_card",
		mcp.WithDescription("Delete a card permanently."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Card id.")),
	), deleteCard(c))

	s.AddTool(mcp.NewTool("batch_move_cards",
		mcp.WithDescription("Apply several moves in order; each entry succeeds or fails independently."),
		mcp.WithArray("moves", mcp.Required(), mcp.Description("Move entries, each {id, status, position?}."),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":       map[string]any{"type": "string"},
					"status":   map[string]any{"type": "string"},
					"position": map[string]any{"type": "integer"},
				},
				"required": []string{"id", "status"},
			})),
	), batchMoveCards(c))

	s.AddTool(mcp.NewTool("bulk_create_cards",
		mcp.WithDescription("Create up to 20 cards in one call; per-item outcomes are reported."),
		mcp.WithArray("cards", mcp.Required(), mcp.Description("Card payloads, each {title, description, project?, status?, ...}."),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":       map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
					"project":     map[string]any{"type": "string"},
					"status":      map[string]any{"type": "string"},
					"link":        map[string]any{"type": "string"},
					"notes":       map[string]any{"type": "string"},
					"taskList":    map[string]any{"type": "string"},
				},
				"required": []string{"title", "description"},
			})),
	), bulkCreateCards(c))

	s.AddTool(mcp.NewTool("bulk_delete_cards",
		mcp.WithDescription("Delete several cards in one call; per-id outcomes are reported."),
		mcp.WithArray("ids", mcp.Required(), mcp.Description("Card ids to delete."),
			mcp.Items(map[string]any{"type": "string"})),
	), bulkDeleteCards(c))

	s.AddTool(mcp.NewTool("add_comment",
		mcp.WithDescription("Append a comment to a card."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Card id.")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Comment text.")),
		mcp.WithString("author", mcp.Description("Optional author name.")),
	), addComment(c))

	s.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List the distinct project names on the board."),
	), listProjects(c))
}

// jsonResult marshals v into a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func strArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// intArg extracts an optional integer argument, handling JSON number types.
func intArg(args map[string]any, key string) (*int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch n := v.(type) {
	case float64:
		i := int(n)
		return &i, nil
	case int:
		return &n, nil
	case int64:
		i := int(n)
		return &i, nil
	default:
		return nil, fmt.Errorf("%s must be an integer, got %T", key, v)
	}
}

func listCards(c *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		cards, err := c.ListCards(ctx, strArg(args, "project"), strArg(args, "status"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if cards == nil {
			cards = []domain.Card{}
		}
		return jsonResult(map[string]any{"cards": cards, "count": len(cards)})
	}
}

func getCard(c *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := strArg(req.GetArguments(), "id")
		if id == "" {
			return mcp.NewToolResultError("id is required"), nil
		}
		card, err := c.GetCard(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(card)
	}
}

func createCard(c *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		if strArg(args, "title") == "" {
			return mcp.NewToolResultError("title is required"), nil
		}
		if _, ok := args["description"]; !ok {
			return mcp.NewToolResultError("description is required (empty string allowed)"), nil
		}
		card, err := c.CreateCard(ctx, CreateCardRequest{
			Title:       strArg(args, "title"),
			Description: strArg(args, "description"),
			Link:        strArg(args, "link"),
			Status:      strArg(args, "status"),
			Project:     strArg(args, "project"),
			Notes:       strArg(args, "notes"),
			TaskList:    strArg(args, "taskList"),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(card)
	}
}

func updateCard(c *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		id := strArg(args, "id")
		if id == "" {
			return mcp.NewToolResultError("id is required"), nil
		}
		fields := make(map[string]any)
		for _, key := range []string{"title", "description", "link", "notes", "taskList"} {
			if v, ok := args[key]; ok {
				fields[key] = v
			}
		}
		card, err := c.UpdateCard(ctx, id, fields)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(card)
	}
}

func moveCard(c *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		id := strArg(args, "id")
		if id == "" {
			return mcp.NewToolResultError("id is required"), nil
		}
		position, err := intArg(args, "position")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		card, err := c.MoveCard(ctx, id, MoveCardRequest{
			Status:       strArg(args, "status"),
			Position:     position,
			TargetCardID: strArg(args, "targetCardId"),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(card)
	}
}

func deleteCard(c *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := strArg(req.GetArguments(), "id")
		if id == "" {
			return mcp.NewToolResultError("id is required"), nil
		}
		if err := c.DeleteCard(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{"deleted": true, "id": id})
	}
}

func batchMoveCards(c *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, ok := req.GetArguments()["moves"].([]any)
		if !ok || len(raw) == 0 {
			return mcp.NewToolResultError("moves must be a non-empty array"), nil
		}
		moves := make([]BatchMoveEntry, 0, len(raw))
		for i, item := range raw {
			obj, ok := item.(map[string]any)
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("moves[%d] must be an object", i)), nil
			}
			position, err := intArg(obj, "position")
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("moves[%d]: %v", i, err)), nil
			}
			moves = append(moves, BatchMoveEntry{
				ID:       strArg(obj, "id"),
				Status:   strArg(obj, "status"),
				Position: position,
			})
		}
		res, err := c.BatchMove(ctx, moves)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(res)
	}
}

func bulkCreateCards(c *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, ok := req.GetArguments()["cards"].([]any)
		if !ok || len(raw) == 0 {
			return mcp.NewToolResultError("cards must be a non-empty array"), nil
		}
		items := make([]CreateCardRequest, 0, len(raw))
		for i, item := range raw {
			obj, ok := item.(map[string]any)
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("cards[%d] must be an object", i)), nil
			}
			items = append(items, CreateCardRequest{
				Title:       strArg(obj, "title"),
				Description: strArg(obj, "description"),
				Link:        strArg(obj, "link"),
				Status:      strArg(obj, "status"),
				Project:     strArg(obj, "project"),
				Notes:       strArg(obj, "notes"),
				TaskList:    strArg(obj, "taskList"),
			})
		}
		res, err := c.BulkCreate(ctx, items)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(res)
	}
}

func bulkDeleteCards(c *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, ok := req.GetArguments()["ids"].([]any)
		if !ok || len(raw) == 0 {
			return mcp.NewToolResultError("ids must be a non-empty array"), nil
		}
		ids := make([]string, 0, len(raw))
		for i, item := range raw {
			id, ok := item.(string)
			if !ok || id == "" {
				return mcp.NewToolResultError(fmt.Sprintf("ids[%d] must be a non-empty string", i)), nil
			}
			ids = append(ids, id)
		}
		res, err := c.BulkDelete(ctx, ids)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(res)
	}
}

func addComment(c *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		id := strArg(args, "id")
		content := strArg(args, "content")
		if id == "" || content == "" {
			return mcp.NewToolResultError("id and content are required"), nil
		}
		card, err := c.AddComment(ctx, id, content, strArg(args, "author"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(card)
	}
}

func listProjects(c *Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projects, err := c.ListProjects(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if projects == nil {
			projects = []string{}
		}
		return jsonResult(map[string]any{"projects": projects})
	}
}
