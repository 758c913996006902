// The mcpserver binary exposes the board API as an MCP stdio server, so an
// AI agent can read and manipulate the same board the browser client uses.
package main

import (
	"os"

	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"

	"kanban-flow/tools"
)

const version = "1.0.0"

func main() {
	apiURL := os.Getenv("KANBAN_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	client := tools.NewClient(apiURL, os.Getenv("BOARD_PASSCODE"))

	s := server.NewMCPServer(
		"kanban-flow",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	tools.RegisterTools(s, client)

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("mcp server: %v", err)
	}
}
