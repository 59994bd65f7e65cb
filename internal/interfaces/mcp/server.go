package mcp

import (
	"fmt"
	"net/http"

	appfsbuild "github.com/cocursor/backend/internal/application/fsbuild"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPServer exposes the fsbuild service to MCP clients over SSE.
type MCPServer struct {
	server         *mcp.Server
	handler        http.Handler
	fsbuildService *appfsbuild.Service
}

// NewServer builds the MCP server and registers the fsbuild tool set.
func NewServer(fsbuildService *appfsbuild.Service) *MCPServer {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "cocursor-daemon",
			Version: "0.1.0",
		},
		nil,
	)

	mcpServer := &MCPServer{
		server:         server,
		fsbuildService: fsbuildService,
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_dirty_sources",
		Description: "List every source file currently marked dirty (needing recompilation) for the given module. Parameters: module (string, required) - module name. Returns: list of dirty sources and a count.",
	}, mcpServer.listDirtySourcesTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "has_work_to_do",
		Description: "Report whether a module still needs its initial filesystem scan or has pending dirty/deleted entries. Parameters: module (string, required) - module name. Returns: has_work_to_do boolean.",
	}, mcpServer.hasWorkToDoTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "mark_all_up_to_date",
		Description: "Reconcile a module's recompile entries after a build completes, clearing any sources the build actually compiled. Parameters: module (string, required), build_start_millis (int, required) - epoch milliseconds when the build started. Returns: committed boolean indicating whether any file was committed as up to date.",
	}, mcpServer.markAllUpToDateTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "has_unprocessed_changes",
		Description: "Check whether a module received filesystem changes after build_start_millis that a build starting then would not have seen. Parameters: module (string, required), build_start_millis (int, required) - epoch milliseconds. Returns: has_unprocessed_changes boolean.",
	}, mcpServer.hasUnprocessedChangesTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_build",
		Description: "Drive a full multi-round compilation pass over a module's production and test targets, repeating rounds until one discovers nothing new, then reconcile every root as up to date. Parameters: module (string, required). Returns: rounds, files_visited, and committed.",
	}, mcpServer.runBuildTool)

	handler := mcp.NewSSEHandler(
		func(r *http.Request) *mcp.Server {
			return server
		},
		nil,
	)

	mcpServer.handler = handler
	return mcpServer
}

// GetHandler returns the HTTP handler the MCP server serves SSE over.
func (s *MCPServer) GetHandler() http.Handler {
	return s.handler
}

// Start is a no-op: the MCP server is served through the HTTP handler.
func (s *MCPServer) Start() error {
	fmt.Println("mcp server ready (sse mode)")
	return nil
}

// Stop is a no-op: lifecycle is managed by the HTTP server.
func (s *MCPServer) Stop() error {
	return nil
}
