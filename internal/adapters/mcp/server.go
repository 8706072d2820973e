// Package mcpadapter exposes place lookup and the saved-place library as MCP tools.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/core/ports"
)

const (
	serverName = "place-archive"

	toolSearchPlace     = "search_place"
	toolListSavedPlaces = "list_saved_places"
)

type Tools struct {
	finder  ports.PlaceFinder
	library ports.PlaceLibrary
}

func NewTools(finder ports.PlaceFinder, library ports.PlaceLibrary) *Tools {
	return &Tools{finder: finder, library: library}
}

// Server builds an MCP server with every tool registered.
func (t *Tools) Server(version string) *server.MCPServer {
	s := server.NewMCPServer(serverName, version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool(toolSearchPlace,
		mcp.WithDescription("Search the map provider for places matching a name. Returns candidates with address and coordinates."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Place name, for example a cafe name seen in a screenshot.")),
	), t.searchPlace)

	s.AddTool(mcp.NewTool(toolListSavedPlaces,
		mcp.WithDescription("List the places a user saved to their archive."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Archive owner.")),
		mcp.WithString("category", mcp.Description("Exact category name filter.")),
		mcp.WithString("location", mcp.Description("Exact location label filter.")),
		mcp.WithString("sort", mcp.Description("latest (default) or name."), mcp.Enum(string(domain.SortLatest), string(domain.SortName))),
	), t.listSavedPlaces)

	return s
}

func (t *Tools) searchPlace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil || strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	candidates := t.finder.Resolve(ctx, strings.TrimSpace(query))
	if candidates == nil {
		candidates = []domain.PlaceCandidate{}
	}
	return jsonResult(map[string]any{
		"query":      query,
		"candidates": candidates,
	})
}

func (t *Tools) listSavedPlaces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil || strings.TrimSpace(userID) == "" {
		return mcp.NewToolResultError("user_id is required"), nil
	}

	library, err := t.library.List(ctx, strings.TrimSpace(userID), domain.LibraryFilter{
		Category: request.GetString("category", ""),
		Location: request.GetString("location", ""),
		Sort:     domain.LibrarySort(request.GetString("sort", "")),
	})
	if err != nil {
		slog.Error("mcp_tool_failed", "tool", toolListSavedPlaces, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("list saved places: %v", err)), nil
	}
	return jsonResult(library)
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
