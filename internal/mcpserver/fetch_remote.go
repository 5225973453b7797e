package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/fehu/internal/resolver"
)

// fetchRemote downloads a single URL into the book's cache directory. Cached
// URLs resolve without a network round-trip.
func (s *Server) fetchRemote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	link := resolver.Classify(rawURL)
	if link.Kind != resolver.KindRemote {
		return mcp.NewToolResultError(fmt.Sprintf("not an absolute URL: %s", rawURL)), nil
	}

	cached, err := s.fetch.FetchOrCache(ctx, link.URL, s.svc.CacheDir())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(cached), nil
}
