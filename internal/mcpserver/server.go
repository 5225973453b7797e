// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Fehu tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/fehu/internal/assetservice"
	"github.com/starford/fehu/internal/fetcher"
)

// Server wraps the MCP server with Fehu tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *assetservice.Service
	fetch *fetcher.Fetcher
}

// New creates a new MCP server with all Fehu tools registered.
func New(svc *assetservice.Service, fetch *fetcher.Fetcher) *Server {
	s := &Server{svc: svc, fetch: fetch}

	s.mcp = server.NewMCPServer(
		"Fehu",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_assets",
		mcp.WithDescription("List all assets in the book manifest, ordered by filename."),
	), s.listAssets)

	s.mcp.AddTool(mcp.NewTool("get_asset",
		mcp.WithDescription("Get the manifest record for a single asset."),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Logical asset filename (e.g. images/logo.png or cache/<hash>.svg)")),
	), s.getAsset)

	s.mcp.AddTool(mcp.NewTool("search_assets",
		mcp.WithDescription("Search indexed assets by filename or mimetype substring."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchAssets)

	s.mcp.AddTool(mcp.NewTool("resolve_assets",
		mcp.WithDescription("Re-scan the book source, resolve every image reference, "+
			"refresh the manifest and index. Remote images are downloaded into the "+
			"cache once and reused on later runs."),
	), s.resolveAssets)

	s.mcp.AddTool(mcp.NewTool("fetch_remote",
		mcp.WithDescription("Download a remote image into the book's cache directory "+
			"and return its cache path. Already-cached URLs are not re-fetched."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Absolute URL of the image")),
	), s.fetchRemote)

	s.mcp.AddTool(mcp.NewTool("get_manifest_contract",
		mcp.WithDescription("Returns the manifest format description. "+
			"Call this before consuming manifest.json programmatically."),
	), s.getManifestContract)

	// Resource: manifest format contract.
	s.mcp.AddResource(
		mcp.NewResource("fehu://manifest-format", "Manifest Format",
			mcp.WithResourceDescription("Structure of the manifest.json asset listing."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readManifestFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listAssets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, total, err := s.svc.ListAssets(ctx, 0, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%s\t%s\n", r.Filename, r.Mimetype)
	}
	if total == 0 {
		return mcp.NewToolResultText("no assets indexed"), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) getAsset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	row, err := s.svc.GetAsset(ctx, filename)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", filename)), nil
	}
	out, _ := json.MarshalIndent(row, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchAssets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rows, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) resolveAssets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	found, err := s.svc.Resolve(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("resolved %d assets, manifest at %s", len(found), s.svc.ManifestPath())), nil
}

func (s *Server) getManifestContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ManifestFormatContract), nil
}

func (s *Server) readManifestFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "fehu://manifest-format",
			MIMEType: "text/markdown",
			Text:     ManifestFormatContract,
		},
	}, nil
}
