// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the cookbook to LLM clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/cookbook/internal/apperr"
	"github.com/starford/cookbook/internal/catalog"
	"github.com/starford/cookbook/internal/recipeservice"
)

const formatURI = "cookbook://recipe-format"

// Server wraps the MCP server with cookbook tools.
type Server struct {
	mcp       *server.MCPServer
	svc       *recipeservice.Service
	imagesDir string
}

// New creates a new MCP server with all cookbook tools registered.
func New(svc *recipeservice.Service, imagesDir string) *Server {
	s := &Server{svc: svc, imagesDir: imagesDir}

	s.mcp = server.NewMCPServer(
		"Cookbook",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_recipes",
		mcp.WithDescription("Filter recipes by title substring, category and tag. Returns a JSON list, newest first."),
		mcp.WithString("query", mcp.Description("Case-insensitive substring of the title")),
		mcp.WithString("category", mcp.Description("Exact category, or All")),
		mcp.WithString("tag", mcp.Description("Tag the recipe must carry, or All")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 50)")),
	), s.searchRecipes)

	s.mcp.AddTool(mcp.NewTool("full_text_search",
		mcp.WithDescription("Full-text search over titles, tags, categories, ingredients, instructions and intros."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20)")),
	), s.fullTextSearch)

	s.mcp.AddTool(mcp.NewTool("get_recipe",
		mcp.WithDescription("Return a full recipe, including ingredients and instructions, as JSON."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Recipe slug (file name without .md)")),
	), s.getRecipe)

	s.mcp.AddTool(mcp.NewTool("list_recipes",
		mcp.WithDescription("List recipes newest first, with paging."),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
		mcp.WithNumber("offset", mcp.Description("Page offset")),
	), s.listRecipes)

	s.mcp.AddTool(mcp.NewTool("recipe_stats",
		mcp.WithDescription("Count recipes and list categories."),
	), s.recipeStats)

	s.mcp.AddTool(mcp.NewTool("get_recipe_format",
		mcp.WithDescription("Returns the recipe file format. "+
			"Call this before creating recipes to ensure correct structure."),
	), s.getRecipeFormat)

	s.mcp.AddTool(mcp.NewTool("create_recipe",
		mcp.WithDescription("Create a recipe from a JSON object with title, date, source, category, tags, "+
			"prep_time, cook_time, total_time, servings, intro, ingredients and instructions. "+
			"Read the format first via get_recipe_format or the "+formatURI+" resource."),
		mcp.WithString("recipe", mcp.Required(), mcp.Description("Recipe as a JSON object")),
	), s.createRecipe)

	s.mcp.AddTool(mcp.NewTool("upload_image",
		mcp.WithDescription("Store an image from an http(s) URL or a base64 data URI. "+
			"Returns the /images URL to use in heroImage or thumbnailImage."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data: URI")),
		mcp.WithString("filename", mcp.Description("Optional file name; derived from the URL when empty")),
	), s.uploadImage)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Recipe Format",
			mcp.WithResourceDescription("Markdown recipe format understood by the cookbook."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecipeFormatResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchRecipes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total := s.svc.List(ctx, recipeservice.ListParams{
		Filter: catalog.Filter{
			Query:    req.GetString("query", ""),
			Category: req.GetString("category", ""),
			Tag:      req.GetString("tag", ""),
		},
		Limit: req.GetInt("limit", 0),
	})
	return jsonResult(map[string]any{"recipes": items, "total": total})
}

func (s *Server) fullTextSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) getRecipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r, err := s.svc.Get(ctx, slug)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	return jsonResult(r)
}

func (s *Server) listRecipes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total := s.svc.List(ctx, recipeservice.ListParams{
		Limit:  req.GetInt("limit", 0),
		Offset: req.GetInt("offset", 0),
	})
	return jsonResult(map[string]any{"recipes": items, "total": total})
}

func (s *Server) recipeStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Stats(ctx))
}

func (s *Server) createRecipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("recipe")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var in recipeservice.RecipeInput
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid recipe JSON: %v", err)), nil
	}
	r, err := s.svc.Create(ctx, in)
	switch {
	case errors.Is(err, apperr.ErrAlreadyExists):
		return mcp.NewToolResultError(fmt.Sprintf("recipe already exists: %s", recipeservice.Slugify(in.Title))), nil
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", r.Slug)), nil
}

func (s *Server) getRecipeFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecipeFormatContract), nil
}

func (s *Server) readRecipeFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     RecipeFormatContract,
		},
	}, nil
}
