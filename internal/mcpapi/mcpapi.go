// Package mcpapi exposes template registration and application as
// MCP tools over mark3labs/mcp-go.
package mcpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pdftpl/templateengine/internal/block"
	"github.com/pdftpl/templateengine/internal/config"
	"github.com/pdftpl/templateengine/internal/engine"
	"github.com/pdftpl/templateengine/internal/template"
)

// Server wraps an MCP server exposing the template engine's
// operations as tools: apply_template, list_templates, get_template,
// upsert_template.
type Server struct {
	cfg       *config.Config
	mcpServer *server.MCPServer
	repo      template.Repository
	extractor block.PageExtractor
	applier   engine.Applier
	logger    *slog.Logger
}

// New builds an MCP Server wiring the given collaborators.
func New(cfg *config.Config, repo template.Repository, extractor block.PageExtractor, applier engine.Applier, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	mcpServer := server.NewMCPServer("templateengine", "1.0.0", server.WithToolCapabilities(false))
	s := &Server{cfg: cfg, mcpServer: mcpServer, repo: repo, extractor: extractor, applier: applier, logger: logger}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	applyTool := mcp.NewTool(
		"apply_template",
		mcp.WithDescription("Apply a registered spatial template to a PDF file and return extracted field values"),
		mcp.WithString("template_id", mcp.Required(), mcp.Description("ID of the registered template")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Full path to the PDF file")),
		mcp.WithBoolean("debug", mcp.Description("Include the anchor/transform/box diagnostics envelope")),
	)
	s.mcpServer.AddTool(applyTool, s.handleApplyTemplate)

	listTool := mcp.NewTool(
		"list_templates",
		mcp.WithDescription("List all registered templates"),
	)
	s.mcpServer.AddTool(listTool, s.handleListTemplates)

	getTool := mcp.NewTool(
		"get_template",
		mcp.WithDescription("Fetch one registered template by id"),
		mcp.WithString("template_id", mcp.Required(), mcp.Description("ID of the registered template")),
	)
	s.mcpServer.AddTool(getTool, s.handleGetTemplate)

	upsertTool := mcp.NewTool(
		"upsert_template",
		mcp.WithDescription("Create or replace a template from its JSON representation"),
		mcp.WithString("template_json", mcp.Required(), mcp.Description("The full Template object, JSON-encoded")),
	)
	s.mcpServer.AddTool(upsertTool, s.handleUpsertTemplate)
}

func (s *Server) handleApplyTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, err := req.RequireString("template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	debug := false
	if d, ok := req.GetArguments()["debug"].(bool); ok {
		debug = d
	}

	tpl, err := s.repo.Get(ctx, templateID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	blocks, err := s.collectBlocks(ctx, tpl, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.applier.Apply(tpl, blocks, engine.Options{IncludeDebug: debug})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(result)
}

// collectBlocks extracts page 1 plus every page declared in the
// template's meta or used by one of its boxes, via the configured
// extractor.
func (s *Server) collectBlocks(ctx context.Context, tpl *template.Template, path string) ([]block.Block, error) {
	pages := map[int]bool{1: true}
	for p := range tpl.Meta.Pages {
		pages[p] = true
	}
	for _, b := range tpl.Boxes {
		pages[b.Page] = true
	}

	var all []block.Block
	for page := range pages {
		_, blocks, err := s.extractor.Extract(ctx, path, page)
		if err != nil {
			s.logger.Warn("page extraction failed", "page", page, "path", path, "error", err)
			continue
		}
		all = append(all, blocks...)
	}
	return all, nil
}

func (s *Server) handleListTemplates(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tpls, err := s.repo.ListAll(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tpls)
}

func (s *Server) handleGetTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tpl)
}

func (s *Server) handleUpsertTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("template_json")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var tpl template.Template
	if err := json.Unmarshal([]byte(raw), &tpl); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid template_json: %v", err)), nil
	}
	if err := s.repo.Upsert(ctx, &tpl); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(&tpl)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// Run starts the MCP server in stdio mode.
func (s *Server) Run(_ context.Context) error {
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("serve stdio: %w", err)
	}
	return nil
}
