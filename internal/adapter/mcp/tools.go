package mcp

import (
	"context"
	"encoding/json"
	"errors"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/ilmihal/internal/domain"
	"github.com/Strob0t/ilmihal/internal/domain/catechism"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.searchContentTool(),
		s.getContentTool(),
	)
}

func (s *Server) searchContentTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("search_content",
		mcplib.WithDescription("Search ilmihal content. Matches title, description, body, chapter, section and subsection; an empty query returns every chapter."),
		mcplib.WithString("q",
			mcplib.Description("Case-insensitive search term"),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleSearchContent,
	}
}

func (s *Server) getContentTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_content",
		mcplib.WithDescription("Get a chapter, or one of its sections or subsections"),
		mcplib.WithString("chapter_id",
			mcplib.Required(),
			mcplib.Description("Chapter key, e.g. Ibadet"),
		),
		mcplib.WithString("section_id",
			mcplib.Description("Section key inside the chapter"),
		),
		mcplib.WithString("subsection_id",
			mcplib.Description("Subsection key inside the section; requires section_id"),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleGetContent,
	}
}

func (s *Server) handleSearchContent(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Content == nil {
		return mcplib.NewToolResultError("content reader not configured"), nil
	}
	q, _ := req.GetArguments()["q"].(string)
	chapters, err := s.deps.Content.List(ctx, q)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to search content", err), nil
	}
	return marshalResult(chapters, "chapters")
}

func (s *Server) handleGetContent(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Content == nil {
		return mcplib.NewToolResultError("content reader not configured"), nil
	}
	args := req.GetArguments()
	chapterID, ok := args["chapter_id"].(string)
	if !ok || chapterID == "" {
		return mcplib.NewToolResultError("chapter_id is required"), nil
	}
	sectionID, _ := args["section_id"].(string)
	subID, _ := args["subsection_id"].(string)

	v, err := s.deps.Content.Resolve(ctx, chapterID, catechism.Query{SectionID: sectionID, SubSectionID: subID})
	switch {
	case err == nil:
		return marshalResult(v, "content")
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrValidation):
		return mcplib.NewToolResultError(err.Error()), nil
	default:
		return mcplib.NewToolResultErrorFromErr("failed to get content", err), nil
	}
}

func marshalResult(v any, what string) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal "+what, err), nil
	}
	return toolResultJSON(string(data)), nil
}

func toolResultJSON(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: text},
		},
	}
}
