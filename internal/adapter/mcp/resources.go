package mcp

import (
	"context"
	"encoding/json"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/Strob0t/ilmihal/internal/domain/catechism"
)

const (
	chaptersURI       = "ilmihal://chapters"
	chapterURIPrefix  = chaptersURI + "/"
	chapterURIPattern = chapterURIPrefix + "{chapter_id}"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			chaptersURI,
			"Chapters",
			mcplib.WithResourceDescription("Every ilmihal chapter with its sections and subsections"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleChaptersResource,
	)

	s.mcpServer.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			chapterURIPattern,
			"Chapter",
			mcplib.WithTemplateDescription("A single ilmihal chapter"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		s.handleChapterResource,
	)
}

func (s *Server) handleChaptersResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Content == nil {
		return jsonContents(req.Params.URI, `{"error":"content reader not configured"}`), nil
	}
	chapters, err := s.deps.Content.List(ctx, "")
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(chapters)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, string(data)), nil
}

func (s *Server) handleChapterResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Content == nil {
		return jsonContents(req.Params.URI, `{"error":"content reader not configured"}`), nil
	}
	chapterID := strings.TrimPrefix(req.Params.URI, chapterURIPrefix)
	v, err := s.deps.Content.Resolve(ctx, chapterID, catechism.Query{})
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, string(data)), nil
}

func jsonContents(uri, text string) []mcplib.ResourceContents {
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		},
	}
}
