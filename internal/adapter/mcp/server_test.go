package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/Strob0t/ilmihal/internal/domain/catechism"
)

// --- Mocks ---

type mockContent struct {
	chapters   []catechism.Chapter
	lastSearch string
	lastQuery  catechism.Query
	err        error
}

func (m *mockContent) List(_ context.Context, search string) ([]catechism.Chapter, error) {
	m.lastSearch = search
	return m.chapters, m.err
}

func (m *mockContent) Resolve(_ context.Context, chapterID string, q catechism.Query) (any, error) {
	m.lastQuery = q
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.chapters {
		if m.chapters[i].ID == chapterID {
			return catechism.Select(&m.chapters[i], q)
		}
	}
	return nil, &catechism.NotFoundError{ID: chapterID}
}

func sampleChapters() []catechism.Chapter {
	return []catechism.Chapter{
		{ID: "Ibadet", Title: "Ibadet", Sections: []catechism.Section{
			{ID: "Namaz", Title: "Namaz", SubSections: []catechism.SubSection{
				{ID: "Sartlari", RowID: "r1", Title: "Namazın Şartları", Content: "..."},
				{ID: "Rukunleri", RowID: "r2", Title: "Namazın Rükünleri", Content: "..."},
			}},
		}},
	}
}

func newTestServer(deps ServerDeps) *Server {
	return NewServer(ServerConfig{Name: "ilmihal-test", Version: "0.1.0"}, deps)
}

func callTool(t *testing.T, s *Server, name string, args map[string]any) *mcplib.CallToolResult {
	t.Helper()
	tool, ok := s.MCPServer().ListTools()[name]
	if !ok {
		t.Fatalf("%s tool not found", name)
	}
	result, err := tool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: name, Arguments: args},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return result
}

func resultText(t *testing.T, r *mcplib.CallToolResult) string {
	t.Helper()
	text, ok := r.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	return text.Text
}

// --- Tests ---

func TestToolRegistration(t *testing.T) {
	s := newTestServer(ServerDeps{})
	tools := s.MCPServer().ListTools()
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools))
	}
	for _, name := range []string{"search_content", "get_content"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("expected tool %q not registered", name)
		}
	}
}

func TestHandleSearchContent(t *testing.T) {
	content := &mockContent{chapters: sampleChapters()}
	s := newTestServer(ServerDeps{Content: content})

	result := callTool(t, s, "search_content", map[string]any{"q": "namaz"})
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}
	if content.lastSearch != "namaz" {
		t.Errorf("search = %q, want namaz", content.lastSearch)
	}
	var got []catechism.Chapter
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if diff := cmp.Diff(sampleChapters(), got); diff != "" {
		t.Errorf("chapters mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleGetContentSubSection(t *testing.T) {
	s := newTestServer(ServerDeps{Content: &mockContent{chapters: sampleChapters()}})

	result := callTool(t, s, "get_content", map[string]any{
		"chapter_id":    "Ibadet",
		"section_id":    "Namaz",
		"subsection_id": "Rukunleri",
	})
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}
	var got catechism.SubSection
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if got.RowID != "r2" {
		t.Errorf("row id = %q, want r2", got.RowID)
	}
}

func TestHandleGetContentNotFound(t *testing.T) {
	s := newTestServer(ServerDeps{Content: &mockContent{chapters: sampleChapters()}})

	result := callTool(t, s, "get_content", map[string]any{"chapter_id": "Ibadet", "section_id": "Oruc"})
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if got := resultText(t, result); got != "Oruc not found" {
		t.Errorf("error text = %q, want %q", got, "Oruc not found")
	}
}

func TestHandleGetContentMissingArg(t *testing.T) {
	s := newTestServer(ServerDeps{Content: &mockContent{}})
	if result := callTool(t, s, "get_content", nil); !result.IsError {
		t.Fatal("expected error result for missing chapter_id")
	}
}

func TestHandleStoreFailure(t *testing.T) {
	s := newTestServer(ServerDeps{Content: &mockContent{err: errors.New("connection refused")}})
	if result := callTool(t, s, "search_content", nil); !result.IsError {
		t.Fatal("expected error result on store failure")
	}
}

func TestHandleNilDeps(t *testing.T) {
	s := newTestServer(ServerDeps{})
	if result := callTool(t, s, "search_content", nil); !result.IsError {
		t.Fatal("expected error result when deps are nil")
	}
}

func TestChaptersResource(t *testing.T) {
	s := newTestServer(ServerDeps{Content: &mockContent{chapters: sampleChapters()}})

	req := mcplib.ReadResourceRequest{}
	req.Params.URI = chaptersURI
	contents, err := s.handleChaptersResource(context.Background(), req)
	if err != nil {
		t.Fatalf("resource error: %v", err)
	}
	text, ok := contents[0].(mcplib.TextResourceContents)
	if !ok {
		t.Fatal("expected TextResourceContents")
	}
	var got []catechism.Chapter
	if err := json.Unmarshal([]byte(text.Text), &got); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "Ibadet" {
		t.Errorf("chapters = %+v", got)
	}
}

func TestChapterResource(t *testing.T) {
	s := newTestServer(ServerDeps{Content: &mockContent{chapters: sampleChapters()}})

	req := mcplib.ReadResourceRequest{}
	req.Params.URI = chapterURIPrefix + "Ibadet"
	contents, err := s.handleChapterResource(context.Background(), req)
	if err != nil {
		t.Fatalf("resource error: %v", err)
	}
	text := contents[0].(mcplib.TextResourceContents)
	var got catechism.Chapter
	if err := json.Unmarshal([]byte(text.Text), &got); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if got.ID != "Ibadet" || len(got.Sections) != 1 {
		t.Errorf("chapter = %+v", got)
	}

	req.Params.URI = chapterURIPrefix + "Muamelat"
	if _, err := s.handleChapterResource(context.Background(), req); err == nil {
		t.Error("expected error for unknown chapter")
	}
}

func TestServerStartStop(t *testing.T) {
	s := NewServer(ServerConfig{Addr: "127.0.0.1:0", Name: "test", Version: "0.1.0"}, ServerDeps{})
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if s.Addr() == nil {
		t.Fatal("Addr() is nil after Start")
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name   string
		key    string
		header string
		want   int
	}{
		{"disabled", "", "", http.StatusOK},
		{"missing header", "secret", "", http.StatusUnauthorized},
		{"wrong key", "secret", "Bearer nope", http.StatusForbidden},
		{"bearer", "secret", "Bearer secret", http.StatusOK},
		{"bare key", "secret", "secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			AuthMiddleware(tt.key, ok).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
