package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	cfotel "github.com/Strob0t/ilmihal/internal/adapter/otel"
	"github.com/Strob0t/ilmihal/internal/adapter/pdf"
	"github.com/Strob0t/ilmihal/internal/domain"
	"github.com/Strob0t/ilmihal/internal/domain/catechism"
	"github.com/Strob0t/ilmihal/internal/port/database"
	"github.com/Strob0t/ilmihal/internal/port/messagequeue"
)

const maxTitleRunes = 120

// ImportRequest describes where imported text goes.
type ImportRequest struct {
	BookName   string `json:"book_name"`
	AuthorName string `json:"author_name"`
	Chapter    string `json:"chapter"`
	Section    string `json:"section"`
	Tags       string `json:"tags"`
}

// Normalize trims every field and converts it to NFC.
func (r *ImportRequest) Normalize() {
	for _, f := range []*string{&r.BookName, &r.AuthorName, &r.Chapter, &r.Section, &r.Tags} {
		*f = norm.NFC.String(strings.TrimSpace(*f))
	}
}

// Validate checks that an ImportRequest is complete.
func (r *ImportRequest) Validate() error {
	if r.BookName == "" {
		return fmt.Errorf("%w: book_name is required", domain.ErrValidation)
	}
	if r.Chapter == "" {
		return fmt.Errorf("%w: chapter is required", domain.ErrValidation)
	}
	return nil
}

// ImportResult summarizes a finished import.
type ImportResult struct {
	Chapter    string `json:"chapter"`
	Pages      int    `json:"pages"`
	Rows       int    `json:"rows"`
	Generation string `json:"generation"`
}

// ImportService turns PDF text into content rows.
type ImportService struct {
	store         database.ContentStore
	content       *CatechismService
	queue         messagequeue.Queue
	maxChunkChars int
	metrics       *cfotel.Metrics
	extract       func(io.ReaderAt, int64) ([]pdf.Page, error)
}

// NewImportService creates an ImportService. queue may be nil.
func NewImportService(store database.ContentStore, content *CatechismService, queue messagequeue.Queue, maxChunkChars int) *ImportService {
	return &ImportService{
		store:         store,
		content:       content,
		queue:         queue,
		maxChunkChars: maxChunkChars,
		extract:       pdf.ExtractPages,
	}
}

// SetMetrics attaches metric instruments.
func (s *ImportService) SetMetrics(m *cfotel.Metrics) {
	s.metrics = m
}

// Import extracts r's text, stores one row per chunk in a single
// transaction and switches the row cache to a new generation.
func (s *ImportService) Import(ctx context.Context, r io.ReaderAt, size int64, req ImportRequest) (res *ImportResult, err error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := cfotel.StartImportSpan(ctx, req.BookName, req.Chapter)
	defer func() { cfotel.EndSpan(span, err) }()

	pages, err := s.extract(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	chunks := pdf.Split(pages, s.maxChunkChars)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: pdf contains no extractable text", domain.ErrValidation)
	}

	inserted, err := s.store.InsertContentRows(ctx, BuildRows(chunks, &req))
	if err != nil {
		return nil, fmt.Errorf("insert content rows: %w", err)
	}
	s.metrics.RowsImported(ctx, len(inserted))

	res = &ImportResult{
		Chapter:    req.Chapter,
		Pages:      len(pages),
		Rows:       len(inserted),
		Generation: s.content.NewGeneration(),
	}
	slog.InfoContext(ctx, "content imported",
		"book", req.BookName, "chapter", req.Chapter, "pages", res.Pages, "rows", res.Rows)

	s.announce(ctx, &req, res)
	return res, nil
}

func (s *ImportService) announce(ctx context.Context, req *ImportRequest, res *ImportResult) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(messagequeue.ContentImportedPayload{
		BookName:   req.BookName,
		Chapter:    res.Chapter,
		Rows:       res.Rows,
		Pages:      res.Pages,
		Generation: res.Generation,
	})
	if err == nil {
		err = s.queue.Publish(ctx, messagequeue.SubjectContentImported, data)
	}
	if err != nil {
		slog.ErrorContext(ctx, "publish content imported", "chapter", res.Chapter, "error", err)
	}
}

// Section and subsection keys are zero-padded so the store's text ordering
// keeps reading order.
const (
	pageSectionFormat = "Sayfa %04d"
	chunkSubFormat    = "Bolum %04d"
)

// BuildRows maps chunks to content rows: the title is the chunk's first
// line, the section defaults to "Sayfa <first page>" and the subsection is
// "Bolum <n>".
func BuildRows(chunks []pdf.Chunk, req *ImportRequest) []catechism.ContentRow {
	rows := make([]catechism.ContentRow, 0, len(chunks))
	for i, c := range chunks {
		section := req.Section
		if section == "" {
			section = fmt.Sprintf(pageSectionFormat, c.FirstPage)
		}
		rows = append(rows, catechism.ContentRow{
			BookName:   optional(req.BookName),
			AuthorName: optional(req.AuthorName),
			Title:      optional(c.Title(maxTitleRunes)),
			Content:    optional(c.Text),
			Chapter:    optional(req.Chapter),
			Section:    optional(section),
			SubSection: optional(fmt.Sprintf(chunkSubFormat, i+1)),
			Tags:       optional(req.Tags),
		})
	}
	return rows
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
