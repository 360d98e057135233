// Package service implements business logic on top of ports.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	cfotel "github.com/Strob0t/ilmihal/internal/adapter/otel"
	"github.com/Strob0t/ilmihal/internal/domain"
	"github.com/Strob0t/ilmihal/internal/domain/catechism"
	"github.com/Strob0t/ilmihal/internal/port/cache"
	"github.com/Strob0t/ilmihal/internal/port/database"
	"github.com/Strob0t/ilmihal/internal/port/messagequeue"
)

// InitialGeneration is the row cache generation every instance starts with,
// so instances share L2 entries until the first import.
const InitialGeneration = "boot"

// CatechismService resolves chapter, section and subsection content.
type CatechismService struct {
	store   database.ContentStore
	cache   cache.Cache
	ttl     time.Duration
	metrics *cfotel.Metrics

	mu         sync.RWMutex
	generation string
}

// NewCatechismService creates a CatechismService without a row cache.
func NewCatechismService(store database.ContentStore) *CatechismService {
	return &CatechismService{store: store, generation: InitialGeneration}
}

// SetCache enables caching of store results for ttl. A zero ttl or nil
// cache disables it.
func (s *CatechismService) SetCache(c cache.Cache, ttl time.Duration) {
	if ttl <= 0 {
		c = nil
	}
	s.cache = c
	s.ttl = ttl
}

// SetMetrics attaches metric instruments.
func (s *CatechismService) SetMetrics(m *cfotel.Metrics) {
	s.metrics = m
}

// List returns every chapter whose rows match search; empty search
// returns everything.
func (s *CatechismService) List(ctx context.Context, search string) (chapters []catechism.Chapter, err error) {
	ctx, span := cfotel.StartResolveSpan(ctx, "", "", "")
	start := time.Now()
	defer func() {
		s.metrics.ContentLookup(ctx, "list", outcome(err), time.Since(start))
		cfotel.EndSpan(span, err)
	}()

	rows, err := s.rows(ctx, catechism.Filter{Search: search})
	if err != nil {
		return nil, err
	}
	return catechism.Assemble(rows), nil
}

// Resolve returns the chapter, or the section or subsection q names.
func (s *CatechismService) Resolve(ctx context.Context, chapterID string, q catechism.Query) (result any, err error) {
	ctx, span := cfotel.StartResolveSpan(ctx, chapterID, q.SectionID, q.SubSectionID)
	start := time.Now()
	defer func() {
		s.metrics.ContentLookup(ctx, "chapter", outcome(err), time.Since(start))
		cfotel.EndSpan(span, err)
	}()

	if err := q.Validate(); err != nil {
		return nil, err
	}

	// Narrowing happens after assembly so "general" keys and row id
	// fallbacks resolve the same way they are rendered.
	rows, err := s.rows(ctx, catechism.Filter{ChapterID: chapterID})
	if err != nil {
		return nil, err
	}
	ch, ok := catechism.AssembleChapter(chapterID, rows)
	if !ok {
		return nil, &catechism.NotFoundError{ID: chapterID}
	}
	return catechism.Select(&ch, q)
}

// Generation returns the current row cache generation.
func (s *CatechismService) Generation() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// SetGeneration switches to generation g; entries of older generations are
// never read again and expire with their TTL.
func (s *CatechismService) SetGeneration(g string) {
	if g == "" {
		return
	}
	s.mu.Lock()
	s.generation = g
	s.mu.Unlock()
}

// NewGeneration switches to a fresh generation and returns it.
func (s *CatechismService) NewGeneration() string {
	g := uuid.NewString()
	s.SetGeneration(g)
	return g
}

// HandleContentImported adopts the generation announced by the importing
// instance. It is the content.imported subscriber.
func (s *CatechismService) HandleContentImported(ctx context.Context, _ string, data []byte) error {
	var p messagequeue.ContentImportedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("unmarshal content.imported: %w", err)
	}
	s.SetGeneration(p.Generation)
	slog.InfoContext(ctx, "content cache generation updated",
		"generation", p.Generation, "book", p.BookName, "chapter", p.Chapter, "rows", p.Rows)
	return nil
}

func (s *CatechismService) rows(ctx context.Context, f catechism.Filter) ([]catechism.ContentRow, error) {
	var key string
	if s.cache != nil {
		key = s.cacheKey(f)
		if rows, ok := s.cachedRows(ctx, key); ok {
			s.metrics.CacheLookup(ctx, true)
			return rows, nil
		}
		s.metrics.CacheLookup(ctx, false)
	}

	rows, err := s.store.ListContentRows(ctx, f)
	if err != nil {
		return nil, &catechism.RetrievalError{Err: err}
	}

	if s.cache != nil {
		data, err := json.Marshal(rows)
		if err == nil {
			err = s.cache.Set(ctx, key, data, s.ttl)
		}
		if err != nil {
			slog.WarnContext(ctx, "content cache set failed", "key", key, "error", err)
		}
	}
	return rows, nil
}

func (s *CatechismService) cachedRows(ctx context.Context, key string) ([]catechism.ContentRow, bool) {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "content cache get failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var rows []catechism.ContentRow
	if err := json.Unmarshal(data, &rows); err != nil {
		slog.WarnContext(ctx, "content cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	return rows, true
}

// cacheKey is "content.<generation>.<sha256 of the filter>", which only
// uses characters NATS KV accepts.
func (s *CatechismService) cacheKey(f catechism.Filter) string {
	sum := sha256.Sum256([]byte(f.Key()))
	return "content." + s.Generation() + "." + hex.EncodeToString(sum[:16])
}

func outcome(err error) string {
	switch {
	case err == nil:
		return cfotel.OutcomeOK
	case errors.Is(err, domain.ErrNotFound):
		return cfotel.OutcomeNotFound
	case errors.Is(err, domain.ErrValidation):
		return cfotel.OutcomeInvalid
	default:
		return cfotel.OutcomeError
	}
}
