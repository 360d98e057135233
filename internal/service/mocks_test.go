package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Strob0t/ilmihal/internal/domain"
	"github.com/Strob0t/ilmihal/internal/domain/catechism"
	"github.com/Strob0t/ilmihal/internal/domain/message"
	"github.com/Strob0t/ilmihal/internal/port/cache"
	"github.com/Strob0t/ilmihal/internal/port/counter"
	"github.com/Strob0t/ilmihal/internal/port/database"
	"github.com/Strob0t/ilmihal/internal/port/llm"
	"github.com/Strob0t/ilmihal/internal/port/messagequeue"
	"github.com/Strob0t/ilmihal/internal/port/notifier"
)

var (
	_ database.Store     = (*mockStore)(nil)
	_ messagequeue.Queue = (*mockQueue)(nil)
	_ cache.Cache        = (*memCache)(nil)
	_ counter.Counter    = (*mockCounter)(nil)
	_ llm.Completer      = (*mockCompleter)(nil)
	_ notifier.Notifier  = (*mockNotifier)(nil)
)

// mockStore is an in-memory database.Store.
type mockStore struct {
	mu       sync.Mutex
	rows     []catechism.ContentRow
	messages []message.Message
	filters  []catechism.Filter
	inserted [][]catechism.ContentRow

	// Error hooks.
	listErr   error
	insertErr error
	createErr error
}

func (m *mockStore) ListContentRows(_ context.Context, f catechism.Filter) ([]catechism.ContentRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, f)
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]catechism.ContentRow, 0)
	for i := range m.rows {
		r := m.rows[i]
		if f.ChapterID != "" && (r.Chapter == nil || *r.Chapter != f.ChapterID) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockStore) InsertContentRows(_ context.Context, rows []catechism.ContentRow) ([]catechism.ContentRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	out := make([]catechism.ContentRow, len(rows))
	for i := range rows {
		out[i] = rows[i]
		out[i].ID = fmt.Sprintf("row-%d", len(m.rows)+i+1)
	}
	m.rows = append(m.rows, out...)
	m.inserted = append(m.inserted, out)
	return out, nil
}

func (m *mockStore) CreateMessage(_ context.Context, req *message.CreateRequest) (*message.Message, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	msg := message.Message{
		ID:        fmt.Sprintf("msg-%d", len(m.messages)+1),
		Name:      req.Name,
		Email:     req.Email,
		Subject:   req.Subject,
		Body:      req.Body,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	m.messages = append(m.messages, msg)
	return &msg, nil
}

func (m *mockStore) GetMessage(_ context.Context, id string) (*message.Message, error) {
	for i := range m.messages {
		if m.messages[i].ID == id {
			return &m.messages[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListMessages(_ context.Context) ([]message.Message, error) {
	return m.messages, nil
}

func (m *mockStore) MarkMessageRead(ctx context.Context, id string) (*message.Message, error) {
	msg, err := m.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.ReadAt == nil {
		now := time.Now()
		msg.ReadAt = &now
	}
	return msg, nil
}

func (m *mockStore) DeleteMessage(_ context.Context, id string) error {
	for i := range m.messages {
		if m.messages[i].ID == id {
			m.messages = append(m.messages[:i], m.messages[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type published struct {
	subject string
	data    []byte
}

// mockQueue records published messages.
type mockQueue struct {
	mu         sync.Mutex
	published  []published
	publishErr error
}

func (q *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.publishErr != nil {
		return q.publishErr
	}
	q.published = append(q.published, published{subject: subject, data: data})
	return nil
}

func (q *mockQueue) Subscribe(context.Context, string, messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (q *mockQueue) SubscribeShared(context.Context, string, string, messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (q *mockQueue) Close() error      { return nil }
func (q *mockQueue) IsConnected() bool { return true }

// memCache is a map-backed cache.Cache; ttl is ignored.
type memCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// mockCounter counts per key and ignores the window.
type mockCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	keys   []string
	err    error
}

func (c *mockCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	if c.counts == nil {
		c.counts = make(map[string]int64)
	}
	c.counts[key]++
	c.keys = append(c.keys, key)
	return c.counts[key], nil
}

// mockCompleter returns a fixed answer and records the conversation.
type mockCompleter struct {
	answer string
	err    error
	calls  [][]llm.Message
}

func (c *mockCompleter) Complete(_ context.Context, msgs []llm.Message) (string, error) {
	c.calls = append(c.calls, msgs)
	if c.err != nil {
		return "", c.err
	}
	return c.answer, nil
}

func (c *mockCompleter) Model() string { return "test-model" }

var errStore = errors.New("connection refused")

func ptr(s string) *string { return &s }

func contentRow(id, chapter, section, sub, title string) catechism.ContentRow {
	r := catechism.ContentRow{ID: id, Title: ptr(title), Content: ptr(title + " metni")}
	if chapter != "" {
		r.Chapter = ptr(chapter)
	}
	if section != "" {
		r.Section = ptr(section)
	}
	if sub != "" {
		r.SubSection = ptr(sub)
	}
	return r
}

// mockNotifier records notifications and fails when err is set.
type mockNotifier struct {
	name string
	err  error
	sent []notifier.Notification
}

func (n *mockNotifier) Name() string { return n.name }

func (n *mockNotifier) Send(_ context.Context, nt notifier.Notification) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, nt)
	return nil
}
