package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	cfotel "github.com/Strob0t/ilmihal/internal/adapter/otel"
	"github.com/Strob0t/ilmihal/internal/config"
	"github.com/Strob0t/ilmihal/internal/domain"
	"github.com/Strob0t/ilmihal/internal/domain/chat"
	"github.com/Strob0t/ilmihal/internal/port/counter"
	"github.com/Strob0t/ilmihal/internal/port/llm"
)

// ChatService answers reader questions within a free per-identity allowance.
type ChatService struct {
	counter      counter.Counter
	llm          llm.Completer
	limit        int64
	window       time.Duration
	systemPrompt string
	metrics      *cfotel.Metrics
}

// NewChatService creates a ChatService.
func NewChatService(c counter.Counter, completer llm.Completer, cfg config.Chat) *ChatService {
	return &ChatService{
		counter:      c,
		llm:          completer,
		limit:        cfg.FreeQuestions,
		window:       cfg.Window,
		systemPrompt: cfg.SystemPrompt,
	}
}

// SetMetrics attaches metric instruments.
func (s *ChatService) SetMetrics(m *cfotel.Metrics) {
	s.metrics = m
}

// Ask counts the question against identity's allowance and forwards it to
// the model. Every admitted question is counted, answered or not.
func (s *ChatService) Ask(ctx context.Context, identity string, req *chat.Request) (*chat.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	used, err := s.counter.Incr(ctx, chat.CounterKey(identity), s.window)
	if err != nil {
		return nil, fmt.Errorf("%w: question counter: %w", domain.ErrUpstream, err)
	}
	if used > s.limit {
		s.metrics.QuotaRejected(ctx)
		slog.InfoContext(ctx, "free question limit reached", "identity", identity, "used", used)
		return nil, fmt.Errorf("%w: free question limit reached", domain.ErrQuotaExceeded)
	}

	answer, err := s.complete(ctx, strings.TrimSpace(req.Question))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	s.metrics.ChatQuestion(ctx)

	return &chat.Response{Answer: answer, Remaining: chat.Remaining(s.limit, used)}, nil
}

func (s *ChatService) complete(ctx context.Context, question string) (answer string, err error) {
	var model string
	if m, ok := s.llm.(interface{ Model() string }); ok {
		model = m.Model()
	}
	ctx, span := cfotel.StartChatSpan(ctx, model)
	defer func() { cfotel.EndSpan(span, err) }()

	msgs := make([]llm.Message, 0, 2)
	if s.systemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: s.systemPrompt})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: question})
	return s.llm.Complete(ctx, msgs)
}
