package service

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	cfotel "github.com/Strob0t/ilmihal/internal/adapter/otel"
	"github.com/Strob0t/ilmihal/internal/domain/message"
	"github.com/Strob0t/ilmihal/internal/port/database"
	"github.com/Strob0t/ilmihal/internal/port/messagequeue"
	"github.com/Strob0t/ilmihal/internal/port/notifier"
)

// MessageService stores contact messages and announces new ones.
type MessageService struct {
	store     database.MessageStore
	queue     messagequeue.Queue
	metrics   *cfotel.Metrics
	notifiers []notifier.Notifier
}

// NewMessageService creates a MessageService. queue may be nil.
func NewMessageService(store database.MessageStore, queue messagequeue.Queue) *MessageService {
	return &MessageService{store: store, queue: queue}
}

// SetMetrics attaches metric instruments.
func (s *MessageService) SetMetrics(m *cfotel.Metrics) {
	s.metrics = m
}

// SetNotifiers sets the destinations told about every new message.
func (s *MessageService) SetNotifiers(n ...notifier.Notifier) {
	s.notifiers = n
}

// Create validates and stores a message, then publishes messages.created.
// A failed publish is logged; the message stays stored.
func (s *MessageService) Create(ctx context.Context, req *message.CreateRequest) (*message.Message, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	m, err := s.store.CreateMessage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	s.metrics.MessageCreated(ctx)

	if s.queue != nil {
		data, err := json.Marshal(messagequeue.MessageCreatedPayload{
			ID:        m.ID,
			Email:     m.Email,
			Subject:   m.Subject,
			CreatedAt: m.CreatedAt,
		})
		if err == nil {
			err = s.queue.Publish(ctx, messagequeue.SubjectMessageCreated, data)
		}
		if err != nil {
			slog.ErrorContext(ctx, "publish message created", "message_id", m.ID, "error", err)
		}
	}
	return m, nil
}

// List returns all messages, newest first.
func (s *MessageService) List(ctx context.Context) ([]message.Message, error) {
	return s.store.ListMessages(ctx)
}

// Get returns a message by ID.
func (s *MessageService) Get(ctx context.Context, id string) (*message.Message, error) {
	return s.store.GetMessage(ctx, id)
}

// MarkRead sets the read timestamp once and returns the message.
func (s *MessageService) MarkRead(ctx context.Context, id string) (*message.Message, error) {
	return s.store.MarkMessageRead(ctx, id)
}

// Delete removes a message.
func (s *MessageService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteMessage(ctx, id)
}

// HandleCreated is the messages.created subscriber. It logs the arrival
// and forwards it to every notifier. The error is non-nil only when all
// notifiers fail, so a redelivery never repeats a delivered notification
// unless nothing was delivered.
func (s *MessageService) HandleCreated(ctx context.Context, subject string, data []byte) error {
	var p messagequeue.MessageCreatedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("unmarshal messages.created: %w", err)
	}
	slog.InfoContext(ctx, "new contact message",
		"message_id", p.ID, "email", p.Email, "subject", p.Subject, "created_at", p.CreatedAt)

	if len(s.notifiers) == 0 {
		return nil
	}
	n := notifier.Notification{
		Title:   "Yeni iletişim mesajı: " + cmp.Or(p.Subject, "(konu yok)"),
		Message: fmt.Sprintf("Gönderen: %s\nKayıt: %s\nTarih: %s", p.Email, p.ID, p.CreatedAt.Format(time.RFC3339)),
		Source:  subject,
	}
	var errs []error
	for _, nt := range s.notifiers {
		if err := nt.Send(ctx, n); err != nil {
			slog.WarnContext(ctx, "notification failed", "notifier", nt.Name(), "message_id", p.ID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", nt.Name(), err))
		}
	}
	if len(errs) == len(s.notifiers) {
		return errors.Join(errs...)
	}
	return nil
}
