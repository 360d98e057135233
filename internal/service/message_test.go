package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Strob0t/ilmihal/internal/domain"
	"github.com/Strob0t/ilmihal/internal/domain/message"
	"github.com/Strob0t/ilmihal/internal/port/messagequeue"
)

func validMessage() *message.CreateRequest {
	return &message.CreateRequest{
		Name:    "  Ayşe  ",
		Email:   "ayse@example.com",
		Subject: "Abdest",
		Body:    "Mesh nasıl yapılır?",
	}
}

func TestMessageCreatePublishes(t *testing.T) {
	store := &mockStore{}
	queue := &mockQueue{}
	svc := NewMessageService(store, queue)

	m, err := svc.Create(context.Background(), validMessage())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.Name != "Ayşe" {
		t.Errorf("name = %q, want trimmed", m.Name)
	}
	if len(queue.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(queue.published))
	}
	p := queue.published[0]
	if p.subject != messagequeue.SubjectMessageCreated {
		t.Errorf("subject = %q", p.subject)
	}
	var payload messagequeue.MessageCreatedPayload
	if err := json.Unmarshal(p.data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.ID != m.ID || payload.Email != m.Email {
		t.Errorf("payload = %+v", payload)
	}
}

func TestMessageCreateValidation(t *testing.T) {
	store := &mockStore{}
	queue := &mockQueue{}
	svc := NewMessageService(store, queue)

	req := validMessage()
	req.Email = "not-an-email"
	if _, err := svc.Create(context.Background(), req); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(store.messages) != 0 || len(queue.published) != 0 {
		t.Error("invalid message must not be stored or published")
	}
}

func TestMessageCreatePublishFailureKeepsMessage(t *testing.T) {
	store := &mockStore{}
	svc := NewMessageService(store, &mockQueue{publishErr: errors.New("nats down")})

	if _, err := svc.Create(context.Background(), validMessage()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(store.messages) != 1 {
		t.Error("message should be stored despite publish failure")
	}
}

func TestMessageCreateStoreError(t *testing.T) {
	svc := NewMessageService(&mockStore{createErr: errStore}, nil)
	if _, err := svc.Create(context.Background(), validMessage()); !errors.Is(err, errStore) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestMessageLifecycle(t *testing.T) {
	svc := NewMessageService(&mockStore{}, nil)
	ctx := context.Background()

	m, err := svc.Create(ctx, validMessage())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	read, err := svc.MarkRead(ctx, m.ID)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if read.ReadAt == nil {
		t.Error("ReadAt not set")
	}
	list, err := svc.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}
	if err := svc.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, m.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMessageHandleCreated(t *testing.T) {
	svc := NewMessageService(&mockStore{}, nil)
	if err := svc.HandleCreated(context.Background(), messagequeue.SubjectMessageCreated, []byte(`{"id":"m1"}`)); err != nil {
		t.Errorf("HandleCreated: %v", err)
	}
	if err := svc.HandleCreated(context.Background(), messagequeue.SubjectMessageCreated, []byte(`nope`)); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestMessageHandleCreatedNotifies(t *testing.T) {
	slack := &mockNotifier{name: "slack"}
	mail := &mockNotifier{name: "email", err: errors.New("smtp down")}
	svc := NewMessageService(&mockStore{}, nil)
	svc.SetNotifiers(slack, mail)

	payload := []byte(`{"id":"m1","email":"ayse@example.com","subject":"Abdest","created_at":"2026-03-01T12:00:00Z"}`)
	if err := svc.HandleCreated(context.Background(), messagequeue.SubjectMessageCreated, payload); err != nil {
		t.Fatalf("partial failure must not fail the handler: %v", err)
	}
	if len(slack.sent) != 1 {
		t.Fatalf("slack sent %d, want 1", len(slack.sent))
	}
	got := slack.sent[0]
	if got.Title != "Yeni iletişim mesajı: Abdest" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Source != messagequeue.SubjectMessageCreated {
		t.Errorf("source = %q", got.Source)
	}
	if !strings.Contains(got.Message, "ayse@example.com") {
		t.Errorf("message = %q", got.Message)
	}
}

func TestMessageHandleCreatedAllNotifiersFail(t *testing.T) {
	svc := NewMessageService(&mockStore{}, nil)
	svc.SetNotifiers(&mockNotifier{name: "slack", err: errors.New("webhook 500")})

	err := svc.HandleCreated(context.Background(), messagequeue.SubjectMessageCreated, []byte(`{"id":"m1"}`))
	if err == nil {
		t.Fatal("expected error so the event is redelivered")
	}
}
