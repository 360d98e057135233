// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/ilmihal/internal/domain/catechism"
	"github.com/Strob0t/ilmihal/internal/domain/message"
)

// Store is the port interface for database operations.
type Store interface {
	ContentStore
	MessageStore
}

// ContentStore reads and writes catechism content rows.
type ContentStore interface {
	// ListContentRows returns the rows matching f, ordered by chapter,
	// section and subsection (nulls first), then newest first.
	ListContentRows(ctx context.Context, f catechism.Filter) ([]catechism.ContentRow, error)
	// InsertContentRows stores rows in one transaction and returns them with
	// store-assigned ids and timestamps.
	InsertContentRows(ctx context.Context, rows []catechism.ContentRow) ([]catechism.ContentRow, error)
}

// MessageStore persists contact messages.
type MessageStore interface {
	CreateMessage(ctx context.Context, req *message.CreateRequest) (*message.Message, error)
	GetMessage(ctx context.Context, id string) (*message.Message, error)
	ListMessages(ctx context.Context) ([]message.Message, error)
	MarkMessageRead(ctx context.Context, id string) (*message.Message, error)
	DeleteMessage(ctx context.Context, id string) error
}
