package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/ilmihal/internal/domain/message"
)

const messageColumns = `id::text, name, email, subject, body, read_at, created_at`

func (s *Store) CreateMessage(ctx context.Context, req *message.CreateRequest) (*message.Message, error) {
	m, err := scanMessage(s.pool.QueryRow(ctx,
		`INSERT INTO messages (name, email, subject, body) VALUES ($1, $2, $3, $4)
		 RETURNING `+messageColumns,
		req.Name, req.Email, req.Subject, req.Body))
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &m, nil
}

func (s *Store) GetMessage(ctx context.Context, id string) (*message.Message, error) {
	if err := checkID(id, "get message"); err != nil {
		return nil, err
	}
	m, err := scanMessage(s.pool.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get message %s", id)
	}
	return &m, nil
}

func (s *Store) ListMessages(ctx context.Context) ([]message.Message, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+messageColumns+` FROM messages ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []message.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return orEmpty(out), rows.Err()
}

// MarkMessageRead sets read_at once; marking an already read message keeps
// the first timestamp.
func (s *Store) MarkMessageRead(ctx context.Context, id string) (*message.Message, error) {
	if err := checkID(id, "mark message read"); err != nil {
		return nil, err
	}
	m, err := scanMessage(s.pool.QueryRow(ctx,
		`UPDATE messages SET read_at = COALESCE(read_at, now()) WHERE id = $1
		 RETURNING `+messageColumns, id))
	if err != nil {
		return nil, notFoundWrap(err, "mark message %s read", id)
	}
	return &m, nil
}

func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	if err := checkID(id, "delete message"); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete message %s", id)
}

func scanMessage(row scannable) (message.Message, error) {
	var m message.Message
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Body, &m.ReadAt, &m.CreatedAt)
	return m, err
}
