// Package message models contact messages sent by readers.
package message

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Strob0t/ilmihal/internal/domain"
)

const (
	maxNameLen    = 120
	maxSubjectLen = 200
	maxBodyLen    = 5000
)

// Message is a stored contact message.
type Message struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Subject   string     `json:"subject"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// CreateRequest holds the input for sending a message.
type CreateRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Normalize trims surrounding whitespace from every field.
func (r *CreateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Body = strings.TrimSpace(r.Body)
}

// Validate checks that a CreateRequest is well-formed.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return invalid("name is required")
	}
	if utf8.RuneCountInString(r.Name) > maxNameLen {
		return invalid(fmt.Sprintf("name too long (max %d chars)", maxNameLen))
	}
	if r.Email == "" {
		return invalid("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return invalid("email is invalid")
	}
	if utf8.RuneCountInString(r.Subject) > maxSubjectLen {
		return invalid(fmt.Sprintf("subject too long (max %d chars)", maxSubjectLen))
	}
	if r.Body == "" {
		return invalid("body is required")
	}
	if utf8.RuneCountInString(r.Body) > maxBodyLen {
		return invalid(fmt.Sprintf("body too long (max %d chars)", maxBodyLen))
	}
	return nil
}

// CreatedEvent is published after a message is stored.
type CreatedEvent struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"created_at"`
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, msg)
}
