// Package chat models chatbot questions and the free usage allowance.
package chat

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Strob0t/ilmihal/internal/domain"
)

// MaxQuestionLen bounds a single question.
const MaxQuestionLen = 2000

// Request is a question sent to the chatbot.
type Request struct {
	Question string `json:"question"`
}

// Validate checks that a Request is well-formed.
func (r *Request) Validate() error {
	q := strings.TrimSpace(r.Question)
	if q == "" {
		return fmt.Errorf("%w: question is required", domain.ErrValidation)
	}
	if utf8.RuneCountInString(q) > MaxQuestionLen {
		return fmt.Errorf("%w: question too long (max %d chars)", domain.ErrValidation, MaxQuestionLen)
	}
	return nil
}

// Response is the chatbot answer plus the allowance left for the identity.
type Response struct {
	Answer    string `json:"answer"`
	Remaining int64  `json:"remaining"`
}

// Remaining returns how many free questions are left after used of limit.
func Remaining(limit, used int64) int64 {
	if used >= limit {
		return 0
	}
	return limit - used
}

// CounterKey returns the counter key for an identity. The identity is
// hashed so distinct identities never share a key and the key only uses
// characters every KV backend accepts.
func CounterKey(identity string) string {
	if identity == "" {
		return "chat.questions.anonymous"
	}
	sum := sha256.Sum256([]byte(identity))
	return "chat.questions." + hex.EncodeToString(sum[:16])
}
