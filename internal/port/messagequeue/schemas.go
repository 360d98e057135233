package messagequeue

import "time"

// MessageCreatedPayload is the schema for messages.created.
type MessageCreatedPayload struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"created_at"`
}

// ContentImportedPayload is the schema for content.imported. Generation is
// the row cache generation every instance switches to.
type ContentImportedPayload struct {
	BookName   string `json:"book_name"`
	Chapter    string `json:"chapter"`
	Rows       int    `json:"rows"`
	Pages      int    `json:"pages"`
	Generation string `json:"generation"`
}
