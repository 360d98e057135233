package http

import (
	"github.com/Strob0t/ilmihal/internal/service"
)

const (
	maxRequestBodySize = 1 << 20 // 1 MB
	maxSearchLength    = 200
)

// Handlers holds the services the HTTP handlers delegate to.
type Handlers struct {
	Content  *service.CatechismService
	Messages *service.MessageService
	Chat     *service.ChatService
	Import   *service.ImportService

	// MaxUploadBytes bounds a PDF import request.
	MaxUploadBytes int64
}
