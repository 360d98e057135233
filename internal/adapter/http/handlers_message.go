package http

import (
	"net/http"
)

// CreateMessage handles POST /api/v1/messages
func (h *Handlers) CreateMessage(w http.ResponseWriter, r *http.Request) {
	handleCreate(maxRequestBodySize, h.Messages.Create)(w, r)
}

// ListMessages handles GET /api/v1/messages
func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	handleList(h.Messages.List)(w, r)
}

// GetMessage handles GET /api/v1/messages/{id}
func (h *Handlers) GetMessage(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Messages.Get, "message not found")(w, r)
}

// MarkMessageRead handles POST /api/v1/messages/{id}/read
func (h *Handlers) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	handleAction(h.Messages.MarkRead, "message not found")(w, r)
}

// DeleteMessage handles DELETE /api/v1/messages/{id}
func (h *Handlers) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Messages.Delete, "message not found")(w, r)
}
