package http

import (
	"net/http"

	"github.com/Strob0t/ilmihal/internal/domain/chat"
	"github.com/Strob0t/ilmihal/internal/middleware"
)

// Ask handles POST /api/v1/chat
func (h *Handlers) Ask(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[chat.Request](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	resp, err := h.Chat.Ask(r.Context(), middleware.ClientIdentity(r), &req)
	if err != nil {
		writeDomainError(w, err, "not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
