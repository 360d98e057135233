package http

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/Strob0t/ilmihal/internal/domain/catechism"
)

// ListContent handles GET /api/v1/content?q=
func (h *Handlers) ListContent(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if utf8.RuneCountInString(q) > maxSearchLength {
		writeError(w, http.StatusBadRequest, "search term too long")
		return
	}
	chapters, err := h.Content.List(r.Context(), q)
	if err != nil {
		writeDomainError(w, err, "content not found")
		return
	}
	writeJSON(w, http.StatusOK, chapters)
}

// GetContent handles GET /api/v1/content/{chapterId}?section=&subsection=
func (h *Handlers) GetContent(w http.ResponseWriter, r *http.Request) {
	chapterID, err := pathParam(r, "chapterId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid chapter id")
		return
	}
	query := catechism.Query{
		SectionID:    r.URL.Query().Get("section"),
		SubSectionID: r.URL.Query().Get("subsection"),
	}
	result, err := h.Content.Resolve(r.Context(), chapterID, query)
	if err != nil {
		writeDomainError(w, err, chapterID+" not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
