package http

import (
	"errors"
	"net/http"

	"github.com/Strob0t/ilmihal/internal/service"
)

const multipartMemory = 8 << 20

// ImportContent handles POST /api/v1/content/import (multipart: file,
// book_name, author_name, chapter, section, tags).
func (h *Handlers) ImportContent(w http.ResponseWriter, r *http.Request) {
	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer func() { _ = file.Close() }()

	req := service.ImportRequest{
		BookName:   r.FormValue("book_name"),
		AuthorName: r.FormValue("author_name"),
		Chapter:    r.FormValue("chapter"),
		Section:    r.FormValue("section"),
		Tags:       r.FormValue("tags"),
	}
	res, err := h.Import.Import(r.Context(), file, header.Size, req)
	if err != nil {
		writeDomainError(w, err, "not found")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
