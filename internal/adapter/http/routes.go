package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Version is reported by GET /api/v1/.
const Version = "0.1.0"

// RouteConfig holds the per-deployment parts of the API router.
type RouteConfig struct {
	// CORSOrigin may call every non-content route. Content reads allow any origin.
	CORSOrigin string
	// RateLimit, when set, runs on every API route after CORS.
	RateLimit func(http.Handler) http.Handler
	// Idempotency, when set, runs on the restricted routes after rate limiting.
	Idempotency func(http.Handler) http.Handler
}

func (rc RouteConfig) use(r chi.Router, extra ...func(http.Handler) http.Handler) {
	if rc.RateLimit != nil {
		r.Use(rc.RateLimit)
	}
	for _, mw := range extra {
		if mw != nil {
			r.Use(mw)
		}
	}
}

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers, rc RouteConfig) {
	r.Route("/api/v1", func(r chi.Router) {
		// Public content reads
		r.Group(func(r chi.Router) {
			r.Use(PublicCORS)
			rc.use(r)

			r.Get("/content", h.ListContent)
			r.Get("/content/{chapterId}", h.GetContent)
			r.Options("/content", noContent)
			r.Options("/content/{chapterId}", noContent)
		})

		r.Group(func(r chi.Router) {
			r.Use(CORS(rc.CORSOrigin))
			rc.use(r, rc.Idempotency)
			r.Options("/*", noContent)

			// Version
			r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, map[string]string{"version": Version})
			})

			// PDF import
			r.Post("/content/import", h.ImportContent)
			r.Options("/content/import", noContent)

			// Messages
			r.Get("/messages", h.ListMessages)
			r.Post("/messages", h.CreateMessage)
			r.Get("/messages/{id}", h.GetMessage)
			r.Post("/messages/{id}/read", h.MarkMessageRead)
			r.Delete("/messages/{id}", h.DeleteMessage)

			// Chatbot
			r.Post("/chat", h.Ask)
		})
	})
}
