package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Strob0t/ilmihal/internal/port/cache"
)

const (
	// HeaderIdempotencyKey lets a client retry a POST without repeating it.
	HeaderIdempotencyKey = "Idempotency-Key"
	maxIdempotencyBody   = 1 << 20
	maxIdempotencyKeyLen = 128
)

type idempotencyEntry struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
}

// Idempotency replays the stored response for a repeated Idempotency-Key
// on mutating requests. Keys are scoped by ClientIdentity so two callers
// never share an answer. Only non-5xx responses are stored.
func Idempotency(store cache.Cache, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(HeaderIdempotencyKey)
			if key == "" || len(key) > maxIdempotencyKeyLen {
				next.ServeHTTP(w, r)
				return
			}
			storeKey := idempotencyStoreKey(ClientIdentity(r), r.Method, r.URL.Path, key)

			data, ok, err := store.Get(r.Context(), storeKey)
			if err != nil {
				slog.WarnContext(r.Context(), "idempotency lookup failed", "error", err)
			}
			if ok {
				var cached idempotencyEntry
				if err := json.Unmarshal(data, &cached); err == nil {
					if cached.ContentType != "" {
						w.Header().Set("Content-Type", cached.ContentType)
					}
					w.Header().Set("Idempotent-Replayed", "true")
					w.WriteHeader(cached.StatusCode)
					_, _ = w.Write(cached.Body)
					return
				}
				slog.WarnContext(r.Context(), "idempotency: corrupt entry", "key", key)
			}

			rec := &responseRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				body:           &bytes.Buffer{},
			}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= http.StatusInternalServerError || rec.body.Len() > maxIdempotencyBody {
				return
			}
			payload, err := json.Marshal(idempotencyEntry{
				StatusCode:  rec.statusCode,
				ContentType: w.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			})
			if err != nil {
				return
			}
			if err := store.Set(r.Context(), storeKey, payload, ttl); err != nil {
				slog.WarnContext(r.Context(), "idempotency: store failed", "key", key, "error", err)
			}
		})
	}
}

// idempotencyStoreKey hashes the caller-supplied parts so the result is a
// valid NATS KV key.
func idempotencyStoreKey(identity, method, path, key string) string {
	sum := sha256.Sum256([]byte(identity + "\x00" + method + "\x00" + path + "\x00" + key))
	return "idem." + hex.EncodeToString(sum[:16])
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
