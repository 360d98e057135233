package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Strob0t/ilmihal/internal/resilience"
)

// Pinger reports whether a backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Connectivity reports whether a client is connected.
type Connectivity interface {
	IsConnected() bool
}

// HealthDeps are the components /health reports on. Nil fields are skipped.
type HealthDeps struct {
	Postgres    Pinger
	NATS        Connectivity
	ChatBreaker *resilience.Breaker
}

type healthStatus struct {
	Status      string `json:"status"`
	Postgres    string `json:"postgres,omitempty"`
	NATS        string `json:"nats,omitempty"`
	ChatBreaker string `json:"chat_breaker,omitempty"`
}

// HealthHandler returns 200 when postgres answers and 503 otherwise. A
// disconnected NATS or open breaker only degrades the status.
func HealthHandler(deps HealthDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		st := healthStatus{Status: "ok"}
		code := http.StatusOK

		if deps.Postgres != nil {
			st.Postgres = "up"
			if err := deps.Postgres.Ping(ctx); err != nil {
				st.Postgres = "down"
				st.Status = "unavailable"
				code = http.StatusServiceUnavailable
			}
		}
		if deps.NATS != nil {
			st.NATS = "up"
			if !deps.NATS.IsConnected() {
				st.NATS = "down"
				if code == http.StatusOK {
					st.Status = "degraded"
				}
			}
		}
		if deps.ChatBreaker != nil {
			state := deps.ChatBreaker.State()
			st.ChatBreaker = string(state)
			if state == resilience.StateOpen && code == http.StatusOK {
				st.Status = "degraded"
			}
		}

		writeJSON(w, code, st)
	}
}
