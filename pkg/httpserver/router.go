package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/streamq/pkg/logger"
	"github.com/dmitrymomot/streamq/pkg/stream"
)

// StatsFunc reports the current state of every queue stream.
type StatsFunc func(ctx context.Context) ([]stream.Info, error)

// NewOpsRouter mounts the operational endpoints:
//
//	GET /livez   liveness probe
//	GET /readyz  readiness probe running every check
//	GET /stats   JSON array of stream lengths and pending counts
func NewOpsRouter(log *slog.Logger, stats StatsFunc, checks ...func(context.Context) error) http.Handler {
	if log == nil {
		log = logger.Discard()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/livez", HealthCheckHandler(log))
	r.Get("/readyz", HealthCheckHandler(log, checks...))
	r.Get("/stats", statsHandler(log, stats))
	return r
}

func statsHandler(log *slog.Logger, stats StatsFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		infos := []stream.Info{}
		if stats != nil {
			got, err := stats(r.Context())
			if err != nil {
				log.ErrorContext(r.Context(), "failed to collect stats", logger.Error(err))
				http.Error(w, "stats unavailable", http.StatusServiceUnavailable)
				return
			}
			if got != nil {
				infos = got
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(infos); err != nil {
			log.ErrorContext(r.Context(), "failed to write stats", logger.Error(err))
		}
	}
}
