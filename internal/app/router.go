package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/gameday"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/ledger"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/observability"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/roster"
	"github.com/skpick99/Underwater-Hockey-Punchcards/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	LedgerHandler  *ledger.Handler
	RosterHandler  *roster.Handler
	GamedayHandler *gameday.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router for the operator API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if params.Config != nil && params.Config.OperatorTokenHash != "" {
			r.Use(OperatorAuth(params.Config.OperatorTokenHash, params.Logger))
		}
		if params.LedgerHandler != nil {
			params.LedgerHandler.MountRoutes(r)
		}
		if params.RosterHandler != nil {
			params.RosterHandler.MountRoutes(r)
		}
		if params.GamedayHandler != nil {
			params.GamedayHandler.MountRoutes(r)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
