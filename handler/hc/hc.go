package hc

import (
	"leverage/core"
	"leverage/handler/render"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

// Handle health check with a summary of the engine state
func Handle(ver string, engine core.IEngine) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NoCache)
	r.Handle("/", handle(ver, engine))
	return r
}

func handle(version string, engine core.IEngine) http.HandlerFunc {
	b := time.Now()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		debt := engine.TotalDebt(ctx)

		render.JSON(w, render.H{
			"uptime":     time.Since(b).Truncate(time.Millisecond).String(),
			"version":    version,
			"positions":  len(engine.Positions(ctx)),
			"assets":     len(engine.Assets(ctx)),
			"total_debt": debt.Current.Dec(),
			"debt_limit": debt.Limit.Dec(),
		})
	}
}
