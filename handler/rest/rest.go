package rest

import (
	"leverage/core"
	"leverage/handler/render"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/twitchtv/twirp"
)

// Handle handle rest api request
func Handle(cfg *core.Config, engine core.IEngine, operations core.IOperationStore) http.Handler {
	router := chi.NewRouter()

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Error(w, twirp.NotFoundError("not found"))
	})

	router.Get("/debt", debtHandler(cfg, engine))
	router.Post("/approvals", approveHandler(cfg, engine))

	router.Route("/assets", func(r chi.Router) {
		r.Get("/", assetsHandler(cfg, engine))
		r.Post("/", registerAssetHandler(engine))
		r.Put("/{asset}", setThresholdHandler(cfg, engine))
	})

	router.Route("/positions", func(r chi.Router) {
		r.Get("/", positionsHandler(cfg, engine))
		r.Post("/", openHandler(cfg, engine))
		r.Get("/{owner}", positionHandler(cfg, engine))
		r.Get("/{owner}/health", healthHandler(cfg, engine))
		r.Get("/{owner}/operations", operationsHandler(operations))
		r.Post("/{owner}/multicall", multicallHandler(cfg, engine))
		r.Post("/{owner}/close", closeHandler(cfg, engine))
		r.Post("/{owner}/liquidate", liquidateHandler(cfg, engine))
		r.Post("/{owner}/collateral", addCollateralHandler(cfg, engine))
		r.Post("/{owner}/debt", increaseDebtHandler(cfg, engine))
		r.Post("/{owner}/transfer", transferHandler(cfg, engine))
	})

	return router
}
