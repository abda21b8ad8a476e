package handler

import (
	"leverage/core"
	"leverage/handler/auth"
	"leverage/handler/render"
	"leverage/handler/rest"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/twitchtv/twirp"
)

// Server server
type Server struct {
	cfg        *core.Config
	engine     core.IEngine
	operations core.IOperationStore
}

// New new server function
func New(
	cfg *core.Config,
	engine core.IEngine,
	operations core.IOperationStore,
) Server {
	return Server{
		cfg:        cfg,
		engine:     engine,
		operations: operations,
	}
}

// HandleRestAPI handle restful apis
func (s Server) HandleRestAPI() http.Handler {
	r := chi.NewRouter()
	r.Use(resetRoutePath)
	r.Use(auth.HandleAuthentication())
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Error(w, twirp.NotFoundError("not found"))
	})

	r.Mount("/", rest.Handle(s.cfg, s.engine, s.operations))
	return r
}

func resetRoutePath(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if c := chi.RouteContext(ctx); c != nil {
			c.RoutePath = r.URL.Path
		}

		next.ServeHTTP(w, r)
	}

	return http.HandlerFunc(fn)
}
