package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/eazybank-support/openapi"
)

// Deps are the handlers mounted by NewRouter. Nil Assistant or Deliveries
// leave their routes unmounted.
type Deps struct {
	Lookup     http.Handler
	OpenAPI    *openapi.Document
	Assistant  Assistant
	Deliveries http.Handler
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// The lookup answers non-POST methods itself with a JSON 405.
	r.Handle("/", deps.Lookup)
	r.Handle(openapi.UserDetailsPath, deps.Lookup)

	if deps.OpenAPI != nil {
		r.Get("/openapi.json", openAPIHandler(deps.OpenAPI))
	}
	if deps.Assistant != nil {
		r.Post("/chat", NewChatHandler(deps.Assistant).ServeHTTP)
	}
	if deps.Deliveries != nil {
		r.Post("/handoff/deliveries", deps.Deliveries.ServeHTTP)
	}

	return r
}

func openAPIHandler(doc *openapi.Document) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := doc.JSON()
		if err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("render openapi document")
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
	}
}
