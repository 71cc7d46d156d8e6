package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	Companies      *CompanyHandler
	People         *PersonHandler
	EmailAttempts  *EmailAttemptHandler
	Analytics      *AnalyticsHandler
	Logger         *slog.Logger
	AllowedOrigins []string
	Middleware     []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		newResponder(cfg.Logger).writeJSON(req.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if h := cfg.Companies; h != nil {
		r.Route("/companies", func(r chi.Router) {
			r.Get("/", h.List)
			r.Post("/", h.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Get)
				r.Patch("/", h.Update)
				r.Delete("/", h.Delete)
				r.Put("/decision", h.SetDecision)
				r.Get("/people", h.ListPeople)
			})
		})
	}

	if h := cfg.People; h != nil {
		r.Route("/people", func(r chi.Router) {
			r.Get("/", h.List)
			r.Post("/", h.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Get)
				r.Patch("/", h.Update)
				r.Delete("/", h.Delete)
				r.Get("/email-attempts", h.ListEmailAttempts)
			})
		})
	}

	if h := cfg.EmailAttempts; h != nil {
		r.Route("/email-attempts", func(r chi.Router) {
			r.Get("/", h.List)
			r.Post("/", h.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Get)
				r.Delete("/", h.Delete)
				r.Post("/engagement", h.RecordEngagement)
			})
		})
	}

	if h := cfg.Analytics; h != nil {
		r.Get("/analytics/summary", h.Summary)
	}

	return r
}
