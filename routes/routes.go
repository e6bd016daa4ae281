package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Dosada05/tournament-registration/handlers"
	"github.com/Dosada05/tournament-registration/middleware"
)

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	// Gatherer для /metrics, nil - prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

func SetupRoutes(
	router chi.Router,
	importHandler *handlers.ImportHandler,
	webSocketHandler *handlers.WebSocketHandler,
	opts Options,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(60 * time.Second))
		r.Use(middleware.Authenticate(opts.JWTSecret))

		r.Route("/contents/{contentID}/imports", func(r chi.Router) {
			r.Post("/single/preview", importHandler.PreviewSingle)
			r.Post("/single/confirm", importHandler.ConfirmSingle)
			r.Post("/double/preview", importHandler.PreviewDouble)
			r.Post("/double/confirm", importHandler.ConfirmDouble)
		})

		r.Route("/tournaments/{tournamentID}/imports/teams", func(r chi.Router) {
			r.Post("/preview", importHandler.PreviewTeams)
			r.Post("/confirm", importHandler.ConfirmTeams)
		})
	})
}
