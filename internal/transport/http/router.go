package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"

	"github.com/omslab/ordercore/internal/metrics"
)

// Config задаёт зависимости REST API.
type Config struct {
	Environment    string
	AllowedOrigins []string
	Logger         *log.Entry
	Metrics        *metrics.HTTPMetrics
}

type api struct {
	orders      OrderService
	environment string
	logger      *log.Entry
}

// NewRouter собирает chi-роутер с middleware и маршрутами заказов.
func NewRouter(svc OrderService, cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New().WithField("component", "http")
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	a := &api{orders: svc, environment: cfg.Environment, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(traceRequests)
	r.Use(accessLog(logger))
	r.Use(instrument(cfg.Metrics))
	r.Use(a.recoverPanics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id", "traceparent"},
		ExposedHeaders: []string{"Location"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		a.writeError(w, r, errRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		a.writeError(w, r, errMethodNotAllowed)
	})

	r.Get("/health", a.health)
	r.Get("/env", a.env)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", a.createOrder)
		r.Get("/", a.listOrders)
		r.Get("/{id}", a.getOrder)
	})

	return r
}
