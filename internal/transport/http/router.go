package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouterConfig bundles the services the router exposes.
type RouterConfig struct {
	Availability AvailabilityReader
	Reservations ReservationCreator
	Flights      FlightTransitioner
	Estimates    Estimator
	RouteAdmin   RouteAdmin
	PricingAdmin PricingAdmin
	CORSOrigins  []string
	Logger       *log.Logger
}

// NewRouter wires all handlers onto a chi router with logging and CORS
// applied to every route.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger(cfg.Logger))
	r.Use(CORS(cfg.CORSOrigins))

	r.Get("/health", HealthHandler)

	r.Post("/availability", HandleAvailability(cfg.Availability))
	r.Post("/reservations", HandleCreateReservation(cfg.Reservations))
	r.Post("/flights/{flightID}/status", HandleFlightStatus(cfg.Flights))
	r.Post("/estimates", HandleEstimate(cfg.Estimates))

	r.Route("/admin", func(r chi.Router) {
		r.Put("/routes", HandleUpsertRoute(cfg.RouteAdmin))
		r.Get("/routes", HandleListRoutes(cfg.RouteAdmin))
		r.Post("/pricing-models", HandleCreatePricingModel(cfg.PricingAdmin))
		r.Post("/pricing-models/{modelID}/activate", HandleActivatePricingModel(cfg.PricingAdmin))
		r.Get("/pricing-models", HandleListPricingModels(cfg.PricingAdmin))
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return r
}
