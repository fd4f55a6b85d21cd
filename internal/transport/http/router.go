package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	Booker      ReservationBooker
	Lifecycle   ReservationLifecycle
	Registry    LotRegistry
	AdminToken  string
	CORSOrigins []string
	Logger      *log.Logger
}

// NewRouter assembles the public and admin surfaces.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(cfg.Logger))
	r.Use(CORS(cfg.CORSOrigins))

	r.Get("/health", HealthHandler)

	r.Route("/reservations", func(r chi.Router) {
		r.Post("/", HandleCreateReservation(cfg.Booker))
		r.Get("/{id}", HandleGetReservation(cfg.Booker))
		r.Post("/{id}/checkin", HandleCheckIn(cfg.Lifecycle))
		r.Post("/{id}/checkout", HandleCheckOut(cfg.Lifecycle))
		r.Post("/{id}/cancel", HandleCancelReservation(cfg.Lifecycle))
		r.Delete("/{id}", HandleDeleteReservation(cfg.Lifecycle))
	})

	r.Get("/users/{id}/reservations", HandleListUserReservations(cfg.Booker))

	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireAdmin(cfg.AdminToken))
		r.Post("/lots", HandleCreateLot(cfg.Registry))
		r.Get("/lots", HandleListLots(cfg.Registry))
		r.Get("/lots/{id}", HandleGetLot(cfg.Registry))
		r.Post("/lots/{id}/deactivate", HandleDeactivateLot(cfg.Registry))
		r.Delete("/lots/{id}", HandleDeleteLot(cfg.Registry))
		r.Get("/lots/{id}/spots", HandleListSpots(cfg.Registry))
		r.Post("/spots/{id}/disable", HandleDisableSpot(cfg.Registry))
		r.Post("/spots/{id}/restore", HandleRestoreSpot(cfg.Registry))
		r.Get("/bookings/{code}", HandleGetBookingByCode(cfg.Registry))
	})

	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	return r
}
