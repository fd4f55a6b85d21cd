package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/21f3002068/Park-Ease/internal/app"
	"github.com/21f3002068/Park-Ease/internal/domain"
)

// LotRegistry is the admin surface over lots, spots and booking lookups.
type LotRegistry interface {
	CreateLot(ctx context.Context, in app.CreateLotInput) (domain.Lot, error)
	GetLot(ctx context.Context, id string) (domain.Lot, error)
	ListLots(ctx context.Context) ([]domain.Lot, error)
	DeactivateLot(ctx context.Context, id string) (domain.Lot, error)
	DeleteLot(ctx context.Context, id string) error
	ListSpots(ctx context.Context, lotID string, statuses []domain.SpotStatus) ([]domain.Spot, error)
	DisableSpot(ctx context.Context, spotID string) (domain.Spot, error)
	RestoreSpot(ctx context.Context, spotID string) (domain.Spot, error)
	GetReservationByCode(ctx context.Context, code string) (domain.Reservation, error)
}

// RequireAdmin guards the admin routes with a static bearer token. An
// empty configured token disables the admin surface entirely.
func RequireAdmin(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "admin access disabled")
				return
			}
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid admin token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type createLotRequest struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Capacity   int    `json:"capacity"`
	OpensAt    string `json:"opens_at"`
	ClosesAt   string `json:"closes_at"`
	Timezone   string `json:"timezone"`
	Active     *bool  `json:"active"`
}

type lotResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	Capacity   int       `json:"capacity"`
	OpensAt    string    `json:"opens_at"`
	ClosesAt   string    `json:"closes_at"`
	Timezone   string    `json:"timezone"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

func toLotResponse(l domain.Lot) lotResponse {
	return lotResponse{
		ID:         l.ID,
		Name:       l.Name,
		PriceCents: l.PriceCents,
		Capacity:   l.Capacity,
		OpensAt:    l.OpensAt.String(),
		ClosesAt:   l.ClosesAt.String(),
		Timezone:   l.Timezone,
		Active:     l.Active,
		CreatedAt:  l.CreatedAt,
	}
}

type spotResponse struct {
	ID     string `json:"id"`
	LotID  string `json:"lot_id"`
	Number int    `json:"number"`
	Status string `json:"status"`
}

func toSpotResponse(s domain.Spot) spotResponse {
	return spotResponse{
		ID:     s.ID,
		LotID:  s.LotID,
		Number: s.Number,
		Status: string(s.Status),
	}
}

func HandleCreateLot(svc LotRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createLotRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		active := true
		if req.Active != nil {
			active = *req.Active
		}
		lot, err := svc.CreateLot(r.Context(), app.CreateLotInput{
			Name:       req.Name,
			PriceCents: req.PriceCents,
			Capacity:   req.Capacity,
			OpensAt:    req.OpensAt,
			ClosesAt:   req.ClosesAt,
			Timezone:   req.Timezone,
			Active:     active,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toLotResponse(lot))
	}
}

func HandleListLots(svc LotRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lots, err := svc.ListLots(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		out := make([]lotResponse, 0, len(lots))
		for _, lot := range lots {
			out = append(out, toLotResponse(lot))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type lotDetailResponse struct {
	lotResponse
	SpotCounts map[string]int `json:"spot_counts"`
}

func HandleGetLot(svc LotRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lot, err := svc.GetLot(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		spots, err := svc.ListSpots(r.Context(), lot.ID, nil)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		counts := make(map[string]int, 4)
		for _, spot := range spots {
			counts[string(spot.Status)]++
		}
		writeJSON(w, http.StatusOK, lotDetailResponse{
			lotResponse: toLotResponse(lot),
			SpotCounts:  counts,
		})
	}
}

func HandleDeactivateLot(svc LotRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lot, err := svc.DeactivateLot(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toLotResponse(lot))
	}
}

func HandleDeleteLot(svc LotRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteLot(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleListSpots supports an optional ?status= filter, comma-separated.
func HandleListSpots(svc LotRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var statuses []domain.SpotStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			for _, s := range strings.Split(raw, ",") {
				s = strings.TrimSpace(s)
				if s != "" {
					statuses = append(statuses, domain.SpotStatus(s))
				}
			}
		}

		spots, err := svc.ListSpots(r.Context(), chi.URLParam(r, "id"), statuses)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		out := make([]spotResponse, 0, len(spots))
		for _, s := range spots {
			out = append(out, toSpotResponse(s))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func HandleDisableSpot(svc LotRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spot, err := svc.DisableSpot(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSpotResponse(spot))
	}
}

func HandleRestoreSpot(svc LotRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spot, err := svc.RestoreSpot(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSpotResponse(spot))
	}
}

func HandleGetBookingByCode(svc LotRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.GetReservationByCode(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReservationResponse(res))
	}
}
