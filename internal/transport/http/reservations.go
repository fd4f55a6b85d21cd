package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/21f3002068/Park-Ease/internal/app"
	"github.com/21f3002068/Park-Ease/internal/domain"
)

// ReservationBooker is the minimal interface needed to create and read
// reservations.
type ReservationBooker interface {
	Book(ctx context.Context, in app.BookInput) (domain.Reservation, error)
	GetReservation(ctx context.Context, id string) (domain.Reservation, error)
	ListUserReservations(ctx context.Context, userID string) ([]domain.Reservation, error)
}

// ReservationLifecycle advances a reservation through its states.
type ReservationLifecycle interface {
	CheckIn(ctx context.Context, id string) (app.CheckInResult, error)
	CheckOut(ctx context.Context, id string) (domain.Reservation, error)
	Cancel(ctx context.Context, id, reason string) (domain.Reservation, error)
	Delete(ctx context.Context, id string) error
}

type createReservationRequest struct {
	LotID     string    `json:"lot_id"`
	UserID    string    `json:"user_id"`
	VehicleID string    `json:"vehicle_id"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
}

type reservationResponse struct {
	ID                string     `json:"id"`
	Code              string     `json:"code"`
	UserID            string     `json:"user_id"`
	VehicleID         string     `json:"vehicle_id"`
	LotID             string     `json:"lot_id"`
	SpotID            *string    `json:"spot_id,omitempty"`
	ExpectedArrival   time.Time  `json:"expected_arrival"`
	ExpectedDeparture time.Time  `json:"expected_departure"`
	CheckedInAt       *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt      *time.Time `json:"checked_out_at,omitempty"`
	CostCents         int64      `json:"cost_cents"`
	Status            string     `json:"status"`
	Reason            *string    `json:"reason,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func toReservationResponse(r domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:                r.ID,
		Code:              r.Code,
		UserID:            r.UserID,
		VehicleID:         r.VehicleID,
		LotID:             r.LotID,
		SpotID:            r.SpotID,
		ExpectedArrival:   r.ExpectedArrival,
		ExpectedDeparture: r.ExpectedDeparture,
		CheckedInAt:       r.CheckedInAt,
		CheckedOutAt:      r.CheckedOutAt,
		CostCents:         r.CostCents,
		Status:            string(r.Status),
		Reason:            r.Reason,
		CreatedAt:         r.CreatedAt,
	}
}

// HandleCreateReservation books a spot for a time window. A 201 response
// carries either a confirmed reservation with its assigned spot or a
// pending one queued for promotion.
func HandleCreateReservation(svc ReservationBooker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createReservationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.LotID == "" || req.UserID == "" || req.VehicleID == "" {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "lot_id, user_id and vehicle_id are required")
			return
		}

		res, err := svc.Book(r.Context(), app.BookInput{
			LotID:     req.LotID,
			UserID:    req.UserID,
			VehicleID: req.VehicleID,
			From:      req.From,
			To:        req.To,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toReservationResponse(res))
	}
}

func HandleGetReservation(svc ReservationBooker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.GetReservation(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReservationResponse(res))
	}
}

func HandleListUserReservations(svc ReservationBooker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListUserReservations(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		out := make([]reservationResponse, 0, len(list))
		for _, res := range list {
			out = append(out, toReservationResponse(res))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type checkInResponse struct {
	Reservation reservationResponse `json:"reservation"`
	Rejected    bool                `json:"rejected"`
}

// HandleCheckIn records the driver's arrival. A no-show past the
// tolerance still answers 200: the reservation was processed, its
// outcome is in the body.
func HandleCheckIn(svc ReservationLifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.CheckIn(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, checkInResponse{
			Reservation: toReservationResponse(result.Reservation),
			Rejected:    result.Rejected,
		})
	}
}

func HandleCheckOut(svc ReservationLifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.CheckOut(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReservationResponse(res))
	}
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func HandleCancelReservation(svc ReservationLifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cancelRequest
		if r.Body != nil && r.ContentLength != 0 {
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
		}

		res, err := svc.Cancel(r.Context(), chi.URLParam(r, "id"), req.Reason)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReservationResponse(res))
	}
}

func HandleDeleteReservation(svc ReservationLifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
