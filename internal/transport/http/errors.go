package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/21f3002068/Park-Ease/internal/domain"
)

const (
	codeMethodNotAllowed      = "method_not_allowed"
	codeNotFound              = "not_found"
	codeInvalidRequestBody    = "invalid_request_body"
	codeInvalidWindow         = "invalid_window"
	codeInvalidID             = "invalid_id"
	codeLotNameRequired       = "lot_name_required"
	codeInvalidPrice          = "invalid_price"
	codeInvalidCapacity       = "invalid_capacity"
	codeInvalidHours          = "invalid_hours"
	codeInvalidTimezone       = "invalid_timezone"
	codeLotNotFound           = "lot_not_found"
	codeSpotNotFound          = "spot_not_found"
	codeReservationNotFound   = "reservation_not_found"
	codeUserNotFound          = "user_not_found"
	codeVehicleNotOwned       = "vehicle_not_owned"
	codeLotInactive           = "lot_inactive"
	codeOutsideOperatingHours = "outside_operating_hours"
	codeNoSpotsInLot          = "no_spots_in_lot"
	codeLotHasActiveBookings  = "lot_has_active_bookings"
	codeLotNotEmpty           = "lot_not_empty"
	codeSpotInUse             = "spot_in_use"
	codeSpotNotDisabled       = "spot_not_disabled"
	codeInvalidTransition     = "invalid_transition"
	codeCheckInTooEarly       = "checkin_too_early"
	codeAllocationConflict    = "allocation_conflict"
	codeUnauthorized          = "unauthorized"
	codeForbidden             = "forbidden"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var domainErrorMap = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrInvalidWindow, http.StatusBadRequest, codeInvalidWindow},
	{domain.ErrInvalidID, http.StatusBadRequest, codeInvalidID},
	{domain.ErrLotNameRequired, http.StatusBadRequest, codeLotNameRequired},
	{domain.ErrInvalidPrice, http.StatusBadRequest, codeInvalidPrice},
	{domain.ErrInvalidCapacity, http.StatusBadRequest, codeInvalidCapacity},
	{domain.ErrInvalidHours, http.StatusBadRequest, codeInvalidHours},
	{domain.ErrInvalidTimezone, http.StatusBadRequest, codeInvalidTimezone},
	{domain.ErrOutsideOperatingHours, http.StatusBadRequest, codeOutsideOperatingHours},
	{domain.ErrLotNotFound, http.StatusNotFound, codeLotNotFound},
	{domain.ErrSpotNotFound, http.StatusNotFound, codeSpotNotFound},
	{domain.ErrReservationNotFound, http.StatusNotFound, codeReservationNotFound},
	{domain.ErrUserNotFound, http.StatusNotFound, codeUserNotFound},
	{domain.ErrVehicleNotOwned, http.StatusForbidden, codeVehicleNotOwned},
	{domain.ErrLotInactive, http.StatusConflict, codeLotInactive},
	{domain.ErrNoSpotsInLot, http.StatusConflict, codeNoSpotsInLot},
	{domain.ErrLotHasActiveBookings, http.StatusConflict, codeLotHasActiveBookings},
	{domain.ErrLotNotEmpty, http.StatusConflict, codeLotNotEmpty},
	{domain.ErrSpotInUse, http.StatusConflict, codeSpotInUse},
	{domain.ErrSpotNotDisabled, http.StatusConflict, codeSpotNotDisabled},
	{domain.ErrInvalidTransition, http.StatusConflict, codeInvalidTransition},
	{domain.ErrCheckInTooEarly, http.StatusConflict, codeCheckInTooEarly},
	{domain.ErrAllocationConflict, http.StatusConflict, codeAllocationConflict},
}

// writeDomainError translates engine errors to HTTP; anything unknown is
// a 500 with the detail kept out of the response body.
func writeDomainError(w http.ResponseWriter, err error) {
	for _, m := range domainErrorMap {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, m.err.Error())
			return
		}
	}
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
