package domain

import "errors"

var (
	ErrLotNotFound           = errors.New("lot not found")
	ErrLotInactive           = errors.New("lot is not active")
	ErrLotHasActiveBookings  = errors.New("lot has active bookings")
	ErrLotNotEmpty           = errors.New("lot has spots in use")
	ErrSpotNotFound          = errors.New("spot not found")
	ErrSpotInUse             = errors.New("spot is occupied or held")
	ErrSpotNotDisabled       = errors.New("spot is not disabled")
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrVehicleNotOwned       = errors.New("vehicle does not belong to user")
	ErrInvalidWindow         = errors.New("invalid time window")
	ErrOutsideOperatingHours = errors.New("window is outside lot operating hours")
	ErrNoSpotsInLot          = errors.New("lot has no usable spots")
	ErrInvalidTransition     = errors.New("invalid reservation transition")
	ErrCheckInTooEarly       = errors.New("check-in attempted too early")
	ErrAllocationConflict    = errors.New("allocation lost a concurrent race")
	ErrBookingCodeTaken      = errors.New("booking code already taken")
	ErrInvalidID             = errors.New("invalid id")

	ErrLotNameRequired = errors.New("lot name required")
	ErrInvalidPrice    = errors.New("invalid hourly price")
	ErrInvalidCapacity = errors.New("invalid capacity")
	ErrInvalidHours    = errors.New("invalid operating hours")
	ErrInvalidTimezone = errors.New("invalid timezone")
)
