package domain

import "time"

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusParked    ReservationStatus = "parked"
	StatusParkedOut ReservationStatus = "parked_out"
	StatusCancelled ReservationStatus = "cancelled"
	StatusRejected  ReservationStatus = "rejected"
)

// Terminal reports whether the status is final. Terminal reservations
// never count toward spot conflicts.
func (s ReservationStatus) Terminal() bool {
	switch s {
	case StatusParkedOut, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

type ReservationEvent string

const (
	EventAssign   ReservationEvent = "assign"
	EventCheckIn  ReservationEvent = "check_in"
	EventCheckOut ReservationEvent = "check_out"
	EventCancel   ReservationEvent = "cancel"
	EventReject   ReservationEvent = "reject"
)

// transitions is the closed state table: from-state x event -> to-state.
// Anything absent is an invalid transition.
var transitions = map[ReservationStatus]map[ReservationEvent]ReservationStatus{
	StatusPending: {
		EventAssign: StatusConfirmed,
		EventCancel: StatusCancelled,
	},
	StatusConfirmed: {
		EventCheckIn: StatusParked,
		EventCancel:  StatusCancelled,
		EventReject:  StatusRejected,
	},
	StatusParked: {
		EventCheckOut: StatusParkedOut,
	},
}

// Transition resolves an event against the state table.
func Transition(from ReservationStatus, ev ReservationEvent) (ReservationStatus, error) {
	to, ok := transitions[from][ev]
	if !ok {
		return from, ErrInvalidTransition
	}
	return to, nil
}

// Reservation is a request to occupy a spot for a time window. SpotID is
// nil while the reservation is pending/unassigned. Expected timestamps
// are set at booking; the actual check-in/check-out pair drives the final
// cost. All timestamps are UTC.
type Reservation struct {
	ID                string
	Code              string
	UserID            string
	VehicleID         string
	LotID             string
	SpotID            *string
	ExpectedArrival   time.Time
	ExpectedDeparture time.Time
	CheckedInAt       *time.Time
	CheckedOutAt      *time.Time
	CostCents         int64
	Status            ReservationStatus
	Reason            *string
	CreatedAt         time.Time
}

func (r Reservation) Window() Window {
	return Window{Start: r.ExpectedArrival, End: r.ExpectedDeparture}
}

// Apply advances the reservation through the state table, returning the
// unchanged reservation and ErrInvalidTransition when the event is not
// permitted from the current state.
func (r Reservation) Apply(ev ReservationEvent) (Reservation, error) {
	next, err := Transition(r.Status, ev)
	if err != nil {
		return r, err
	}
	r.Status = next
	return r, nil
}
