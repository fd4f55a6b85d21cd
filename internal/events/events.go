// Package events defines the reservation lifecycle messages published for
// downstream consumers (notifications, dashboards) and the publishers that
// deliver them. Publishing is best effort: failures are logged and returned
// but must never abort the state change that produced the event.
package events

import "time"

const ReservationQueueName = "reservation.events"

// ReservationEvent is published after every committed reservation state
// change. It carries enough for a consumer to notify or log without
// querying the primary database.
type ReservationEvent struct {
	ReservationID string    `json:"reservation_id"`
	Code          string    `json:"code"`
	UserID        string    `json:"user_id"`
	LotID         string    `json:"lot_id"`
	SpotID        *string   `json:"spot_id,omitempty"`
	Status        string    `json:"status"`
	Reason        *string   `json:"reason,omitempty"`
	CostCents     int64     `json:"cost_cents"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher delivers reservation events to interested consumers.
type Publisher interface {
	PublishReservation(ev ReservationEvent) error
}

// Nop discards all events; used when no broker is configured.
type Nop struct{}

func (Nop) PublishReservation(ReservationEvent) error { return nil }
