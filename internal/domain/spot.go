package domain

type SpotStatus string

const (
	SpotAvailable SpotStatus = "available"
	SpotOccupied  SpotStatus = "occupied"
	SpotHeld      SpotStatus = "held"
	SpotDisabled  SpotStatus = "disabled"
)

// Spot is one physical parking space within a lot. Number is the stable
// ordinal used as allocation scan order, unique within the lot. Status is
// a cache derived from the spot's non-terminal reservations; only the
// engine writes it, inside the same transaction as the reservation change
// that caused it.
type Spot struct {
	ID     string
	LotID  string
	Number int
	Status SpotStatus
}
