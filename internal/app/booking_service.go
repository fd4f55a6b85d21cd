package app

import (
	"context"
	"errors"
	"time"

	"github.com/21f3002068/Park-Ease/internal/clock"
	"github.com/21f3002068/Park-Ease/internal/domain"
	"github.com/21f3002068/Park-Ease/internal/events"
)

type BookingRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetLot(ctx context.Context, lotID string) (domain.Lot, error)
	ListSpotsForUpdate(ctx context.Context, lotID string, statuses []domain.SpotStatus) ([]domain.Spot, error)
	CountUsableSpots(ctx context.Context, lotID string) (int, error)
	HasConflict(ctx context.Context, spotID string, w domain.Window) (bool, error)
	CreateReservation(ctx context.Context, r domain.Reservation) error
	SetSpotStatus(ctx context.Context, spotID string, status domain.SpotStatus) error
	GetReservation(ctx context.Context, id string) (domain.Reservation, error)
	ListReservationsByUser(ctx context.Context, userID string) ([]domain.Reservation, error)
}

// AccountStore is the read-only interface to the account/vehicle
// collaborator; the engine never writes through it.
type AccountStore interface {
	GetUser(ctx context.Context, id string) (domain.User, error)
	GetVehicle(ctx context.Context, id string) (domain.Vehicle, error)
	VehicleBelongsToUser(ctx context.Context, vehicleID, userID string) (bool, error)
}

// BookingService is the allocator: it decides whether a spot can be
// guaranteed for a requested window and which one, falling back to a
// pending unassigned reservation when none can.
type BookingService struct {
	repo     BookingRepository
	accounts AccountStore
	clock    clock.Clock
	events   events.Publisher
}

// maxBookAttempts bounds retries after a lost allocation race or a
// booking-code collision.
const maxBookAttempts = 3

func NewBookingService(repo BookingRepository, accounts AccountStore, clk clock.Clock, pub events.Publisher) *BookingService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &BookingService{
		repo:     repo,
		accounts: accounts,
		clock:    clk,
		events:   pub,
	}
}

type BookInput struct {
	LotID     string
	UserID    string
	VehicleID string
	From      time.Time
	To        time.Time
}

func (s *BookingService) Book(ctx context.Context, in BookInput) (domain.Reservation, error) {
	w := domain.Window{Start: in.From.UTC(), End: in.To.UTC()}
	if err := w.Validate(); err != nil {
		return domain.Reservation{}, err
	}
	if _, err := s.accounts.GetUser(ctx, in.UserID); err != nil {
		return domain.Reservation{}, err
	}
	owned, err := s.accounts.VehicleBelongsToUser(ctx, in.VehicleID, in.UserID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if !owned {
		return domain.Reservation{}, domain.ErrVehicleNotOwned
	}

	var res domain.Reservation
	for attempt := 0; attempt < maxBookAttempts; attempt++ {
		res, err = s.bookOnce(ctx, in, w)
		if errors.Is(err, domain.ErrAllocationConflict) || errors.Is(err, domain.ErrBookingCodeTaken) {
			continue
		}
		break
	}
	if errors.Is(err, domain.ErrBookingCodeTaken) {
		err = domain.ErrAllocationConflict
	}
	if err != nil {
		return domain.Reservation{}, err
	}

	s.publish(res)
	return res, nil
}

// bookOnce runs one allocation attempt in a single transaction. The spot
// rows are locked before the conflict checks, so two concurrent attempts
// against the same lot serialize and cannot both win the same spot.
func (s *BookingService) bookOnce(ctx context.Context, in BookInput, w domain.Window) (domain.Reservation, error) {
	now := s.clock.Now()
	var result domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		lot, err := s.repo.GetLot(txCtx, in.LotID)
		if err != nil {
			return err
		}
		if !lot.Active {
			return domain.ErrLotInactive
		}
		inHours, err := lot.WithinHours(w)
		if err != nil {
			return err
		}
		if !inHours {
			return domain.ErrOutsideOperatingHours
		}

		spot, wasFree, err := s.pickSpot(txCtx, lot.ID, w)
		if err != nil {
			return err
		}

		res := domain.Reservation{
			ID:                newID(),
			Code:              newBookingCode(),
			UserID:            in.UserID,
			VehicleID:         in.VehicleID,
			LotID:             lot.ID,
			ExpectedArrival:   w.Start,
			ExpectedDeparture: w.End,
			CostCents:         lot.CostFor(w.Duration()),
			Status:            domain.StatusPending,
			CreatedAt:         now,
		}

		if spot != nil {
			spotID := spot.ID
			res.SpotID = &spotID
			res.Status = domain.StatusConfirmed
		} else {
			total, err := s.repo.CountUsableSpots(txCtx, lot.ID)
			if err != nil {
				return err
			}
			if total == 0 {
				return domain.ErrNoSpotsInLot
			}
		}

		if err := s.repo.CreateReservation(txCtx, res); err != nil {
			return err
		}
		// Holding the spot excludes it from rival allocations until
		// check-in or cancellation. A spot that is still physically
		// occupied keeps its current status; the row lock plus the
		// overlap check already arbitrated this window.
		if spot != nil && wasFree {
			if err := s.repo.SetSpotStatus(txCtx, spot.ID, domain.SpotHeld); err != nil {
				return err
			}
		}

		result = res
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}

// pickSpot scans the lot's spots in ascending ordinal order: first those
// cached Available, then those Occupied/Held whose existing reservations
// leave the window free. Disabled spots are never considered. wasFree
// reports whether the chosen spot came from the Available scan.
func (s *BookingService) pickSpot(ctx context.Context, lotID string, w domain.Window) (spot *domain.Spot, wasFree bool, err error) {
	free, err := s.repo.ListSpotsForUpdate(ctx, lotID, []domain.SpotStatus{domain.SpotAvailable})
	if err != nil {
		return nil, false, err
	}
	for i := range free {
		conflict, err := s.repo.HasConflict(ctx, free[i].ID, w)
		if err != nil {
			return nil, false, err
		}
		if !conflict {
			return &free[i], true, nil
		}
	}

	busy, err := s.repo.ListSpotsForUpdate(ctx, lotID, []domain.SpotStatus{domain.SpotOccupied, domain.SpotHeld})
	if err != nil {
		return nil, false, err
	}
	for i := range busy {
		conflict, err := s.repo.HasConflict(ctx, busy[i].ID, w)
		if err != nil {
			return nil, false, err
		}
		if !conflict {
			return &busy[i], false, nil
		}
	}
	return nil, false, nil
}

func (s *BookingService) GetReservation(ctx context.Context, id string) (domain.Reservation, error) {
	return s.repo.GetReservation(ctx, id)
}

func (s *BookingService) ListUserReservations(ctx context.Context, userID string) ([]domain.Reservation, error) {
	return s.repo.ListReservationsByUser(ctx, userID)
}

func (s *BookingService) publish(r domain.Reservation) {
	_ = s.events.PublishReservation(events.ReservationEvent{
		ReservationID: r.ID,
		Code:          r.Code,
		UserID:        r.UserID,
		LotID:         r.LotID,
		SpotID:        r.SpotID,
		Status:        string(r.Status),
		Reason:        r.Reason,
		CostCents:     r.CostCents,
		OccurredAt:    s.clock.Now(),
	})
}
