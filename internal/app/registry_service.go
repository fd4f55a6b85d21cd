package app

import (
	"context"

	"github.com/21f3002068/Park-Ease/internal/clock"
	"github.com/21f3002068/Park-Ease/internal/domain"
	"github.com/21f3002068/Park-Ease/internal/events"
)

type RegistryRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateLot(ctx context.Context, lot domain.Lot) error
	CreateSpots(ctx context.Context, spots []domain.Spot) error
	GetLot(ctx context.Context, id string) (domain.Lot, error)
	GetLotForUpdate(ctx context.Context, id string) (domain.Lot, error)
	ListLots(ctx context.Context) ([]domain.Lot, error)
	SetLotActive(ctx context.Context, id string, active bool) error
	DeleteLot(ctx context.Context, id string) error
	CountActiveReservations(ctx context.Context, lotID string) (int, error)
	ListSpotsByLot(ctx context.Context, lotID string, statuses []domain.SpotStatus) ([]domain.Spot, error)
	ListSpotsForUpdate(ctx context.Context, lotID string, statuses []domain.SpotStatus) ([]domain.Spot, error)
	GetSpotForUpdate(ctx context.Context, spotID string) (domain.Spot, error)
	SetSpotStatus(ctx context.Context, spotID string, status domain.SpotStatus) error
	GetReservationByCode(ctx context.Context, code string) (domain.Reservation, error)
	ListPendingByLot(ctx context.Context, lotID string) ([]domain.Reservation, error)
	HasConflict(ctx context.Context, spotID string, w domain.Window) (bool, error)
	UpdateReservation(ctx context.Context, r domain.Reservation) error
}

// RegistryService administers lots and their spots. Spot status writes
// still go through the engine's transactions; disabling a spot only
// succeeds while nothing references it.
type RegistryService struct {
	repo   RegistryRepository
	clock  clock.Clock
	events events.Publisher
}

func NewRegistryService(repo RegistryRepository, clk clock.Clock, pub events.Publisher) *RegistryService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &RegistryService{
		repo:   repo,
		clock:  clk,
		events: pub,
	}
}

type CreateLotInput struct {
	Name       string
	PriceCents int64
	Capacity   int
	OpensAt    string
	ClosesAt   string
	Timezone   string
	Active     bool
}

func (s *RegistryService) CreateLot(ctx context.Context, in CreateLotInput) (domain.Lot, error) {
	if in.Name == "" {
		return domain.Lot{}, domain.ErrLotNameRequired
	}
	if in.PriceCents <= 0 {
		return domain.Lot{}, domain.ErrInvalidPrice
	}
	if in.Capacity < 1 {
		return domain.Lot{}, domain.ErrInvalidCapacity
	}
	opens, err := domain.ParseTimeOfDay(in.OpensAt)
	if err != nil {
		return domain.Lot{}, err
	}
	closes, err := domain.ParseTimeOfDay(in.ClosesAt)
	if err != nil {
		return domain.Lot{}, err
	}
	if opens >= closes {
		return domain.Lot{}, domain.ErrInvalidHours
	}

	lot := domain.Lot{
		ID:         newID(),
		Name:       in.Name,
		PriceCents: in.PriceCents,
		Capacity:   in.Capacity,
		OpensAt:    opens,
		ClosesAt:   closes,
		Timezone:   in.Timezone,
		Active:     in.Active,
		CreatedAt:  s.clock.Now(),
	}
	if _, err := lot.Location(); err != nil {
		return domain.Lot{}, err
	}

	spots := make([]domain.Spot, 0, in.Capacity)
	for i := 1; i <= in.Capacity; i++ {
		spots = append(spots, domain.Spot{
			ID:     newID(),
			LotID:  lot.ID,
			Number: i,
			Status: domain.SpotAvailable,
		})
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateLot(txCtx, lot); err != nil {
			return err
		}
		return s.repo.CreateSpots(txCtx, spots)
	})
	if err != nil {
		return domain.Lot{}, err
	}
	return lot, nil
}

func (s *RegistryService) GetLot(ctx context.Context, id string) (domain.Lot, error) {
	return s.repo.GetLot(ctx, id)
}

func (s *RegistryService) ListLots(ctx context.Context) ([]domain.Lot, error) {
	return s.repo.ListLots(ctx)
}

// DeactivateLot stops new bookings for the lot. Refused while any
// reservation is still pending, confirmed or parked, mirroring the
// guard on shrinking a lot out from under its customers.
func (s *RegistryService) DeactivateLot(ctx context.Context, id string) (domain.Lot, error) {
	var lot domain.Lot
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		lot, err = s.repo.GetLotForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if !lot.Active {
			return nil
		}
		active, err := s.repo.CountActiveReservations(txCtx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return domain.ErrLotHasActiveBookings
		}
		if err := s.repo.SetLotActive(txCtx, id, false); err != nil {
			return err
		}
		lot.Active = false
		return nil
	})
	if err != nil {
		return domain.Lot{}, err
	}
	return lot, nil
}

// DeleteLot removes the lot and cascades to its spots. Refused unless
// every spot is plain Available and no active reservation references the
// lot.
func (s *RegistryService) DeleteLot(ctx context.Context, id string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetLotForUpdate(txCtx, id); err != nil {
			return err
		}
		spots, err := s.repo.ListSpotsForUpdate(txCtx, id, nil)
		if err != nil {
			return err
		}
		for _, spot := range spots {
			if spot.Status != domain.SpotAvailable {
				return domain.ErrLotNotEmpty
			}
		}
		active, err := s.repo.CountActiveReservations(txCtx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return domain.ErrLotHasActiveBookings
		}
		return s.repo.DeleteLot(txCtx, id)
	})
}

// ListSpots returns the lot's spots in ordinal order, optionally
// filtered by status.
func (s *RegistryService) ListSpots(ctx context.Context, lotID string, statuses []domain.SpotStatus) ([]domain.Spot, error) {
	if _, err := s.repo.GetLot(ctx, lotID); err != nil {
		return nil, err
	}
	return s.repo.ListSpotsByLot(ctx, lotID, statuses)
}

// DisableSpot soft-deletes a spot so the allocator skips it. A spot that
// is occupied or held cannot be disabled.
func (s *RegistryService) DisableSpot(ctx context.Context, spotID string) (domain.Spot, error) {
	var spot domain.Spot
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		spot, err = s.repo.GetSpotForUpdate(txCtx, spotID)
		if err != nil {
			return err
		}
		switch spot.Status {
		case domain.SpotDisabled:
			return nil
		case domain.SpotAvailable:
			if err := s.repo.SetSpotStatus(txCtx, spotID, domain.SpotDisabled); err != nil {
				return err
			}
			spot.Status = domain.SpotDisabled
			return nil
		default:
			return domain.ErrSpotInUse
		}
	})
	if err != nil {
		return domain.Spot{}, err
	}
	return spot, nil
}

// RestoreSpot brings a disabled spot back into service and immediately
// sweeps it, since a newly available spot may satisfy a pending request.
func (s *RegistryService) RestoreSpot(ctx context.Context, spotID string) (domain.Spot, error) {
	var spot domain.Spot
	var promoted *domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		spot, err = s.repo.GetSpotForUpdate(txCtx, spotID)
		if err != nil {
			return err
		}
		if spot.Status != domain.SpotDisabled {
			return domain.ErrSpotNotDisabled
		}
		if err := s.repo.SetSpotStatus(txCtx, spotID, domain.SpotAvailable); err != nil {
			return err
		}
		spot.Status = domain.SpotAvailable
		promoted, err = sweepSpot(txCtx, s.repo, spotID)
		if err != nil {
			return err
		}
		if promoted != nil {
			spot.Status = domain.SpotHeld
		}
		return nil
	})
	if err != nil {
		return domain.Spot{}, err
	}

	if promoted != nil {
		_ = s.events.PublishReservation(events.ReservationEvent{
			ReservationID: promoted.ID,
			Code:          promoted.Code,
			UserID:        promoted.UserID,
			LotID:         promoted.LotID,
			SpotID:        promoted.SpotID,
			Status:        string(promoted.Status),
			CostCents:     promoted.CostCents,
			OccurredAt:    s.clock.Now(),
		})
	}
	return spot, nil
}

// GetReservationByCode resolves a booking reference for the admin
// booking-details view.
func (s *RegistryService) GetReservationByCode(ctx context.Context, code string) (domain.Reservation, error) {
	return s.repo.GetReservationByCode(ctx, code)
}
