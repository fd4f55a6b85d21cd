package app

import (
	"context"
	"time"

	"github.com/21f3002068/Park-Ease/internal/clock"
	"github.com/21f3002068/Park-Ease/internal/domain"
	"github.com/21f3002068/Park-Ease/internal/events"
)

type LifecycleRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetLot(ctx context.Context, lotID string) (domain.Lot, error)
	GetReservationForUpdate(ctx context.Context, id string) (domain.Reservation, error)
	UpdateReservation(ctx context.Context, r domain.Reservation) error
	DeleteReservation(ctx context.Context, id string) error
	GetSpotForUpdate(ctx context.Context, spotID string) (domain.Spot, error)
	SetSpotStatus(ctx context.Context, spotID string, status domain.SpotStatus) error
	ListPendingByLot(ctx context.Context, lotID string) ([]domain.Reservation, error)
	ListActiveBySpot(ctx context.Context, spotID string) ([]domain.Reservation, error)
	HasConflict(ctx context.Context, spotID string, w domain.Window) (bool, error)
}

// LifecycleService advances reservations through their states and runs
// the promotion sweep whenever a spot it freed becomes available.
type LifecycleService struct {
	repo   LifecycleRepository
	clock  clock.Clock
	events events.Publisher
}

// CheckInTolerance bounds how far from the expected arrival a check-in is
// honoured. Beyond it the reservation is rejected as a no-show; before it
// the caller is told to retry later.
const CheckInTolerance = 10 * time.Minute

const noShowReason = "Showed up too late."

func NewLifecycleService(repo LifecycleRepository, clk clock.Clock, pub events.Publisher) *LifecycleService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &LifecycleService{
		repo:   repo,
		clock:  clk,
		events: pub,
	}
}

type CheckInResult struct {
	Reservation domain.Reservation
	// Rejected is set when the arrival was outside the tolerance window
	// and the reservation was transitioned to Rejected instead of Parked.
	Rejected bool
}

func (s *LifecycleService) CheckIn(ctx context.Context, id string) (CheckInResult, error) {
	now := s.clock.Now()
	var result CheckInResult
	var promoted *domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		r, err := s.repo.GetReservationForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if _, err := domain.Transition(r.Status, domain.EventCheckIn); err != nil {
			return err
		}

		switch {
		case now.Before(r.ExpectedArrival.Add(-CheckInTolerance)):
			return domain.ErrCheckInTooEarly

		case now.After(r.ExpectedArrival.Add(CheckInTolerance)):
			rejected, err := r.Apply(domain.EventReject)
			if err != nil {
				return err
			}
			reason := noShowReason
			rejected.Reason = &reason
			spotID := rejected.SpotID
			rejected.SpotID = nil
			if err := s.repo.UpdateReservation(txCtx, rejected); err != nil {
				return err
			}
			if spotID != nil {
				promoted, err = s.releaseSpot(txCtx, *spotID)
				if err != nil {
					return err
				}
			}
			result = CheckInResult{Reservation: rejected, Rejected: true}
			return nil

		default:
			parked, err := r.Apply(domain.EventCheckIn)
			if err != nil {
				return err
			}
			if parked.SpotID == nil {
				return domain.ErrInvalidTransition
			}
			ts := now
			parked.CheckedInAt = &ts
			if err := s.repo.UpdateReservation(txCtx, parked); err != nil {
				return err
			}
			if err := s.repo.SetSpotStatus(txCtx, *parked.SpotID, domain.SpotOccupied); err != nil {
				return err
			}
			result = CheckInResult{Reservation: parked}
			return nil
		}
	})
	if err != nil {
		return CheckInResult{}, err
	}

	s.publish(result.Reservation, now)
	if promoted != nil {
		s.publish(*promoted, now)
	}
	return result, nil
}

func (s *LifecycleService) CheckOut(ctx context.Context, id string) (domain.Reservation, error) {
	now := s.clock.Now()
	var out domain.Reservation
	var promoted *domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		r, err := s.repo.GetReservationForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		done, err := r.Apply(domain.EventCheckOut)
		if err != nil {
			return err
		}
		if done.SpotID == nil || done.CheckedInAt == nil {
			return domain.ErrInvalidTransition
		}

		lot, err := s.repo.GetLot(txCtx, done.LotID)
		if err != nil {
			return err
		}
		ts := now
		done.CheckedOutAt = &ts
		// Final cost from the actual stay overwrites the speculative
		// booking-time estimate.
		done.CostCents = lot.CostFor(now.Sub(*done.CheckedInAt))

		if err := s.repo.UpdateReservation(txCtx, done); err != nil {
			return err
		}
		promoted, err = s.releaseSpot(txCtx, *done.SpotID)
		if err != nil {
			return err
		}

		out = done
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	s.publish(out, now)
	if promoted != nil {
		s.publish(*promoted, now)
	}
	return out, nil
}

func (s *LifecycleService) Cancel(ctx context.Context, id, reason string) (domain.Reservation, error) {
	now := s.clock.Now()
	var out domain.Reservation
	var promoted *domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		r, err := s.repo.GetReservationForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		cancelled, err := r.Apply(domain.EventCancel)
		if err != nil {
			return err
		}
		if reason != "" {
			cancelled.Reason = &reason
		}
		spotID := cancelled.SpotID
		cancelled.SpotID = nil
		if err := s.repo.UpdateReservation(txCtx, cancelled); err != nil {
			return err
		}
		if spotID != nil {
			promoted, err = s.releaseSpot(txCtx, *spotID)
			if err != nil {
				return err
			}
		}

		out = cancelled
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	s.publish(out, now)
	if promoted != nil {
		s.publish(*promoted, now)
	}
	return out, nil
}

// Delete purges a reservation record. Only terminal ParkedOut
// reservations may be removed; everything else is still part of the
// conflict history or an active booking.
func (s *LifecycleService) Delete(ctx context.Context, id string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		r, err := s.repo.GetReservationForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if r.Status != domain.StatusParkedOut {
			return domain.ErrInvalidTransition
		}
		return s.repo.DeleteReservation(txCtx, id)
	})
}

// releaseSpot recomputes a spot's derived status after a reservation stops
// referencing it. The status cache must reflect the remaining non-terminal
// reservations: a parked occupant keeps it Occupied, a future confirmed
// booking keeps it Held. Only a spot with no remaining references is marked
// Available and offered to the promotion sweep.
func (s *LifecycleService) releaseSpot(ctx context.Context, spotID string) (*domain.Reservation, error) {
	active, err := s.repo.ListActiveBySpot(ctx, spotID)
	if err != nil {
		return nil, err
	}
	held := false
	for _, r := range active {
		switch r.Status {
		case domain.StatusParked:
			return nil, s.repo.SetSpotStatus(ctx, spotID, domain.SpotOccupied)
		case domain.StatusConfirmed:
			held = true
		}
	}
	if held {
		return nil, s.repo.SetSpotStatus(ctx, spotID, domain.SpotHeld)
	}
	if err := s.repo.SetSpotStatus(ctx, spotID, domain.SpotAvailable); err != nil {
		return nil, err
	}
	return sweepSpot(ctx, s.repo, spotID)
}

func (s *LifecycleService) publish(r domain.Reservation, at time.Time) {
	_ = s.events.PublishReservation(events.ReservationEvent{
		ReservationID: r.ID,
		Code:          r.Code,
		UserID:        r.UserID,
		LotID:         r.LotID,
		SpotID:        r.SpotID,
		Status:        string(r.Status),
		Reason:        r.Reason,
		CostCents:     r.CostCents,
		OccurredAt:    at,
	})
}
