package app

import (
	"context"

	"github.com/21f3002068/Park-Ease/internal/domain"
)

// promotionStore is the slice of repository behaviour the sweep needs. Both
// the lifecycle and registry repositories satisfy it, since either side can
// free a spot (check-out, cancel, no-show rejection, spot restore).
type promotionStore interface {
	GetSpotForUpdate(ctx context.Context, spotID string) (domain.Spot, error)
	ListPendingByLot(ctx context.Context, lotID string) ([]domain.Reservation, error)
	HasConflict(ctx context.Context, spotID string, w domain.Window) (bool, error)
	UpdateReservation(ctx context.Context, r domain.Reservation) error
	SetSpotStatus(ctx context.Context, spotID string, status domain.SpotStatus) error
}

// sweepSpot promotes at most one pending reservation onto a freed spot.
// It must run inside the same transaction as the change that freed the
// spot: the row lock taken here is what stops two concurrent sweeps from
// double-assigning the spot. Invoking it on a spot that is not Available
// is a no-op, which makes repeated sweeps harmless.
func sweepSpot(ctx context.Context, store promotionStore, spotID string) (*domain.Reservation, error) {
	spot, err := store.GetSpotForUpdate(ctx, spotID)
	if err != nil {
		return nil, err
	}
	if spot.Status != domain.SpotAvailable {
		return nil, nil
	}

	pending, err := store.ListPendingByLot(ctx, spot.LotID)
	if err != nil {
		return nil, err
	}
	for _, r := range pending {
		conflict, err := store.HasConflict(ctx, spot.ID, r.Window())
		if err != nil {
			return nil, err
		}
		if conflict {
			continue
		}

		promoted, err := r.Apply(domain.EventAssign)
		if err != nil {
			return nil, err
		}
		spotID := spot.ID
		promoted.SpotID = &spotID
		if err := store.UpdateReservation(ctx, promoted); err != nil {
			return nil, err
		}
		if err := store.SetSpotStatus(ctx, spot.ID, domain.SpotHeld); err != nil {
			return nil, err
		}
		return &promoted, nil
	}
	return nil, nil
}
