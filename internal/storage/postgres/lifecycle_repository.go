package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/21f3002068/Park-Ease/internal/domain"
)

type LifecycleRepository struct {
	pool *pgxpool.Pool
}

func NewLifecycleRepository(pool *pgxpool.Pool) *LifecycleRepository {
	return &LifecycleRepository{pool: pool}
}

func (r *LifecycleRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *LifecycleRepository) GetLot(ctx context.Context, lotID string) (domain.Lot, error) {
	return getLot(ctx, querierFrom(ctx, r.pool), lotID, false)
}

func (r *LifecycleRepository) GetReservationForUpdate(ctx context.Context, id string) (domain.Reservation, error) {
	return getReservation(ctx, querierFrom(ctx, r.pool), id, true)
}

func (r *LifecycleRepository) UpdateReservation(ctx context.Context, res domain.Reservation) error {
	return updateReservation(ctx, querierFrom(ctx, r.pool), res)
}

func (r *LifecycleRepository) DeleteReservation(ctx context.Context, id string) error {
	tag, err := querierFrom(ctx, r.pool).Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (r *LifecycleRepository) GetSpotForUpdate(ctx context.Context, spotID string) (domain.Spot, error) {
	return getSpot(ctx, querierFrom(ctx, r.pool), spotID, true)
}

func (r *LifecycleRepository) SetSpotStatus(ctx context.Context, spotID string, status domain.SpotStatus) error {
	return setSpotStatus(ctx, querierFrom(ctx, r.pool), spotID, status)
}

func (r *LifecycleRepository) ListPendingByLot(ctx context.Context, lotID string) ([]domain.Reservation, error) {
	return listPendingByLot(ctx, querierFrom(ctx, r.pool), lotID)
}

func (r *LifecycleRepository) ListActiveBySpot(ctx context.Context, spotID string) ([]domain.Reservation, error) {
	return listActiveBySpot(ctx, querierFrom(ctx, r.pool), spotID)
}

func (r *LifecycleRepository) HasConflict(ctx context.Context, spotID string, w domain.Window) (bool, error) {
	return hasConflict(ctx, querierFrom(ctx, r.pool), spotID, w)
}
