package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/21f3002068/Park-Ease/internal/domain"
)

type RegistryRepository struct {
	pool *pgxpool.Pool
}

func NewRegistryRepository(pool *pgxpool.Pool) *RegistryRepository {
	return &RegistryRepository{pool: pool}
}

func (r *RegistryRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *RegistryRepository) CreateLot(ctx context.Context, lot domain.Lot) error {
	const stmt = `
INSERT INTO lots (id, name, price_cents, capacity, opens_at_minutes, closes_at_minutes, timezone, active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querierFrom(ctx, r.pool).Exec(ctx, stmt,
		lot.ID, lot.Name, lot.PriceCents, lot.Capacity,
		int(lot.OpensAt), int(lot.ClosesAt), lot.Timezone, lot.Active, lot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create lot: %w", err)
	}
	return nil
}

func (r *RegistryRepository) CreateSpots(ctx context.Context, spots []domain.Spot) error {
	const stmt = `INSERT INTO spots (id, lot_id, number, status) VALUES ($1, $2, $3, $4)`

	batch := &pgx.Batch{}
	for _, s := range spots {
		batch.Queue(stmt, s.ID, s.LotID, s.Number, string(s.Status))
	}

	var err error
	if tx := txFromContext(ctx); tx != nil {
		err = tx.SendBatch(ctx, batch).Close()
	} else {
		err = r.pool.SendBatch(ctx, batch).Close()
	}
	if err != nil {
		return fmt.Errorf("create spots: %w", err)
	}
	return nil
}

func (r *RegistryRepository) GetLot(ctx context.Context, id string) (domain.Lot, error) {
	return getLot(ctx, querierFrom(ctx, r.pool), id, false)
}

func (r *RegistryRepository) GetLotForUpdate(ctx context.Context, id string) (domain.Lot, error) {
	return getLot(ctx, querierFrom(ctx, r.pool), id, true)
}

func (r *RegistryRepository) ListLots(ctx context.Context) ([]domain.Lot, error) {
	const query = `SELECT ` + lotColumns + ` FROM lots ORDER BY created_at, id`

	rows, err := querierFrom(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	defer rows.Close()

	var lots []domain.Lot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	return lots, nil
}

func (r *RegistryRepository) SetLotActive(ctx context.Context, id string, active bool) error {
	tag, err := querierFrom(ctx, r.pool).Exec(ctx, `UPDATE lots SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("set lot active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLotNotFound
	}
	return nil
}

// DeleteLot relies on the FK cascades: spots and the lot's reservation
// history go with it. The service only allows deletion of idle lots.
func (r *RegistryRepository) DeleteLot(ctx context.Context, id string) error {
	tag, err := querierFrom(ctx, r.pool).Exec(ctx, `DELETE FROM lots WHERE id = $1`, id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLotNotFound
	}
	return nil
}

func (r *RegistryRepository) CountActiveReservations(ctx context.Context, lotID string) (int, error) {
	const query = `
SELECT COUNT(*)
FROM reservations
WHERE lot_id = $1 AND status NOT IN ` + terminalStatuses

	var n int
	if err := querierFrom(ctx, r.pool).QueryRow(ctx, query, lotID).Scan(&n); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count active reservations: %w", err)
	}
	return n, nil
}

func (r *RegistryRepository) ListSpotsByLot(ctx context.Context, lotID string, statuses []domain.SpotStatus) ([]domain.Spot, error) {
	return listSpots(ctx, querierFrom(ctx, r.pool), lotID, statuses, false)
}

func (r *RegistryRepository) ListSpotsForUpdate(ctx context.Context, lotID string, statuses []domain.SpotStatus) ([]domain.Spot, error) {
	return listSpots(ctx, querierFrom(ctx, r.pool), lotID, statuses, true)
}

func (r *RegistryRepository) GetSpotForUpdate(ctx context.Context, spotID string) (domain.Spot, error) {
	return getSpot(ctx, querierFrom(ctx, r.pool), spotID, true)
}

func (r *RegistryRepository) SetSpotStatus(ctx context.Context, spotID string, status domain.SpotStatus) error {
	return setSpotStatus(ctx, querierFrom(ctx, r.pool), spotID, status)
}

func (r *RegistryRepository) GetReservationByCode(ctx context.Context, code string) (domain.Reservation, error) {
	const query = `SELECT ` + reservationColumns + ` FROM reservations WHERE code = $1`

	res, err := scanReservation(querierFrom(ctx, r.pool).QueryRow(ctx, query, code))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation by code: %w", err)
	}
	return res, nil
}

func (r *RegistryRepository) ListPendingByLot(ctx context.Context, lotID string) ([]domain.Reservation, error) {
	return listPendingByLot(ctx, querierFrom(ctx, r.pool), lotID)
}

func (r *RegistryRepository) HasConflict(ctx context.Context, spotID string, w domain.Window) (bool, error) {
	return hasConflict(ctx, querierFrom(ctx, r.pool), spotID, w)
}

func (r *RegistryRepository) UpdateReservation(ctx context.Context, res domain.Reservation) error {
	return updateReservation(ctx, querierFrom(ctx, r.pool), res)
}
