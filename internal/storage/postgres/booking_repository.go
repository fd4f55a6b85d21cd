package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/21f3002068/Park-Ease/internal/domain"
)

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *BookingRepository) GetLot(ctx context.Context, lotID string) (domain.Lot, error) {
	return getLot(ctx, querierFrom(ctx, r.pool), lotID, false)
}

func (r *BookingRepository) ListSpotsForUpdate(ctx context.Context, lotID string, statuses []domain.SpotStatus) ([]domain.Spot, error) {
	return listSpots(ctx, querierFrom(ctx, r.pool), lotID, statuses, true)
}

func (r *BookingRepository) CountUsableSpots(ctx context.Context, lotID string) (int, error) {
	const query = `SELECT COUNT(*) FROM spots WHERE lot_id = $1 AND status <> 'disabled'`
	var n int
	if err := querierFrom(ctx, r.pool).QueryRow(ctx, query, lotID).Scan(&n); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count usable spots: %w", err)
	}
	return n, nil
}

func (r *BookingRepository) HasConflict(ctx context.Context, spotID string, w domain.Window) (bool, error) {
	return hasConflict(ctx, querierFrom(ctx, r.pool), spotID, w)
}

func (r *BookingRepository) CreateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, code, user_id, vehicle_id, lot_id, spot_id,
	expected_arrival, expected_departure, checked_in_at, checked_out_at,
	cost_cents, status, reason, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := querierFrom(ctx, r.pool).Exec(ctx, stmt,
		res.ID, res.Code, res.UserID, res.VehicleID, res.LotID, res.SpotID,
		res.ExpectedArrival, res.ExpectedDeparture, res.CheckedInAt, res.CheckedOutAt,
		res.CostCents, string(res.Status), res.Reason, res.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrBookingCodeTaken
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (r *BookingRepository) SetSpotStatus(ctx context.Context, spotID string, status domain.SpotStatus) error {
	return setSpotStatus(ctx, querierFrom(ctx, r.pool), spotID, status)
}

func (r *BookingRepository) GetReservation(ctx context.Context, id string) (domain.Reservation, error) {
	return getReservation(ctx, querierFrom(ctx, r.pool), id, false)
}

func (r *BookingRepository) ListReservationsByUser(ctx context.Context, userID string) ([]domain.Reservation, error) {
	const query = `
SELECT ` + reservationColumns + `
FROM reservations
WHERE user_id = $1
ORDER BY created_at, id`

	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list reservations by user: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reservations by user: %w", err)
	}
	return out, nil
}
