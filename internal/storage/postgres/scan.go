package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/21f3002068/Park-Ease/internal/domain"
)

const lotColumns = `id, name, price_cents, capacity, opens_at_minutes, closes_at_minutes, timezone, active, created_at`

const spotColumns = `id, lot_id, number, status`

const reservationColumns = `id, code, user_id, vehicle_id, lot_id, spot_id,
expected_arrival, expected_departure, checked_in_at, checked_out_at,
cost_cents, status, reason, created_at`

// terminalStatuses is the SQL list of final reservation states; rows in
// these states never count toward spot conflicts.
const terminalStatuses = `('parked_out', 'cancelled', 'rejected')`

func scanLot(row pgx.Row) (domain.Lot, error) {
	var (
		l             domain.Lot
		opens, closes int
	)
	err := row.Scan(&l.ID, &l.Name, &l.PriceCents, &l.Capacity, &opens, &closes, &l.Timezone, &l.Active, &l.CreatedAt)
	if err != nil {
		return domain.Lot{}, err
	}
	l.OpensAt = domain.TimeOfDay(opens)
	l.ClosesAt = domain.TimeOfDay(closes)
	return l, nil
}

func scanSpot(row pgx.Row) (domain.Spot, error) {
	var (
		s      domain.Spot
		status string
	)
	if err := row.Scan(&s.ID, &s.LotID, &s.Number, &status); err != nil {
		return domain.Spot{}, err
	}
	s.Status = domain.SpotStatus(status)
	return s, nil
}

func scanReservation(row pgx.Row) (domain.Reservation, error) {
	var (
		r      domain.Reservation
		status string
	)
	err := row.Scan(
		&r.ID, &r.Code, &r.UserID, &r.VehicleID, &r.LotID, &r.SpotID,
		&r.ExpectedArrival, &r.ExpectedDeparture, &r.CheckedInAt, &r.CheckedOutAt,
		&r.CostCents, &status, &r.Reason, &r.CreatedAt,
	)
	if err != nil {
		return domain.Reservation{}, err
	}
	r.Status = domain.ReservationStatus(status)
	return r, nil
}

func getLot(ctx context.Context, q querier, id string, lock bool) (domain.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	lot, err := scanLot(q.QueryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Lot{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Lot{}, domain.ErrLotNotFound
		}
		return domain.Lot{}, fmt.Errorf("get lot: %w", err)
	}
	return lot, nil
}

func getSpot(ctx context.Context, q querier, id string, lock bool) (domain.Spot, error) {
	query := `SELECT ` + spotColumns + ` FROM spots WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	spot, err := scanSpot(q.QueryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Spot{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Spot{}, domain.ErrSpotNotFound
		}
		return domain.Spot{}, fmt.Errorf("get spot: %w", err)
	}
	return spot, nil
}

func listSpots(ctx context.Context, q querier, lotID string, statuses []domain.SpotStatus, lock bool) ([]domain.Spot, error) {
	query := `SELECT ` + spotColumns + ` FROM spots WHERE lot_id = $1`
	args := []any{lotID}
	if len(statuses) > 0 {
		vals := make([]string, 0, len(statuses))
		for _, s := range statuses {
			vals = append(vals, string(s))
		}
		query += ` AND status = ANY($2)`
		args = append(args, vals)
	}
	query += ` ORDER BY number`
	if lock {
		query += ` FOR UPDATE`
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list spots: %w", err)
	}
	defer rows.Close()

	var spots []domain.Spot
	for rows.Next() {
		spot, err := scanSpot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan spot: %w", err)
		}
		spots = append(spots, spot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list spots: %w", err)
	}
	return spots, nil
}

func setSpotStatus(ctx context.Context, q querier, spotID string, status domain.SpotStatus) error {
	tag, err := q.Exec(ctx, `UPDATE spots SET status = $2 WHERE id = $1`, spotID, string(status))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("set spot status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSpotNotFound
	}
	return nil
}

// hasConflict reports whether any non-terminal reservation on the spot
// overlaps the half-open window. Touching windows do not overlap.
func hasConflict(ctx context.Context, q querier, spotID string, w domain.Window) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM reservations
	WHERE spot_id = $1
	  AND status NOT IN ` + terminalStatuses + `
	  AND expected_arrival < $3
	  AND expected_departure > $2
)`
	var exists bool
	if err := q.QueryRow(ctx, query, spotID, w.Start, w.End).Scan(&exists); err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("check conflict: %w", err)
	}
	return exists, nil
}

func getReservation(ctx context.Context, q querier, id string, lock bool) (domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	r, err := scanReservation(q.QueryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return r, nil
}

func updateReservation(ctx context.Context, q querier, r domain.Reservation) error {
	const stmt = `
UPDATE reservations
SET spot_id = $2,
    checked_in_at = $3,
    checked_out_at = $4,
    cost_cents = $5,
    status = $6,
    reason = $7
WHERE id = $1`
	tag, err := q.Exec(ctx, stmt,
		r.ID, r.SpotID, r.CheckedInAt, r.CheckedOutAt, r.CostCents, string(r.Status), r.Reason,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

// listPendingByLot returns unassigned pending reservations in promotion
// order, rows locked so a concurrent sweep cannot promote the same one.
func listPendingByLot(ctx context.Context, q querier, lotID string) ([]domain.Reservation, error) {
	const query = `
SELECT ` + reservationColumns + `
FROM reservations
WHERE lot_id = $1 AND status = 'pending' AND spot_id IS NULL
ORDER BY expected_arrival, created_at, id
FOR UPDATE`

	rows, err := q.Query(ctx, query, lotID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list pending: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	return out, nil
}

// listActiveBySpot returns the non-terminal reservations still referencing
// a spot, the rows the derived spot status is recomputed from.
func listActiveBySpot(ctx context.Context, q querier, spotID string) ([]domain.Reservation, error) {
	const query = `
SELECT ` + reservationColumns + `
FROM reservations
WHERE spot_id = $1 AND status NOT IN ` + terminalStatuses + `
ORDER BY expected_arrival, id
FOR UPDATE`

	rows, err := q.Query(ctx, query, spotID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list active by spot: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active by spot: %w", err)
	}
	return out, nil
}
