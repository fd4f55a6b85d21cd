package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/21f3002068/Park-Ease/internal/domain"
)

// AccountRepository reads the users and vehicles owned by the account
// system. The engine never writes these tables.
type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) GetUser(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT id, email, full_name FROM users WHERE id = $1`

	var u domain.User
	err := querierFrom(ctx, r.pool).QueryRow(ctx, query, id).Scan(&u.ID, &u.Email, &u.FullName)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.User{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *AccountRepository) GetVehicle(ctx context.Context, id string) (domain.Vehicle, error) {
	const query = `SELECT id, user_id, plate FROM vehicles WHERE id = $1`

	var v domain.Vehicle
	err := querierFrom(ctx, r.pool).QueryRow(ctx, query, id).Scan(&v.ID, &v.UserID, &v.Plate)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Vehicle{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Vehicle{}, domain.ErrVehicleNotOwned
		}
		return domain.Vehicle{}, fmt.Errorf("get vehicle: %w", err)
	}
	return v, nil
}

func (r *AccountRepository) VehicleBelongsToUser(ctx context.Context, vehicleID, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM vehicles WHERE id = $1 AND user_id = $2)`

	var ok bool
	err := querierFrom(ctx, r.pool).QueryRow(ctx, query, vehicleID, userID).Scan(&ok)
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("check vehicle owner: %w", err)
	}
	return ok, nil
}
