package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-parking-reservation/internal/domain/vehicle"
)

type vehicleRow struct {
	ID              string    `db:"id"`
	LicensePlate    string    `db:"license_plate"`
	NormalizedPlate string    `db:"normalized_plate"`
	Make            string    `db:"make"`
	Model           string    `db:"model"`
	Color           string    `db:"color"`
	Year            int       `db:"year"`
	UserID          string    `db:"user_id"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r *vehicleRow) toEntity() *vehicle.Vehicle {
	return &vehicle.Vehicle{
		ID: r.ID, LicensePlate: r.LicensePlate, NormalizedPlate: r.NormalizedPlate,
		Make: r.Make, Model: r.Model, Color: r.Color, Year: r.Year,
		UserID: r.UserID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

const vehicleColumns = `id, license_plate, normalized_plate, make, model, color, year, user_id, created_at, updated_at`

type VehicleRepository struct{ db *sqlx.DB }

func NewVehicleRepository(db *sqlx.DB) *VehicleRepository { return &VehicleRepository{db: db} }

func (r *VehicleRepository) Create(ctx context.Context, v *vehicle.Vehicle) error {
	query := `INSERT INTO vehicles (license_plate, normalized_plate, make, model, color, year, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		v.LicensePlate, v.NormalizedPlate, v.Make, v.Model, v.Color, v.Year,
		v.UserID, v.CreatedAt, v.UpdatedAt,
	).Scan(&v.ID); err != nil {
		if isUniqueViolation(err) {
			return vehicle.ErrVehicleAlreadyExists
		}
		return fmt.Errorf("車両作成に失敗: %w", err)
	}
	return nil
}

func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*vehicle.Vehicle, error) {
	var row vehicleRow
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vehicle.ErrVehicleNotFound
		}
		return nil, fmt.Errorf("車両取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// GetByPlate は正規化済みナンバーで車両を照合する
// 登録時の表記（ハイフン有無等）に関わらず同一車両に解決される
func (r *VehicleRepository) GetByPlate(ctx context.Context, normalizedPlate string) (*vehicle.Vehicle, error) {
	var row vehicleRow
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE normalized_plate = $1`
	if err := r.db.GetContext(ctx, &row, query, normalizedPlate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vehicle.ErrVehicleNotFound
		}
		return nil, fmt.Errorf("車両取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *VehicleRepository) GetByUserAndPlate(ctx context.Context, userID, normalizedPlate string) (*vehicle.Vehicle, error) {
	var row vehicleRow
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE user_id = $1 AND normalized_plate = $2`
	if err := r.db.GetContext(ctx, &row, query, userID, normalizedPlate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vehicle.ErrVehicleNotFound
		}
		return nil, fmt.Errorf("車両取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *VehicleRepository) ListByUserID(ctx context.Context, userID string) ([]*vehicle.Vehicle, error) {
	var rows []vehicleRow
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE user_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("車両一覧取得に失敗: %w", err)
	}
	vehicles := make([]*vehicle.Vehicle, len(rows))
	for i := range rows {
		vehicles[i] = rows[i].toEntity()
	}
	return vehicles, nil
}

func (r *VehicleRepository) Update(ctx context.Context, v *vehicle.Vehicle) error {
	query := `UPDATE vehicles SET license_plate = $1, normalized_plate = $2, make = $3, model = $4,
		color = $5, year = $6, updated_at = $7 WHERE id = $8`
	result, err := r.db.ExecContext(ctx, query,
		v.LicensePlate, v.NormalizedPlate, v.Make, v.Model, v.Color, v.Year, v.UpdatedAt, v.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return vehicle.ErrVehicleAlreadyExists
		}
		return fmt.Errorf("車両更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return vehicle.ErrVehicleNotFound
	}
	return nil
}

func (r *VehicleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("車両削除に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return vehicle.ErrVehicleNotFound
	}
	return nil
}

var _ vehicle.Repository = (*VehicleRepository)(nil)
