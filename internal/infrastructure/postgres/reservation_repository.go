package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-parking-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/transaction"
)

type reservationRow struct {
	ID         string    `db:"id"`
	StartAt    time.Time `db:"start_at"`
	EndAt      time.Time `db:"end_at"`
	Status     string    `db:"status"`
	TotalPrice float64   `db:"total_price"`
	UserID     string    `db:"user_id"`
	LotID      string    `db:"lot_id"`
	VehicleID  string    `db:"vehicle_id"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r *reservationRow) toEntity() *reservation.Reservation {
	return &reservation.Reservation{
		ID: r.ID, StartAt: r.StartAt, EndAt: r.EndAt,
		Status: reservation.Status(r.Status), TotalPrice: r.TotalPrice,
		UserID: r.UserID, LotID: r.LotID, VehicleID: r.VehicleID,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

const reservationColumns = `id, start_at, end_at, status, total_price, user_id, lot_id, vehicle_id, created_at, updated_at`

type ReservationRepository struct{ db *sqlx.DB }

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("予約作成はトランザクション内でのみ呼び出せる")
	}
	query := `INSERT INTO reservations (start_at, end_at, status, total_price, user_id, lot_id, vehicle_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := sqlxTx.QueryRowContext(ctx, query,
		res.StartAt, res.EndAt, string(res.Status), res.TotalPrice,
		res.UserID, res.LotID, res.VehicleID, res.CreatedAt, res.UpdatedAt,
	).Scan(&res.ID); err != nil {
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	var row reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *ReservationRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	result := make([]*reservation.Reservation, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

func (r *ReservationRepository) Update(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("予約更新はトランザクション内でのみ呼び出せる")
	}
	query := `UPDATE reservations SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := sqlxTx.ExecContext(ctx, query, string(res.Status), res.UpdatedAt, res.ID)
	if err != nil {
		return fmt.Errorf("予約更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return reservation.ErrReservationNotFound
	}
	return nil
}

// HasOverlappingForVehicle は車両の未キャンセル予約との交差を判定する
// 交差条件: start_at < $end AND end_at > $start（半開区間 [start, end)）
func (r *ReservationRepository) HasOverlappingForVehicle(ctx context.Context, tx transaction.Tx, vehicleID string, startAt, endAt time.Time) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM reservations
		WHERE vehicle_id = $1 AND status <> 'Cancelled'
		  AND start_at < $2 AND end_at > $3
	)`
	var exists bool
	if err := sqlx.GetContext(ctx, r.queryer(tx), &exists, query, vehicleID, endAt, startAt); err != nil {
		return false, fmt.Errorf("車両の重複予約チェックに失敗: %w", err)
	}
	return exists, nil
}

// CountOverlappingForLot は駐車場の指定区間と交差する未キャンセル予約数を返す
// 空き判定はこのライブクエリが真実。Lot.Reservedカウンターは表示用
func (r *ReservationRepository) CountOverlappingForLot(ctx context.Context, tx transaction.Tx, lotID string, startAt, endAt time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM reservations
		WHERE lot_id = $1 AND status <> 'Cancelled'
		  AND start_at < $2 AND end_at > $3`
	var count int
	if err := sqlx.GetContext(ctx, r.queryer(tx), &count, query, lotID, endAt, startAt); err != nil {
		return 0, fmt.Errorf("駐車場の予約数カウントに失敗: %w", err)
	}
	return count, nil
}

// queryer はtxがあればトランザクション、なければDB本体を返す
func (r *ReservationRepository) queryer(tx transaction.Tx) sqlx.QueryerContext {
	if sqlxTx := UnwrapTx(tx); sqlxTx != nil {
		return sqlxTx
	}
	return r.db
}

var _ reservation.Repository = (*ReservationRepository)(nil)
