package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-parking-reservation/internal/domain/lot"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/transaction"
)

type lotRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Location  string    `db:"location"`
	Address   string    `db:"address"`
	Capacity  int       `db:"capacity"`
	Reserved  int       `db:"reserved"`
	Tariff    float64   `db:"tariff"`
	DayTariff float64   `db:"day_tariff"`
	Latitude  float64   `db:"latitude"`
	Longitude float64   `db:"longitude"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *lotRow) toEntity() *lot.Lot {
	return &lot.Lot{
		ID: r.ID, Name: r.Name, Location: r.Location, Address: r.Address,
		Capacity: r.Capacity, Reserved: r.Reserved,
		Tariff: r.Tariff, DayTariff: r.DayTariff,
		Latitude: r.Latitude, Longitude: r.Longitude,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

const lotColumns = `id, name, location, address, capacity, reserved, tariff, day_tariff, latitude, longitude, created_at, updated_at`

type LotRepository struct{ db *sqlx.DB }

func NewLotRepository(db *sqlx.DB) *LotRepository { return &LotRepository{db: db} }

func (r *LotRepository) Create(ctx context.Context, l *lot.Lot) error {
	query := `INSERT INTO parking_lots (name, location, address, capacity, reserved, tariff, day_tariff, latitude, longitude, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		l.Name, l.Location, l.Address, l.Capacity, l.Reserved,
		l.Tariff, l.DayTariff, l.Latitude, l.Longitude, l.CreatedAt, l.UpdatedAt,
	).Scan(&l.ID); err != nil {
		if isUniqueViolation(err) {
			return lot.ErrLotAlreadyExists
		}
		return fmt.Errorf("駐車場作成に失敗: %w", err)
	}
	return nil
}

func (r *LotRepository) GetByID(ctx context.Context, id string) (*lot.Lot, error) {
	var row lotRow
	query := `SELECT ` + lotColumns + ` FROM parking_lots WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, lot.ErrLotNotFound
		}
		return nil, fmt.Errorf("駐車場取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *LotRepository) GetByNameAndAddress(ctx context.Context, name, address string) (*lot.Lot, error) {
	var row lotRow
	query := `SELECT ` + lotColumns + ` FROM parking_lots WHERE name = $1 AND address = $2`
	if err := r.db.GetContext(ctx, &row, query, name, address); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, lot.ErrLotNotFound
		}
		return nil, fmt.Errorf("駐車場取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *LotRepository) List(ctx context.Context, limit, offset int) ([]*lot.Lot, error) {
	var rows []lotRow
	query := `SELECT ` + lotColumns + ` FROM parking_lots ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("駐車場一覧取得に失敗: %w", err)
	}
	lots := make([]*lot.Lot, len(rows))
	for i := range rows {
		lots[i] = rows[i].toEntity()
	}
	return lots, nil
}

func (r *LotRepository) Update(ctx context.Context, l *lot.Lot) error {
	query := `UPDATE parking_lots SET name = $1, location = $2, address = $3, capacity = $4,
		tariff = $5, day_tariff = $6, latitude = $7, longitude = $8, updated_at = $9 WHERE id = $10`
	result, err := r.db.ExecContext(ctx, query,
		l.Name, l.Location, l.Address, l.Capacity,
		l.Tariff, l.DayTariff, l.Latitude, l.Longitude, l.UpdatedAt, l.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return lot.ErrLotAlreadyExists
		}
		return fmt.Errorf("駐車場更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return lot.ErrLotNotFound
	}
	return nil
}

func (r *LotRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM parking_lots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("駐車場削除に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return lot.ErrLotNotFound
	}
	return nil
}

// UpdateReserved は表示用カウンターをトランザクション内で加算する
// 空き判定には使わない（真実は重複クエリ）
func (r *LotRepository) UpdateReserved(ctx context.Context, tx transaction.Tx, id string, delta int) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("UpdateReservedはトランザクション内でのみ呼び出せる")
	}
	query := `UPDATE parking_lots SET reserved = GREATEST(reserved + $1, 0), updated_at = NOW() WHERE id = $2`
	if _, err := sqlxTx.ExecContext(ctx, query, delta, id); err != nil {
		return fmt.Errorf("予約カウンター更新に失敗: %w", err)
	}
	return nil
}

// SetReserved はカウンターを再計算値で上書きする（ワーカー用）
func (r *LotRepository) SetReserved(ctx context.Context, id string, reserved int) error {
	query := `UPDATE parking_lots SET reserved = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, reserved, id); err != nil {
		return fmt.Errorf("予約カウンター上書きに失敗: %w", err)
	}
	return nil
}

var _ lot.Repository = (*LotRepository)(nil)
