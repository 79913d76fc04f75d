package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-parking-reservation/internal/domain/session"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/transaction"
)

type sessionRow struct {
	ID            string     `db:"id"`
	LicensePlate  string     `db:"license_plate"`
	LotID         string     `db:"lot_id"`
	UserID        *string    `db:"user_id"`
	StartAt       time.Time  `db:"start_at"`
	EndAt         *time.Time `db:"end_at"`
	PaymentStatus string     `db:"payment_status"`
	Price         *float64   `db:"price"`
	PaymentID     *string    `db:"payment_id"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (r *sessionRow) toEntity() *session.Session {
	return &session.Session{
		ID: r.ID, LicensePlate: r.LicensePlate, LotID: r.LotID, UserID: r.UserID,
		StartAt: r.StartAt, EndAt: r.EndAt,
		PaymentStatus: session.PaymentStatus(r.PaymentStatus),
		Price:         r.Price, PaymentID: r.PaymentID,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

const sessionColumns = `id, license_plate, lot_id, user_id, start_at, end_at, payment_status, price, payment_id, created_at, updated_at`

type SessionRepository struct{ db *sqlx.DB }

func NewSessionRepository(db *sqlx.DB) *SessionRepository { return &SessionRepository{db: db} }

func (r *SessionRepository) Create(ctx context.Context, tx transaction.Tx, s *session.Session) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("セッション作成はトランザクション内でのみ呼び出せる")
	}
	query := `INSERT INTO sessions (license_plate, lot_id, user_id, start_at, end_at, payment_status, price, payment_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	if err := sqlxTx.QueryRowContext(ctx, query,
		s.LicensePlate, s.LotID, s.UserID, s.StartAt, s.EndAt,
		string(s.PaymentStatus), s.Price, s.PaymentID, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID); err != nil {
		if isUniqueViolation(err) {
			// オープンセッションの部分一意インデックス (lot_id, license_plate) WHERE end_at IS NULL
			return session.ErrSessionAlreadyActive
		}
		return fmt.Errorf("セッション作成に失敗: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*session.Session, error) {
	var row sessionRow
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("セッション取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// GetOpen は (lot, plate) のオープンセッションを取得する
func (r *SessionRepository) GetOpen(ctx context.Context, tx transaction.Tx, lotID, normalizedPlate string, userID *string) (*session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE lot_id = $1 AND license_plate = $2 AND end_at IS NULL`
	args := []interface{}{lotID, normalizedPlate}
	if userID != nil {
		query += ` AND user_id = $3`
		args = append(args, *userID)
	}

	var row sessionRow
	if err := sqlx.GetContext(ctx, r.queryer(tx), &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("オープンセッション取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *SessionRepository) CountOpenForLot(ctx context.Context, tx transaction.Tx, lotID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM sessions WHERE lot_id = $1 AND end_at IS NULL`
	if err := sqlx.GetContext(ctx, r.queryer(tx), &count, query, lotID); err != nil {
		return 0, fmt.Errorf("オープンセッション数カウントに失敗: %w", err)
	}
	return count, nil
}

func (r *SessionRepository) Update(ctx context.Context, tx transaction.Tx, s *session.Session) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("セッション更新はトランザクション内でのみ呼び出せる")
	}
	query := `UPDATE sessions SET end_at = $1, payment_status = $2, price = $3, payment_id = $4, updated_at = $5 WHERE id = $6`
	result, err := sqlxTx.ExecContext(ctx, query,
		s.EndAt, string(s.PaymentStatus), s.Price, s.PaymentID, s.UpdatedAt, s.ID)
	if err != nil {
		return fmt.Errorf("セッション更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) ListByLotID(ctx context.Context, lotID string, limit, offset int) ([]*session.Session, error) {
	var rows []sessionRow
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE lot_id = $1 ORDER BY start_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, lotID, limit, offset); err != nil {
		return nil, fmt.Errorf("セッション一覧取得に失敗: %w", err)
	}
	sessions := make([]*session.Session, len(rows))
	for i := range rows {
		sessions[i] = rows[i].toEntity()
	}
	return sessions, nil
}

func (r *SessionRepository) queryer(tx transaction.Tx) sqlx.QueryerContext {
	if sqlxTx := UnwrapTx(tx); sqlxTx != nil {
		return sqlxTx
	}
	return r.db
}

var _ session.Repository = (*SessionRepository)(nil)
