package reservation

import (
	"context"
	"time"

	"github.com/sanosuguru/go-parking-reservation/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, r *Reservation) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Reservation, error)

	// ListByUserID はユーザーの予約一覧を取得する
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*Reservation, error)

	// Update は予約を更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, r *Reservation) error

	// HasOverlappingForVehicle は車両が指定区間と交差する未キャンセル予約を持つかを返す
	// 交差判定: existing.start < end AND existing.end > start
	// txがnilの場合はトランザクション外で読み取る（事前チェック用）
	HasOverlappingForVehicle(ctx context.Context, tx transaction.Tx, vehicleID string, startAt, endAt time.Time) (bool, error)

	// CountOverlappingForLot は駐車場の指定区間と交差する未キャンセル予約数を返す
	// 空き判定の真実はこのクエリであり、Lot.Reservedカウンターではない
	CountOverlappingForLot(ctx context.Context, tx transaction.Tx, lotID string, startAt, endAt time.Time) (int, error)
}
