package lot

import (
	"context"

	"github.com/sanosuguru/go-parking-reservation/internal/domain/transaction"
)

// Repository は駐車場リポジトリのインターフェース
type Repository interface {
	// Create は新しい駐車場を作成する
	Create(ctx context.Context, l *Lot) error

	// GetByID はIDから駐車場を取得する
	GetByID(ctx context.Context, id string) (*Lot, error)

	// GetByNameAndAddress は名前と住所の組から駐車場を取得する（重複判定用）
	GetByNameAndAddress(ctx context.Context, name, address string) (*Lot, error)

	// List は駐車場一覧を取得する
	List(ctx context.Context, limit, offset int) ([]*Lot, error)

	// Update は駐車場を更新する
	Update(ctx context.Context, l *Lot) error

	// Delete は駐車場を削除する
	Delete(ctx context.Context, id string) error

	// UpdateReserved は表示用の予約カウンターを更新する（トランザクション内）
	// 空き判定には使わない
	UpdateReserved(ctx context.Context, tx transaction.Tx, id string, delta int) error

	// SetReserved はカウンターを再計算値で上書きする（ワーカーによる遅延再計算用）
	SetReserved(ctx context.Context, id string, reserved int) error
}
