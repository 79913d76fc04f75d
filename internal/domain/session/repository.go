package session

import (
	"context"

	"github.com/sanosuguru/go-parking-reservation/internal/domain/transaction"
)

// Repository は駐車セッションリポジトリのインターフェース
type Repository interface {
	// Create は新しいセッションを作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, s *Session) error

	// GetByID はIDからセッションを取得する
	GetByID(ctx context.Context, id string) (*Session, error)

	// GetOpen は (lot, plate) のオープンセッションを取得する
	// userIDが指定された場合はそのユーザーのセッションに限定する
	// txがnilの場合はトランザクション外で読み取る
	GetOpen(ctx context.Context, tx transaction.Tx, lotID, normalizedPlate string, userID *string) (*Session, error)

	// CountOpenForLot は駐車場のオープンセッション数を返す
	CountOpenForLot(ctx context.Context, tx transaction.Tx, lotID string) (int, error)

	// Update はセッションを更新する（終了時刻・料金の確定、トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, s *Session) error

	// ListByLotID は駐車場のセッション一覧を取得する
	ListByLotID(ctx context.Context, lotID string, limit, offset int) ([]*Session, error)
}
