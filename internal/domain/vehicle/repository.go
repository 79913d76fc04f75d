package vehicle

import "context"

// Repository は車両リポジトリのインターフェース
type Repository interface {
	// Create は新しい車両を作成する
	Create(ctx context.Context, v *Vehicle) error

	// GetByID はIDから車両を取得する
	GetByID(ctx context.Context, id string) (*Vehicle, error)

	// GetByPlate は正規化済みナンバーから車両を取得する
	// 呼び出し側はNormalizePlateを通した値を渡すこと
	GetByPlate(ctx context.Context, normalizedPlate string) (*Vehicle, error)

	// GetByUserAndPlate はユーザー内の重複判定用に車両を取得する
	GetByUserAndPlate(ctx context.Context, userID, normalizedPlate string) (*Vehicle, error)

	// ListByUserID はユーザーの車両一覧を取得する
	ListByUserID(ctx context.Context, userID string) ([]*Vehicle, error)

	// Update は車両を更新する
	Update(ctx context.Context, v *Vehicle) error

	// Delete は車両を削除する
	Delete(ctx context.Context, id string) error
}
