package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-parking-reservation/internal/domain/apperror"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/transaction"
)

// TxWrapper は sqlx.Tx を transaction.Tx インターフェースでラップする
type TxWrapper struct {
	*sqlx.Tx
}

// Commit はトランザクションをコミットする
// 直列化失敗はTransientとして返し、呼び出し側に再試行を促す
func (t *TxWrapper) Commit() error {
	if err := t.Tx.Commit(); err != nil {
		if isSerializationFailure(err) {
			return apperror.Transient("Transaction conflict, please retry.", err)
		}
		return err
	}
	return nil
}

// Rollback はトランザクションをロールバックする
func (t *TxWrapper) Rollback() error {
	return t.Tx.Rollback()
}

// TxManager は sqlx.DB を使用したトランザクションマネージャー
type TxManager struct {
	db *sqlx.DB
}

// NewTxManager は新しい TxManager を作成する
func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

// Begin は新しいトランザクションをSERIALIZABLEで開始する
// トランザクション内の空き再チェックと挿入を直列化可能にするため、
// 分離レベルは常にSERIALIZABLE。直列化失敗（40001）はCommitで
// Transientに写像され、呼び出し側が検証からやり直す
func (m *TxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	tx, err := m.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	return &TxWrapper{Tx: tx}, nil
}

var _ transaction.Manager = (*TxManager)(nil)

// UnwrapTx は transaction.Tx から sqlx.Tx を取り出す
// リポジトリ実装で使用する
func UnwrapTx(tx transaction.Tx) *sqlx.Tx {
	if wrapper, ok := tx.(*TxWrapper); ok {
		return wrapper.Tx
	}
	return nil
}

// pq のエラーコード
const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

func isUniqueViolation(err error) bool {
	var pgErr *pq.Error
	return errors.As(err, &pgErr) && pgErr.Code == pqUniqueViolation
}

func isSerializationFailure(err error) bool {
	var pgErr *pq.Error
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pqSerializationFailure || pgErr.Code == pqDeadlockDetected
}
