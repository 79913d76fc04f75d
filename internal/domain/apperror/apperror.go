package apperror

import "errors"

// Kind はエラーの分類を表す
// 境界層（HTTPハンドラー）はこの分類だけを見てレスポンスを決定する
type Kind int

const (
	// KindValidation は入力不正（呼び出し側が入力を修正すれば回復可能）
	KindValidation Kind = iota
	// KindNotFound は参照先のエンティティが存在しない
	KindNotFound
	// KindConflict は現在のストア状態によるビジネスルール違反
	KindConflict
	// KindTransient はコミット競合やI/O障害（検証からやり直せば安全に再試行可能）
	KindTransient
)

// Error は分類付きのアプリケーションエラー
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation は入力検証エラーを作成する
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// NotFound は未検出エラーを作成する
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Conflict は競合エラーを作成する
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Transient は再試行可能なストア障害を作成する
func Transient(msg string, err error) *Error {
	return &Error{Kind: KindTransient, Message: msg, Err: err}
}

// KindOf はエラーチェーンから分類を取り出す
// 分類できない場合は KindTransient（内部エラー扱い）を返す
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindTransient
}

// IsRetryable は呼び出し側が再試行してよいエラーかを返す
func IsRetryable(err error) bool {
	return KindOf(err) == KindTransient
}
