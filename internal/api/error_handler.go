package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-parking-reservation/internal/domain/apperror"
	"github.com/sanosuguru/go-parking-reservation/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      int    `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// StatusOf はエラー分類をHTTPステータスに写像する
//
//	Validation → 400, NotFound → 404, Conflict → 409, Transient → 500
func StatusOf(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
// ハンドラーを素通りしたドメインエラーもここで分類に従って変換する
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		code      = http.StatusInternalServerError
		message   = "内部サーバーエラー"
		retryable = false
	)

	switch e := err.(type) {
	case *echo.HTTPError:
		code = e.Code
		if m, ok := e.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
		// ハンドラーがInternalに保持した元エラーからRetryableを復元する
		var appErr *apperror.Error
		if errors.As(e.Internal, &appErr) {
			retryable = apperror.IsRetryable(appErr)
		}
	case *apperror.Error:
		code = StatusOf(e)
		message = e.Message
		retryable = apperror.IsRetryable(e)
	}

	// エラーログを出力（5xx エラーの場合）
	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if err := c.JSON(code, ErrorResponse{
		Error:     message,
		Code:      code,
		Retryable: retryable,
	}); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}
