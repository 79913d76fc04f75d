package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-parking-reservation/internal/api"
)

// httpError はサービス層のエラーを分類に従ってHTTPエラーに変換する
// 元のエラーをInternalに保持し、エラーハンドラーがRetryableを復元できるようにする
func httpError(err error) *echo.HTTPError {
	return echo.NewHTTPError(api.StatusOf(err), err.Error()).SetInternal(err)
}
