package lot

import "github.com/sanosuguru/go-parking-reservation/internal/domain/apperror"

// Lot ドメインのエラー定義
// メッセージは外部APIにそのまま出る文字列なので英語で固定
var (
	ErrLotNotFound      = apperror.NotFound("Parking lot not found.")
	ErrLotAlreadyExists = apperror.Conflict("Parking lot with same name and address already exists.")
	ErrNameRequired     = apperror.Validation("Name is required.")
	ErrAddressRequired  = apperror.Validation("Address is required.")
	ErrInvalidCapacity  = apperror.Validation("Capacity must be greater than zero.")
	ErrInvalidTariff    = apperror.Validation("Tariff must not be negative.")
)
