package vehicle

import "github.com/sanosuguru/go-parking-reservation/internal/domain/apperror"

// Vehicle ドメインのエラー定義
var (
	ErrVehicleNotFound      = apperror.NotFound("Vehicle with given license plate not found.")
	ErrVehicleAlreadyExists = apperror.Conflict("Vehicle already exists.")
	ErrPlateRequired        = apperror.Validation("License plate is required.")
	ErrUserIDRequired       = apperror.Validation("User ID is required.")
)
