package session

import "github.com/sanosuguru/go-parking-reservation/internal/domain/apperror"

// Session ドメインのエラー定義
var (
	ErrSessionNotFound      = apperror.NotFound("No active session found for this vehicle.")
	ErrSessionAlreadyActive = apperror.Conflict("A session is already active for this vehicle.")
	ErrSessionAlreadyClosed = apperror.Conflict("Session is already closed.")
	ErrLotFull              = apperror.Conflict("Parking lot is full.")
	ErrPlateRequired        = apperror.Validation("License plate is required.")
)
