package reservation

import "github.com/sanosuguru/go-parking-reservation/internal/domain/apperror"

// Reservation ドメインのエラー定義
// 検証メッセージはAPIレスポンスにそのまま載る契約文字列
var (
	ErrPlateRequired    = apperror.Validation("License plate is required.")
	ErrEndNotAfterStart = apperror.Validation("EndDate must be greater than StartDate.")
	ErrStartInPast      = apperror.Validation("StartDate cannot be in the past.")
	ErrDurationTooLong  = apperror.Validation("Reservation cannot exceed 365 days.")
	ErrDurationTooShort = apperror.Validation("Minimum reservation duration is 1 hour.")

	ErrVehicleDoubleBooked = apperror.Conflict("Vehicle already has a reservation for the selected dates.")
	ErrLotFullyBooked      = apperror.Conflict("Parking lot is fully booked for the selected dates.")

	ErrReservationNotFound = apperror.NotFound("Reservation not found.")
	ErrNotPending          = apperror.Conflict("Reservation is not pending.")
	ErrAlreadyCancelled    = apperror.Conflict("Reservation is already cancelled.")
	ErrAlreadyCompleted    = apperror.Conflict("Reservation is already completed.")
)
