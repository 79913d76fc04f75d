package handler

import (
	"context"
	"time"

	"github.com/sanosuguru/go-parking-reservation/internal/application"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/lot"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/session"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/vehicle"
)

// ParkingLotServiceInterface は駐車場サービスのインターフェース
type ParkingLotServiceInterface interface {
	CreateLot(ctx context.Context, input application.CreateLotInput) (*lot.Lot, error)
	GetLot(ctx context.Context, id string) (*lot.Lot, error)
	ListLots(ctx context.Context, limit, offset int) ([]*lot.Lot, error)
	UpdateLot(ctx context.Context, input application.UpdateLotInput) (*lot.Lot, error)
	DeleteLot(ctx context.Context, id string) error
	GetAvailability(ctx context.Context, lotID string, startAt, endAt time.Time) (*application.Availability, error)
}

// VehicleServiceInterface は車両サービスのインターフェース
type VehicleServiceInterface interface {
	RegisterVehicle(ctx context.Context, input application.RegisterVehicleInput) (*vehicle.Vehicle, error)
	GetVehicle(ctx context.Context, idOrPlate string) (*vehicle.Vehicle, error)
	ListUserVehicles(ctx context.Context, userID string) ([]*vehicle.Vehicle, error)
	UpdateVehicle(ctx context.Context, input application.UpdateVehicleInput) (*vehicle.Vehicle, error)
	DeleteVehicle(ctx context.Context, id string) error
}

// ReservationServiceInterface は予約サービスのインターフェース
type ReservationServiceInterface interface {
	CreateReservation(ctx context.Context, input application.CreateReservationInput) (*reservation.Reservation, error)
	GetReservation(ctx context.Context, id string) (*reservation.Reservation, error)
	GetUserReservations(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error)
	ConfirmReservation(ctx context.Context, id string) (*reservation.Reservation, error)
	CancelReservation(ctx context.Context, id string) (*reservation.Reservation, error)
}

// SessionServiceInterface は駐車セッションサービスのインターフェース
type SessionServiceInterface interface {
	StartSession(ctx context.Context, input application.StartSessionInput) (*session.Session, error)
	StopSession(ctx context.Context, input application.StopSessionInput) (*session.Session, session.Billing, error)
	GetSession(ctx context.Context, id string) (*session.Session, error)
	GetLotSessions(ctx context.Context, lotID string, limit, offset int) ([]*session.Session, error)
}
