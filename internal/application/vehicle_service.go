package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-parking-reservation/internal/domain/vehicle"
	"github.com/sanosuguru/go-parking-reservation/internal/pkg/logger"
)

// VehicleService は車両登録の管理を行う
type VehicleService struct {
	vehicleRepo vehicle.Repository
}

func NewVehicleService(vr vehicle.Repository) *VehicleService {
	return &VehicleService{vehicleRepo: vr}
}

type RegisterVehicleInput struct {
	UserID       string
	LicensePlate string
	Make         string
	Model        string
	Color        string
	Year         int
}

type UpdateVehicleInput struct {
	ID    string
	Make  string
	Model string
	Color string
	Year  int
}

// RegisterVehicle は車両を登録する
// 同一ユーザーが正規化後に同じナンバーを二重登録することは許さない
func (s *VehicleService) RegisterVehicle(ctx context.Context, input RegisterVehicleInput) (*vehicle.Vehicle, error) {
	v := vehicle.NewVehicle(input.LicensePlate, input.Make, input.Model, input.Color, input.Year, input.UserID)
	if err := v.Validate(); err != nil {
		return nil, err
	}

	_, err := s.vehicleRepo.GetByUserAndPlate(ctx, input.UserID, v.NormalizedPlate)
	if err == nil {
		return nil, vehicle.ErrVehicleAlreadyExists
	}
	if !errors.Is(err, vehicle.ErrVehicleNotFound) {
		return nil, err
	}

	if err := s.vehicleRepo.Create(ctx, v); err != nil {
		return nil, asStoreError(err, "Failed to register vehicle, please retry.")
	}

	logger.Info("車両を登録",
		zap.String("vehicle_id", v.ID),
		zap.String("user_id", v.UserID),
		zap.String("plate", v.NormalizedPlate),
	)
	return v, nil
}

// GetVehicle はIDまたはナンバープレートから車両を取得する
// UUIDとして解釈できればID検索、できなければ正規化ナンバー検索
func (s *VehicleService) GetVehicle(ctx context.Context, idOrPlate string) (*vehicle.Vehicle, error) {
	if _, err := uuid.Parse(idOrPlate); err == nil {
		return s.vehicleRepo.GetByID(ctx, idOrPlate)
	}
	return s.vehicleRepo.GetByPlate(ctx, vehicle.NormalizePlate(idOrPlate))
}

// ListUserVehicles はユーザーの車両一覧を取得する
func (s *VehicleService) ListUserVehicles(ctx context.Context, userID string) ([]*vehicle.Vehicle, error) {
	return s.vehicleRepo.ListByUserID(ctx, userID)
}

// UpdateVehicle は車両の属性を更新する。ナンバープレートは変更不可
func (s *VehicleService) UpdateVehicle(ctx context.Context, input UpdateVehicleInput) (*vehicle.Vehicle, error) {
	v, err := s.vehicleRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	v.Make = input.Make
	v.Model = input.Model
	v.Color = input.Color
	v.Year = input.Year
	v.UpdatedAt = time.Now()
	if err := v.Validate(); err != nil {
		return nil, err
	}

	if err := s.vehicleRepo.Update(ctx, v); err != nil {
		return nil, asStoreError(err, "Failed to update vehicle, please retry.")
	}
	return v, nil
}

// DeleteVehicle は車両を削除する
func (s *VehicleService) DeleteVehicle(ctx context.Context, id string) error {
	return s.vehicleRepo.Delete(ctx, id)
}
