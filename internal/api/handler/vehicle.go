package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-parking-reservation/internal/application"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/vehicle"
)

type VehicleHandler struct {
	service VehicleServiceInterface
}

func NewVehicleHandler(s VehicleServiceInterface) *VehicleHandler {
	return &VehicleHandler{service: s}
}

type RegisterVehicleRequest struct {
	LicensePlate string `json:"license_plate" validate:"required" example:"AB-123-CD"`
	Make         string `json:"make" example:"Toyota"`
	Model        string `json:"model" example:"Prius"`
	Color        string `json:"color" example:"White"`
	Year         int    `json:"year" example:"2021"`
}

type UpdateVehicleRequest struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Color string `json:"color"`
	Year  int    `json:"year"`
}

type VehicleResponse struct {
	ID              string    `json:"id"`
	LicensePlate    string    `json:"license_plate" example:"AB-123-CD"`
	NormalizedPlate string    `json:"normalized_plate" example:"AB123CD"`
	Make            string    `json:"make,omitempty"`
	Model           string    `json:"model,omitempty"`
	Color           string    `json:"color,omitempty"`
	Year            int       `json:"year,omitempty"`
	UserID          string    `json:"user_id"`
	CreatedAt       time.Time `json:"created_at"`
}

func toVehicleResponse(v *vehicle.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID: v.ID, LicensePlate: v.LicensePlate, NormalizedPlate: v.NormalizedPlate,
		Make: v.Make, Model: v.Model, Color: v.Color, Year: v.Year,
		UserID: v.UserID, CreatedAt: v.CreatedAt,
	}
}

func userIDFrom(c echo.Context) (string, error) {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	return userID, nil
}

// Register godoc
// @Summary 車両を登録
// @Description ナンバープレートは正規化され、同一ユーザーの重複登録は拒否されます
// @Tags vehicles
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body RegisterVehicleRequest true "車両情報"
// @Success 201 {object} VehicleResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "登録済み"
// @Router /vehicles [post]
func (h *VehicleHandler) Register(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	var req RegisterVehicleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	v, err := h.service.RegisterVehicle(c.Request().Context(), application.RegisterVehicleInput{
		UserID:       userID,
		LicensePlate: req.LicensePlate,
		Make:         req.Make,
		Model:        req.Model,
		Color:        req.Color,
		Year:         req.Year,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, toVehicleResponse(v))
}

// GetByIDOrPlate godoc
// @Summary 車両を取得
// @Description UUIDならID検索、それ以外はナンバープレート検索になります
// @Tags vehicles
// @Produce json
// @Param id path string true "車両IDまたはナンバープレート"
// @Success 200 {object} VehicleResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /vehicles/{id} [get]
func (h *VehicleHandler) GetByIDOrPlate(c echo.Context) error {
	v, err := h.service.GetVehicle(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toVehicleResponse(v))
}

// List godoc
// @Summary ユーザーの車両一覧を取得
// @Tags vehicles
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Success 200 {array} VehicleResponse
// @Failure 401 {object} api.ErrorResponse
// @Router /vehicles [get]
func (h *VehicleHandler) List(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	vehicles, err := h.service.ListUserVehicles(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	resp := make([]VehicleResponse, len(vehicles))
	for i, v := range vehicles {
		resp[i] = toVehicleResponse(v)
	}
	return c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary 車両の属性を更新
// @Description ナンバープレートは変更できません
// @Tags vehicles
// @Accept json
// @Produce json
// @Param id path string true "車両ID"
// @Param request body UpdateVehicleRequest true "車両情報"
// @Success 200 {object} VehicleResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /vehicles/{id} [put]
func (h *VehicleHandler) Update(c echo.Context) error {
	var req UpdateVehicleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	v, err := h.service.UpdateVehicle(c.Request().Context(), application.UpdateVehicleInput{
		ID:    c.Param("id"),
		Make:  req.Make,
		Model: req.Model,
		Color: req.Color,
		Year:  req.Year,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toVehicleResponse(v))
}

// Delete godoc
// @Summary 車両を削除
// @Tags vehicles
// @Param id path string true "車両ID"
// @Success 204
// @Failure 404 {object} api.ErrorResponse
// @Router /vehicles/{id} [delete]
func (h *VehicleHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteVehicle(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
