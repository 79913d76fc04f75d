package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-parking-reservation/internal/application"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/lot"
)

type ParkingLotHandler struct {
	service ParkingLotServiceInterface
}

func NewParkingLotHandler(s ParkingLotServiceInterface) *ParkingLotHandler {
	return &ParkingLotHandler{service: s}
}

type CreateParkingLotRequest struct {
	Name      string  `json:"name" validate:"required" example:"中央駐車場"`
	Location  string  `json:"location" example:"渋谷"`
	Address   string  `json:"address" validate:"required" example:"東京都渋谷区1-2-3"`
	Capacity  int     `json:"capacity" validate:"required,gt=0" example:"50"`
	Tariff    float64 `json:"tariff" validate:"gte=0" example:"2.5"`
	DayTariff float64 `json:"day_tariff" validate:"gte=0" example:"20"`
	Latitude  float64 `json:"latitude" example:"35.658"`
	Longitude float64 `json:"longitude" example:"139.701"`
}

type UpdateParkingLotRequest struct {
	Name      string  `json:"name" validate:"required"`
	Location  string  `json:"location"`
	Address   string  `json:"address" validate:"required"`
	Capacity  int     `json:"capacity" validate:"required,gt=0"`
	Tariff    float64 `json:"tariff" validate:"gte=0"`
	DayTariff float64 `json:"day_tariff" validate:"gte=0"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type ParkingLotResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	Address   string    `json:"address"`
	Capacity  int       `json:"capacity"`
	Reserved  int       `json:"reserved"`
	Tariff    float64   `json:"tariff"`
	DayTariff float64   `json:"day_tariff"`
	Latitude  float64   `json:"latitude,omitempty"`
	Longitude float64   `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toParkingLotResponse(l *lot.Lot) ParkingLotResponse {
	return ParkingLotResponse{
		ID: l.ID, Name: l.Name, Location: l.Location, Address: l.Address,
		Capacity: l.Capacity, Reserved: l.Reserved,
		Tariff: l.Tariff, DayTariff: l.DayTariff,
		Latitude: l.Latitude, Longitude: l.Longitude, CreatedAt: l.CreatedAt,
	}
}

// Create godoc
// @Summary 駐車場を登録
// @Tags parking-lots
// @Accept json
// @Produce json
// @Param request body CreateParkingLotRequest true "駐車場情報"
// @Success 201 {object} ParkingLotResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "名前と住所が重複"
// @Router /parking-lots [post]
func (h *ParkingLotHandler) Create(c echo.Context) error {
	var req CreateParkingLotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	l, err := h.service.CreateLot(c.Request().Context(), application.CreateLotInput{
		Name: req.Name, Location: req.Location, Address: req.Address,
		Capacity: req.Capacity, Tariff: req.Tariff, DayTariff: req.DayTariff,
		Latitude: req.Latitude, Longitude: req.Longitude,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, toParkingLotResponse(l))
}

// GetByID godoc
// @Summary 駐車場を取得
// @Tags parking-lots
// @Produce json
// @Param id path string true "駐車場ID"
// @Success 200 {object} ParkingLotResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /parking-lots/{id} [get]
func (h *ParkingLotHandler) GetByID(c echo.Context) error {
	l, err := h.service.GetLot(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toParkingLotResponse(l))
}

// List godoc
// @Summary 駐車場一覧を取得
// @Tags parking-lots
// @Produce json
// @Param limit query int false "取得件数" default(50)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} ParkingLotResponse
// @Router /parking-lots [get]
func (h *ParkingLotHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	lots, err := h.service.ListLots(c.Request().Context(), limit, offset)
	if err != nil {
		return httpError(err)
	}
	resp := make([]ParkingLotResponse, len(lots))
	for i, l := range lots {
		resp[i] = toParkingLotResponse(l)
	}
	return c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary 駐車場を更新
// @Tags parking-lots
// @Accept json
// @Produce json
// @Param id path string true "駐車場ID"
// @Param request body UpdateParkingLotRequest true "駐車場情報"
// @Success 200 {object} ParkingLotResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /parking-lots/{id} [put]
func (h *ParkingLotHandler) Update(c echo.Context) error {
	var req UpdateParkingLotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	l, err := h.service.UpdateLot(c.Request().Context(), application.UpdateLotInput{
		ID:   c.Param("id"),
		Name: req.Name, Location: req.Location, Address: req.Address,
		Capacity: req.Capacity, Tariff: req.Tariff, DayTariff: req.DayTariff,
		Latitude: req.Latitude, Longitude: req.Longitude,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toParkingLotResponse(l))
}

// Delete godoc
// @Summary 駐車場を削除
// @Tags parking-lots
// @Param id path string true "駐車場ID"
// @Success 204
// @Failure 404 {object} api.ErrorResponse
// @Router /parking-lots/{id} [delete]
func (h *ParkingLotHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteLot(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetAvailability godoc
// @Summary 指定期間の空き台数を取得
// @Description startとendを省略した場合は現在時点のスナップショットを返します
// @Tags parking-lots
// @Produce json
// @Param id path string true "駐車場ID"
// @Param start query string false "開始時刻 (RFC3339)"
// @Param end query string false "終了時刻 (RFC3339)"
// @Success 200 {object} application.Availability
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /parking-lots/{id}/availability [get]
func (h *ParkingLotHandler) GetAvailability(c echo.Context) error {
	now := time.Now()
	startAt, endAt := now, now
	var err error
	if v := c.QueryParam("start"); v != "" {
		if startAt, err = time.Parse(time.RFC3339, v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "startはRFC3339形式で指定してください")
		}
	}
	if v := c.QueryParam("end"); v != "" {
		if endAt, err = time.Parse(time.RFC3339, v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "endはRFC3339形式で指定してください")
		}
	}
	avail, err := h.service.GetAvailability(c.Request().Context(), c.Param("id"), startAt, endAt)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, avail)
}
