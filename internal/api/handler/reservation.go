package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-parking-reservation/internal/application"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-parking-reservation/internal/pkg/metrics"
)

type ReservationHandler struct {
	service ReservationServiceInterface
	metrics *metrics.Metrics
}

func NewReservationHandler(s ReservationServiceInterface, m *metrics.Metrics) *ReservationHandler {
	return &ReservationHandler{service: s, metrics: m}
}

type CreateReservationRequest struct {
	LicensePlate string    `json:"license_plate" validate:"required" example:"AB-123-CD"`
	LotID        string    `json:"lot_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	StartAt      time.Time `json:"start_at" validate:"required"`
	EndAt        time.Time `json:"end_at" validate:"required"`
}

type ReservationResponse struct {
	ID         string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	LotID      string    `json:"lot_id"`
	VehicleID  string    `json:"vehicle_id"`
	UserID     string    `json:"user_id" example:"user-123"`
	StartAt    time.Time `json:"start_at"`
	EndAt      time.Time `json:"end_at"`
	Status     string    `json:"status" example:"Pending"`
	TotalPrice float64   `json:"total_price" example:"40"`
	CreatedAt  time.Time `json:"created_at"`
}

func toReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID: r.ID, LotID: r.LotID, VehicleID: r.VehicleID, UserID: r.UserID,
		StartAt: r.StartAt, EndAt: r.EndAt, Status: string(r.Status),
		TotalPrice: r.TotalPrice, CreatedAt: r.CreatedAt,
	}
}

func (h *ReservationHandler) observe(status string) {
	if h.metrics != nil {
		h.metrics.ReservationsTotal.WithLabelValues(status).Inc()
	}
}

// Create godoc
// @Summary 予約を作成
// @Description 指定期間の駐車枠を予約します。車両・駐車場の空きを検証します
// @Tags reservations
// @Accept json
// @Produce json
// @Param request body CreateReservationRequest true "予約情報"
// @Success 201 {object} ReservationResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "車両の重複予約または満車"
// @Router /reservations [post]
func (h *ReservationHandler) Create(c echo.Context) error {
	var req CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	r, err := h.service.CreateReservation(c.Request().Context(), application.CreateReservationInput{
		LicensePlate: req.LicensePlate,
		LotID:        req.LotID,
		StartAt:      req.StartAt,
		EndAt:        req.EndAt,
	})
	if err != nil {
		h.observe("rejected")
		return httpError(err)
	}
	h.observe("accepted")
	return c.JSON(http.StatusCreated, toReservationResponse(r))
}

// GetByID godoc
// @Summary 予約を取得
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetByID(c echo.Context) error {
	r, err := h.service.GetReservation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// GetUserReservations godoc
// @Summary ユーザーの予約一覧を取得
// @Tags reservations
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} ReservationResponse
// @Failure 401 {object} api.ErrorResponse
// @Router /reservations [get]
func (h *ReservationHandler) GetUserReservations(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	reservations, err := h.service.GetUserReservations(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return httpError(err)
	}
	resp := make([]ReservationResponse, len(reservations))
	for i, r := range reservations {
		resp[i] = toReservationResponse(r)
	}
	return c.JSON(http.StatusOK, resp)
}

// Confirm godoc
// @Summary 予約を確定
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Router /reservations/{id}/confirm [post]
func (h *ReservationHandler) Confirm(c echo.Context) error {
	r, err := h.service.ConfirmReservation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 予約をキャンセルし、駐車枠を解放します
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Router /reservations/{id}/cancel [post]
func (h *ReservationHandler) Cancel(c echo.Context) error {
	r, err := h.service.CancelReservation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}
