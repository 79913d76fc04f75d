package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-parking-reservation/internal/application"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/session"
	"github.com/sanosuguru/go-parking-reservation/internal/pkg/metrics"
)

type SessionHandler struct {
	service SessionServiceInterface
	metrics *metrics.Metrics
}

func NewSessionHandler(s SessionServiceInterface, m *metrics.Metrics) *SessionHandler {
	return &SessionHandler{service: s, metrics: m}
}

type StartSessionRequest struct {
	LicensePlate string  `json:"license_plate" validate:"required" example:"AB-123-CD"`
	UserID       *string `json:"user_id,omitempty" example:"user-123"`
}

type StopSessionRequest struct {
	LicensePlate string  `json:"license_plate" validate:"required" example:"AB-123-CD"`
	UserID       *string `json:"user_id,omitempty" example:"user-123"`
}

type SessionResponse struct {
	ID            string     `json:"id"`
	LotID         string     `json:"lot_id"`
	LicensePlate  string     `json:"license_plate" example:"AB123CD"`
	UserID        *string    `json:"user_id,omitempty"`
	StartAt       time.Time  `json:"start_at"`
	EndAt         *time.Time `json:"end_at,omitempty"`
	PaymentStatus string     `json:"payment_status" example:"Unpaid"`
	Price         *float64   `json:"price,omitempty"`
}

type StopSessionResponse struct {
	Session           SessionResponse `json:"session"`
	DurationInMinutes int             `json:"duration_in_minutes" example:"300"`
	CalculatedCost    float64         `json:"calculated_cost" example:"12.5"`
}

func toSessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{
		ID: s.ID, LotID: s.LotID, LicensePlate: s.LicensePlate, UserID: s.UserID,
		StartAt: s.StartAt, EndAt: s.EndAt,
		PaymentStatus: string(s.PaymentStatus), Price: s.Price,
	}
}

func (h *SessionHandler) observe(operation, status string) {
	if h.metrics != nil {
		h.metrics.SessionOperationsTotal.WithLabelValues(operation, status).Inc()
	}
}

// Start godoc
// @Summary 入庫セッションを開始
// @Description 予約なしの入庫を受け付けます。満車または同一ナンバーの入庫中は拒否されます
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "駐車場ID"
// @Param request body StartSessionRequest true "入庫情報"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "満車または入庫中"
// @Router /parking-lots/{id}/sessions/start [post]
func (h *SessionHandler) Start(c echo.Context) error {
	var req StartSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	s, err := h.service.StartSession(c.Request().Context(), application.StartSessionInput{
		LotID:        c.Param("id"),
		LicensePlate: req.LicensePlate,
		UserID:       req.UserID,
	})
	if err != nil {
		h.observe("start", "rejected")
		return httpError(err)
	}
	h.observe("start", "accepted")
	if h.metrics != nil {
		h.metrics.OpenSessions.WithLabelValues(s.LotID).Inc()
	}
	return c.JSON(http.StatusCreated, toSessionResponse(s))
}

// Stop godoc
// @Summary 入庫セッションを終了
// @Description オープンなセッションを精算します。料金は時間課金と日額上限の小さい方です
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "駐車場ID"
// @Param request body StopSessionRequest true "出庫情報"
// @Success 200 {object} StopSessionResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse "オープンなセッションがない"
// @Router /parking-lots/{id}/sessions/stop [post]
func (h *SessionHandler) Stop(c echo.Context) error {
	var req StopSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	s, billing, err := h.service.StopSession(c.Request().Context(), application.StopSessionInput{
		LotID:        c.Param("id"),
		LicensePlate: req.LicensePlate,
		UserID:       req.UserID,
	})
	if err != nil {
		h.observe("stop", "rejected")
		return httpError(err)
	}
	h.observe("stop", "accepted")
	if h.metrics != nil {
		h.metrics.OpenSessions.WithLabelValues(s.LotID).Dec()
	}
	return c.JSON(http.StatusOK, StopSessionResponse{
		Session:           toSessionResponse(s),
		DurationInMinutes: billing.DurationInMinutes,
		CalculatedCost:    billing.CalculatedCost,
	})
}

// GetByID godoc
// @Summary セッションを取得
// @Tags sessions
// @Produce json
// @Param id path string true "セッションID"
// @Success 200 {object} SessionResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetByID(c echo.Context) error {
	s, err := h.service.GetSession(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(s))
}

// ListByLot godoc
// @Summary 駐車場のセッション一覧を取得
// @Tags sessions
// @Produce json
// @Param id path string true "駐車場ID"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} SessionResponse
// @Router /parking-lots/{id}/sessions [get]
func (h *SessionHandler) ListByLot(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	sessions, err := h.service.GetLotSessions(c.Request().Context(), c.Param("id"), limit, offset)
	if err != nil {
		return httpError(err)
	}
	resp := make([]SessionResponse, len(sessions))
	for i, s := range sessions {
		resp[i] = toSessionResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}
