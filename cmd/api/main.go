package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-parking-reservation/internal/api"
	"github.com/sanosuguru/go-parking-reservation/internal/api/handler"
	custommiddleware "github.com/sanosuguru/go-parking-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-parking-reservation/internal/application"
	"github.com/sanosuguru/go-parking-reservation/internal/config"
	"github.com/sanosuguru/go-parking-reservation/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-parking-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-parking-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-parking-reservation/internal/pkg/metrics"
	"github.com/sanosuguru/go-parking-reservation/internal/worker"
)

func main() {
	cfg := config.Load()

	// ロガー初期化
	logger.Set(logger.NewLogger(cfg.Server.Env))
	defer logger.Sync()

	// DB接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("DB接続に失敗", zap.Error(err))
	}
	defer db.Close()

	// マイグレーション
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := postgres.RunMigrations(db.DB, migrationsPath); err != nil {
		logger.Fatal("マイグレーションに失敗", zap.Error(err))
	}

	// メトリクス初期化
	m := metrics.Init()

	// Redis接続（ロック・キャッシュ）。未起動でも縮退して起動する
	var (
		lockManager    *redisinfra.LockManager
		occupancyCache *redisinfra.OccupancyCache
	)
	redisClient, err := redisinfra.NewClient(&redisinfra.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Warn("Redis接続に失敗。分散ロックとキャッシュなしで起動します", zap.Error(err))
	} else {
		defer redisClient.Close()
		lockManager = redisinfra.NewLockManager(redisClient).WithMetrics(m)
		occupancyCache = redisinfra.NewOccupancyCache(redisClient)
	}

	// リポジトリ
	lotRepo := postgres.NewLotRepository(db)
	vehicleRepo := postgres.NewVehicleRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	txManager := postgres.NewTxManager(db)

	// サービス
	lotService := application.NewParkingLotService(lotRepo, reservationRepo, occupancyCache)
	vehicleService := application.NewVehicleService(vehicleRepo)
	reservationService := application.NewReservationService(txManager, reservationRepo, lotRepo, vehicleRepo, lockManager, occupancyCache)
	sessionService := application.NewSessionService(txManager, sessionRepo, lotRepo, lockManager, occupancyCache)

	// ハンドラー
	lotHandler := handler.NewParkingLotHandler(lotService)
	vehicleHandler := handler.NewVehicleHandler(vehicleService)
	reservationHandler := handler.NewReservationHandler(reservationService, m)
	sessionHandler := handler.NewSessionHandler(sessionService, m)
	healthHandler := handler.NewHealthHandler()

	// Echo セットアップ
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	custommiddleware.SetupMiddleware(e)
	e.Use(custommiddleware.PrometheusMiddleware(m))

	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommiddleware.MetricsBasicAuth())

	v1 := e.Group("/api/v1")

	v1.POST("/parking-lots", lotHandler.Create)
	v1.GET("/parking-lots", lotHandler.List)
	v1.GET("/parking-lots/:id", lotHandler.GetByID)
	v1.PUT("/parking-lots/:id", lotHandler.Update)
	v1.DELETE("/parking-lots/:id", lotHandler.Delete)
	v1.GET("/parking-lots/:id/availability", lotHandler.GetAvailability)

	v1.POST("/parking-lots/:id/sessions/start", sessionHandler.Start)
	v1.POST("/parking-lots/:id/sessions/stop", sessionHandler.Stop)
	v1.GET("/parking-lots/:id/sessions", sessionHandler.ListByLot)
	v1.GET("/sessions/:id", sessionHandler.GetByID)

	v1.POST("/vehicles", vehicleHandler.Register)
	v1.GET("/vehicles", vehicleHandler.List)
	v1.GET("/vehicles/:id", vehicleHandler.GetByIDOrPlate)
	v1.PUT("/vehicles/:id", vehicleHandler.Update)
	v1.DELETE("/vehicles/:id", vehicleHandler.Delete)

	v1.POST("/reservations", reservationHandler.Create)
	v1.GET("/reservations", reservationHandler.GetUserReservations)
	v1.GET("/reservations/:id", reservationHandler.GetByID)
	v1.POST("/reservations/:id/confirm", reservationHandler.Confirm)
	v1.POST("/reservations/:id/cancel", reservationHandler.Cancel)

	// カウンター補正ワーカー
	workerCtx, workerCancel := context.WithCancel(context.Background())
	refresher := worker.NewReservedCounterRefresher(lotService, cfg.Worker.ReservedRefreshInterval)
	go refresher.Start(workerCtx)

	// サーバー起動
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()
	logger.Info("サーバー起動", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	workerCancel()
	refresher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
