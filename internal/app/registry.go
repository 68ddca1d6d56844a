package app

import (
	"context"
	"net/http"
	"time"

	"go-leave/internal/attendance"
	"go-leave/internal/calendarsync"
	"go-leave/internal/config"
	"go-leave/internal/leave"
	"go-leave/internal/leavebalance"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/middleware"
	"go-leave/internal/rbac"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	rateLimitPerSecond = 10
	rateLimitBurst     = 20
)

func registerModules(
	router *gin.Engine,
	cfg *config.Config,
	in *infra,
	logger *zap.Logger,
) error {
	// --- Repositories ---
	balanceRepo := leavebalance.NewRepository(in.gormDB)
	leaveRepo := leave.NewRepository(in.gormDB)
	attendanceRepo := attendance.NewRepository(in.gormDB)

	// --- RBAC Core ---
	rbacService, err := rbac.NewDefaultService(logger)
	if err != nil {
		return err
	}

	// --- Calendar sync ---
	dispatcher := calendarsync.NewDispatcher(in.kafkaWriterOrNil(), calendarsync.DispatcherConfig{
		Enabled: cfg.CalendarSync.Enabled,
		Topic:   cfg.CalendarSync.Topic,
		Ordered: cfg.CalendarSync.Ordered,
	}, logger)

	leaveOpts := []leave.Option{
		leave.WithLogger(logger),
		leave.WithHolidays(cfg.Holidays),
		leave.WithPaginationMaxSize(cfg.PaginationMaxSize),
	}
	if cfg.CalendarSync.Enabled {
		switch cfg.CalendarSync.Delivery {
		case config.DeliveryOutbox:
			leaveOpts = append(leaveOpts, leave.WithOutbox(kafka.NewOutboxRepository(in.sqlDB), cfg.CalendarSync.Topic))
		default:
			leaveOpts = append(leaveOpts, leave.WithCalendarSync(dispatcher, cfg.CalendarSync.EnqueueFailure == config.EnqueueFailureFail))
		}
	}

	// --- Services ---
	balanceService := leavebalance.NewService(balanceRepo, logger)
	leaveService := leave.NewService(in.sqlDB, leaveRepo, balanceRepo, leaveOpts...)
	attendanceService := attendance.NewService(in.sqlDB, attendanceRepo, cfg.Geofence, cfg.PaginationMaxSize, logger)

	// --- Handlers ---
	balanceHandler := leavebalance.NewHandler(balanceService, logger)
	leaveHandler := leave.NewHandler(leaveService, logger)
	attendanceHandler := attendance.NewHandler(attendanceService, logger)
	calendarSyncHandler := calendarsync.NewHandler(dispatcher, logger)

	router.GET("/healthz", healthHandler(in))

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	api.Use(
		middleware.AuthMiddleware(cfg.JWTSecret),
		middleware.ContextLogger(logger),
		middleware.RateLimitByUser(rateLimitPerSecond, rateLimitBurst),
		middleware.Idempotency(in.idempStore, cfg.IdempotencyTTL),
	)
	{
		leave.RegisterRoutes(api, leaveHandler, rbacService)
		leavebalance.RegisterRoutes(api, balanceHandler, rbacService)
		attendance.RegisterRoutes(api, attendanceHandler, rbacService)
		calendarsync.RegisterRoutes(api, calendarSyncHandler, rbacService)
	}

	return nil
}

// kafkaWriterOrNil keeps a nil *kafkago.Writer from turning into a non-nil
// Writer interface.
func (i *infra) kafkaWriterOrNil() calendarsync.Writer {
	if i.kafkaWriter == nil {
		return nil
	}
	return i.kafkaWriter
}

func healthHandler(in *infra) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := in.sqlDB.PingContext(ctx); err != nil {
			zap.L().Named("app.health").Warn("database ping failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
