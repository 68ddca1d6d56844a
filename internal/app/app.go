package app

import (
	"database/sql"
	"fmt"

	"go-leave/internal/config"
	"go-leave/internal/idempotency"
	"go-leave/internal/shared/connection"
	"go-leave/internal/shared/database"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const connectRetries = 5

type infra struct {
	gormDB      *gorm.DB
	sqlDB       *sql.DB
	idempStore  idempotency.Store
	kafkaWriter *kafkago.Writer
	cleanups    []func()
}

func (i *infra) close() {
	for n := len(i.cleanups) - 1; n >= 0; n-- {
		i.cleanups[n]()
	}
}

// BuildApp connects the API's infrastructure and registers every module on
// router. The returned cleanup releases connections and must run after the
// HTTP server has drained.
func BuildApp(router *gin.Engine, cfg *config.Config, logger *zap.Logger) (func(), error) {
	log := logger.Named("app")
	in := &infra{}

	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB, connectRetries)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	in.gormDB, in.sqlDB = gormDB, sqlDB
	in.cleanups = append(in.cleanups, func() { _ = sqlDB.Close() })

	if cfg.DBAutoMigrate {
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			in.close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	switch cfg.IdempotencyStore {
	case config.IdempotencyStoreMemory:
		store := idempotency.NewMemoryStore(idempotency.DefaultSweepInterval)
		in.idempStore = store
		in.cleanups = append(in.cleanups, store.Close)
		log.Warn("using in-memory idempotency store, keys are not shared across instances")
	default:
		rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, connectRetries)
		if err != nil {
			in.close()
			return nil, err
		}
		in.idempStore = idempotency.NewRedisStore(rdb)
		in.cleanups = append(in.cleanups, func() { closeRedis(rdb) })
	}

	if cfg.CalendarSync.Enabled && cfg.CalendarSync.Delivery == config.DeliveryDirect {
		writer, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, connectRetries)
		if err != nil {
			in.close()
			return nil, err
		}
		in.kafkaWriter = writer
		in.cleanups = append(in.cleanups, func() { _ = writer.Close() })
	}

	if err := registerModules(router, cfg, in, logger); err != nil {
		in.close()
		return nil, err
	}

	log.Info("application modules registered",
		zap.Bool("calendar_sync", cfg.CalendarSync.Enabled),
		zap.String("calendar_delivery", cfg.CalendarSync.Delivery),
		zap.String("idempotency_store", cfg.IdempotencyStore),
		zap.Strings("holidays", cfg.Holidays.Dates()),
	)
	return in.close, nil
}

func closeRedis(rdb *redis.Client) {
	if err := rdb.Close(); err != nil {
		zap.L().Named("app").Warn("close redis failed", zap.Error(err))
	}
}
