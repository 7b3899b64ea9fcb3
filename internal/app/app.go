package app

import (
	"database/sql"
	"errors"

	"hr-leave/internal/config"
	"hr-leave/internal/jobs"
	"hr-leave/internal/observability"
	"hr-leave/internal/shared/audit"
	"hr-leave/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewLogger builds the process logger: development output unless APP_ENV=production.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Infra holds the connections shared by every binary.
type Infra struct {
	Config *config.Config
	GormDB *gorm.DB
	SQLDB  *sql.DB
	Redis  *redis.Client
}

// Connect opens Postgres and, when withRedis is set, Redis.
func Connect(cfg *config.Config, withRedis bool) (*Infra, error) {
	gormDB, err := connection.ConnectGORMWithRetry(connection.DBConfig{
		Host:     cfg.DBHost,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		Port:     cfg.DBPort,
		SSLMode:  cfg.DBSSLMode,
	}, cfg.DBRetries)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	infra := &Infra{Config: cfg, GormDB: gormDB, SQLDB: sqlDB}
	if withRedis {
		rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.DBRetries)
		if err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		infra.Redis = rdb
	}
	return infra, nil
}

func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	var errs []error
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	if i.SQLDB != nil {
		errs = append(errs, i.SQLDB.Close())
	}
	return errors.Join(errs...)
}

func asynqRedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.RedisAddr}
}

// BuildApp connects infrastructure and registers every route on router. The returned cleanup
// releases the connections and the job client.
func BuildApp(router *gin.Engine, cfg *config.Config, metrics *observability.Metrics, auditLogger audit.Logger) (func() error, error) {
	infra, err := Connect(cfg, true)
	if err != nil {
		return nil, err
	}

	jobClient := jobs.NewClient(asynqRedisOpt(cfg))
	modules, err := NewModules(infra, metrics, auditLogger, jobClient)
	if err != nil {
		_ = jobClient.Close()
		_ = infra.Close()
		return nil, err
	}

	registerModules(router, cfg, infra, modules, metrics)

	return func() error {
		return errors.Join(jobClient.Close(), infra.Close())
	}, nil
}
