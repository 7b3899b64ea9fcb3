package app

import (
	"context"
	"net/http"
	"time"

	"hr-leave/internal/config"
	"hr-leave/internal/employee"
	"hr-leave/internal/leave"
	"hr-leave/internal/messaging/kafka"
	"hr-leave/internal/middleware"
	"hr-leave/internal/observability"
	"hr-leave/internal/policy"
	"hr-leave/internal/rbac"
	"hr-leave/internal/rbac/infra"
	"hr-leave/internal/shared/apperror"
	"hr-leave/internal/shared/audit"
	"hr-leave/internal/shared/counter"
	"hr-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Modules is the wired service graph shared by the api, worker, consumer and leavectl.
type Modules struct {
	Deps        leave.Deps
	Leave       leave.Service
	Reports     leave.ReportService
	CarryOver   leave.CarryOverService
	Exceptions  leave.ExceptionService
	Initializer *leave.BalanceInitializer
	Policy      policy.Service
	RBAC        rbac.Service
}

// NewModules wires repositories and services. enqueuer may be nil, in which case asynchronous
// carry-over is unavailable.
func NewModules(in *Infra, metrics *observability.Metrics, auditLogger audit.Logger, enqueuer leave.CarryOverEnqueuer) (*Modules, error) {
	cfg := in.Config
	logger := zap.L()

	// --- Repositories ---
	leaveRepo := leave.NewRepository(in.GormDB)
	exceptionRepo := leave.NewExceptionRepository(in.GormDB)
	employeeRepo := employee.NewRepository(in.GormDB)
	counterRepo := counter.NewRepository(in.GormDB)
	outboxRepo := kafka.NewOutboxRepository(in.SQLDB)
	policyRepo := policy.NewRepository(in.GormDB)
	rbacRepo := rbac.NewRepository(in.GormDB)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer("")
	if err != nil {
		return nil, err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer, cfg.RBACReloadInterval, logger)

	// --- Policy ---
	defaults, err := policy.LoadFile(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	policyService := policy.NewService(policyRepo, defaults, in.Redis, cfg.PolicyCacheTTL, logger)

	deps := leave.Deps{
		DB:         in.SQLDB,
		Leaves:     leaveRepo,
		Exceptions: exceptionRepo,
		Employees:  employeeRepo,
		Counter:    counterRepo,
		Outbox:     outboxRepo,
		Policy:     policyService,
		Authorizer: rbacService,
		Audit:      auditLogger,
	}
	if metrics != nil {
		deps.Metrics = metrics
	}

	// --- Services ---
	return &Modules{
		Deps:        deps,
		Leave:       leave.NewService(deps, logger),
		Reports:     leave.NewReportService(deps, logger),
		CarryOver:   leave.NewCarryOverService(deps, enqueuer, logger),
		Exceptions:  leave.NewExceptionService(deps, logger),
		Initializer: leave.NewBalanceInitializer(deps, logger),
		Policy:      policyService,
		RBAC:        rbacService,
	}, nil
}

func registerModules(
	router *gin.Engine,
	cfg *config.Config,
	in *Infra,
	modules *Modules,
	metrics *observability.Metrics,
) {
	logger := zap.L()

	router.Use(middleware.RequestID())
	if cfg.MetricsEnabled {
		router.Use(metrics.GinMiddleware())
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	router.GET("/healthz", healthz(in))

	// --- Handlers ---
	leaveHandler := leave.NewHandler(modules.Leave, modules.Reports, modules.CarryOver, modules.Exceptions, logger)
	policyHandler := policy.NewHandler(modules.Policy, logger)
	rbacHandler := rbac.NewHandler(modules.RBAC, logger)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		leaveGroup := leave.RegisterRoutes(api, leaveHandler, modules.RBAC, leave.RouteConfig{
			JWTSecret:   cfg.JWTSecret,
			Redis:       in.Redis,
			CreateRate:  rate.Limit(cfg.RateLimitPerSecond),
			CreateBurst: cfg.RateLimitBurst,
			Logger:      logger,
		})
		policy.RegisterRoutes(leaveGroup, policyHandler, modules.RBAC)

		secured := api.Group("", middleware.AuthMiddleware(cfg.JWTSecret))
		rbac.RegisterRoutes(secured, rbacHandler)
	}
}

func healthz(in *Infra) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"database": "ok"}
		healthy := true
		if err := in.SQLDB.PingContext(ctx); err != nil {
			status["database"] = err.Error()
			healthy = false
		}
		if in.Redis != nil {
			status["redis"] = "ok"
			if err := in.Redis.Ping(ctx).Err(); err != nil {
				status["redis"] = err.Error()
				healthy = false
			}
		}

		if !healthy {
			response.Error(c, http.StatusServiceUnavailable, apperror.CodeServiceUnavailable, "dependency check failed", status)
			return
		}
		response.Success(c, http.StatusOK, status, nil)
	}
}
