package leave

import (
	"hr-leave/internal/middleware"
	"hr-leave/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type RouteConfig struct {
	JWTSecret string
	Redis     *redis.Client
	// CreateRate and CreateBurst throttle POST / per user.
	CreateRate  rate.Limit
	CreateBurst int
	Logger      *zap.Logger
}

// RegisterRoutes mounts /leave and returns the authenticated group so sibling modules
// (policy) can share it.
func RegisterRoutes(r *gin.RouterGroup, handler *Handler, authz middleware.Authorizer, cfg RouteConfig) *gin.RouterGroup {
	leaves := r.Group("/leave")
	leaves.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	if cfg.Logger != nil {
		leaves.Use(middleware.ContextLogger(cfg.Logger))
	}

	create := []gin.HandlerFunc{}
	if cfg.CreateRate > 0 {
		create = append(create, middleware.RateLimitByUser(cfg.CreateRate, cfg.CreateBurst))
	}
	if cfg.Redis != nil {
		create = append(create, middleware.Idempotency(cfg.Redis, cfg.Logger))
	}
	create = append(create, handler.Create)

	{
		leaves.POST("", create...)
		leaves.GET("", handler.List)

		leaves.GET("/balance", handler.Balance)
		leaves.GET("/balance/:employeeId", handler.Balance)
		leaves.POST("/carry-over/:year", middleware.RBACAuthorize(authz, rbac.ResourceLeave, rbac.ActionAdmin), handler.CarryOver)
		leaves.GET("/calendar/:month", handler.Calendar)
		leaves.GET("/team-status", handler.TeamStatus)
		leaves.GET("/department-stats", handler.DepartmentStats)
		leaves.GET("/employee/:employeeId/log", handler.EmployeeLog)

		exceptions := leaves.Group("/exceptions")
		exceptions.POST("", handler.CreateException)
		exceptions.GET("", handler.ListExceptions)
		exceptions.GET("/:id", handler.GetException)
		exceptions.PUT("/:id", handler.UpdateException)
		exceptions.DELETE("/:id", handler.DeleteException)

		leaves.GET("/:id", handler.GetByID)
		leaves.PUT("/:id", handler.Update)
		leaves.DELETE("/:id", handler.Delete)
		leaves.POST("/:id/approve", handler.Decide)
		leaves.POST("/:id/cancel", handler.Cancel)
		leaves.POST("/:id/cancel/approve", handler.DecideCancellation)
	}
	return leaves
}
