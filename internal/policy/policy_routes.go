package policy

import (
	"hr-leave/internal/middleware"
	"hr-leave/internal/rbac"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts /policy on an already authenticated leave group.
func RegisterRoutes(r *gin.RouterGroup, handler *Handler, authz middleware.Authorizer) {
	r.GET("/policy", handler.Get)
	r.PUT("/policy", middleware.RBACAuthorize(authz, rbac.ResourceLeave, rbac.ActionAdmin), handler.Update)
}
