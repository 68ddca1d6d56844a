package leave

import (
	"go-leave/internal/middleware"
	"go-leave/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
) {
	leaves := r.Group("/leave-requests")
	{
		leaves.GET("", middleware.RBACAuthorize(rbacService, rbac.ResourceLeaveRequest, rbac.ActionRead), handler.List)
		leaves.GET("/:id", middleware.RBACAuthorize(rbacService, rbac.ResourceLeaveRequest, rbac.ActionRead), handler.GetByID)
		leaves.POST("", middleware.RBACAuthorize(rbacService, rbac.ResourceLeaveRequest, rbac.ActionCreate), handler.Create)
		leaves.PATCH("/:id", middleware.RBACAuthorize(rbacService, rbac.ResourceLeaveRequest, rbac.ActionUpdate), handler.UpdateStatus)
	}
}
