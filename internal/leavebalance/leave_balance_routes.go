package leavebalance

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
	balances := r.Group("/leave-balances")
	{
		balances.GET("", middleware.RBACAuthorize(rbacService, rbac.ResourceLeaveBalance, rbac.ActionRead), handler.GetBalances)
	}
}
