package calendarsync

import (
	"go-leave/internal/middleware"
	"go-leave/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	integrations := r.Group("/integrations")
	{
		integrations.POST("/calendar-sync", middleware.RBACAuthorize(rbacService, rbac.ResourceCalendarSync, rbac.ActionCreate), handler.Enqueue)
	}
}
