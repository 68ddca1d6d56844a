package attendance

import (
	"go-leave/internal/middleware"
	"go-leave/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rbacService rbac.Service) {
	attendance := r.Group("/attendance")
	{
		attendance.GET("/logs", middleware.RBACAuthorize(rbacService, rbac.ResourceAttendance, rbac.ActionRead), h.List)
		attendance.POST("/clock-in", middleware.RBACAuthorize(rbacService, rbac.ResourceAttendance, rbac.ActionClock), h.ClockIn)
		attendance.POST("/clock-out", middleware.RBACAuthorize(rbacService, rbac.ResourceAttendance, rbac.ActionClock), h.ClockOut)
		attendance.POST("/users/:userId/force-clock-out", middleware.RBACAuthorize(rbacService, rbac.ResourceAttendance, rbac.ActionForce), h.ForceClockOut)
	}
}
