package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-api/internal/middleware"
	"github.com/noah-isme/hostel-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix. Nil handlers are skipped.
type Handlers struct {
	Auth      *AuthHandler
	Rooms     *RoomHandler
	Students  *StudentHandler
	Fees      *FeeHandler
	Transfers *RoomTransferHandler
	Dashboard *DashboardHandler
	Reports   *ReportHandler
}

// RouteOptions carries the middleware shared by protected routes.
type RouteOptions struct {
	Authenticate gin.HandlerFunc
	Audit        middleware.AuditWriter
	Logger       *zap.Logger
}

// RegisterRoutes mounts the hostel API on the given group.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, opts RouteOptions) {
	admin := middleware.RequireAdmin()
	anyRole := middleware.RequireAnyRole()

	if h.Auth != nil {
		auth := api.Group("/auth")
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		secured := auth.Group("", opts.Authenticate)
		secured.POST("/logout", h.Auth.Logout)
		secured.POST("/change-password", h.Auth.ChangePassword)
		secured.GET("/me", h.Auth.Me)
	}

	protected := api.Group("", opts.Authenticate)

	if h.Rooms != nil {
		rooms := protected.Group("/rooms")
		rooms.GET("", anyRole, h.Rooms.List)
		rooms.GET("/types/all", anyRole, h.Rooms.ListTypes)
		rooms.GET("/types/:id", anyRole, h.Rooms.GetType)
		rooms.POST("/types", admin, h.Rooms.CreateType)
		rooms.PUT("/types/:id", admin, h.Rooms.UpdateType)
		rooms.DELETE("/types/:id", admin, h.Rooms.DeleteType)
		rooms.POST("/allocate", admin, h.Rooms.Allocate)
		rooms.POST("/vacate", admin, h.Rooms.Vacate)
		rooms.GET("/:id", anyRole, h.Rooms.Get)
		rooms.POST("", admin, h.Rooms.Create)
		rooms.PUT("/:id", admin, h.Rooms.Update)
		rooms.PATCH("/:id/maintenance", admin, h.Rooms.SetMaintenance)
		rooms.DELETE("/:id", admin, h.Rooms.Delete)
	}

	if h.Students != nil {
		students := protected.Group("/students")
		students.GET("", admin, h.Students.List)
		students.GET("/:id", anyRole, h.Students.Get)
		students.POST("", admin, h.Students.Create)
		students.PUT("/:id", admin, h.Students.Update)
		students.DELETE("/:id", admin, h.Students.Delete)
	}

	if h.Fees != nil {
		fees := protected.Group("/fees")
		fees.GET("", anyRole, h.Fees.List)
		fees.GET("/calculate/:studentId", anyRole, h.Fees.Calculate)
		fees.POST("/overdue/sweep", admin, h.Fees.SweepOverdue)
		fees.GET("/:id", anyRole, h.Fees.Get)
		fees.POST("", admin, h.Fees.Create)
		fees.PUT("/:id", admin, h.Fees.Update)
		fees.POST("/:id/pay", admin, h.Fees.Pay)
		fees.DELETE("/:id", admin, h.Fees.Delete)
	}

	if h.Transfers != nil {
		transfers := protected.Group("/room-transfers")
		transfers.GET("", anyRole, h.Transfers.List)
		transfers.POST("", anyRole, h.Transfers.Create)
		transfers.GET("/:id", anyRole, h.Transfers.Get)
		transfers.PUT("/:id", anyRole, h.Transfers.Update)
		transfers.DELETE("/:id", admin, h.Transfers.Delete)
		transfers.POST("/:id/approve", admin, h.Transfers.Approve)
		transfers.POST("/:id/reject", admin, h.Transfers.Reject)
	}

	if h.Dashboard != nil {
		protected.GET("/dashboard/occupancy", admin, middleware.WithResponseMeta(), h.Dashboard.Occupancy)
	}

	if h.Reports != nil {
		protected.GET("/reports/fees", admin, middleware.Audit(opts.Audit, opts.Logger, models.AuditActionReportExport, "fee_report"), h.Reports.FeeLedger)
	}
}
