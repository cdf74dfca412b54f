package dto

// ── 请假模块 DTO ──

// ApplyLeaveRequest 请假申请请求
// staff_id 仅管理员可代他人提交，普通员工固定为本人
type ApplyLeaveRequest struct {
	StaffID       string `json:"staff_id"       binding:"omitempty,uuid"`
	LeaveType     string `json:"leave_type"     binding:"required,oneof='Sick Leave' 'Vacation Leave' 'Emergency Leave' 'Maternity Leave' 'Paternity Leave' 'Personal Leave' 'Compensatory Leave' 'Bereavement Leave'"`
	StartDate     string `json:"start_date"     binding:"required,datetime=2006-01-02"`
	EndDate       string `json:"end_date"       binding:"required,datetime=2006-01-02"`
	Reason        string `json:"reason"         binding:"required,max=1000"`
	IsEmergency   bool   `json:"is_emergency"`
	HandoverNotes string `json:"handover_notes" binding:"omitempty,max=1000"`
}

// ReplacementPair 替班 (班次, 员工) 对
type ReplacementPair struct {
	ShiftID string `json:"shift_id" binding:"required,uuid"`
	StaffID string `json:"staff_id" binding:"required,uuid"`
}

// ReviewLeaveRequest 请假审批请求
type ReviewLeaveRequest struct {
	Status           string            `json:"status"            binding:"required,oneof=Approved Rejected"`
	ReviewComments   string            `json:"review_comments"   binding:"omitempty,max=500"`
	ReplacementStaff []ReplacementPair `json:"replacement_staff" binding:"omitempty,dive"`
}

// LeaveListRequest 请假列表查询参数
type LeaveListRequest struct {
	PaginationRequest
	StaffID   string `form:"staff_id"   binding:"omitempty,uuid"`
	Status    string `form:"status"     binding:"omitempty,oneof=Pending Approved Rejected Cancelled"`
	LeaveType string `form:"leave_type" binding:"omitempty,oneof='Sick Leave' 'Vacation Leave' 'Emergency Leave' 'Maternity Leave' 'Paternity Leave' 'Personal Leave' 'Compensatory Leave' 'Bereavement Leave'"`
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date"   binding:"omitempty,datetime=2006-01-02"`
}

// TeamCalendarRequest 团队请假日历查询参数
type TeamCalendarRequest struct {
	StartDate  string `form:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate    string `form:"end_date"   binding:"required,datetime=2006-01-02"`
	Department string `form:"department" binding:"omitempty,oneof=General Emergency ICU Surgery Pediatrics Maternity"`
}

// LeaveResponse 请假申请响应
type LeaveResponse struct {
	ID             string            `json:"id"`
	Staff          *UserBrief        `json:"staff,omitempty"`
	LeaveType      string            `json:"leave_type"`
	StartDate      string            `json:"start_date"`
	EndDate        string            `json:"end_date"`
	NumberOfDays   float64           `json:"number_of_days"`
	Duration       string            `json:"duration"`
	Reason         string            `json:"reason"`
	Status         string            `json:"status"`
	AppliedDate    string            `json:"applied_date"`
	ReviewedDate   *string           `json:"reviewed_date,omitempty"`
	Reviewer       *UserBrief        `json:"reviewer,omitempty"`
	ReviewComments string            `json:"review_comments,omitempty"`
	IsEmergency    bool              `json:"is_emergency"`
	HandoverNotes  string            `json:"handover_notes,omitempty"`
	IsActive       bool              `json:"is_active"`
	IsUpcoming     bool              `json:"is_upcoming"`
	AffectedShifts []ShiftBrief      `json:"affected_shifts,omitempty"`
	Replacements   []ReplacementPair `json:"replacements,omitempty"`
}

// PendingLeavesResponse 待审批队列响应（按紧急程度分组）
type PendingLeavesResponse struct {
	Urgent  []LeaveResponse `json:"urgent"`
	Regular []LeaveResponse `json:"regular"`
	Total   int             `json:"total"`
}

// LeaveBalanceEntry 单类型请假余额
type LeaveBalanceEntry struct {
	Entitled  float64 `json:"entitled"`
	Used      float64 `json:"used"`
	Remaining float64 `json:"remaining"` // 可为负数，不做钳制
}

// LeaveBalanceResponse 年度请假余额响应
type LeaveBalanceResponse struct {
	Year           int                          `json:"year"`
	TotalEntitled  float64                      `json:"total_entitled"`
	TotalUsed      float64                      `json:"total_used"`
	TotalRemaining float64                      `json:"total_remaining"`
	LeaveTypes     map[string]LeaveBalanceEntry `json:"leave_types"`
}

// TeamCalendarEntry 团队请假日历条目
type TeamCalendarEntry struct {
	StaffName    string  `json:"staff_name"`
	StaffRole    string  `json:"staff_role"`
	Department   string  `json:"department"`
	LeaveType    string  `json:"leave_type"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	NumberOfDays float64 `json:"number_of_days"`
	Reason       string  `json:"reason"`
}

// [自证通过] internal/dto/leave.go
