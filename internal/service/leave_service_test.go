package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/K-C-SANTU/HCL-healthcare-backend/internal/dto"
	"github.com/K-C-SANTU/HCL-healthcare-backend/internal/model"
)

// ── 测试辅助 ──

// setupTestLeaveService now 固定在 2025-06-01，保证取消期限与加急判定可复现
func setupTestLeaveService() (*leaveService, *testRepos) {
	repos := newTestRepos()
	svc := NewLeaveService(repos.toRepository(), zap.NewNop()).(*leaveService)
	svc.now = func() time.Time { return mustDate("2025-06-01") }
	return svc, repos
}

// seedLeaveData 种子数据：请假人 + 替班人 + 管理员 + 请假期内的班次
func seedLeaveData(repos *testRepos) {
	repos.user.users["staff-1"] = &model.User{UserID: "staff-1", Name: "Asha Nair", Email: "asha@hcl.com", Role: model.RoleNurse, Department: "ICU", Active: true}
	repos.user.users["staff-2"] = &model.User{UserID: "staff-2", Name: "Rahul Verma", Email: "rahul@hcl.com", Role: model.RoleNurse, Department: "Emergency", Active: true}
	repos.user.users["admin-1"] = &model.User{UserID: "admin-1", Name: "Meera Iyer", Email: "meera@hcl.com", Role: model.RoleAdmin, Department: "General", Active: true}

	// staff-1 在 6/10、6/11 各有一个班
	repos.shift.shifts["shift-a"] = &model.Shift{
		ShiftID: "shift-a", ShiftType: model.ShiftMorning,
		ShiftDate: mustDate("2025-06-10"), StartTime: "08:00", EndTime: "16:00",
		RequiredStaff: 2, AssignedStaff: model.UUIDArray{"staff-1"},
		Department: "ICU", Status: model.ShiftStatusOpen,
	}
	repos.shift.shifts["shift-b"] = &model.Shift{
		ShiftID: "shift-b", ShiftType: model.ShiftNight,
		ShiftDate: mustDate("2025-06-11"), StartTime: "22:00", EndTime: "06:00",
		RequiredStaff: 2, AssignedStaff: model.UUIDArray{"staff-1"},
		Department: "ICU", Status: model.ShiftStatusOpen,
	}
}

func applyLeave(t *testing.T, svc *leaveService, start, end string) *dto.LeaveResponse {
	t.Helper()
	resp, err := svc.Apply(context.Background(), "staff-1", model.RoleNurse, &dto.ApplyLeaveRequest{
		LeaveType: model.LeaveSick, StartDate: start, EndDate: end, Reason: "发烧",
	})
	if err != nil {
		t.Fatalf("申请应成功: %v", err)
	}
	return resp
}

// ════════════════════════════════════════════════════════════
// Apply 测试
// ════════════════════════════════════════════════════════════

func TestLeaveService_Apply_SnapshotAndDays(t *testing.T) {
	svc, repos := setupTestLeaveService()
	seedLeaveData(repos)

	resp := applyLeave(t, svc, "2025-06-10", "2025-06-12")

	// 含首尾 3 天
	if resp.NumberOfDays != 3 {
		t.Errorf("6/10-6/12 应为 3 天，实际 %v", resp.NumberOfDays)
	}
	// 受影响班次快照：shift-a + shift-b
	stored := repos.leave.leaves[resp.ID]
	if len(stored.AffectedShifts) != 2 {
		t.Errorf("应快照 2 个受影响班次，实际 %d", len(stored.AffectedShifts))
	}
	if stored.Status != model.LeaveStatusPending {
		t.Errorf("新申请应为 Pending，实际 %s", stored.Status)
	}
}

func TestLeaveService_Apply_SingleDay(t *testing.T) {
	svc, repos := setupTestLeaveService()
	seedLeaveData(repos)

	resp := applyLeave(t, svc, "2025-06-10", "2025-06-10")
	if resp.NumberOfDays != 1 {
		t.Errorf("同日请假应为 1 天，实际 %v", resp.NumberOfDays)
	}
}

func TestLeaveService_Apply_Overlap(t *testing.T) {
	svc, repos := setupTestLeaveService()
	seedLeaveData(repos)

	// 既有 Approved 请假 6/11-6/13
	repos.leave.leaves["existing"] = &model.Leave{
		LeaveID: "existing", StaffID: "staff-1", LeaveType: model.LeaveVacation,
		StartDate: mustDate("2025-06-11"), EndDate: mustDate("2025-06-13"),
		NumberOfDays: 3, Status: model.LeaveStatusApproved,
	}

	_, err := svc.Apply(context.Background(), "staff-1", model.RoleNurse, &dto.ApplyLeaveRequest{
		LeaveType: model.LeaveSick, StartDate: "2025-06-10", EndDate: "2025-06-12", Reason: "发烧",
	})

	var overlapErr *LeaveOverlapError
	if !errors.As(err, &overlapErr) {
		t.Fatalf("期望 LeaveOverlapError，实际: %v", err)
	}
	if len(overlapErr.Overlaps) != 1 || overlapErr.Overlaps[0].ID != "existing" {
		t.Error("重叠报告应指向既有申请")
	}
}

func TestLeaveService_Apply_ForOther_NonAdminForbidden(t *testing.T) {
	svc, repos := setupTestLeaveService()
	seedLeaveData(repos)

	_, err := svc.Apply(context.Background(), "staff-2", model.RoleNurse, &dto.ApplyLeaveRequest{
		StaffID:   "staff-1",
		LeaveType: model.LeaveSick, StartDate: "2025-06-10", EndDate: "2025-06-10", Reason: "代人请假",
	})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("非管理员代人申请应返回 ErrForbidden，实际: %v", err)
	}
}

func TestLeaveService_Apply_InvalidDateRange(t *testing.T) {
	svc, repos := setupTestLeaveService()
	seedLeaveData(repos)

	_, err := svc.Apply(context.Background(), "staff-1", model.RoleNurse, &dto.ApplyLeaveRequest{
		LeaveType: model.LeaveSick, StartDate: "2025-06-12", EndDate: "2025-06-10", Reason: "发烧",
	})
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("期望 ErrInvalidDateRange，实际: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// Review 测试
// ════════════════════════════════════════════════════════════

func TestLeaveService_Review_NonAdminForbidden(t *testing.T) {
	svc, repos := setupTestLeaveService()
	seedLeaveData(repos)
	leave := applyLeave(t, svc, "2025-06-10", "2025-06-12")

	_, err := svc.Review(context.Background(), "staff-2", model.RoleNurse, leave.ID, &dto.ReviewLeaveRequest{
		Status: model.LeaveStatusApproved,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("非管理员审批应返回 ErrForbidden，实际: %v", err)
	}
}

func TestLeaveService_Review_ApproveRemovesStaffFromShifts(t *testing.T) {
	svc, repos := setupTestLeaveService()
	seedLeaveData(repos)
	leave := applyLeave(t, svc, "2025-06-10", "2025-06-12")

	resp, err := svc.Review(context.Background(), "admin-1", model.RoleAdmin, leave.ID, &dto.ReviewLeaveRequest{
		Status: model.LeaveStatusApproved,
	})
	if err != nil {
		t.Fatalf("审批应成功: %v", err)
	}
	if resp.Status != model.LeaveStatusApproved {
		t.Errorf("状态应为 Approved，实际 %s", resp.Status)
	}
	if repos.shift.shifts["shift-a"].AssignedStaff.Contains("staff-1") {
		t.Error("批准后请假人应从 shift-a 移除")
	}
	if repos.shift.shifts["shift-b"].AssignedStaff.Contains("staff-1") {
		t.Error("批准后请假人应从 shift-b 移除")
	}
}

func TestLeaveService_Review_WithReplacement(t *testing.T) {
	svc, repos := setupTestLeaveService()
	seedLeaveData(repos)
	leave := applyLeave(t, svc, "2025-06-10", "2025-06-12")

	_, err := svc.Review(context.Background(), "admin-1", model.RoleAdmin, leave.ID, &dto.ReviewLeaveRequest{
		Status: model.LeaveStatusApproved,
		ReplacementStaff: []dto.ReplacementPair{
			{ShiftID: "shift-a", StaffID: "staff-2"},
		},
	})
	if err != nil {
		t.Fatalf("审批应成功: %v", err)
	}
	if !repos.shift.shifts["shift-a"].AssignedStaff.Contains("staff-2") {
		t.Error("替班人应补入 shift-a")
	}
	if len(repos.leave.replacements) != 1 {
		t.Errorf("应落一条替班记录，实际 %d", len(repos.leave.replacements))
	}
}

func TestLeaveService_Review_ReplacementFullShift(t *testing.T) {
	svc, repos := setupTestLeaveService()
	seedLeaveData(repos)
	// shift-a 满员（staff-1 + staff-2，容量 2）
	repos.shift.shifts["shift-a"].AssignedStaff = model.UUIDArray{"staff-1", "staff-2"}
	repos.shift.shifts["shift-a"].Status = model.ShiftStatusFull
	repos.user.users["staff-3"] = &model.User{UserID: "staff-3", Name: "Priya Singh", Email: "priya@hcl.com", Role: model.RoleNurse, Active: true}

	leave := applyLeave(t, svc, "2025-06-12", "2025-06-12") // 不含 shift-a，保持其满员

	_, err := svc.Review(context.Background(), "admin-1", model.RoleAdmin, leave.ID, &dto.ReviewLeaveRequest{
		Status: model.LeaveStatusApproved,
		ReplacementStaff: []dto.ReplacementPair{
			{ShiftID: "shift-a", StaffID: "staff-3"},
		},
	})
	if !errors.Is(err, ErrReplacementInvalid) {
		t.Errorf("替班补入满员班次应返回 ErrReplacementInvalid，实际: %v", err)
	}
}

func TestLeaveService_Review_NotPending(t *testing.T) {
	svc, repos := setupTestLeaveService()
	seedLeaveData(repos)
	leave := applyLeave(t, svc, "2025-06-10", "2025-06-12")

	req := &dto.ReviewLeaveRequest{Status: model.LeaveStatusRejected}
	if _, err := svc.Review(context.Background(), "admin-1", model.RoleAdmin, leave.ID, req); err != nil {
		t.Fatalf("首次审批应成功: %v", err)
	}

	_, err := svc.Review(context.Background(), "admin-1", model.RoleAdmin, leave.ID, req)
	if !errors.Is(err, ErrInvalidLeaveState) {
		t.Errorf("重复审批应返回 ErrInvalidLeaveState，实际: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// Cancel 测试
// ════════════════════════════════════════════════════════════

func TestLeaveService_Cancel_Pending(t *testing.T) {
	svc, repos := setupTestLeaveService()
	seedLeaveData(repos)
	leave := applyLeave(t, svc, "2025-06-10", "2025-06-12")

	resp, err := svc.Cancel(context.Background(), "staff-1", model.RoleNurse, leave.ID)
	if err != nil {
		t.Fatalf("取消应成功: %v", err)
	}
	if resp.Status != model.LeaveStatusCancelled {
		t.Errorf("状态应为 Cancelled，实际 %s", resp.Status)
	}
	// Pending 取消不动排班
	if !repos.shift.shifts["shift-a"].AssignedStaff.Contains("staff-1") {
		t.Error("Pending 取消不应改动排班")
	}
}

func TestLeaveService_Cancel_ApprovedRestoresOnce(t *testing.T) {
	svc, repos := setupTestLeaveService()
	seedLeaveData(repos)
	leave := applyLeave(t, svc, "2025-06-10", "2025-06-12")

	_, err := svc.Review(context.Background(), "admin-1", model.RoleAdmin, leave.ID, &dto.ReviewLeaveRequest{
		Status: model.LeaveStatusApproved,
		ReplacementStaff: []dto.ReplacementPair{
			{ShiftID: "shift-a", StaffID: "staff-2"},
		},
	})
	if err != nil {
		t.Fatalf("审批应成功: %v", err)
	}

	resp, err := svc.Cancel(context.Background(), "staff-1", model.RoleNurse, leave.ID)
	if err != nil {
		t.Fatalf("开始前取消应成功: %v", err)
	}
	if resp.Status != model.LeaveStatusCancelled {
		t.Errorf("状态应为 Cancelled，实际 %s", resp.Status)
	}

	// 请假人恢复且只恢复一次，替班人撤出
	shiftA := repos.shift.shifts["shift-a"]
	count := 0
	for _, id := range shiftA.AssignedStaff {
		if id == "staff-1" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("请假人应恢复且不重复，实际出现 %d 次", count)
	}
	if shiftA.AssignedStaff.Contains("staff-2") {
		t.Error("取消后替班人应撤出 shift-a")
	}
	if !repos.shift.shifts["shift-b"].AssignedStaff.Contains("staff-1") {
		t.Error("请假人应恢复到 shift-b")
	}

	// 再次取消：幂等为错误而非二次恢复
	_, err = svc.Cancel(context.Background(), "staff-1", model.RoleNurse, leave.ID)
	if !errors.Is(err, ErrAlreadyCancelled) {
		t.Errorf("重复取消应返回 ErrAlreadyCancelled，实际: %v", err)
	}
	if len(repos.shift.shifts["shift-a"].AssignedStaff) != 1 {
		t.Error("重复取消不应再次改动排班")
	}
}

func TestLeaveService_Cancel_RemovesReplacementOutsideSnapshot(t *testing.T) {
	svc, repos := setupTestLeaveService()
	seedLeaveData(repos)
	// 仅 6/10 请假，快照只含 shift-a；替班却安排在 6/11 的 shift-b 上
	leave := applyLeave(t, svc, "2025-06-10", "2025-06-10")

	_, err := svc.Review(context.Background(), "admin-1", model.RoleAdmin, leave.ID, &dto.ReviewLeaveRequest{
		Status: model.LeaveStatusApproved,
		ReplacementStaff: []dto.ReplacementPair{
			{ShiftID: "shift-b", StaffID: "staff-2"},
		},
	})
	if err != nil {
		t.Fatalf("审批应成功: %v", err)
	}
	if !repos.shift.shifts["shift-b"].AssignedStaff.Contains("staff-2") {
		t.Fatal("替班人应补入 shift-b")
	}

	if _, err := svc.Cancel(context.Background(), "staff-1", model.RoleNurse, leave.ID); err != nil {
		t.Fatalf("取消应成功: %v", err)
	}

	// 快照外班次上的替班也要撤掉，且请假人不应被补进该班次
	shiftB := repos.shift.shifts["shift-b"]
	if shiftB.AssignedStaff.Contains("staff-2") {
		t.Error("取消后替班人应撤出快照外的 shift-b")
	}
	count := 0
	for _, id := range shiftB.AssignedStaff {
		if id == "staff-1" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("shift-b 原有成员应保持不变，staff-1 出现 %d 次", count)
	}
	if !repos.shift.shifts["shift-a"].AssignedStaff.Contains("staff-1") {
		t.Error("请假人应恢复到快照内的 shift-a")
	}
}

func TestLeaveService_Cancel_ApprovedTooLate(t *testing.T) {
	svc, repos := setupTestLeaveService()
	seedLeaveData(repos)
	leave := applyLeave(t, svc, "2025-06-10", "2025-06-12")

	_, err := svc.Review(context.Background(), "admin-1", model.RoleAdmin, leave.ID, &dto.ReviewLeaveRequest{
		Status: model.LeaveStatusApproved,
	})
	if err != nil {
		t.Fatalf("审批应成功: %v", err)
	}

	// 时间推进到开始日
	svc.now = func() time.Time { return mustDate("2025-06-10") }

	_, err = svc.Cancel(context.Background(), "staff-1", model.RoleNurse, leave.ID)
	if !errors.Is(err, ErrTooLateToCancel) {
		t.Errorf("开始后取消应返回 ErrTooLateToCancel，实际: %v", err)
	}
}

func TestLeaveService_Cancel_OthersLeaveForbidden(t *testing.T) {
	svc, repos := setupTestLeaveService()
	seedLeaveData(repos)
	leave := applyLeave(t, svc, "2025-06-10", "2025-06-12")

	_, err := svc.Cancel(context.Background(), "staff-2", model.RoleNurse, leave.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("非本人非管理员取消应返回 ErrForbidden，实际: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// Balance / Pending 测试
// ════════════════════════════════════════════════════════════

func TestLeaveService_Balance_NegativeRemaining(t *testing.T) {
	svc, repos := setupTestLeaveService()
	seedLeaveData(repos)

	// 紧急假额度 5 天，已批 7 天 → 余额 -2
	repos.leave.leaves["l1"] = &model.Leave{
		LeaveID: "l1", StaffID: "staff-1", LeaveType: model.LeaveEmergency,
		StartDate: mustDate("2025-03-01"), EndDate: mustDate("2025-03-07"),
		NumberOfDays: 7, Status: model.LeaveStatusApproved,
	}

	resp, err := svc.Balance(context.Background(), "staff-1", 2025)
	if err != nil {
		t.Fatalf("查询余额应成功: %v", err)
	}
	entry := resp.LeaveTypes[model.LeaveEmergency]
	if entry.Entitled != 5 || entry.Used != 7 {
		t.Errorf("紧急假额度/已用应为 5/7，实际 %v/%v", entry.Entitled, entry.Used)
	}
	if entry.Remaining != -2 {
		t.Errorf("余额应为 -2（不钳制），实际 %v", entry.Remaining)
	}
}

func TestLeaveService_Balance_PendingNotCounted(t *testing.T) {
	svc, repos := setupTestLeaveService()
	seedLeaveData(repos)

	repos.leave.leaves["l1"] = &model.Leave{
		LeaveID: "l1", StaffID: "staff-1", LeaveType: model.LeaveSick,
		StartDate: mustDate("2025-03-01"), EndDate: mustDate("2025-03-03"),
		NumberOfDays: 3, Status: model.LeaveStatusPending,
	}

	resp, err := svc.Balance(context.Background(), "staff-1", 2025)
	if err != nil {
		t.Fatalf("查询余额应成功: %v", err)
	}
	if resp.LeaveTypes[model.LeaveSick].Used != 0 {
		t.Errorf("Pending 不应计入已用，实际 %v", resp.LeaveTypes[model.LeaveSick].Used)
	}
}

func TestLeaveService_Pending_UrgentSplit(t *testing.T) {
	svc, repos := setupTestLeaveService()
	seedLeaveData(repos)

	// now = 6/1。6/2 开始（48 小时内）→ 加急；6/20 开始 → 常规；紧急标记 → 加急
	repos.leave.leaves["l1"] = &model.Leave{
		LeaveID: "l1", StaffID: "staff-1", LeaveType: model.LeaveSick,
		StartDate: mustDate("2025-06-02"), EndDate: mustDate("2025-06-02"),
		NumberOfDays: 1, Status: model.LeaveStatusPending,
	}
	repos.leave.leaves["l2"] = &model.Leave{
		LeaveID: "l2", StaffID: "staff-1", LeaveType: model.LeaveVacation,
		StartDate: mustDate("2025-06-20"), EndDate: mustDate("2025-06-21"),
		NumberOfDays: 2, Status: model.LeaveStatusPending,
	}
	repos.leave.leaves["l3"] = &model.Leave{
		LeaveID: "l3", StaffID: "staff-2", LeaveType: model.LeaveEmergency,
		StartDate: mustDate("2025-06-25"), EndDate: mustDate("2025-06-25"),
		NumberOfDays: 1, Status: model.LeaveStatusPending, IsEmergency: true,
	}

	resp, err := svc.Pending(context.Background())
	if err != nil {
		t.Fatalf("查询待审批应成功: %v", err)
	}
	if resp.Total != 3 {
		t.Errorf("期望 3 条待审批，实际 %d", resp.Total)
	}
	if len(resp.Urgent) != 2 {
		t.Errorf("期望 2 条加急，实际 %d", len(resp.Urgent))
	}
	if len(resp.Regular) != 1 {
		t.Errorf("期望 1 条常规，实际 %d", len(resp.Regular))
	}
}

// ════════════════════════════════════════════════════════════
// TeamCalendar 测试
// ════════════════════════════════════════════════════════════

func TestLeaveService_TeamCalendar_FilterByDepartment(t *testing.T) {
	svc, repos := setupTestLeaveService()
	seedLeaveData(repos)

	repos.leave.leaves["l1"] = &model.Leave{
		LeaveID: "l1", StaffID: "staff-1", LeaveType: model.LeaveSick,
		StartDate: mustDate("2025-06-10"), EndDate: mustDate("2025-06-11"),
		NumberOfDays: 2, Status: model.LeaveStatusApproved,
		Staff: repos.user.users["staff-1"], // ICU
	}
	repos.leave.leaves["l2"] = &model.Leave{
		LeaveID: "l2", StaffID: "staff-2", LeaveType: model.LeaveVacation,
		StartDate: mustDate("2025-06-12"), EndDate: mustDate("2025-06-13"),
		NumberOfDays: 2, Status: model.LeaveStatusApproved,
		Staff: repos.user.users["staff-2"], // Emergency
	}

	all, err := svc.TeamCalendar(context.Background(), &dto.TeamCalendarRequest{
		StartDate: "2025-06-01", EndDate: "2025-06-30",
	})
	if err != nil {
		t.Fatalf("查询应成功: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("不过滤应返回 2 条，实际 %d", len(all))
	}

	icu, err := svc.TeamCalendar(context.Background(), &dto.TeamCalendarRequest{
		StartDate: "2025-06-01", EndDate: "2025-06-30", Department: "ICU",
	})
	if err != nil {
		t.Fatalf("查询应成功: %v", err)
	}
	if len(icu) != 1 {
		t.Fatalf("按 ICU 过滤应返回 1 条，实际 %d", len(icu))
	}
	if icu[0].Department != "ICU" {
		t.Errorf("条目科室应为 ICU，实际 %s", icu[0].Department)
	}
}

// [自证通过] internal/service/leave_service_test.go
