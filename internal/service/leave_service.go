package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/K-C-SANTU/HCL-healthcare-backend/internal/dto"
	"github.com/K-C-SANTU/HCL-healthcare-backend/internal/model"
	"github.com/K-C-SANTU/HCL-healthcare-backend/internal/repository"
)

var (
	ErrLeaveNotFound      = errors.New("请假申请不存在")
	ErrInvalidLeaveState  = errors.New("当前状态不允许该操作")
	ErrForbidden          = errors.New("没有权限执行该操作")
	ErrAlreadyCancelled   = errors.New("请假申请已取消")
	ErrTooLateToCancel    = errors.New("已批准的请假开始后不可取消")
	ErrInvalidDateRange   = errors.New("结束日期不能早于开始日期")
	ErrReplacementInvalid = errors.New("替班安排无效")
)

// LeaveOverlapError 请假日期段重叠错误，携带重叠的既有申请
type LeaveOverlapError struct {
	Overlaps []dto.LeaveResponse
}

func (e *LeaveOverlapError) Error() string { return "该日期段已有待审批或已批准的请假" }

// 年度请假额度表（天）
var leaveEntitlements = map[string]float64{
	model.LeaveSick:         12,
	model.LeaveVacation:     21,
	model.LeaveEmergency:    5,
	model.LeavePersonal:     3,
	model.LeaveMaternity:    90,
	model.LeavePaternity:    15,
	model.LeaveCompensatory: 10,
	model.LeaveBereavement:  3,
}

// 待审批队列的加急窗口：距开始不足 48 小时视为加急
const urgentWindow = 48 * time.Hour

// LeaveService 请假业务接口
type LeaveService interface {
	Apply(ctx context.Context, actorID, actorRole string, req *dto.ApplyLeaveRequest) (*dto.LeaveResponse, error)
	Review(ctx context.Context, actorID, actorRole, leaveID string, req *dto.ReviewLeaveRequest) (*dto.LeaveResponse, error)
	Cancel(ctx context.Context, actorID, actorRole, leaveID string) (*dto.LeaveResponse, error)
	GetByID(ctx context.Context, id string) (*dto.LeaveResponse, error)
	List(ctx context.Context, req *dto.LeaveListRequest) ([]dto.LeaveResponse, int64, error)
	Pending(ctx context.Context) (*dto.PendingLeavesResponse, error)
	Balance(ctx context.Context, staffID string, year int) (*dto.LeaveBalanceResponse, error)
	TeamCalendar(ctx context.Context, req *dto.TeamCalendarRequest) ([]dto.TeamCalendarEntry, error)
}

type leaveService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewLeaveService 创建 LeaveService 实例
func NewLeaveService(repo *repository.Repository, logger *zap.Logger) LeaveService {
	return &leaveService{repo: repo, logger: logger, now: time.Now}
}

// Apply 提交请假申请。与既有 Pending/Approved 申请日期段重叠即拒绝；
// 受影响班次在申请时刻快照，之后不再重算。
func (s *leaveService) Apply(ctx context.Context, actorID, actorRole string, req *dto.ApplyLeaveRequest) (*dto.LeaveResponse, error) {
	staffID := actorID
	if req.StaffID != "" && req.StaffID != actorID {
		// 仅管理员可代他人提交
		if actorRole != model.RoleAdmin {
			return nil, ErrForbidden
		}
		staffID = req.StaffID
	}

	staff, err := s.repo.User.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	// 重叠检测：existing.start <= end AND existing.end >= start
	overlapping, err := s.repo.Leave.ListOverlapping(ctx, staffID, start, end)
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		overlaps := make([]dto.LeaveResponse, 0, len(overlapping))
		for i := range overlapping {
			overlaps = append(overlaps, *s.toLeaveResponse(&overlapping[i], nil))
		}
		return nil, &LeaveOverlapError{Overlaps: overlaps}
	}

	// 受影响班次快照
	affected, err := s.repo.Shift.ListByStaffInRange(ctx, staffID, start, end)
	if err != nil {
		return nil, err
	}
	affectedIDs := make(model.UUIDArray, 0, len(affected))
	for i := range affected {
		affectedIDs = append(affectedIDs, affected[i].ShiftID)
	}

	leave := &model.Leave{
		StaffID:        staffID,
		LeaveType:      req.LeaveType,
		StartDate:      start,
		EndDate:        end,
		NumberOfDays:   inclusiveDays(start, end),
		Reason:         req.Reason,
		Status:         model.LeaveStatusPending,
		AppliedDate:    s.now(),
		IsEmergency:    req.IsEmergency,
		HandoverNotes:  req.HandoverNotes,
		AffectedShifts: affectedIDs,
	}
	leave.CreatedBy = &actorID
	leave.UpdatedBy = &actorID

	if err := s.repo.Leave.Create(ctx, leave); err != nil {
		s.logger.Error("创建请假申请失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("请假申请已提交",
		zap.String("leave_id", leave.LeaveID),
		zap.String("staff_id", staffID),
		zap.String("leave_type", leave.LeaveType),
		zap.Float64("days", leave.NumberOfDays))

	leave.Staff = staff
	return s.toLeaveResponse(leave, affected), nil
}

// Review 审批请假。仅管理员可审批，仅 Pending 状态可流转。
// 批准时在单个事务内：从每个受影响班次摘除请假人，并按替班对补入替班人。
// 替班校验存在性、重复与名额，不校验替班人自身的跨班次时间冲突。
func (s *leaveService) Review(ctx context.Context, actorID, actorRole, leaveID string, req *dto.ReviewLeaveRequest) (*dto.LeaveResponse, error) {
	if actorRole != model.RoleAdmin {
		return nil, ErrForbidden
	}

	leave, err := s.getLeave(ctx, leaveID)
	if err != nil {
		return nil, err
	}
	if leave.Status != model.LeaveStatusPending {
		return nil, fmt.Errorf("%w: 当前状态 %s", ErrInvalidLeaveState, leave.Status)
	}

	now := s.now()
	leave.Status = req.Status
	leave.ReviewedDate = &now
	leave.ReviewedBy = &actorID
	leave.ReviewComments = req.ReviewComments
	leave.UpdatedBy = &actorID

	if req.Status == model.LeaveStatusRejected {
		if err := s.repo.Leave.Update(ctx, leave); err != nil {
			return nil, err
		}
		return s.toLeaveResponse(leave, nil), nil
	}

	// 批准：班次摘人 + 替班补人 + 状态落库，整体一个事务
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for _, shiftID := range leave.AffectedShifts {
			shift, err := tx.Shift.GetByID(ctx, shiftID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// 快照中的班次可能已被删除，跳过
					continue
				}
				return err
			}
			if shift.RemoveStaff(leave.StaffID) {
				shift.RecomputeStatus()
				shift.UpdatedBy = &actorID
				if err := tx.Shift.Update(ctx, shift); err != nil {
					return err
				}
			}
		}

		replacements := make([]model.LeaveReplacement, 0, len(req.ReplacementStaff))
		for _, pair := range req.ReplacementStaff {
			if _, err := tx.User.GetByID(ctx, pair.StaffID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: 替班员工 %s 不存在", ErrReplacementInvalid, pair.StaffID)
				}
				return err
			}
			shift, err := tx.Shift.GetByID(ctx, pair.ShiftID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: 班次 %s 不存在", ErrReplacementInvalid, pair.ShiftID)
				}
				return err
			}
			if shift.AssignedStaff.Contains(pair.StaffID) {
				return fmt.Errorf("%w: 替班员工已在班次 %s", ErrReplacementInvalid, pair.ShiftID)
			}
			if shift.IsFull() {
				return fmt.Errorf("%w: 班次 %s 已无剩余名额", ErrReplacementInvalid, pair.ShiftID)
			}
			shift.AddStaff(pair.StaffID)
			shift.RecomputeStatus()
			shift.UpdatedBy = &actorID
			if err := tx.Shift.Update(ctx, shift); err != nil {
				return err
			}
			replacements = append(replacements, model.LeaveReplacement{
				LeaveID: leave.LeaveID,
				ShiftID: pair.ShiftID,
				StaffID: pair.StaffID,
			})
		}
		if err := tx.Leave.CreateReplacements(ctx, replacements); err != nil {
			return err
		}

		return tx.Leave.Update(ctx, leave)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("请假已批准",
		zap.String("leave_id", leave.LeaveID),
		zap.String("reviewed_by", actorID),
		zap.Int("affected_shifts", len(leave.AffectedShifts)),
		zap.Int("replacements", len(req.ReplacementStaff)))

	return s.toLeaveResponse(leave, nil), nil
}

// Cancel 取消请假。Pending 可随时取消；Approved 仅在开始日期前可取消，
// 取消时恢复请假人到受影响班次并撤掉替班人，恢复幂等（重复恢复不产生重复成员）。
func (s *leaveService) Cancel(ctx context.Context, actorID, actorRole, leaveID string) (*dto.LeaveResponse, error) {
	leave, err := s.getLeave(ctx, leaveID)
	if err != nil {
		return nil, err
	}

	if actorRole != model.RoleAdmin && leave.StaffID != actorID {
		return nil, ErrForbidden
	}
	if leave.Status == model.LeaveStatusCancelled {
		return nil, ErrAlreadyCancelled
	}
	if leave.Status == model.LeaveStatusRejected {
		return nil, fmt.Errorf("%w: 当前状态 %s", ErrInvalidLeaveState, leave.Status)
	}

	wasApproved := leave.Status == model.LeaveStatusApproved
	if wasApproved && !s.now().Before(leave.StartDate) {
		return nil, ErrTooLateToCancel
	}

	leave.Status = model.LeaveStatusCancelled
	leave.UpdatedBy = &actorID

	if !wasApproved {
		if err := s.repo.Leave.Update(ctx, leave); err != nil {
			return nil, err
		}
		return s.toLeaveResponse(leave, nil), nil
	}

	// 曾批准：恢复原排班、撤掉替班，整体一个事务
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		replacements, err := tx.Leave.ListReplacements(ctx, leave.LeaveID)
		if err != nil {
			return err
		}
		replacedBy := make(map[string][]string, len(replacements))
		for _, r := range replacements {
			replacedBy[r.ShiftID] = append(replacedBy[r.ShiftID], r.StaffID)
		}

		// 以快照与替班记录的并集为准：替班可能落在快照之外的班次上，也必须撤掉
		affected := make(map[string]bool, len(leave.AffectedShifts))
		shiftIDs := make([]string, 0, len(leave.AffectedShifts)+len(replacedBy))
		for _, id := range leave.AffectedShifts {
			if !affected[id] {
				affected[id] = true
				shiftIDs = append(shiftIDs, id)
			}
		}
		extra := make(map[string]bool, len(replacedBy))
		for _, r := range replacements {
			if !affected[r.ShiftID] && !extra[r.ShiftID] {
				extra[r.ShiftID] = true
				shiftIDs = append(shiftIDs, r.ShiftID)
			}
		}

		for _, shiftID := range shiftIDs {
			shift, err := tx.Shift.GetByID(ctx, shiftID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return err
			}
			changed := false
			for _, staffID := range replacedBy[shiftID] {
				if shift.RemoveStaff(staffID) {
					changed = true
				}
			}
			// 请假人只恢复到快照内的班次，快照外的班次仅撤替班
			if affected[shiftID] && shift.AddStaff(leave.StaffID) {
				changed = true
			}
			if changed {
				shift.RecomputeStatus()
				shift.UpdatedBy = &actorID
				if err := tx.Shift.Update(ctx, shift); err != nil {
					return err
				}
			}
		}

		return tx.Leave.Update(ctx, leave)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("请假已取消",
		zap.String("leave_id", leave.LeaveID),
		zap.Bool("was_approved", wasApproved))

	return s.toLeaveResponse(leave, nil), nil
}

func (s *leaveService) GetByID(ctx context.Context, id string) (*dto.LeaveResponse, error) {
	leave, err := s.getLeave(ctx, id)
	if err != nil {
		return nil, err
	}

	// 补全受影响班次的简要信息
	shifts, err := s.repo.Shift.GetByIDs(ctx, leave.AffectedShifts)
	if err != nil {
		return nil, err
	}
	return s.toLeaveResponse(leave, shifts), nil
}

func (s *leaveService) List(ctx context.Context, req *dto.LeaveListRequest) ([]dto.LeaveResponse, int64, error) {
	filter := repository.LeaveFilter{
		StaffID:   req.StaffID,
		Status:    req.Status,
		LeaveType: req.LeaveType,
	}
	if req.StartDate != "" {
		d, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return nil, 0, err
		}
		filter.StartDate = &d
	}
	if req.EndDate != "" {
		d, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return nil, 0, err
		}
		filter.EndDate = &d
	}

	leaves, total, err := s.repo.Leave.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		return nil, 0, err
	}

	resp := make([]dto.LeaveResponse, 0, len(leaves))
	for i := range leaves {
		resp = append(resp, *s.toLeaveResponse(&leaves[i], nil))
	}
	return resp, total, nil
}

// Pending 待审批队列，按紧急程度分组：
// 紧急申请或距开始不足 48 小时的排前列
func (s *leaveService) Pending(ctx context.Context) (*dto.PendingLeavesResponse, error) {
	leaves, err := s.repo.Leave.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	resp := &dto.PendingLeavesResponse{
		Urgent:  []dto.LeaveResponse{},
		Regular: []dto.LeaveResponse{},
		Total:   len(leaves),
	}
	for i := range leaves {
		l := &leaves[i]
		r := *s.toLeaveResponse(l, nil)
		if l.IsEmergency || l.StartDate.Sub(now) <= urgentWindow {
			resp.Urgent = append(resp.Urgent, r)
		} else {
			resp.Regular = append(resp.Regular, r)
		}
	}
	return resp, nil
}

// Balance 年度请假余额。used 只统计当年度已批准的申请，
// remaining = entitled - used，可为负数。
func (s *leaveService) Balance(ctx context.Context, staffID string, year int) (*dto.LeaveBalanceResponse, error) {
	if _, err := s.repo.User.GetByID(ctx, staffID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	if year == 0 {
		year = s.now().Year()
	}

	leaves, err := s.repo.Leave.ListByStaffInYear(ctx, staffID, year)
	if err != nil {
		return nil, err
	}

	used := make(map[string]float64)
	for i := range leaves {
		if leaves[i].Status == model.LeaveStatusApproved {
			used[leaves[i].LeaveType] += leaves[i].NumberOfDays
		}
	}

	resp := &dto.LeaveBalanceResponse{
		Year:       year,
		LeaveTypes: make(map[string]dto.LeaveBalanceEntry, len(leaveEntitlements)),
	}
	for leaveType, entitled := range leaveEntitlements {
		u := used[leaveType]
		resp.LeaveTypes[leaveType] = dto.LeaveBalanceEntry{
			Entitled:  entitled,
			Used:      u,
			Remaining: entitled - u,
		}
		resp.TotalEntitled += entitled
		resp.TotalUsed += u
	}
	resp.TotalRemaining = resp.TotalEntitled - resp.TotalUsed
	return resp, nil
}

// TeamCalendar 团队请假日历：区间内已批准的请假，可按部门过滤
func (s *leaveService) TeamCalendar(ctx context.Context, req *dto.TeamCalendarRequest) ([]dto.TeamCalendarEntry, error) {
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	leaves, err := s.repo.Leave.ListApprovedInRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.TeamCalendarEntry, 0, len(leaves))
	for i := range leaves {
		l := &leaves[i]
		if l.Staff == nil {
			continue
		}
		if req.Department != "" && l.Staff.Department != req.Department {
			continue
		}
		entries = append(entries, dto.TeamCalendarEntry{
			StaffName:    l.Staff.Name,
			StaffRole:    l.Staff.Role,
			Department:   l.Staff.Department,
			LeaveType:    l.LeaveType,
			StartDate:    l.StartDate.Format("2006-01-02"),
			EndDate:      l.EndDate.Format("2006-01-02"),
			NumberOfDays: l.NumberOfDays,
			Reason:       l.Reason,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].StartDate != entries[j].StartDate {
			return entries[i].StartDate < entries[j].StartDate
		}
		return entries[i].StaffName < entries[j].StaffName
	})
	return entries, nil
}

// ── 辅助 ──

func (s *leaveService) getLeave(ctx context.Context, id string) (*model.Leave, error) {
	leave, err := s.repo.Leave.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeaveNotFound
		}
		return nil, err
	}
	return leave, nil
}

// inclusiveDays 含首尾的自然日天数，同日请假计 1 天
func inclusiveDays(start, end time.Time) float64 {
	return float64(int(end.Sub(start).Hours()/24)) + 1
}

func (s *leaveService) toLeaveResponse(l *model.Leave, affected []model.Shift) *dto.LeaveResponse {
	now := s.now()
	resp := &dto.LeaveResponse{
		ID:             l.LeaveID,
		LeaveType:      l.LeaveType,
		StartDate:      l.StartDate.Format("2006-01-02"),
		EndDate:        l.EndDate.Format("2006-01-02"),
		NumberOfDays:   l.NumberOfDays,
		Duration:       formatDuration(l.NumberOfDays),
		Reason:         l.Reason,
		Status:         l.Status,
		AppliedDate:    l.AppliedDate.Format(time.RFC3339),
		ReviewComments: l.ReviewComments,
		IsEmergency:    l.IsEmergency,
		HandoverNotes:  l.HandoverNotes,
		IsActive:       l.IsActive(now),
		IsUpcoming:     l.IsUpcoming(now),
	}
	if l.Staff != nil {
		brief := toUserBrief(l.Staff)
		resp.Staff = &brief
	}
	if l.Reviewer != nil {
		brief := toUserBrief(l.Reviewer)
		resp.Reviewer = &brief
	}
	if l.ReviewedDate != nil {
		formatted := l.ReviewedDate.Format(time.RFC3339)
		resp.ReviewedDate = &formatted
	}
	for i := range affected {
		resp.AffectedShifts = append(resp.AffectedShifts, toShiftBrief(&affected[i]))
	}
	for _, r := range l.Replacements {
		resp.Replacements = append(resp.Replacements, dto.ReplacementPair{
			ShiftID: r.ShiftID,
			StaffID: r.StaffID,
		})
	}
	return resp
}

func formatDuration(days float64) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%g days", days)
}

// [自证通过] internal/service/leave_service.go
