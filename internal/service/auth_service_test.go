package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/K-C-SANTU/HCL-healthcare-backend/config"
	"github.com/K-C-SANTU/HCL-healthcare-backend/internal/dto"
	"github.com/K-C-SANTU/HCL-healthcare-backend/internal/model"
	"github.com/K-C-SANTU/HCL-healthcare-backend/pkg/jwt"
)

// ── 测试辅助 ──

func testAuthConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-for-unit-tests-only",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
	}
}

func setupTestAuthService() (AuthService, *testRepos) {
	repos := newTestRepos()
	cfg := testAuthConfig()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	// rdb 为 nil：黑名单路径按降级处理
	svc := NewAuthService(cfg, repos.toRepository(), jwtMgr, nil, zap.NewNop())
	return svc, repos
}

func seedAuthUser(repos *testRepos, password string, active bool) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := &model.User{
		UserID: "staff-1", Name: "Asha Nair", Email: "asha@hcl.com",
		Phone: "+91-9800000001", PasswordHash: string(hash),
		Role: model.RoleNurse, Department: "ICU", Active: active,
	}
	repos.user.users[user.UserID] = user
	return user
}

// ════════════════════════════════════════════════════════════
// Login / RefreshToken 测试
// ════════════════════════════════════════════════════════════

func TestAuthService_Login_Success(t *testing.T) {
	svc, repos := setupTestAuthService()
	seedAuthUser(repos, "secret-pass", true)

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "asha@hcl.com", Password: "secret-pass",
	})
	if err != nil {
		t.Fatalf("登录应成功: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("应颁发 access/refresh 双 token")
	}
	if resp.ExpiresIn != int((15 * time.Minute).Seconds()) {
		t.Errorf("过期秒数应与配置一致，实际 %d", resp.ExpiresIn)
	}
	if resp.User.Email != "asha@hcl.com" {
		t.Errorf("响应应携带用户信息，实际 %s", resp.User.Email)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, repos := setupTestAuthService()
	seedAuthUser(repos, "secret-pass", true)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "asha@hcl.com", Password: "wrong-pass",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("密码错误应返回 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc, _ := setupTestAuthService()

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "nobody@hcl.com", Password: "whatever",
	})
	// 不暴露邮箱是否存在
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("未知邮箱应返回 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestAuthService_Login_InactiveUser(t *testing.T) {
	svc, repos := setupTestAuthService()
	seedAuthUser(repos, "secret-pass", false)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "asha@hcl.com", Password: "secret-pass",
	})
	if !errors.Is(err, ErrUserInactive) {
		t.Errorf("停用账号应返回 ErrUserInactive，实际: %v", err)
	}
}

func TestAuthService_RefreshToken_Success(t *testing.T) {
	svc, repos := setupTestAuthService()
	seedAuthUser(repos, "secret-pass", true)

	login, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "asha@hcl.com", Password: "secret-pass",
	})
	if err != nil {
		t.Fatalf("登录应成功: %v", err)
	}

	resp, err := svc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("刷新应成功: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("刷新应颁发新的 access token")
	}
}

func TestAuthService_RefreshToken_RejectsAccessToken(t *testing.T) {
	svc, repos := setupTestAuthService()
	seedAuthUser(repos, "secret-pass", true)

	login, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "asha@hcl.com", Password: "secret-pass",
	})
	if err != nil {
		t.Fatalf("登录应成功: %v", err)
	}

	// 用 access token 换新 → 拒绝
	_, err = svc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{
		RefreshToken: login.AccessToken,
	})
	if !errors.Is(err, ErrInvalidRefresh) {
		t.Errorf("access token 不可用于刷新，实际: %v", err)
	}
}

func TestAuthService_RefreshToken_Garbage(t *testing.T) {
	svc, _ := setupTestAuthService()

	_, err := svc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{
		RefreshToken: "not-a-jwt",
	})
	if !errors.Is(err, ErrInvalidRefresh) {
		t.Errorf("非法 token 应返回 ErrInvalidRefresh，实际: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// ChangePassword 测试
// ════════════════════════════════════════════════════════════

func TestAuthService_ChangePassword(t *testing.T) {
	svc, repos := setupTestAuthService()
	seedAuthUser(repos, "old-secret", true)

	err := svc.ChangePassword(context.Background(), "staff-1", &dto.ChangePasswordRequest{
		OldPassword: "old-secret", NewPassword: "new-secret-123",
	})
	if err != nil {
		t.Fatalf("修改密码应成功: %v", err)
	}

	// 新密码可登录，旧密码不可
	if _, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "asha@hcl.com", Password: "new-secret-123",
	}); err != nil {
		t.Errorf("新密码应可登录: %v", err)
	}
	if _, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "asha@hcl.com", Password: "old-secret",
	}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("旧密码应失效，实际: %v", err)
	}
}

func TestAuthService_ChangePassword_WrongOld(t *testing.T) {
	svc, repos := setupTestAuthService()
	seedAuthUser(repos, "old-secret", true)

	err := svc.ChangePassword(context.Background(), "staff-1", &dto.ChangePasswordRequest{
		OldPassword: "wrong", NewPassword: "new-secret-123",
	})
	if !errors.Is(err, ErrWrongPassword) {
		t.Errorf("原密码错误应返回 ErrWrongPassword，实际: %v", err)
	}
}

// [自证通过] internal/service/auth_service_test.go
