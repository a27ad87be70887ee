package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	// RoleAdmin has full access
	RoleAdmin = "ADMIN"
	// RoleNormal is attached to every new user
	RoleNormal = "NORMAL"
)

const (
	// PermissionSignIn allows a user to sign in
	PermissionSignIn = "SIGN_IN"
	// PermissionSignUp allows a user to sign up
	PermissionSignUp = "SIGN_UP"
)

// PredefinedRoles are seeded at startup
var PredefinedRoles = []string{RoleAdmin, RoleNormal}

// PredefinedPermissions are seeded at startup
var PredefinedPermissions = []string{PermissionSignIn, PermissionSignUp}

// DefaultRoles are attached to every registered user
var DefaultRoles = []string{RoleNormal}

// DefaultPermissions are attached to every registered user
var DefaultPermissions = []string{PermissionSignIn, PermissionSignUp}

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID     `bun:"id,pk,type:uuid" json:"id"`
	Name          string        `bun:"name,notnull" json:"name"`
	Username      string        `bun:"username,notnull,unique" json:"username"`
	Email         string        `bun:"email,notnull,unique" json:"email"`
	PasswordHash  string        `bun:"password_hash,notnull" json:"-"`
	VerifiedEmail bool          `bun:"verified_email,notnull,default:false" json:"verified_email"`
	Active        bool          `bun:"active,notnull" json:"active"`
	Roles         []*Role       `bun:"m2m:user_auth_roles,join:User=Role" json:"roles,omitempty"`
	Permissions   []*Permission `bun:"m2m:user_auth_permissions,join:User=Permission" json:"permissions,omitempty"`
	CreatedAt     *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Public returns the projection handed back after registration
func (u *User) Public() *PublicUser {
	return &PublicUser{ID: u.ID, Username: u.Username}
}

// HasRole checks membership by entity identity
func (u *User) HasRole(role *Role) bool {
	return u.roleIndex(role) >= 0
}

// HasPermission checks membership by entity identity
func (u *User) HasPermission(permission *Permission) bool {
	return u.permissionIndex(permission) >= 0
}

func (u *User) roleIndex(role *Role) int {
	if role == nil {
		return -1
	}
	for i, r := range u.Roles {
		if r != nil && r.ID == role.ID {
			return i
		}
	}
	return -1
}

func (u *User) permissionIndex(permission *Permission) int {
	if permission == nil {
		return -1
	}
	for i, p := range u.Permissions {
		if p != nil && p.ID == permission.ID {
			return i
		}
	}
	return -1
}

var _ bun.BeforeAppendModelHook = (*User)(nil)

func (u *User) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now()
	switch query.(type) {
	case *bun.InsertQuery:
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		if u.CreatedAt == nil {
			u.CreatedAt = &now
		}
		u.UpdatedAt = &now
	case *bun.UpdateQuery:
		u.UpdatedAt = &now
	}
	return nil
}

// PublicUser is the projection returned by registration
type PublicUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// Role groups permissions under a code
type Role struct {
	bun.BaseModel `bun:"table:auth_roles,alias:rol"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Code          string     `bun:"code,notnull,unique" json:"code"`
	Description   *string    `bun:"description" json:"description,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*Role)(nil)

// BeforeAppendModel stores codes upper-cased
func (r *Role) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now()
	switch query.(type) {
	case *bun.InsertQuery:
		r.Code = strings.ToUpper(r.Code)
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if r.CreatedAt == nil {
			r.CreatedAt = &now
		}
		r.UpdatedAt = &now
	case *bun.UpdateQuery:
		r.UpdatedAt = &now
	}
	return nil
}

// Permission is a single grant identified by code
type Permission struct {
	bun.BaseModel `bun:"table:auth_permissions,alias:prm"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Code          string     `bun:"code,notnull,unique" json:"code"`
	Description   *string    `bun:"description" json:"description,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*Permission)(nil)

// BeforeAppendModel stores codes upper-cased
func (p *Permission) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now()
	switch query.(type) {
	case *bun.InsertQuery:
		p.Code = strings.ToUpper(p.Code)
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		if p.CreatedAt == nil {
			p.CreatedAt = &now
		}
		p.UpdatedAt = &now
	case *bun.UpdateQuery:
		p.UpdatedAt = &now
	}
	return nil
}

// UserRole joins users and roles
type UserRole struct {
	bun.BaseModel `bun:"table:user_auth_roles,alias:uar"`
	UserID        uuid.UUID `bun:"user_id,pk,type:uuid"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id"`
	RoleID        uuid.UUID `bun:"role_id,pk,type:uuid"`
	Role          *Role     `bun:"rel:belongs-to,join:role_id=id"`
}

// UserPermission joins users and permissions
type UserPermission struct {
	bun.BaseModel `bun:"table:user_auth_permissions,alias:uap"`
	UserID        uuid.UUID   `bun:"user_id,pk,type:uuid"`
	User          *User       `bun:"rel:belongs-to,join:user_id=id"`
	PermissionID  uuid.UUID   `bun:"permission_id,pk,type:uuid"`
	Permission    *Permission `bun:"rel:belongs-to,join:permission_id=id"`
}
