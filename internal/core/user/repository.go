package user

import (
	"context"

	"github.com/ogurasousui/workforce-core/internal/core/permission"
)

// Repository はユーザー永続化の抽象です。
// FindByID と FindByEmail と List は論理削除済みの行を対象に含めません。
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	Update(ctx context.Context, user *User) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByIDIncludingDeleted(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, organizationID string, email Email) (*User, error)
	List(ctx context.Context, filter ListUsersFilter) ([]*User, string, error)
}

// ListUsersFilter は一覧取得用フィルタです。
type ListUsersFilter struct {
	OrganizationID string
	Role           *permission.Role
	Limit          int
	Offset         int
}
