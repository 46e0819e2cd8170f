package user

import "github.com/ogurasousui/workforce-core/internal/core/apperr"

var (
	// ErrUserNotFound はユーザーが存在しない場合に返却されます。
	ErrUserNotFound = apperr.NotFound("user.not_found", "user not found")
	// ErrEmailAlreadyExists はメールアドレス重複時に返却されます。
	ErrEmailAlreadyExists = apperr.Conflict("user.email_already_exists", "email already exists")
	// ErrInvalidEmail はメールアドレスが不正な場合に返却されます。
	ErrInvalidEmail = apperr.Validation("user.invalid_email", "invalid email")
	// ErrInvalidName は表示名が不正な場合に返却されます。
	ErrInvalidName = apperr.Validation("user.invalid_name", "invalid name")
	// ErrInvalidRole は役割が不正な場合に返却されます。
	ErrInvalidRole = apperr.Validation("user.invalid_role", "invalid role")
	// ErrInvalidSalary は給与が負値の場合に返却されます。
	ErrInvalidSalary = apperr.Validation("user.invalid_salary", "salary must not be negative")
	// ErrInvalidRating は評価が 1〜5 の範囲外の場合に返却されます。
	ErrInvalidRating = apperr.Validation("user.invalid_performance_rating", "performance rating must be between 1 and 5")
	// ErrInvalidOrganization は組織 ID が不正な場合に返却されます。
	ErrInvalidOrganization = apperr.Validation("user.invalid_organization", "invalid organization id")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = apperr.Validation("user.invalid_id", "invalid id")
	// ErrInvalidPageSize はページサイズが上限を超える場合に返却されます。
	ErrInvalidPageSize = apperr.Validation("user.invalid_page_size", "invalid page size")
	// ErrInvalidPageToken はページトークンが不正な場合に返却されます。
	ErrInvalidPageToken = apperr.Validation("user.invalid_page_token", "invalid page token")
	// ErrUserDeleted は削除済みユーザーへの操作時に返却されます。
	ErrUserDeleted = apperr.DeletedState("user.deleted", "user is deleted")
	// ErrUserNotDeleted は削除されていないユーザーの復元時に返却されます。
	ErrUserNotDeleted = apperr.Conflict("user.not_deleted", "user is not deleted")
)
