package absence

import "github.com/ogurasousui/workforce-core/internal/core/apperr"

var (
	// ErrAbsenceNotFound は休暇申請が存在しない場合に返却されます。
	ErrAbsenceNotFound = apperr.NotFound("absence.not_found", "absence request not found")
	// ErrInvalidDateRange は終了日が開始日より前の場合に返却されます。
	ErrInvalidDateRange = apperr.Validation("absence.invalid_date_range", "end date must not precede start date")
	// ErrRangeTooLong は期間が 365 日を超える場合に返却されます。
	ErrRangeTooLong = apperr.Validation("absence.range_too_long", "date range must not exceed 365 days")
	// ErrInvalidReason は理由の長さが 10〜500 文字の範囲外の場合に返却されます。
	ErrInvalidReason = apperr.Validation("absence.invalid_reason", "reason must be between 10 and 500 characters")
	// ErrInvalidOrganization は組織 ID が不正な場合に返却されます。
	ErrInvalidOrganization = apperr.Validation("absence.invalid_organization", "invalid organization id")
	// ErrInvalidUser はユーザー ID が不正な場合に返却されます。
	ErrInvalidUser = apperr.Validation("absence.invalid_user", "invalid user id")
	// ErrInvalidStatus はステータスが不正な場合に返却されます。
	ErrInvalidStatus = apperr.Validation("absence.invalid_status", "invalid status")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = apperr.Validation("absence.invalid_id", "invalid id")
	// ErrInvalidPageSize はページサイズが上限を超える場合に返却されます。
	ErrInvalidPageSize = apperr.Validation("absence.invalid_page_size", "invalid page size")
	// ErrInvalidPageToken はページトークンが不正な場合に返却されます。
	ErrInvalidPageToken = apperr.Validation("absence.invalid_page_token", "invalid page token")
	// ErrAbsenceDeleted は削除済み申請への操作時に返却されます。
	ErrAbsenceDeleted = apperr.DeletedState("absence.deleted", "absence request is deleted")
	// ErrAlreadyDecided は承認・却下済みの申請への決裁操作時に返却されます。
	ErrAlreadyDecided = apperr.Conflict("absence.already_decided", "absence request is already decided")
	// ErrNotPending は保留中でない申請への変更操作時に返却されます。
	ErrNotPending = apperr.Conflict("absence.not_pending", "absence request is not pending")
	// ErrOverlappingRequest は既存の申請と期間が重なる場合に返却されます。
	ErrOverlappingRequest = apperr.Conflict("absence.overlapping_request", "requested dates overlap an existing request")
	// ErrSelfApproval は申請者自身による決裁時に返却されます。
	ErrSelfApproval = apperr.PermissionDenied("absence.self_approval", "requests cannot be decided by their owner")
	// ErrBookingContention は再試行しても直列化競合が解消しない場合に返却されます。
	ErrBookingContention = apperr.Conflict("absence.booking_contention", "booking could not be completed due to concurrent requests, try again")
)
