package feedback

import "github.com/ogurasousui/workforce-core/internal/core/apperr"

var (
	// ErrFeedbackNotFound はフィードバックが存在しない場合に返却されます。
	ErrFeedbackNotFound = apperr.NotFound("feedback.not_found", "feedback not found")
	// ErrSelfFeedback は自分自身へのフィードバック作成時に返却されます。
	ErrSelfFeedback = apperr.Validation("feedback.self_feedback", "feedback cannot target its giver")
	// ErrInvalidContent は本文の長さが 10〜5000 文字の範囲外の場合に返却されます。
	ErrInvalidContent = apperr.Validation("feedback.invalid_content", "content must be between 10 and 5000 characters")
	// ErrInvalidPolishedContent は推敲済み本文が不正な場合に返却されます。
	ErrInvalidPolishedContent = apperr.Validation("feedback.invalid_polished_content", "polished content must be between 10 and 5000 characters")
	// ErrInvalidGiver は送信者 ID が不正な場合に返却されます。
	ErrInvalidGiver = apperr.Validation("feedback.invalid_giver", "invalid giver id")
	// ErrInvalidReceiver は受信者 ID が不正な場合に返却されます。
	ErrInvalidReceiver = apperr.Validation("feedback.invalid_receiver", "invalid receiver id")
	// ErrInvalidOrganization は組織 ID が不正な場合に返却されます。
	ErrInvalidOrganization = apperr.Validation("feedback.invalid_organization", "invalid organization id")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = apperr.Validation("feedback.invalid_id", "invalid id")
	// ErrInvalidPageSize はページサイズが上限を超える場合に返却されます。
	ErrInvalidPageSize = apperr.Validation("feedback.invalid_page_size", "invalid page size")
	// ErrInvalidPageToken はページトークンが不正な場合に返却されます。
	ErrInvalidPageToken = apperr.Validation("feedback.invalid_page_token", "invalid page token")
	// ErrFeedbackDeleted は削除済みフィードバックへの操作時に返却されます。
	ErrFeedbackDeleted = apperr.DeletedState("feedback.deleted", "feedback is deleted")
)
