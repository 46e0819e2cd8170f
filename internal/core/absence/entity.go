package absence

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ogurasousui/workforce-core/internal/core/permission"
)

const (
	minReasonRunes = 10
	maxReasonRunes = 500
)

// Status は休暇申請の状態を表します。
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid は既知のステータスかどうかを返します。
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// AbsenceRequest は休暇申請エンティティです。
// 保留中の申請だけが変更でき、承認・却下は終端状態です。
type AbsenceRequest struct {
	id             string
	organizationID string
	userID         string
	dateRange      DateRange
	reason         string
	status         Status
	createdAt      time.Time
	updatedAt      time.Time
	deletedAt      *time.Time
}

// NewAbsenceRequestInput は休暇申請生成時の入力です。
type NewAbsenceRequestInput struct {
	OrganizationID string
	UserID         string
	StartDate      time.Time
	EndDate        time.Time
	Reason         string
}

// NewAbsenceRequest は入力を検証して保留中の休暇申請を生成します。
func NewAbsenceRequest(id string, in NewAbsenceRequestInput, now time.Time) (*AbsenceRequest, error) {
	organizationID := strings.TrimSpace(in.OrganizationID)
	if organizationID == "" {
		return nil, ErrInvalidOrganization
	}

	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, ErrInvalidUser
	}

	dateRange, err := NewDateRange(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}

	reason, err := normalizeReason(in.Reason)
	if err != nil {
		return nil, err
	}

	return &AbsenceRequest{
		id:             id,
		organizationID: organizationID,
		userID:         userID,
		dateRange:      dateRange,
		reason:         reason,
		status:         StatusPending,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Snapshot は休暇申請の全フィールド射影です。
type Snapshot struct {
	ID             string
	OrganizationID string
	UserID         string
	StartDate      time.Time
	EndDate        time.Time
	Reason         string
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// ReconstituteAbsenceRequest は永続化済みスナップショットから休暇申請を復元します。検証は行いません。
func ReconstituteAbsenceRequest(s Snapshot) *AbsenceRequest {
	return &AbsenceRequest{
		id:             s.ID,
		organizationID: s.OrganizationID,
		userID:         s.UserID,
		dateRange:      dateRangeFromStored(s.StartDate, s.EndDate),
		reason:         s.Reason,
		status:         s.Status,
		createdAt:      s.CreatedAt,
		updatedAt:      s.UpdatedAt,
		deletedAt:      copyTime(s.DeletedAt),
	}
}

// Snapshot は現在の状態の射影を返します。
func (a *AbsenceRequest) Snapshot() Snapshot {
	return Snapshot{
		ID:             a.id,
		OrganizationID: a.organizationID,
		UserID:         a.userID,
		StartDate:      a.dateRange.Start(),
		EndDate:        a.dateRange.End(),
		Reason:         a.reason,
		Status:         a.status,
		CreatedAt:      a.createdAt,
		UpdatedAt:      a.updatedAt,
		DeletedAt:      copyTime(a.deletedAt),
	}
}

// ID は申請 ID を返します。
func (a *AbsenceRequest) ID() string {
	return a.id
}

// OrganizationID は所属組織 ID を返します。
func (a *AbsenceRequest) OrganizationID() string {
	return a.organizationID
}

// UserID は申請者のユーザー ID を返します。
func (a *AbsenceRequest) UserID() string {
	return a.userID
}

// Range は休暇期間を返します。
func (a *AbsenceRequest) Range() DateRange {
	return a.dateRange
}

// Status は現在のステータスを返します。
func (a *AbsenceRequest) Status() Status {
	return a.status
}

// Deleted は論理削除済みかどうかを返します。
func (a *AbsenceRequest) Deleted() bool {
	return a.deletedAt != nil
}

// Ref は認可判定用の射影を返します。
func (a *AbsenceRequest) Ref() permission.AbsenceRef {
	return permission.AbsenceRef{
		OwnerID:        a.userID,
		OrganizationID: a.organizationID,
		Pending:        a.status == StatusPending,
	}
}

// Reschedule は期間と理由を変更します。保留中の申請のみ変更できます。
func (a *AbsenceRequest) Reschedule(startDate, endDate time.Time, reason *string, now time.Time) error {
	if a.Deleted() {
		return ErrAbsenceDeleted
	}
	if a.status != StatusPending {
		return ErrNotPending
	}

	dateRange, err := NewDateRange(startDate, endDate)
	if err != nil {
		return err
	}

	if reason != nil {
		normalized, err := normalizeReason(*reason)
		if err != nil {
			return err
		}
		a.reason = normalized
	}

	a.dateRange = dateRange
	a.updatedAt = now
	return nil
}

// Approve は申請を承認します。保留中以外の申請は決裁できません。
func (a *AbsenceRequest) Approve(now time.Time) error {
	if a.Deleted() {
		return ErrAbsenceDeleted
	}
	if a.status != StatusPending {
		return ErrAlreadyDecided
	}
	a.status = StatusApproved
	a.updatedAt = now
	return nil
}

// Reject は申請を却下します。保留中以外の申請は決裁できません。
func (a *AbsenceRequest) Reject(now time.Time) error {
	if a.Deleted() {
		return ErrAbsenceDeleted
	}
	if a.status != StatusPending {
		return ErrAlreadyDecided
	}
	a.status = StatusRejected
	a.updatedAt = now
	return nil
}

// Delete は申請を論理削除します。保留中の申請のみ削除できます。
func (a *AbsenceRequest) Delete(now time.Time) error {
	if a.Deleted() {
		return ErrAbsenceDeleted
	}
	if a.status != StatusPending {
		return ErrNotPending
	}
	deletedAt := now
	a.deletedAt = &deletedAt
	a.updatedAt = now
	return nil
}

func normalizeReason(raw string) (string, error) {
	reason := strings.TrimSpace(raw)
	length := utf8.RuneCountInString(reason)
	if length < minReasonRunes || length > maxReasonRunes {
		return "", ErrInvalidReason
	}
	return reason, nil
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
