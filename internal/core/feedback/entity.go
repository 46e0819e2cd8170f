package feedback

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ogurasousui/workforce-core/internal/core/permission"
)

const (
	minContentRunes = 10
	maxContentRunes = 5000
)

// Feedback は同僚間で送り合うフィードバックエンティティです。
// フィールドは非公開とし、生成は NewFeedback、永続化層からの復元は ReconstituteFeedback が担います。
type Feedback struct {
	id              string
	organizationID  string
	giverID         string
	receiverID      string
	content         string
	polishedContent string
	isPolished      bool
	createdAt       time.Time
	updatedAt       time.Time
	deletedAt       *time.Time
}

// NewFeedbackInput はフィードバック生成時の入力です。
type NewFeedbackInput struct {
	OrganizationID string
	GiverID        string
	ReceiverID     string
	Content        string
}

// NewFeedback は入力を検証して新しいフィードバックを生成します。
func NewFeedback(id string, in NewFeedbackInput, now time.Time) (*Feedback, error) {
	organizationID := strings.TrimSpace(in.OrganizationID)
	if organizationID == "" {
		return nil, ErrInvalidOrganization
	}

	giverID := strings.TrimSpace(in.GiverID)
	if giverID == "" {
		return nil, ErrInvalidGiver
	}

	receiverID := strings.TrimSpace(in.ReceiverID)
	if receiverID == "" {
		return nil, ErrInvalidReceiver
	}

	if giverID == receiverID {
		return nil, ErrSelfFeedback
	}

	content, err := normalizeContent(in.Content)
	if err != nil {
		return nil, err
	}

	return &Feedback{
		id:             id,
		organizationID: organizationID,
		giverID:        giverID,
		receiverID:     receiverID,
		content:        content,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Snapshot はフィードバックの全フィールド射影です。
type Snapshot struct {
	ID              string
	OrganizationID  string
	GiverID         string
	ReceiverID      string
	Content         string
	PolishedContent string
	IsPolished      bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// ReconstituteFeedback は永続化済みスナップショットからフィードバックを復元します。検証は行いません。
func ReconstituteFeedback(s Snapshot) *Feedback {
	return &Feedback{
		id:              s.ID,
		organizationID:  s.OrganizationID,
		giverID:         s.GiverID,
		receiverID:      s.ReceiverID,
		content:         s.Content,
		polishedContent: s.PolishedContent,
		isPolished:      s.IsPolished,
		createdAt:       s.CreatedAt,
		updatedAt:       s.UpdatedAt,
		deletedAt:       copyTime(s.DeletedAt),
	}
}

// Snapshot は現在の状態の射影を返します。
func (f *Feedback) Snapshot() Snapshot {
	return Snapshot{
		ID:              f.id,
		OrganizationID:  f.organizationID,
		GiverID:         f.giverID,
		ReceiverID:      f.receiverID,
		Content:         f.content,
		PolishedContent: f.polishedContent,
		IsPolished:      f.isPolished,
		CreatedAt:       f.createdAt,
		UpdatedAt:       f.updatedAt,
		DeletedAt:       copyTime(f.deletedAt),
	}
}

// ID はフィードバック ID を返します。
func (f *Feedback) ID() string {
	return f.id
}

// OrganizationID は所属組織 ID を返します。
func (f *Feedback) OrganizationID() string {
	return f.organizationID
}

// GiverID は送信者のユーザー ID を返します。
func (f *Feedback) GiverID() string {
	return f.giverID
}

// ReceiverID は受信者のユーザー ID を返します。
func (f *Feedback) ReceiverID() string {
	return f.receiverID
}

// Content は本文を返します。
func (f *Feedback) Content() string {
	return f.content
}

// IsPolished は推敲済み本文を保持しているかどうかを返します。
func (f *Feedback) IsPolished() bool {
	return f.isPolished
}

// Deleted は論理削除済みかどうかを返します。
func (f *Feedback) Deleted() bool {
	return f.deletedAt != nil
}

// Ref は認可判定用の射影を返します。
func (f *Feedback) Ref() permission.FeedbackRef {
	return permission.FeedbackRef{
		GiverID:        f.giverID,
		ReceiverID:     f.receiverID,
		OrganizationID: f.organizationID,
	}
}

// UpdateContent は本文を更新します。推敲済み本文は破棄されます。
func (f *Feedback) UpdateContent(content string, now time.Time) error {
	if f.Deleted() {
		return ErrFeedbackDeleted
	}

	normalized, err := normalizeContent(content)
	if err != nil {
		return err
	}

	f.content = normalized
	f.polishedContent = ""
	f.isPolished = false
	f.updatedAt = now
	return nil
}

// Polish は推敲済み本文を保存します。
func (f *Feedback) Polish(polished string, now time.Time) error {
	if f.Deleted() {
		return ErrFeedbackDeleted
	}

	normalized, err := normalizeContent(polished)
	if err != nil {
		return ErrInvalidPolishedContent
	}

	f.polishedContent = normalized
	f.isPolished = true
	f.updatedAt = now
	return nil
}

// Delete はフィードバックを論理削除します。削除済みの場合はエラーを返します。
func (f *Feedback) Delete(now time.Time) error {
	if f.Deleted() {
		return ErrFeedbackDeleted
	}
	deletedAt := now
	f.deletedAt = &deletedAt
	f.updatedAt = now
	return nil
}

func normalizeContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	length := utf8.RuneCountInString(content)
	if length < minContentRunes || length > maxContentRunes {
		return "", ErrInvalidContent
	}
	return content, nil
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
