package feedback

import (
	"context"

	"github.com/ogurasousui/workforce-core/internal/core/permission"
)

// Repository はフィードバック永続化の抽象です。
// FindByID と List は論理削除済みの行を対象に含めません。
type Repository interface {
	Create(ctx context.Context, fb *Feedback) (*Feedback, error)
	Update(ctx context.Context, fb *Feedback) (*Feedback, error)
	FindByID(ctx context.Context, id string) (*Feedback, error)
	FindByIDIncludingDeleted(ctx context.Context, id string) (*Feedback, error)
	List(ctx context.Context, filter ListFeedbackFilter) ([]*Feedback, string, error)
}

// ListFeedbackFilter は受信者基準の一覧取得用フィルタです。
type ListFeedbackFilter struct {
	OrganizationID string
	ReceiverID     string
	Limit          int
	Offset         int
}

// UserDirectory は参加者の存在確認に使うユーザー参照ポートです。
type UserDirectory interface {
	FindRef(ctx context.Context, id string) (permission.UserRef, error)
}

// Notifier はフィードバック受領イベントの通知ポートです。
// 通知の失敗は操作の結果に影響しません。
type Notifier interface {
	FeedbackReceived(ctx context.Context, fb Snapshot)
}

type noopNotifier struct{}

func (noopNotifier) FeedbackReceived(context.Context, Snapshot) {}
