package absence

import "context"

// Repository は休暇申請永続化の抽象です。
// FindByID と List は論理削除済みの行を対象に含めません。
type Repository interface {
	Create(ctx context.Context, req *AbsenceRequest) (*AbsenceRequest, error)
	Update(ctx context.Context, req *AbsenceRequest) (*AbsenceRequest, error)
	FindByID(ctx context.Context, id string) (*AbsenceRequest, error)
	FindByIDIncludingDeleted(ctx context.Context, id string) (*AbsenceRequest, error)
	FindOverlapping(ctx context.Context, userID string, r DateRange, excludeID string) ([]*AbsenceRequest, error)
	List(ctx context.Context, filter ListAbsenceFilter) ([]*AbsenceRequest, string, error)
}

// ListAbsenceFilter は一覧取得用フィルタです。
type ListAbsenceFilter struct {
	OrganizationID string
	UserID         string
	Status         *Status
	Limit          int
	Offset         int
}

// TransactionManager は予約経路が要求する直列化トランザクション制御の抽象です。
type TransactionManager interface {
	WithinSerializable(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinSerializable(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Notifier は休暇申請イベントの通知ポートです。
// 通知の失敗は操作の結果に影響しません。
type Notifier interface {
	AbsenceSubmitted(ctx context.Context, req Snapshot)
	AbsenceDecided(ctx context.Context, req Snapshot)
}

type noopNotifier struct{}

func (noopNotifier) AbsenceSubmitted(context.Context, Snapshot) {}

func (noopNotifier) AbsenceDecided(context.Context, Snapshot) {}
