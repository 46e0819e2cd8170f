package notification

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ogurasousui/workforce-core/internal/core/absence"
	"github.com/ogurasousui/workforce-core/internal/core/feedback"
)

// LogNotifier はドメインイベントを構造化ログとして発行する通知アダプタです。
// 配信は fire-and-forget であり、失敗しても操作の結果に影響しません。
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier は LogNotifier を生成します。
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

var (
	_ feedback.Notifier = (*LogNotifier)(nil)
	_ absence.Notifier  = (*LogNotifier)(nil)
)

// FeedbackReceived はフィードバック受領イベントを記録します。
func (n *LogNotifier) FeedbackReceived(ctx context.Context, fb feedback.Snapshot) {
	n.logger.Info().
		Str("event", "feedback.received").
		Str("feedback_id", fb.ID).
		Str("organization_id", fb.OrganizationID).
		Str("giver_id", fb.GiverID).
		Str("receiver_id", fb.ReceiverID).
		Msg("feedback received")
}

// AbsenceSubmitted は休暇申請の提出イベントを記録します。
func (n *LogNotifier) AbsenceSubmitted(ctx context.Context, req absence.Snapshot) {
	n.logger.Info().
		Str("event", "absence.submitted").
		Str("absence_id", req.ID).
		Str("organization_id", req.OrganizationID).
		Str("user_id", req.UserID).
		Str("start_date", req.StartDate.Format("2006-01-02")).
		Str("end_date", req.EndDate.Format("2006-01-02")).
		Msg("absence request submitted")
}

// AbsenceDecided は休暇申請の承認・却下イベントを記録します。
func (n *LogNotifier) AbsenceDecided(ctx context.Context, req absence.Snapshot) {
	n.logger.Info().
		Str("event", "absence.decided").
		Str("absence_id", req.ID).
		Str("organization_id", req.OrganizationID).
		Str("user_id", req.UserID).
		Str("status", string(req.Status)).
		Msg("absence request decided")
}
