package feedback

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ogurasousui/workforce-core/internal/core/apperr"
	"github.com/ogurasousui/workforce-core/internal/core/permission"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// IDGenerator は新規エンティティの ID を払い出します。
type IDGenerator interface {
	NewID() string
}

type uuidGenerator struct{}

func (uuidGenerator) NewID() string {
	return uuid.NewString()
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

// Service はフィードバックに関するユースケースをまとめます。
type Service struct {
	repo     Repository
	users    UserDirectory
	notifier Notifier
	clock    Clock
	ids      IDGenerator
}

// UseCase はフィードバックユースケースの公開インターフェースです。
type UseCase interface {
	GiveFeedback(ctx context.Context, actor permission.Actor, in GiveFeedbackInput) (*Snapshot, error)
	GetFeedback(ctx context.Context, actor permission.Actor, in GetFeedbackInput) (*Snapshot, error)
	ListFeedbackForUser(ctx context.Context, actor permission.Actor, in ListFeedbackInput) (*ListFeedbackResult, error)
	UpdateContent(ctx context.Context, actor permission.Actor, in UpdateContentInput) (*Snapshot, error)
	PolishFeedback(ctx context.Context, actor permission.Actor, in PolishFeedbackInput) (*Snapshot, error)
	DeleteFeedback(ctx context.Context, actor permission.Actor, in DeleteFeedbackInput) error
}

// NewService は Service を生成します。
func NewService(repo Repository, users UserDirectory, notifier Notifier, clock Clock, ids IDGenerator) *Service {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if clock == nil {
		clock = realClock{}
	}
	if ids == nil {
		ids = uuidGenerator{}
	}
	return &Service{repo: repo, users: users, notifier: notifier, clock: clock, ids: ids}
}

// GiveFeedbackInput はフィードバック作成時の入力です。送信者は actor です。
type GiveFeedbackInput struct {
	ReceiverID string
	Content    string
}

// GetFeedbackInput はフィードバック取得時の入力です。
type GetFeedbackInput struct {
	ID string
}

// ListFeedbackInput は特定ユーザー宛て一覧取得時の入力です。
type ListFeedbackInput struct {
	UserID    string
	PageSize  int
	PageToken string
}

// ListFeedbackResult は一覧取得結果を表します。
type ListFeedbackResult struct {
	Feedbacks     []Snapshot
	NextPageToken string
}

// UpdateContentInput は本文更新時の入力です。
type UpdateContentInput struct {
	ID      string
	Content string
}

// PolishFeedbackInput は推敲済み本文保存時の入力です。
type PolishFeedbackInput struct {
	ID              string
	PolishedContent string
}

// DeleteFeedbackInput はフィードバック削除時の入力です。
type DeleteFeedbackInput struct {
	ID string
}

// GiveFeedback は actor から受信者へのフィードバックを作成します。
// 作成に成功した場合は受領通知を発行します。通知の失敗は結果に影響しません。
func (s *Service) GiveFeedback(ctx context.Context, actor permission.Actor, in GiveFeedbackInput) (*Snapshot, error) {
	receiverID := strings.TrimSpace(in.ReceiverID)
	if receiverID == "" {
		return nil, ErrInvalidReceiver
	}

	if actor.ID == receiverID {
		return nil, ErrSelfFeedback
	}

	receiver, err := s.users.FindRef(ctx, receiverID)
	if err != nil {
		return nil, err
	}

	if !permission.CanGiveFeedback(actor, receiver) {
		return nil, denied("feedback.give")
	}

	created, err := NewFeedback(s.ids.NewID(), NewFeedbackInput{
		OrganizationID: receiver.OrganizationID,
		GiverID:        actor.ID,
		ReceiverID:     receiver.ID,
		Content:        in.Content,
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.Create(ctx, created)
	if err != nil {
		return nil, err
	}

	snapshot := stored.Snapshot()
	s.notifier.FeedbackReceived(ctx, snapshot)

	return &snapshot, nil
}

// GetFeedback は ID でフィードバックを取得します。
func (s *Service) GetFeedback(ctx context.Context, actor permission.Actor, in GetFeedbackInput) (*Snapshot, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	found, err := s.repo.FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if !permission.CanViewFeedback(actor, found.Ref()) {
		return nil, denied("feedback.view")
	}

	snapshot := found.Snapshot()
	return &snapshot, nil
}

// ListFeedbackForUser は特定ユーザーが受信したフィードバックの一覧を取得します。
func (s *Service) ListFeedbackForUser(ctx context.Context, actor permission.Actor, in ListFeedbackInput) (*ListFeedbackResult, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, fmt.Errorf("user_id: %w", ErrInvalidID)
	}

	target, err := s.users.FindRef(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !permission.CanViewFeedbackForUser(actor, target) {
		return nil, denied("feedback.view_for_user")
	}

	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	feedbacks, nextToken, err := s.repo.List(ctx, ListFeedbackFilter{
		OrganizationID: target.OrganizationID,
		ReceiverID:     target.ID,
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		return nil, err
	}

	snapshots := make([]Snapshot, 0, len(feedbacks))
	for _, fb := range feedbacks {
		snapshots = append(snapshots, fb.Snapshot())
	}

	return &ListFeedbackResult{
		Feedbacks:     snapshots,
		NextPageToken: nextToken,
	}, nil
}

// UpdateContent は本文を更新します。推敲済み本文は破棄されます。
func (s *Service) UpdateContent(ctx context.Context, actor permission.Actor, in UpdateContentInput) (*Snapshot, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	existing, err := s.repo.FindByIDIncludingDeleted(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if !permission.CanEditFeedback(actor, existing.Ref()) {
		return nil, denied("feedback.update")
	}

	if err := existing.UpdateContent(in.Content, s.clock.Now()); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}

	snapshot := updated.Snapshot()
	return &snapshot, nil
}

// PolishFeedback は推敲済み本文を保存します。
func (s *Service) PolishFeedback(ctx context.Context, actor permission.Actor, in PolishFeedbackInput) (*Snapshot, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	existing, err := s.repo.FindByIDIncludingDeleted(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if !permission.CanEditFeedback(actor, existing.Ref()) {
		return nil, denied("feedback.polish")
	}

	if err := existing.Polish(in.PolishedContent, s.clock.Now()); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}

	snapshot := updated.Snapshot()
	return &snapshot, nil
}

// DeleteFeedback はフィードバックを論理削除します。
func (s *Service) DeleteFeedback(ctx context.Context, actor permission.Actor, in DeleteFeedbackInput) error {
	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	existing, err := s.repo.FindByIDIncludingDeleted(ctx, in.ID)
	if err != nil {
		return err
	}

	if !permission.CanDeleteFeedback(actor, existing.Ref()) {
		return denied("feedback.delete")
	}

	if err := existing.Delete(s.clock.Now()); err != nil {
		return err
	}

	if _, err := s.repo.Update(ctx, existing); err != nil {
		return err
	}

	return nil
}

func denied(operation string) error {
	return apperr.PermissionDenied("permission.denied", "operation not allowed").WithDetail("operation", operation)
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
