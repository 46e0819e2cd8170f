package absence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

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

// Sleeper は再試行間の待機を抽象化します。待機中のキャンセルを尊重します。
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type ctxSleeper struct{}

func (ctxSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200

	defaultRetryMaxAttempts = 3
	defaultRetryBackoff     = 25 * time.Millisecond
)

// Config は予約経路の再試行設定です。ゼロ値はデフォルトに補正されます。
type Config struct {
	RetryMaxAttempts int
	RetryBackoff     time.Duration
}

// Service は休暇申請に関するユースケースをまとめます。
// 期間の重複検査と書き込みは直列化トランザクション内で行い、
// 直列化競合は上限付きで再試行します。アプリケーション側のロックは使いません。
type Service struct {
	repo             Repository
	tx               TransactionManager
	notifier         Notifier
	clock            Clock
	ids              IDGenerator
	sleeper          Sleeper
	logger           zerolog.Logger
	retryMaxAttempts int
	retryBackoff     time.Duration
}

// UseCase は休暇申請ユースケースの公開インターフェースです。
type UseCase interface {
	SubmitAbsence(ctx context.Context, actor permission.Actor, in SubmitAbsenceInput) (*Snapshot, error)
	RescheduleAbsence(ctx context.Context, actor permission.Actor, in RescheduleAbsenceInput) (*Snapshot, error)
	ApproveAbsence(ctx context.Context, actor permission.Actor, in DecideAbsenceInput) (*Snapshot, error)
	RejectAbsence(ctx context.Context, actor permission.Actor, in DecideAbsenceInput) (*Snapshot, error)
	DeleteAbsence(ctx context.Context, actor permission.Actor, in DeleteAbsenceInput) error
	GetAbsence(ctx context.Context, actor permission.Actor, in GetAbsenceInput) (*Snapshot, error)
	ListAbsencesForUser(ctx context.Context, actor permission.Actor, in ListAbsencesInput) (*ListAbsencesResult, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, tx TransactionManager, notifier Notifier, clock Clock, ids IDGenerator, logger zerolog.Logger, cfg Config) *Service {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if clock == nil {
		clock = realClock{}
	}
	if ids == nil {
		ids = uuidGenerator{}
	}
	if cfg.RetryMaxAttempts <= 0 {
		cfg.RetryMaxAttempts = defaultRetryMaxAttempts
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	return &Service{
		repo:             repo,
		tx:               tx,
		notifier:         notifier,
		clock:            clock,
		ids:              ids,
		sleeper:          ctxSleeper{},
		logger:           logger,
		retryMaxAttempts: cfg.RetryMaxAttempts,
		retryBackoff:     cfg.RetryBackoff,
	}
}

// SubmitAbsenceInput は休暇申請作成時の入力です。申請者は actor です。
type SubmitAbsenceInput struct {
	StartDate time.Time
	EndDate   time.Time
	Reason    string
}

// RescheduleAbsenceInput は期間変更時の入力です。
type RescheduleAbsenceInput struct {
	ID        string
	StartDate time.Time
	EndDate   time.Time
	Reason    *string
}

// DecideAbsenceInput は承認・却下時の入力です。
type DecideAbsenceInput struct {
	ID string
}

// DeleteAbsenceInput は申請削除時の入力です。
type DeleteAbsenceInput struct {
	ID string
}

// GetAbsenceInput は申請取得時の入力です。
type GetAbsenceInput struct {
	ID string
}

// ListAbsencesInput は特定ユーザーの申請一覧取得時の入力です。
type ListAbsencesInput struct {
	UserID    string
	Status    *Status
	PageSize  int
	PageToken string
}

// ListAbsencesResult は一覧取得結果を表します。
type ListAbsencesResult struct {
	Absences      []Snapshot
	NextPageToken string
}

// SubmitAbsence は新しい休暇申請を作成します。
// 申請者の既存申請(保留中・承認済み)と期間が重なる場合は競合エラーを返します。
func (s *Service) SubmitAbsence(ctx context.Context, actor permission.Actor, in SubmitAbsenceInput) (*Snapshot, error) {
	if !permission.CanCreateAbsence(actor) {
		return nil, denied("absence.submit")
	}

	req, err := NewAbsenceRequest(s.ids.NewID(), NewAbsenceRequestInput{
		OrganizationID: actor.OrganizationID,
		UserID:         actor.ID,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		Reason:         in.Reason,
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}

	var stored *AbsenceRequest
	err = s.runBooking(ctx, "absence.submit", func(txCtx context.Context) error {
		if err := s.ensureNoOverlap(txCtx, req.UserID(), req.Range(), ""); err != nil {
			return err
		}

		created, err := s.repo.Create(txCtx, req)
		if err != nil {
			return err
		}

		stored = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	snapshot := stored.Snapshot()
	s.notifier.AbsenceSubmitted(ctx, snapshot)

	return &snapshot, nil
}

// RescheduleAbsence は保留中の申請の期間と理由を変更します。
// 重複検査は自分自身を除いて再実行されます。
func (s *Service) RescheduleAbsence(ctx context.Context, actor permission.Actor, in RescheduleAbsenceInput) (*Snapshot, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var updated *AbsenceRequest
	err := s.runBooking(ctx, "absence.reschedule", func(txCtx context.Context) error {
		existing, err := s.repo.FindByIDIncludingDeleted(txCtx, in.ID)
		if err != nil {
			return err
		}

		if !permission.CanEditAbsence(actor, existing.Ref()) {
			return denied("absence.reschedule")
		}

		if err := existing.Reschedule(in.StartDate, in.EndDate, in.Reason, s.clock.Now()); err != nil {
			return err
		}

		if err := s.ensureNoOverlap(txCtx, existing.UserID(), existing.Range(), existing.ID()); err != nil {
			return err
		}

		stored, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}

		updated = stored
		return nil
	})
	if err != nil {
		return nil, err
	}

	snapshot := updated.Snapshot()
	return &snapshot, nil
}

// ApproveAbsence は申請を承認します。マネージャのみ実行でき、自身の申請は決裁できません。
func (s *Service) ApproveAbsence(ctx context.Context, actor permission.Actor, in DecideAbsenceInput) (*Snapshot, error) {
	return s.decide(ctx, actor, in.ID, "absence.approve", true)
}

// RejectAbsence は申請を却下します。マネージャのみ実行でき、自身の申請は決裁できません。
func (s *Service) RejectAbsence(ctx context.Context, actor permission.Actor, in DecideAbsenceInput) (*Snapshot, error) {
	return s.decide(ctx, actor, in.ID, "absence.reject", false)
}

func (s *Service) decide(ctx context.Context, actor permission.Actor, id, operation string, approve bool) (*Snapshot, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	if !permission.CanApproveAbsence(actor) {
		return nil, denied(operation)
	}

	var updated *AbsenceRequest
	err := s.runBooking(ctx, operation, func(txCtx context.Context) error {
		existing, err := s.repo.FindByIDIncludingDeleted(txCtx, id)
		if err != nil {
			return err
		}

		if !permission.SameTenant(actor, existing.OrganizationID()) {
			return denied(operation)
		}
		if existing.UserID() == actor.ID {
			return ErrSelfApproval
		}

		now := s.clock.Now()
		if approve {
			err = existing.Approve(now)
		} else {
			err = existing.Reject(now)
		}
		if err != nil {
			return err
		}

		stored, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}

		updated = stored
		return nil
	})
	if err != nil {
		return nil, err
	}

	snapshot := updated.Snapshot()
	s.notifier.AbsenceDecided(ctx, snapshot)

	return &snapshot, nil
}

// DeleteAbsence は保留中の申請を論理削除します。
func (s *Service) DeleteAbsence(ctx context.Context, actor permission.Actor, in DeleteAbsenceInput) error {
	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	return s.runBooking(ctx, "absence.delete", func(txCtx context.Context) error {
		existing, err := s.repo.FindByIDIncludingDeleted(txCtx, in.ID)
		if err != nil {
			return err
		}

		if !permission.CanDeleteAbsence(actor, existing.Ref()) {
			return denied("absence.delete")
		}

		if err := existing.Delete(s.clock.Now()); err != nil {
			return err
		}

		if _, err := s.repo.Update(txCtx, existing); err != nil {
			return err
		}

		return nil
	})
}

// GetAbsence は ID で申請を取得します。
func (s *Service) GetAbsence(ctx context.Context, actor permission.Actor, in GetAbsenceInput) (*Snapshot, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	found, err := s.repo.FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if !permission.CanViewAbsence(actor, found.Ref()) {
		return nil, denied("absence.view")
	}

	snapshot := found.Snapshot()
	return &snapshot, nil
}

// ListAbsencesForUser は特定ユーザーの申請一覧を取得します。
// 一覧は actor の所属組織にスコープされます。
func (s *Service) ListAbsencesForUser(ctx context.Context, actor permission.Actor, in ListAbsencesInput) (*ListAbsencesResult, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, fmt.Errorf("user_id: %w", ErrInvalidID)
	}

	if !permission.CanListAbsencesForUser(actor, userID) {
		return nil, denied("absence.list_for_user")
	}

	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var statusPtr *Status
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		status := *in.Status
		statusPtr = &status
	}

	requests, nextToken, err := s.repo.List(ctx, ListAbsenceFilter{
		OrganizationID: actor.OrganizationID,
		UserID:         userID,
		Status:         statusPtr,
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		return nil, err
	}

	snapshots := make([]Snapshot, 0, len(requests))
	for _, req := range requests {
		snapshots = append(snapshots, req.Snapshot())
	}

	return &ListAbsencesResult{
		Absences:      snapshots,
		NextPageToken: nextToken,
	}, nil
}

// runBooking は fn を直列化トランザクションとして実行します。
// 直列化競合とステートメントタイムアウトだけを再試行し、それ以外のエラーは即座に返します。
// 再試行が尽きた場合は競合エラーに変換します。
func (s *Service) runBooking(ctx context.Context, operation string, fn func(context.Context) error) error {
	backoff := s.retryBackoff
	var lastErr error

	for attempt := 1; attempt <= s.retryMaxAttempts; attempt++ {
		err := s.tx.WithinSerializable(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperr.ErrSerialization) && !errors.Is(err, apperr.ErrTxTimeout) {
			return err
		}

		lastErr = err
		if attempt == s.retryMaxAttempts {
			break
		}

		s.logger.Debug().
			Str("operation", operation).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Err(err).
			Msg("serialization conflict, retrying booking transaction")

		if err := s.sleeper.Sleep(ctx, backoff); err != nil {
			return err
		}
		backoff *= 2
	}

	s.logger.Warn().
		Str("operation", operation).
		Int("attempts", s.retryMaxAttempts).
		Err(lastErr).
		Msg("booking retries exhausted")

	return ErrBookingContention.WithCause(lastErr)
}

func (s *Service) ensureNoOverlap(ctx context.Context, userID string, r DateRange, excludeID string) error {
	overlapping, err := s.repo.FindOverlapping(ctx, userID, r, excludeID)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		return ErrOverlappingRequest.WithDetail("conflicting_request_id", overlapping[0].ID())
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
