package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ogurasousui/workforce-core/internal/core/feedback"
	pgdb "github.com/ogurasousui/workforce-core/internal/platform/db/postgres"
)

const (
	feedbackForeignKeyViolationCode = "23503"
	feedbackCheckViolationCode      = "23514"
)

// FeedbackRepository は PostgreSQL を利用したフィードバック永続化の実装です。
type FeedbackRepository struct {
	pool pgdb.Queryer
}

// NewFeedbackRepository は FeedbackRepository を生成します。
func NewFeedbackRepository(pool pgdb.Queryer) *FeedbackRepository {
	return &FeedbackRepository{pool: pool}
}

// Create はフィードバックを新規作成します。
func (r *FeedbackRepository) Create(ctx context.Context, fb *feedback.Feedback) (*feedback.Feedback, error) {
	s := fb.Snapshot()

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO feedbacks (id, organization_id, giver_id, receiver_id, content, polished_content, is_polished, created_at, updated_at, deleted_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, organization_id, giver_id, receiver_id, content, polished_content, is_polished, created_at, updated_at, deleted_at
    `,
		s.ID,
		s.OrganizationID,
		s.GiverID,
		s.ReceiverID,
		s.Content,
		s.PolishedContent,
		s.IsPolished,
		s.CreatedAt,
		s.UpdatedAt,
		nullableTime(s.DeletedAt),
	)

	created, err := scanFeedback(row)
	if err != nil {
		return nil, translateFeedbackPgError(err)
	}
	return created, nil
}

// Update はフィードバックを更新します。論理削除も本メソッドで永続化されます。
func (r *FeedbackRepository) Update(ctx context.Context, fb *feedback.Feedback) (*feedback.Feedback, error) {
	s := fb.Snapshot()

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE feedbacks
           SET content = $1,
               polished_content = $2,
               is_polished = $3,
               updated_at = $4,
               deleted_at = $5
         WHERE id = $6
        RETURNING id, organization_id, giver_id, receiver_id, content, polished_content, is_polished, created_at, updated_at, deleted_at
    `,
		s.Content,
		s.PolishedContent,
		s.IsPolished,
		s.UpdatedAt,
		nullableTime(s.DeletedAt),
		s.ID,
	)

	updated, err := scanFeedback(row)
	if err != nil {
		return nil, translateFeedbackPgError(err)
	}
	return updated, nil
}

// FindByID は ID でフィードバックを取得します。論理削除済みの行は対象外です。
func (r *FeedbackRepository) FindByID(ctx context.Context, id string) (*feedback.Feedback, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, organization_id, giver_id, receiver_id, content, polished_content, is_polished, created_at, updated_at, deleted_at
          FROM feedbacks
         WHERE id = $1
           AND deleted_at IS NULL
    `, id)

	found, err := scanFeedback(row)
	if err != nil {
		return nil, translateFeedbackPgError(err)
	}
	return found, nil
}

// FindByIDIncludingDeleted は論理削除済みの行も含めて ID でフィードバックを取得します。
func (r *FeedbackRepository) FindByIDIncludingDeleted(ctx context.Context, id string) (*feedback.Feedback, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, organization_id, giver_id, receiver_id, content, polished_content, is_polished, created_at, updated_at, deleted_at
          FROM feedbacks
         WHERE id = $1
    `, id)

	found, err := scanFeedback(row)
	if err != nil {
		return nil, translateFeedbackPgError(err)
	}
	return found, nil
}

// List は受信者基準でフィードバック一覧を取得します。
func (r *FeedbackRepository) List(ctx context.Context, filter feedback.ListFeedbackFilter) ([]*feedback.Feedback, string, error) {
	if strings.TrimSpace(filter.OrganizationID) == "" {
		return nil, "", feedback.ErrInvalidOrganization
	}
	if strings.TrimSpace(filter.ReceiverID) == "" {
		return nil, "", feedback.ErrInvalidReceiver
	}
	if filter.Limit <= 0 {
		return nil, "", feedback.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", feedback.ErrInvalidPageToken
	}

	// 次ページの有無を判定するため 1 行多く取得します。
	limitWithBuffer := filter.Limit + 1

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, organization_id, giver_id, receiver_id, content, polished_content, is_polished, created_at, updated_at, deleted_at
          FROM feedbacks
         WHERE organization_id = $1
           AND receiver_id = $2
           AND deleted_at IS NULL
         ORDER BY created_at DESC, id DESC
         LIMIT $3
        OFFSET $4
    `, filter.OrganizationID, filter.ReceiverID, limitWithBuffer, filter.Offset)
	if err != nil {
		return nil, "", translateFeedbackPgError(err)
	}
	defer rows.Close()

	feedbacks := make([]*feedback.Feedback, 0, filter.Limit)
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, "", translateFeedbackPgError(err)
		}
		feedbacks = append(feedbacks, fb)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translateFeedbackPgError(err)
	}

	var nextToken string
	if len(feedbacks) == limitWithBuffer {
		feedbacks = feedbacks[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return feedbacks, nextToken, nil
}

func scanFeedback(row pgx.Row) (*feedback.Feedback, error) {
	var (
		id              string
		organizationID  string
		giverID         string
		receiverID      string
		content         string
		polishedContent string
		isPolished      bool
		createdAt       time.Time
		updatedAt       time.Time
		deletedAt       sql.NullTime
	)

	if err := row.Scan(
		&id,
		&organizationID,
		&giverID,
		&receiverID,
		&content,
		&polishedContent,
		&isPolished,
		&createdAt,
		&updatedAt,
		&deletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, feedback.ErrFeedbackNotFound
		}
		return nil, err
	}

	snapshot := feedback.Snapshot{
		ID:              id,
		OrganizationID:  organizationID,
		GiverID:         giverID,
		ReceiverID:      receiverID,
		Content:         content,
		PolishedContent: polishedContent,
		IsPolished:      isPolished,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}

	if deletedAt.Valid {
		ts := deletedAt.Time.UTC()
		snapshot.DeletedAt = &ts
	}

	return feedback.ReconstituteFeedback(snapshot), nil
}

func translateFeedbackPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return feedback.ErrFeedbackNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case feedbackForeignKeyViolationCode:
			switch pgErr.ConstraintName {
			case "feedbacks_giver_id_fkey":
				return feedback.ErrInvalidGiver
			case "feedbacks_receiver_id_fkey":
				return feedback.ErrInvalidReceiver
			default:
				return err
			}
		case feedbackCheckViolationCode:
			if pgErr.ConstraintName == "feedbacks_no_self_feedback_check" {
				return feedback.ErrSelfFeedback
			}
			return err
		}
	}

	return err
}
