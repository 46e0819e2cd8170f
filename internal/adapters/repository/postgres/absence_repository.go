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

	"github.com/ogurasousui/workforce-core/internal/core/absence"
	pgdb "github.com/ogurasousui/workforce-core/internal/platform/db/postgres"
)

const (
	absenceForeignKeyViolationCode = "23503"
	absenceCheckViolationCode      = "23514"
)

// AbsenceRepository は PostgreSQL を利用した休暇申請永続化の実装です。
type AbsenceRepository struct {
	pool pgdb.Queryer
}

// NewAbsenceRepository は AbsenceRepository を生成します。
func NewAbsenceRepository(pool pgdb.Queryer) *AbsenceRepository {
	return &AbsenceRepository{pool: pool}
}

// Create は休暇申請を新規作成します。
func (r *AbsenceRepository) Create(ctx context.Context, req *absence.AbsenceRequest) (*absence.AbsenceRequest, error) {
	s := req.Snapshot()

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO absence_requests (id, organization_id, user_id, start_date, end_date, reason, status, created_at, updated_at, deleted_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, organization_id, user_id, start_date, end_date, reason, status, created_at, updated_at, deleted_at
    `,
		s.ID,
		s.OrganizationID,
		s.UserID,
		s.StartDate,
		s.EndDate,
		s.Reason,
		string(s.Status),
		s.CreatedAt,
		s.UpdatedAt,
		nullableTime(s.DeletedAt),
	)

	created, err := scanAbsence(row)
	if err != nil {
		return nil, translateAbsencePgError(err)
	}
	return created, nil
}

// Update は休暇申請を更新します。日付変更、承認、却下、論理削除はすべて本メソッドで永続化されます。
func (r *AbsenceRepository) Update(ctx context.Context, req *absence.AbsenceRequest) (*absence.AbsenceRequest, error) {
	s := req.Snapshot()

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE absence_requests
           SET start_date = $1,
               end_date = $2,
               reason = $3,
               status = $4,
               updated_at = $5,
               deleted_at = $6
         WHERE id = $7
        RETURNING id, organization_id, user_id, start_date, end_date, reason, status, created_at, updated_at, deleted_at
    `,
		s.StartDate,
		s.EndDate,
		s.Reason,
		string(s.Status),
		s.UpdatedAt,
		nullableTime(s.DeletedAt),
		s.ID,
	)

	updated, err := scanAbsence(row)
	if err != nil {
		return nil, translateAbsencePgError(err)
	}
	return updated, nil
}

// FindByID は ID で休暇申請を取得します。論理削除済みの行は対象外です。
func (r *AbsenceRepository) FindByID(ctx context.Context, id string) (*absence.AbsenceRequest, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, organization_id, user_id, start_date, end_date, reason, status, created_at, updated_at, deleted_at
          FROM absence_requests
         WHERE id = $1
           AND deleted_at IS NULL
    `, id)

	found, err := scanAbsence(row)
	if err != nil {
		return nil, translateAbsencePgError(err)
	}
	return found, nil
}

// FindByIDIncludingDeleted は論理削除済みの行も含めて ID で休暇申請を取得します。
func (r *AbsenceRepository) FindByIDIncludingDeleted(ctx context.Context, id string) (*absence.AbsenceRequest, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, organization_id, user_id, start_date, end_date, reason, status, created_at, updated_at, deleted_at
          FROM absence_requests
         WHERE id = $1
    `, id)

	found, err := scanAbsence(row)
	if err != nil {
		return nil, translateAbsencePgError(err)
	}
	return found, nil
}

// FindOverlapping は指定ユーザーの申請のうち、指定期間と重なる pending または approved の行を取得します。
// excludeID が空でなければその ID の行を除外します。
func (r *AbsenceRepository) FindOverlapping(ctx context.Context, userID string, dr absence.DateRange, excludeID string) ([]*absence.AbsenceRequest, error) {
	conditions := []string{
		"user_id = $1",
		"deleted_at IS NULL",
		"status IN ($2, $3)",
		"start_date <= $4",
		"end_date >= $5",
	}
	args := []any{userID, string(absence.StatusPending), string(absence.StatusApproved), dr.End(), dr.Start()}

	if excludeID != "" {
		args = append(args, excludeID)
		conditions = append(conditions, "id <> $"+strconv.Itoa(len(args)))
	}

	query := `
        SELECT id, organization_id, user_id, start_date, end_date, reason, status, created_at, updated_at, deleted_at
          FROM absence_requests
         WHERE ` + strings.Join(conditions, "\n           AND ") + `
         ORDER BY start_date ASC, id ASC
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateAbsencePgError(err)
	}
	defer rows.Close()

	var requests []*absence.AbsenceRequest
	for rows.Next() {
		req, err := scanAbsence(rows)
		if err != nil {
			return nil, translateAbsencePgError(err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, translateAbsencePgError(err)
	}

	return requests, nil
}

// List は休暇申請一覧を取得します。
func (r *AbsenceRepository) List(ctx context.Context, filter absence.ListAbsenceFilter) ([]*absence.AbsenceRequest, string, error) {
	if strings.TrimSpace(filter.OrganizationID) == "" {
		return nil, "", absence.ErrInvalidOrganization
	}
	if strings.TrimSpace(filter.UserID) == "" {
		return nil, "", absence.ErrInvalidUser
	}
	if filter.Limit <= 0 {
		return nil, "", absence.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", absence.ErrInvalidPageToken
	}

	conditions := []string{"organization_id = $1", "user_id = $2", "deleted_at IS NULL"}
	args := []any{filter.OrganizationID, filter.UserID}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}

	// 次ページの有無を判定するため 1 行多く取得します。
	limitWithBuffer := filter.Limit + 1
	args = append(args, limitWithBuffer, filter.Offset)

	query := `
        SELECT id, organization_id, user_id, start_date, end_date, reason, status, created_at, updated_at, deleted_at
          FROM absence_requests
         WHERE ` + strings.Join(conditions, "\n           AND ") + `
         ORDER BY start_date DESC, id DESC
         LIMIT $` + strconv.Itoa(len(args)-1) + `
        OFFSET $` + strconv.Itoa(len(args))

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateAbsencePgError(err)
	}
	defer rows.Close()

	requests := make([]*absence.AbsenceRequest, 0, filter.Limit)
	for rows.Next() {
		req, err := scanAbsence(rows)
		if err != nil {
			return nil, "", translateAbsencePgError(err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translateAbsencePgError(err)
	}

	var nextToken string
	if len(requests) == limitWithBuffer {
		requests = requests[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return requests, nextToken, nil
}

func scanAbsence(row pgx.Row) (*absence.AbsenceRequest, error) {
	var (
		id             string
		organizationID string
		userID         string
		startDate      time.Time
		endDate        time.Time
		reason         string
		status         string
		createdAt      time.Time
		updatedAt      time.Time
		deletedAt      sql.NullTime
	)

	if err := row.Scan(
		&id,
		&organizationID,
		&userID,
		&startDate,
		&endDate,
		&reason,
		&status,
		&createdAt,
		&updatedAt,
		&deletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, absence.ErrAbsenceNotFound
		}
		return nil, err
	}

	snapshot := absence.Snapshot{
		ID:             id,
		OrganizationID: organizationID,
		UserID:         userID,
		StartDate:      startDate,
		EndDate:        endDate,
		Reason:         reason,
		Status:         absence.Status(status),
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}

	if deletedAt.Valid {
		ts := deletedAt.Time.UTC()
		snapshot.DeletedAt = &ts
	}

	return absence.ReconstituteAbsenceRequest(snapshot), nil
}

func translateAbsencePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return absence.ErrAbsenceNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case absenceForeignKeyViolationCode:
			if pgErr.ConstraintName == "absence_requests_user_id_fkey" {
				return absence.ErrInvalidUser
			}
			return err
		case absenceCheckViolationCode:
			switch pgErr.ConstraintName {
			case "absence_requests_date_order_check":
				return absence.ErrInvalidDateRange
			case "absence_requests_status_check":
				return absence.ErrInvalidStatus
			default:
				return err
			}
		}
	}

	return err
}
