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

	"github.com/ogurasousui/workforce-core/internal/core/permission"
	"github.com/ogurasousui/workforce-core/internal/core/user"
	pgdb "github.com/ogurasousui/workforce-core/internal/platform/db/postgres"
)

const (
	userUniqueViolationCode = "23505"
	userCheckViolationCode  = "23514"
)

// UserRepository は PostgreSQL を利用したユーザー永続化の実装です。
type UserRepository struct {
	pool pgdb.Queryer
}

// NewUserRepository は UserRepository を生成します。
func NewUserRepository(pool pgdb.Queryer) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create はユーザーを新規作成します。
func (r *UserRepository) Create(ctx context.Context, u *user.User) (*user.User, error) {
	s := u.Snapshot()

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO users (id, organization_id, email, name, role, department, title, bio, address, avatar_url, salary, national_id, performance_rating, created_at, updated_at, deleted_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        RETURNING id, organization_id, email, name, role, department, title, bio, address, avatar_url, salary, national_id, performance_rating, created_at, updated_at, deleted_at
    `,
		s.ID,
		s.OrganizationID,
		string(s.Email),
		s.Name,
		string(s.Role),
		s.Department,
		s.Title,
		s.Bio,
		s.Address,
		s.AvatarURL,
		nullableInt64(s.Salary),
		s.NationalID,
		nullableInt(s.PerformanceRating),
		s.CreatedAt,
		s.UpdatedAt,
		nullableTime(s.DeletedAt),
	)

	created, err := scanUser(row)
	if err != nil {
		return nil, translateUserPgError(err)
	}
	return created, nil
}

// Update はユーザー情報を更新します。論理削除と復元も本メソッドで永続化されます。
func (r *UserRepository) Update(ctx context.Context, u *user.User) (*user.User, error) {
	s := u.Snapshot()

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE users
           SET name = $1,
               role = $2,
               department = $3,
               title = $4,
               bio = $5,
               address = $6,
               avatar_url = $7,
               salary = $8,
               national_id = $9,
               performance_rating = $10,
               updated_at = $11,
               deleted_at = $12
         WHERE id = $13
        RETURNING id, organization_id, email, name, role, department, title, bio, address, avatar_url, salary, national_id, performance_rating, created_at, updated_at, deleted_at
    `,
		s.Name,
		string(s.Role),
		s.Department,
		s.Title,
		s.Bio,
		s.Address,
		s.AvatarURL,
		nullableInt64(s.Salary),
		s.NationalID,
		nullableInt(s.PerformanceRating),
		s.UpdatedAt,
		nullableTime(s.DeletedAt),
		s.ID,
	)

	updated, err := scanUser(row)
	if err != nil {
		return nil, translateUserPgError(err)
	}
	return updated, nil
}

// FindByID は ID でユーザーを取得します。論理削除済みの行は対象外です。
func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, organization_id, email, name, role, department, title, bio, address, avatar_url, salary, national_id, performance_rating, created_at, updated_at, deleted_at
          FROM users
         WHERE id = $1
           AND deleted_at IS NULL
    `, id)

	found, err := scanUser(row)
	if err != nil {
		return nil, translateUserPgError(err)
	}
	return found, nil
}

// FindByIDIncludingDeleted は論理削除済みの行も含めて ID でユーザーを取得します。
func (r *UserRepository) FindByIDIncludingDeleted(ctx context.Context, id string) (*user.User, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, organization_id, email, name, role, department, title, bio, address, avatar_url, salary, national_id, performance_rating, created_at, updated_at, deleted_at
          FROM users
         WHERE id = $1
    `, id)

	found, err := scanUser(row)
	if err != nil {
		return nil, translateUserPgError(err)
	}
	return found, nil
}

// FindByEmail は組織内のメールアドレスでユーザーを取得します。論理削除済みの行は対象外です。
func (r *UserRepository) FindByEmail(ctx context.Context, organizationID string, email user.Email) (*user.User, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, organization_id, email, name, role, department, title, bio, address, avatar_url, salary, national_id, performance_rating, created_at, updated_at, deleted_at
          FROM users
         WHERE organization_id = $1
           AND email = $2
           AND deleted_at IS NULL
    `, organizationID, string(email))

	found, err := scanUser(row)
	if err != nil {
		return nil, translateUserPgError(err)
	}
	return found, nil
}

// FindRef は認可判定用のユーザー参照を取得します。論理削除済みの行は対象外です。
func (r *UserRepository) FindRef(ctx context.Context, id string) (permission.UserRef, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, organization_id
          FROM users
         WHERE id = $1
           AND deleted_at IS NULL
    `, id)

	var ref permission.UserRef
	if err := row.Scan(&ref.ID, &ref.OrganizationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return permission.UserRef{}, user.ErrUserNotFound
		}
		return permission.UserRef{}, translateUserPgError(err)
	}
	return ref, nil
}

// List は組織内のユーザー一覧を取得します。
func (r *UserRepository) List(ctx context.Context, filter user.ListUsersFilter) ([]*user.User, string, error) {
	if strings.TrimSpace(filter.OrganizationID) == "" {
		return nil, "", user.ErrInvalidOrganization
	}
	if filter.Limit <= 0 {
		return nil, "", user.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", user.ErrInvalidPageToken
	}

	conditions := []string{"organization_id = $1", "deleted_at IS NULL"}
	args := []any{filter.OrganizationID}

	if filter.Role != nil {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "role = "+placeholder)
		args = append(args, string(*filter.Role))
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	// 次ページの有無を判定するため 1 行多く取得します。
	limitWithBuffer := filter.Limit + 1
	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, limitWithBuffer)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Offset)

	query := `
        SELECT id, organization_id, email, name, role, department, title, bio, address, avatar_url, salary, national_id, performance_rating, created_at, updated_at, deleted_at
          FROM users` + whereClause + `
         ORDER BY created_at DESC, id DESC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateUserPgError(err)
	}
	defer rows.Close()

	users := make([]*user.User, 0, filter.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, "", translateUserPgError(err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translateUserPgError(err)
	}

	var nextToken string
	if len(users) == limitWithBuffer {
		users = users[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return users, nextToken, nil
}

func scanUser(row pgx.Row) (*user.User, error) {
	var (
		id                string
		organizationID    string
		email             string
		name              string
		role              string
		department        string
		title             string
		bio               string
		address           string
		avatarURL         string
		salary            sql.NullInt64
		nationalID        string
		performanceRating sql.NullInt64
		createdAt         time.Time
		updatedAt         time.Time
		deletedAt         sql.NullTime
	)

	if err := row.Scan(
		&id,
		&organizationID,
		&email,
		&name,
		&role,
		&department,
		&title,
		&bio,
		&address,
		&avatarURL,
		&salary,
		&nationalID,
		&performanceRating,
		&createdAt,
		&updatedAt,
		&deletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}

	snapshot := user.Snapshot{
		ID:             id,
		OrganizationID: organizationID,
		Email:          user.Email(email),
		Name:           name,
		Role:           permission.Role(role),
		Department:     department,
		Title:          title,
		Bio:            bio,
		Address:        address,
		AvatarURL:      avatarURL,
		NationalID:     nationalID,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}

	if salary.Valid {
		v := salary.Int64
		snapshot.Salary = &v
	}
	if performanceRating.Valid {
		v := int(performanceRating.Int64)
		snapshot.PerformanceRating = &v
	}
	if deletedAt.Valid {
		ts := deletedAt.Time.UTC()
		snapshot.DeletedAt = &ts
	}

	return user.ReconstituteUser(snapshot), nil
}

func translateUserPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return user.ErrUserNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case userUniqueViolationCode:
			return user.ErrEmailAlreadyExists
		case userCheckViolationCode:
			switch pgErr.ConstraintName {
			case "users_salary_check":
				return user.ErrInvalidSalary
			case "users_performance_rating_check":
				return user.ErrInvalidRating
			default:
				return err
			}
		}
	}

	return err
}

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC()
}
