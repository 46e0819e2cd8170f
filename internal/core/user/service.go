package user

import (
	"context"
	"errors"
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

// Service はユーザーに関するユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
	ids   IDGenerator
}

// UseCase はユーザーユースケースの公開インターフェースです。
type UseCase interface {
	CreateUser(ctx context.Context, actor permission.Actor, in CreateUserInput) (*Snapshot, error)
	GetUser(ctx context.Context, actor permission.Actor, in GetUserInput) (*Snapshot, error)
	UpdateProfile(ctx context.Context, actor permission.Actor, in UpdateProfileInput) (*Snapshot, error)
	UpdateSensitive(ctx context.Context, actor permission.Actor, in UpdateSensitiveInput) (*Snapshot, error)
	DeleteUser(ctx context.Context, actor permission.Actor, in DeleteUserInput) error
	RestoreUser(ctx context.Context, actor permission.Actor, in RestoreUserInput) (*Snapshot, error)
	ListUsers(ctx context.Context, actor permission.Actor, in ListUsersInput) (*ListUsersResult, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, ids IDGenerator) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if ids == nil {
		ids = uuidGenerator{}
	}
	return &Service{repo: repo, clock: clock, ids: ids}
}

// CreateUserInput はユーザー作成時の入力です。
type CreateUserInput struct {
	OrganizationID    string
	Email             string
	Name              string
	Role              permission.Role
	Department        string
	Title             string
	Bio               string
	Address           string
	AvatarURL         string
	Salary            *int64
	NationalID        string
	PerformanceRating *int
}

// GetUserInput はユーザー取得時の入力です。
type GetUserInput struct {
	ID string
}

// UpdateProfileInput はプロフィール更新時の入力です。
type UpdateProfileInput struct {
	ID         string
	Name       *string
	Department *string
	Title      *string
	Bio        *string
	Address    *string
	AvatarURL  *string
}

// UpdateSensitiveInput は機微フィールド更新時の入力です。
type UpdateSensitiveInput struct {
	ID                string
	Salary            *int64
	NationalID        *string
	PerformanceRating *int
	Role              *permission.Role
}

// DeleteUserInput はユーザー削除時の入力です。
type DeleteUserInput struct {
	ID string
}

// RestoreUserInput は削除取り消し時の入力です。
type RestoreUserInput struct {
	ID string
}

// ListUsersInput は一覧取得時の入力です。一覧は actor の所属組織に限定されます。
type ListUsersInput struct {
	PageSize  int
	PageToken string
	Role      *permission.Role
}

// ListUsersResult は一覧取得結果を表します。
type ListUsersResult struct {
	Users         []Snapshot
	NextPageToken string
}

// CreateUser は新しいユーザーを登録します。マネージャのみ実行できます。
func (s *Service) CreateUser(ctx context.Context, actor permission.Actor, in CreateUserInput) (*Snapshot, error) {
	organizationID := strings.TrimSpace(in.OrganizationID)
	if !permission.CanCreateUser(actor, organizationID) {
		return nil, denied("user.create")
	}

	created, err := NewUser(s.ids.NewID(), NewUserInput{
		OrganizationID:    organizationID,
		Email:             in.Email,
		Name:              in.Name,
		Role:              in.Role,
		Department:        in.Department,
		Title:             in.Title,
		Bio:               in.Bio,
		Address:           in.Address,
		AvatarURL:         in.AvatarURL,
		Salary:            in.Salary,
		NationalID:        in.NationalID,
		PerformanceRating: in.PerformanceRating,
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.ensureEmailNotExists(ctx, created.OrganizationID(), created.Email()); err != nil {
		return nil, err
	}

	stored, err := s.repo.Create(ctx, created)
	if err != nil {
		return nil, err
	}

	return s.projected(actor, stored), nil
}

// GetUser は ID でユーザーを取得します。閲覧権限が無い機微フィールドは取り除かれます。
func (s *Service) GetUser(ctx context.Context, actor permission.Actor, in GetUserInput) (*Snapshot, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	found, err := s.repo.FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if !permission.CanViewUser(actor, found.Ref()) {
		return nil, denied("user.view")
	}

	return s.projected(actor, found), nil
}

// UpdateProfile はプロフィールフィールドを更新します。
func (s *Service) UpdateProfile(ctx context.Context, actor permission.Actor, in UpdateProfileInput) (*Snapshot, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	existing, err := s.repo.FindByIDIncludingDeleted(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if !permission.CanEditUser(actor, existing.Ref()) {
		return nil, denied("user.update")
	}

	if err := existing.UpdateProfile(ProfilePatch{
		Name:       in.Name,
		Department: in.Department,
		Title:      in.Title,
		Bio:        in.Bio,
		Address:    in.Address,
		AvatarURL:  in.AvatarURL,
	}, s.clock.Now()); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}

	return s.projected(actor, updated), nil
}

// UpdateSensitive は機微フィールドを更新します。マネージャのみ実行できます。
func (s *Service) UpdateSensitive(ctx context.Context, actor permission.Actor, in UpdateSensitiveInput) (*Snapshot, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	existing, err := s.repo.FindByIDIncludingDeleted(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if !permission.CanUpdateSensitiveUser(actor, existing.Ref()) {
		return nil, denied("user.update_sensitive")
	}

	if err := existing.UpdateSensitive(SensitivePatch{
		Salary:            in.Salary,
		NationalID:        in.NationalID,
		PerformanceRating: in.PerformanceRating,
		Role:              in.Role,
	}, s.clock.Now()); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}

	return s.projected(actor, updated), nil
}

// DeleteUser はユーザーを論理削除します。
func (s *Service) DeleteUser(ctx context.Context, actor permission.Actor, in DeleteUserInput) error {
	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	existing, err := s.repo.FindByIDIncludingDeleted(ctx, in.ID)
	if err != nil {
		return err
	}

	if !permission.CanDeleteUser(actor, existing.Ref()) {
		return denied("user.delete")
	}

	if err := existing.Delete(s.clock.Now()); err != nil {
		return err
	}

	if _, err := s.repo.Update(ctx, existing); err != nil {
		return err
	}

	return nil
}

// RestoreUser は論理削除を取り消します。
func (s *Service) RestoreUser(ctx context.Context, actor permission.Actor, in RestoreUserInput) (*Snapshot, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	existing, err := s.repo.FindByIDIncludingDeleted(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if !permission.CanDeleteUser(actor, existing.Ref()) {
		return nil, denied("user.restore")
	}

	if err := existing.Restore(s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.ensureEmailNotExists(ctx, existing.OrganizationID(), existing.Email()); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}

	return s.projected(actor, updated), nil
}

// ListUsers は actor の所属組織のユーザー一覧を取得します。
func (s *Service) ListUsers(ctx context.Context, actor permission.Actor, in ListUsersInput) (*ListUsersResult, error) {
	if !permission.CanListUsers(actor) {
		return nil, denied("user.list")
	}

	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var rolePtr *permission.Role
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, ErrInvalidRole
		}
		role := *in.Role
		rolePtr = &role
	}

	users, nextToken, err := s.repo.List(ctx, ListUsersFilter{
		OrganizationID: actor.OrganizationID,
		Role:           rolePtr,
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		return nil, err
	}

	snapshots := make([]Snapshot, 0, len(users))
	for _, u := range users {
		snapshots = append(snapshots, *s.projected(actor, u))
	}

	return &ListUsersResult{
		Users:         snapshots,
		NextPageToken: nextToken,
	}, nil
}

func (s *Service) ensureEmailNotExists(ctx context.Context, organizationID string, email Email) error {
	existing, err := s.repo.FindByEmail(ctx, organizationID, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return err
	}
	if existing != nil {
		return ErrEmailAlreadyExists
	}
	return nil
}

func (s *Service) projected(actor permission.Actor, u *User) *Snapshot {
	snapshot := u.Snapshot()
	if !permission.CanViewSensitiveUser(actor, u.Ref()) {
		snapshot = snapshot.WithoutSensitive()
	}
	return &snapshot
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
