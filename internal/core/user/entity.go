package user

import (
	"net/mail"
	"strings"
	"time"

	"github.com/ogurasousui/workforce-core/internal/core/permission"
)

// Email は正規化済みメールアドレスを表します。
type Email string

// ParseEmail は生文字列を検証して Email を生成します。小文字に正規化します。
func ParseEmail(raw string) (Email, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", ErrInvalidEmail
	}

	return Email(strings.ToLower(addr.Address)), nil
}

// String は文字列表現を返します。
func (e Email) String() string {
	return string(e)
}

// User は組織に属するユーザーエンティティです。
// フィールドは非公開とし、生成は NewUser、永続化層からの復元は ReconstituteUser が担います。
type User struct {
	id                string
	organizationID    string
	email             Email
	name              string
	role              permission.Role
	department        string
	title             string
	bio               string
	address           string
	avatarURL         string
	salary            *int64
	nationalID        string
	performanceRating *int
	createdAt         time.Time
	updatedAt         time.Time
	deletedAt         *time.Time
}

// NewUserInput はユーザー生成時の入力です。
type NewUserInput struct {
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

// NewUser は入力を検証して新しいユーザーを生成します。
func NewUser(id string, in NewUserInput, now time.Time) (*User, error) {
	organizationID := strings.TrimSpace(in.OrganizationID)
	if organizationID == "" {
		return nil, ErrInvalidOrganization
	}

	email, err := ParseEmail(in.Email)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}

	if err := validateSalary(in.Salary); err != nil {
		return nil, err
	}
	if err := validateRating(in.PerformanceRating); err != nil {
		return nil, err
	}

	return &User{
		id:                id,
		organizationID:    organizationID,
		email:             email,
		name:              name,
		role:              in.Role,
		department:        strings.TrimSpace(in.Department),
		title:             strings.TrimSpace(in.Title),
		bio:               strings.TrimSpace(in.Bio),
		address:           strings.TrimSpace(in.Address),
		avatarURL:         strings.TrimSpace(in.AvatarURL),
		salary:            copyInt64(in.Salary),
		nationalID:        strings.TrimSpace(in.NationalID),
		performanceRating: copyInt(in.PerformanceRating),
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// Snapshot はユーザーの全フィールド射影です。永続化層と呼び出し元への受け渡しに使用します。
type Snapshot struct {
	ID                string
	OrganizationID    string
	Email             Email
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
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time
}

// WithoutSensitive は機微フィールドを除いた射影を返します。
func (s Snapshot) WithoutSensitive() Snapshot {
	redacted := s
	redacted.Salary = nil
	redacted.NationalID = ""
	redacted.PerformanceRating = nil
	return redacted
}

// ReconstituteUser は永続化済みスナップショットからユーザーを復元します。検証は行いません。
func ReconstituteUser(s Snapshot) *User {
	return &User{
		id:                s.ID,
		organizationID:    s.OrganizationID,
		email:             s.Email,
		name:              s.Name,
		role:              s.Role,
		department:        s.Department,
		title:             s.Title,
		bio:               s.Bio,
		address:           s.Address,
		avatarURL:         s.AvatarURL,
		salary:            copyInt64(s.Salary),
		nationalID:        s.NationalID,
		performanceRating: copyInt(s.PerformanceRating),
		createdAt:         s.CreatedAt,
		updatedAt:         s.UpdatedAt,
		deletedAt:         copyTime(s.DeletedAt),
	}
}

// Snapshot は現在の状態の射影を返します。
func (u *User) Snapshot() Snapshot {
	return Snapshot{
		ID:                u.id,
		OrganizationID:    u.organizationID,
		Email:             u.email,
		Name:              u.name,
		Role:              u.role,
		Department:        u.department,
		Title:             u.title,
		Bio:               u.bio,
		Address:           u.address,
		AvatarURL:         u.avatarURL,
		Salary:            copyInt64(u.salary),
		NationalID:        u.nationalID,
		PerformanceRating: copyInt(u.performanceRating),
		CreatedAt:         u.createdAt,
		UpdatedAt:         u.updatedAt,
		DeletedAt:         copyTime(u.deletedAt),
	}
}

// ID はユーザー ID を返します。
func (u *User) ID() string {
	return u.id
}

// OrganizationID は所属組織 ID を返します。
func (u *User) OrganizationID() string {
	return u.organizationID
}

// Email はメールアドレスを返します。
func (u *User) Email() Email {
	return u.email
}

// Name は表示名を返します。
func (u *User) Name() string {
	return u.name
}

// Role は役割を返します。
func (u *User) Role() permission.Role {
	return u.role
}

// CreatedAt は作成日時を返します。
func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

// UpdatedAt は更新日時を返します。
func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

// Deleted は論理削除済みかどうかを返します。
func (u *User) Deleted() bool {
	return u.deletedAt != nil
}

// Ref は認可判定用の射影を返します。
func (u *User) Ref() permission.UserRef {
	return permission.UserRef{ID: u.id, OrganizationID: u.organizationID}
}

// ProfilePatch はプロフィール更新の差分です。nil のフィールドは変更しません。
type ProfilePatch struct {
	Name       *string
	Department *string
	Title      *string
	Bio        *string
	Address    *string
	AvatarURL  *string
}

// UpdateProfile はプロフィールフィールドを更新します。削除済みの場合は更新できません。
func (u *User) UpdateProfile(patch ProfilePatch, now time.Time) error {
	if u.Deleted() {
		return ErrUserDeleted
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return ErrInvalidName
		}
		u.name = name
	}
	if patch.Department != nil {
		u.department = strings.TrimSpace(*patch.Department)
	}
	if patch.Title != nil {
		u.title = strings.TrimSpace(*patch.Title)
	}
	if patch.Bio != nil {
		u.bio = strings.TrimSpace(*patch.Bio)
	}
	if patch.Address != nil {
		u.address = strings.TrimSpace(*patch.Address)
	}
	if patch.AvatarURL != nil {
		u.avatarURL = strings.TrimSpace(*patch.AvatarURL)
	}

	u.updatedAt = now
	return nil
}

// SensitivePatch は機微フィールド更新の差分です。nil のフィールドは変更しません。
type SensitivePatch struct {
	Salary            *int64
	NationalID        *string
	PerformanceRating *int
	Role              *permission.Role
}

// UpdateSensitive は機微フィールドを更新します。削除済みの場合は更新できません。
func (u *User) UpdateSensitive(patch SensitivePatch, now time.Time) error {
	if u.Deleted() {
		return ErrUserDeleted
	}

	if err := validateSalary(patch.Salary); err != nil {
		return err
	}
	if err := validateRating(patch.PerformanceRating); err != nil {
		return err
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return ErrInvalidRole
	}

	if patch.Salary != nil {
		u.salary = copyInt64(patch.Salary)
	}
	if patch.NationalID != nil {
		u.nationalID = strings.TrimSpace(*patch.NationalID)
	}
	if patch.PerformanceRating != nil {
		u.performanceRating = copyInt(patch.PerformanceRating)
	}
	if patch.Role != nil {
		u.role = *patch.Role
	}

	u.updatedAt = now
	return nil
}

// Delete はユーザーを論理削除します。削除済みの場合はエラーを返します。
func (u *User) Delete(now time.Time) error {
	if u.Deleted() {
		return ErrUserDeleted
	}
	deletedAt := now
	u.deletedAt = &deletedAt
	u.updatedAt = now
	return nil
}

// Restore は論理削除を取り消します。削除されていない場合はエラーを返します。
func (u *User) Restore(now time.Time) error {
	if !u.Deleted() {
		return ErrUserNotDeleted
	}
	u.deletedAt = nil
	u.updatedAt = now
	return nil
}

func validateSalary(salary *int64) error {
	if salary != nil && *salary < 0 {
		return ErrInvalidSalary
	}
	return nil
}

func validateRating(rating *int) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return ErrInvalidRating
	}
	return nil
}

func copyInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
