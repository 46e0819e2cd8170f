package permission

// Role は組織内での役割を表す閉じた列挙です。
// 役割を追加する場合は本パッケージの全述語の switch を見直してください。
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleCoworker Role = "coworker"
)

// ParseRole は文字列を Role に変換します。未知の役割は false を返します。
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleEmployee, RoleManager, RoleCoworker:
		return Role(raw), true
	default:
		return "", false
	}
}

// Valid は既知の役割かどうかを返します。
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Actor は identity ポートが解決した操作主体の記述子です。
type Actor struct {
	ID             string
	OrganizationID string
	Role           Role
	Email          string
}

// Authenticated は検証済みの主体かどうかを返します。
func (a Actor) Authenticated() bool {
	return a.ID != ""
}

// UserRef は認可判定に必要な最小のユーザー射影です。
type UserRef struct {
	ID             string
	OrganizationID string
}

// FeedbackRef は認可判定に必要な最小のフィードバック射影です。
type FeedbackRef struct {
	GiverID        string
	ReceiverID     string
	OrganizationID string
}

// AbsenceRef は認可判定に必要な最小の休暇申請射影です。
type AbsenceRef struct {
	OwnerID        string
	OrganizationID string
	Pending        bool
}

// SameTenant は actor と対象が同一テナントに属するかを返します。
// テナント境界を越えるアクセスはどの述語も許可しません。
func SameTenant(a Actor, organizationID string) bool {
	return a.OrganizationID != "" && a.OrganizationID == organizationID
}

// CanCreateUser はユーザー登録の可否を返します。機微フィールドを含むためマネージャのみ許可します。
func CanCreateUser(a Actor, organizationID string) bool {
	if !a.Authenticated() || !SameTenant(a, organizationID) {
		return false
	}
	switch a.Role {
	case RoleManager:
		return true
	case RoleEmployee, RoleCoworker:
		return false
	default:
		return false
	}
}

// CanViewUser は基本プロフィール閲覧の可否を返します。同一組織の成員であれば許可します。
func CanViewUser(a Actor, target UserRef) bool {
	return a.Authenticated() && SameTenant(a, target.OrganizationID)
}

// CanListUsers は組織ディレクトリ一覧の可否を返します。認証済みであれば常に許可します。
func CanListUsers(a Actor) bool {
	return a.Authenticated()
}

// CanViewSensitiveUser は機微フィールド(給与・評価・国民 ID)の閲覧可否を返します。
// マネージャは同一組織内の全ユーザーを閲覧できます(部署スコープ案は不採用)。
func CanViewSensitiveUser(a Actor, target UserRef) bool {
	if !a.Authenticated() || !SameTenant(a, target.OrganizationID) {
		return false
	}
	switch a.Role {
	case RoleManager:
		return true
	case RoleEmployee, RoleCoworker:
		return a.ID == target.ID
	default:
		return false
	}
}

// CanEditUser はプロフィール編集の可否を返します。
func CanEditUser(a Actor, target UserRef) bool {
	if !a.Authenticated() || !SameTenant(a, target.OrganizationID) {
		return false
	}
	switch a.Role {
	case RoleManager:
		return true
	case RoleEmployee, RoleCoworker:
		return a.ID == target.ID
	default:
		return false
	}
}

// CanDeleteUser はユーザー削除(論理削除)の可否を返します。自分自身は削除できません。
func CanDeleteUser(a Actor, target UserRef) bool {
	if !a.Authenticated() || !SameTenant(a, target.OrganizationID) {
		return false
	}
	switch a.Role {
	case RoleManager:
		return a.ID != target.ID
	case RoleEmployee, RoleCoworker:
		return false
	default:
		return false
	}
}

// CanUpdateSensitiveUser は機微フィールド更新の可否を返します。
func CanUpdateSensitiveUser(a Actor, target UserRef) bool {
	if !a.Authenticated() || !SameTenant(a, target.OrganizationID) {
		return false
	}
	switch a.Role {
	case RoleManager:
		return true
	case RoleEmployee, RoleCoworker:
		return false
	default:
		return false
	}
}

// CanGiveFeedback はフィードバック作成の可否を返します。自己フィードバックは不可です。
func CanGiveFeedback(a Actor, receiver UserRef) bool {
	if !a.Authenticated() || !SameTenant(a, receiver.OrganizationID) {
		return false
	}
	return a.ID != receiver.ID
}

// CanViewFeedback はフィードバック閲覧の可否を返します。当事者とマネージャのみ閲覧できます。
func CanViewFeedback(a Actor, fb FeedbackRef) bool {
	if !a.Authenticated() || !SameTenant(a, fb.OrganizationID) {
		return false
	}
	if a.ID == fb.GiverID || a.ID == fb.ReceiverID {
		return true
	}
	switch a.Role {
	case RoleManager:
		return true
	case RoleEmployee, RoleCoworker:
		return false
	default:
		return false
	}
}

// CanViewFeedbackForUser は特定ユーザー宛て一覧の閲覧可否を返します。
func CanViewFeedbackForUser(a Actor, target UserRef) bool {
	if !a.Authenticated() || !SameTenant(a, target.OrganizationID) {
		return false
	}
	switch a.Role {
	case RoleManager:
		return true
	case RoleEmployee, RoleCoworker:
		return a.ID == target.ID
	default:
		return false
	}
}

// CanEditFeedback はフィードバック本文更新の可否を返します。
func CanEditFeedback(a Actor, fb FeedbackRef) bool {
	if !a.Authenticated() || !SameTenant(a, fb.OrganizationID) {
		return false
	}
	if a.ID == fb.GiverID {
		return true
	}
	switch a.Role {
	case RoleManager:
		return true
	case RoleEmployee, RoleCoworker:
		return false
	default:
		return false
	}
}

// CanDeleteFeedback はフィードバック削除の可否を返します。編集と同じ規則です。
func CanDeleteFeedback(a Actor, fb FeedbackRef) bool {
	return CanEditFeedback(a, fb)
}

// CanCreateAbsence は休暇申請作成の可否を返します。認証済みであれば常に許可します。
func CanCreateAbsence(a Actor) bool {
	return a.Authenticated()
}

// CanViewAbsence は休暇申請閲覧の可否を返します。
func CanViewAbsence(a Actor, req AbsenceRef) bool {
	if !a.Authenticated() || !SameTenant(a, req.OrganizationID) {
		return false
	}
	switch a.Role {
	case RoleManager:
		return true
	case RoleEmployee, RoleCoworker:
		return a.ID == req.OwnerID
	default:
		return false
	}
}

// CanListAbsencesForUser は特定ユーザーの申請一覧の閲覧可否を返します。
// 一覧は常に actor の所属組織にスコープされます。
func CanListAbsencesForUser(a Actor, targetUserID string) bool {
	if !a.Authenticated() {
		return false
	}
	if a.ID == targetUserID {
		return true
	}
	switch a.Role {
	case RoleManager:
		return true
	case RoleEmployee, RoleCoworker:
		return false
	default:
		return false
	}
}

// CanApproveAbsence は承認・却下操作の可否を返します。
// 申請者自身による承認の拒否は役割規則ではないためサービス層が判定します。
func CanApproveAbsence(a Actor) bool {
	if !a.Authenticated() {
		return false
	}
	switch a.Role {
	case RoleManager:
		return true
	case RoleEmployee, RoleCoworker:
		return false
	default:
		return false
	}
}

// CanEditAbsence は休暇申請の変更可否を返します。Pending 以外は変更できません。
func CanEditAbsence(a Actor, req AbsenceRef) bool {
	if !a.Authenticated() || !SameTenant(a, req.OrganizationID) {
		return false
	}
	if !req.Pending {
		return false
	}
	if a.ID == req.OwnerID {
		return true
	}
	switch a.Role {
	case RoleManager:
		return true
	case RoleEmployee, RoleCoworker:
		return false
	default:
		return false
	}
}

// CanDeleteAbsence は休暇申請の削除可否を返します。変更と同じ規則です。
func CanDeleteAbsence(a Actor, req AbsenceRef) bool {
	return CanEditAbsence(a, req)
}
