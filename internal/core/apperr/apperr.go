package apperr

import "errors"

// Kind は業務エラーの分類を表します。
type Kind string

const (
	// KindValidation は入力値が不正な場合の分類です。呼び出し側で修正可能です。
	KindValidation Kind = "validation"
	// KindPermission は操作権限がない場合の分類です。再試行しても解消しません。
	KindPermission Kind = "permission_denied"
	// KindConflict は期間重複や並行更新の競合を表す分類です。内容を変えて再送できます。
	KindConflict Kind = "conflict"
	// KindNotFound は対象エンティティが存在しない場合の分類です。
	KindNotFound Kind = "not_found"
	// KindDeletedState は論理削除済みエンティティへの変更を表す分類です。
	KindDeletedState Kind = "deleted_state"
	// KindExternal は外部依存(identity / notification 等)の一時障害を表す分類です。
	KindExternal Kind = "external"
	// KindInternal はデータベース到達不能などの内部障害を表す分類です。
	KindInternal Kind = "internal"
)

// Error は安定コード・メッセージ・構造化詳細を持つ業務エラーです。
// プロセス境界を越えても意味を保てるよう、Code は機械可読な固定文字列とします。
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]string

	cause error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// Is は Code が一致する Error 同士を同一と見なします。
// 詳細を付与した複製でも元の番兵値と errors.Is で照合できます。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Unwrap は保持している原因エラーを返します。
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetail は詳細を 1 件付与した複製を返します。元の値は変更しません。
func (e *Error) WithDetail(key, value string) *Error {
	c := e.clone()
	if c.Details == nil {
		c.Details = make(map[string]string, 1)
	}
	c.Details[key] = value
	return c
}

// WithCause は原因エラーを保持した複製を返します。
func (e *Error) WithCause(cause error) *Error {
	c := e.clone()
	c.cause = cause
	return c
}

func (e *Error) clone() *Error {
	c := *e
	if e.Details != nil {
		c.Details = make(map[string]string, len(e.Details))
		for k, v := range e.Details {
			c.Details[k] = v
		}
	}
	return &c
}

// New は任意の分類の Error を生成します。
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation は入力値不正を表す Error を生成します。
func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

// PermissionDenied は権限不足を表す Error を生成します。
func PermissionDenied(code, message string) *Error {
	return New(KindPermission, code, message)
}

// Conflict は競合を表す Error を生成します。
func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

// NotFound は対象不在を表す Error を生成します。
func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

// DeletedState は論理削除済みエンティティへの変更を表す Error を生成します。
func DeletedState(code, message string) *Error {
	return New(KindDeletedState, code, message)
}

// External は外部依存の障害を表す Error を生成します。
func External(code, message string) *Error {
	return New(KindExternal, code, message)
}

// Internal は内部障害を表す Error を生成します。
func Internal(code, message string) *Error {
	return New(KindInternal, code, message)
}

// KindOf は err の分類を返します。業務エラーでない場合は KindInternal を返します。
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf は err の安定コードを返します。業務エラーでない場合は空文字列を返します。
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// DetailsOf は err の構造化詳細を返します。存在しない場合は nil を返します。
func DetailsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// トランザクション層と予約エンジンが共有する再試行シグナルです。
var (
	// ErrSerialization は直列化異常によりトランザクション全体の再実行が必要なことを示します。
	ErrSerialization = Conflict("tx.serialization_failure", "transaction could not be serialized")
	// ErrTxTimeout はステートメントタイムアウトにより試行が失敗したことを示します。
	ErrTxTimeout = External("tx.statement_timeout", "transaction attempt timed out")
)
