package permission

import "context"

// IdentityResolver は検証済みアクセストークンから Actor を解決するポートです。
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (Actor, error)
}
