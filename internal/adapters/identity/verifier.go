package identity

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ogurasousui/workforce-core/internal/core/apperr"
	"github.com/ogurasousui/workforce-core/internal/core/permission"
)

var (
	// ErrTokenExpired は有効期限切れトークンで返却されます。
	ErrTokenExpired = apperr.PermissionDenied("identity.token_expired", "token is expired")
	// ErrTokenInvalid は署名不正や形式不正のトークンで返却されます。
	ErrTokenInvalid = apperr.PermissionDenied("identity.token_invalid", "token is invalid")
	// ErrUnknownRole は未知の役割クレームで返却されます。
	ErrUnknownRole = apperr.PermissionDenied("identity.unknown_role", "token carries an unknown role")
	// ErrKeyUnreadable は公開鍵の読込に失敗した場合に返却されます。
	ErrKeyUnreadable = apperr.External("identity.key_unreadable", "public key could not be parsed")
)

// Claims は外部アイデンティティプロバイダが発行するアクセストークンのクレームです。
// Subject がユーザー ID を表します。
type Claims struct {
	OrganizationID string `json:"org"`
	Role           string `json:"role"`
	Email          string `json:"email"`
	jwt.RegisteredClaims
}

// TokenVerifier は RS256 署名済みトークンを検証し Actor を解決します。
// 発行は外部アイデンティティプロバイダの責務であり、本アダプタは公開鍵のみを保持します。
type TokenVerifier struct {
	publicKey *rsa.PublicKey
}

var _ permission.IdentityResolver = (*TokenVerifier)(nil)

// NewTokenVerifier は PEM 形式の RSA 公開鍵から TokenVerifier を生成します。
func NewTokenVerifier(publicKeyPEM string) (*TokenVerifier, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, ErrKeyUnreadable
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, ErrKeyUnreadable.WithCause(err)
	}

	publicKey, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, ErrKeyUnreadable.WithDetail("key_type", fmt.Sprintf("%T", parsed))
	}

	return &TokenVerifier{publicKey: publicKey}, nil
}

// Resolve はトークンを検証し操作主体を返します。
func (v *TokenVerifier) Resolve(_ context.Context, tokenString string) (permission.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.publicKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return permission.Actor{}, ErrTokenExpired.WithCause(err)
		}
		return permission.Actor{}, ErrTokenInvalid.WithCause(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return permission.Actor{}, ErrTokenInvalid
	}

	if claims.Subject == "" {
		return permission.Actor{}, ErrTokenInvalid.WithDetail("claim", "sub")
	}
	if claims.OrganizationID == "" {
		return permission.Actor{}, ErrTokenInvalid.WithDetail("claim", "org")
	}

	role, ok := permission.ParseRole(claims.Role)
	if !ok {
		return permission.Actor{}, ErrUnknownRole.WithDetail("role", claims.Role)
	}

	return permission.Actor{
		ID:             claims.Subject,
		OrganizationID: claims.OrganizationID,
		Role:           role,
		Email:          claims.Email,
	}, nil
}
