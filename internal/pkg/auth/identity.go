// internal/pkg/auth/identity.go
package auth

import (
	"context"

	"bazaar/internal/pkg/apperr"
)

// Identity 是上游认证边界解析出的请求主体：
// 顾客或游客，二者互斥，恰好有一个非空。
type Identity struct {
	CustomerID string
	GuestID    string
}

// IsCustomer 判断是否为已登录顾客。
func (i Identity) IsCustomer() bool { return i.CustomerID != "" }

// IsZero 判断是否完全没有身份信息。
func (i Identity) IsZero() bool { return i.CustomerID == "" && i.GuestID == "" }

// Key 返回身份的稳定字符串形式，用于幂等指纹和日志。
func (i Identity) Key() string {
	if i.CustomerID != "" {
		return "customer:" + i.CustomerID
	}
	return "guest:" + i.GuestID
}

type identityCtxKey struct{}

// WithIdentity 把身份放入 context。
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// FromContext 取出请求身份；缺失时返回校验失败错误。
func FromContext(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(identityCtxKey{}).(Identity)
	if !ok || id.IsZero() {
		return Identity{}, apperr.New(apperr.CodeValidationFailed, "request carries no resolved identity")
	}
	return id, nil
}

// PrincipalRepository 暴露主体记录上的令牌版本。
// 令牌签发与校验本身在认证边界完成，核心只校验版本号：
// 存储中的 tokenVersion 与请求携带的不一致即视为已吊销。
type PrincipalRepository interface {
	TokenVersion(ctx context.Context, customerID string) (int, error)
}
