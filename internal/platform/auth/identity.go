package auth

import "context"

// Identity 是登录用户在请求上下文里的身份。由 auth 中间件在
// token 校验通过后注入，handler 通过 GetIdentity 取用。
type Identity struct {
	UserID string
	Role   string
}

// IsAdmin 报告该身份是否有管理权限（规则库写入、全局图鉴）。
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func GetIdentity(ctx context.Context) (Identity, bool) {
	v := ctx.Value(identityKey{})
	id, ok := v.(Identity)
	return id, ok
}
