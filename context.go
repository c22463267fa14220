package polyauth

import "context"

type contextKey int

const (
	ctxKeyClientIP contextKey = iota
)

// WithClientIP attaches the caller's network address to the context so
// audit events emitted further down carry it. The engine never uses
// the value for decisions.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKeyClientIP, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(ctxKeyClientIP).(string)
	return ip
}
