package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/tabconv/internal/core"
)

// withRequestMeta adds the client address and user agent to ctx for audit
// events. RemoteAddr has already been rewritten by TrustedRealIP.
func withRequestMeta(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithRequestMeta(ctx, core.RequestMeta{
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
}
