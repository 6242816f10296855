package middleware

import (
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/ketabplus/frontend/guard"
	"github.com/ketabplus/frontend/usecase/session"
)

// SessionState is the read side of the session manager.
type SessionState interface {
	Snapshot() session.Snapshot
}

// Guard protects routes with the shared guard's latched-redirect
// semantics: the first denied request is redirected, subsequent ones
// while the condition stays unmet get a plain 401/403.
func Guard(g *guard.Guard, state SessionState, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			snap := state.Snapshot()
			decision := g.Evaluate(snap)
			if decision.Allow {
				next(ctx)
				return
			}
			if decision.Redirect != "" {
				logger.Debug("guard redirect",
					zap.String("path", string(ctx.Path())),
					zap.String("target", decision.Redirect))
				ctx.Redirect(decision.Redirect, fasthttp.StatusFound)
				return
			}
			if snap.IsAuthenticated {
				ctx.SetStatusCode(fasthttp.StatusForbidden)
				return
			}
			ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		}
	}
}
