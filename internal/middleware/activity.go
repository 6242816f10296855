package middleware

import "github.com/valyala/fasthttp"

// ActivityRecorder is the write side the activity middleware needs.
type ActivityRecorder interface {
	RecordActivity()
}

// Activity counts every handled request as user activity, resetting the
// session idle timers. Recording while unauthenticated is a no-op in
// the session manager, so this wraps public routes too.
func Activity(recorder ActivityRecorder) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			recorder.RecordActivity()
			next(ctx)
		}
	}
}
