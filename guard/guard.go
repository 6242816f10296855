// Package guard decides whether protected content may render for the
// current session state, issuing at most one redirect per
// unmet-condition transition.
package guard

import (
	"sync"

	"github.com/ketabplus/frontend/usecase/session"
)

const DefaultRedirectTarget = "/login"

// Options configure a guard. RequireAuth defaults to true; use Bool to
// opt out explicitly.
type Options struct {
	RequireAuth    *bool
	RequireAdmin   bool
	RedirectTarget string
}

// Bool is a helper for the RequireAuth option.
func Bool(v bool) *bool { return &v }

func (o Options) requireAuth() bool {
	return o.RequireAuth == nil || *o.RequireAuth
}

func (o Options) target() string {
	if o.RedirectTarget != "" {
		return o.RedirectTarget
	}
	return DefaultRedirectTarget
}

// Decision is the outcome of evaluating a snapshot. A denied decision
// carries a redirect target only on the first denial for a condition;
// repeated evaluations while the condition stays unmet deny silently,
// preventing redirect loops when state updates arrive in bursts.
type Decision struct {
	Allow    bool
	Redirect string
}

type condition int

const (
	condAuth condition = iota
	condAdmin
)

// Guard tracks the latched "already redirected" flag per condition.
type Guard struct {
	opts Options

	mu         sync.Mutex
	redirected map[condition]bool
}

// New builds a guard with the given options.
func New(opts Options) *Guard {
	return &Guard{
		opts:       opts,
		redirected: make(map[condition]bool),
	}
}

// Evaluate renders a decision for the snapshot. While loading, deny
// without redirecting; the latch stays untouched so the eventual
// settled state still gets its one redirect.
func (g *Guard) Evaluate(snap session.Snapshot) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if snap.IsLoading {
		return Decision{}
	}

	if g.opts.requireAuth() && !snap.IsAuthenticated {
		g.redirected[condAdmin] = false
		return g.denyLocked(condAuth)
	}
	g.redirected[condAuth] = false

	if g.opts.RequireAdmin && !snap.User.IsAdmin() {
		return g.denyLocked(condAdmin)
	}
	g.redirected[condAdmin] = false

	return Decision{Allow: true}
}

func (g *Guard) denyLocked(c condition) Decision {
	if g.redirected[c] {
		return Decision{}
	}
	g.redirected[c] = true
	return Decision{Redirect: g.opts.target()}
}
