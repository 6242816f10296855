package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/ketabplus/frontend/api/transport"
	"github.com/ketabplus/frontend/domain"
	"github.com/ketabplus/frontend/pkg/httpcontext"
	"github.com/ketabplus/frontend/usecase/session"
)

// SessionHandler exposes the session manager's read surface and the
// warning/refresh operations to the UI layer.
type SessionHandler struct {
	baseHandler
	sessions *session.Manager
}

func NewSessionHandler(sessions *session.Manager, adapter *httpcontext.Adapter, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		baseHandler: newBaseHandler(adapter, logger),
		sessions:    sessions,
	}
}

// @Summary Current session state
// @Tags session
// @Router /api/v1/session [get]
func (h *SessionHandler) Get(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, transport.NewSessionResponse(h.sessions.Snapshot()))
}

// @Summary Re-query the current identity
// @Tags session
// @Router /api/v1/session/refresh [post]
func (h *SessionHandler) Refresh(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	_ = h.sessions.Refresh(stdCtx)
	h.respondSuccess(ctx, http.StatusOK, transport.NewSessionResponse(h.sessions.Snapshot()))
}

// @Summary Dismiss the idle warning
// @Tags session
// @Router /api/v1/session/dismiss-warning [post]
func (h *SessionHandler) DismissWarning(ctx *fasthttp.RequestCtx) {
	h.sessions.DismissWarning()
	h.respondSuccess(ctx, http.StatusOK, transport.NewSessionResponse(h.sessions.Snapshot()))
}

// @Summary Patch the local user record
// @Tags session
// @Router /api/v1/profile [patch]
func (h *SessionHandler) UpdateUser(ctx *fasthttp.RequestCtx) {
	var req transport.UserPatchRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	h.sessions.UpdateUser(domain.UserPatch{
		Email:    req.Email,
		Name:     req.Name,
		Roles:    req.Roles,
		Metadata: req.Metadata,
	})
	h.respondSuccess(ctx, http.StatusOK, transport.NewSessionResponse(h.sessions.Snapshot()))
}
