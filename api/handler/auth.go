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

type AuthHandler struct {
	baseHandler
	sessions *session.Manager
}

func NewAuthHandler(sessions *session.Manager, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		sessions:    sessions,
	}
}

// @Summary Log in
// @Tags auth
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Identifier == "" || req.Secret == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.sessions.Login(stdCtx, req.Identifier, req.Secret); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewSessionResponse(h.sessions.Snapshot()))
}

// @Summary Log out
// @Tags auth
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	_ = h.sessions.Logout(stdCtx)
	h.respondSuccess(ctx, http.StatusOK, transport.NewSessionResponse(h.sessions.Snapshot()))
}
