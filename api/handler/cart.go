package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/ketabplus/frontend/api/transport"
	"github.com/ketabplus/frontend/domain"
	"github.com/ketabplus/frontend/pkg/httpcontext"
	"github.com/ketabplus/frontend/repository"
)

type CartHandler struct {
	baseHandler
	carts repository.CartRepository
	prefs repository.PreferenceRepository
}

func NewCartHandler(carts repository.CartRepository, prefs repository.PreferenceRepository, adapter *httpcontext.Adapter, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		baseHandler: newBaseHandler(adapter, logger),
		carts:       carts,
		prefs:       prefs,
	}
}

// @Summary List cached cart items
// @Tags cart
// @Router /api/v1/cart/items [get]
func (h *CartHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	items, err := h.carts.List(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, items)
}

// @Summary Cache a cart item
// @Tags cart
// @Router /api/v1/cart/items [post]
func (h *CartHandler) Add(ctx *fasthttp.RequestCtx) {
	var req transport.CartItemRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.BookID == "" || req.Quantity <= 0 {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	item := &domain.CartItem{
		BookID:    req.BookID,
		Title:     req.Title,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
	}
	if err := h.carts.Put(stdCtx, item); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, item)
}

// @Summary Set a UI preference
// @Tags cart
// @Router /api/v1/preferences [put]
func (h *CartHandler) SetPreference(ctx *fasthttp.RequestCtx) {
	var req transport.PreferenceRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Key == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.prefs.Set(stdCtx, req.Key, req.Value); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]string{req.Key: req.Value})
}
