package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"

	"github.com/ketabplus/frontend/domain"
)

const pathCartItems = "/api/v1/cart/items"

// PushCartItem replicates a locally cached cart item to the platform
// cart API using the ambient session credentials. Satisfies the cart
// sync Pusher interface.
func (c *Client) PushCartItem(ctx context.Context, item *domain.CartItem) error {
	if !item.Valid() {
		return domain.ErrInvalidPayload
	}
	body, err := json.Marshal(item)
	if err != nil {
		return err
	}

	status, respBody, err := c.do(ctx, fasthttp.MethodPost, pathCartItems, body)
	if err != nil {
		return domain.WrapError(domain.ErrCodeService, "cart API unreachable", err)
	}

	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.ErrUnauthenticated
	default:
		return domain.NewError(domain.ErrCodeService, serverMessage(respBody, "cart push failed"))
	}
}
