package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mongsom/shop/internal/models"
	"github.com/mongsom/shop/internal/service"
	"github.com/mongsom/shop/internal/transport"
	"github.com/mongsom/shop/internal/util"
	"github.com/mongsom/shop/pkg/logging"
	authmw "github.com/mongsom/shop/pkg/middleware/auth"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userCode, ok := authmw.UserCode(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing user")
	}
	items, err := h.Svc.GetCart(ctx, userCode)
	if err != nil {
		return fail(c, l, "get_cart_failed", err)
	}
	return respond(c, http.StatusOK, items)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userCode, ok := authmw.UserCode(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing user")
	}
	var req transport.AddCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "add_to_cart_failed", "invalid body", err)
	}

	item := models.CartItem{UserCode: userCode, ProductID: req.ProductID, OptID: req.OptID, Quantity: req.Quantity}
	if err := h.Svc.AddToCart(ctx, &item); err != nil {
		return fail(c, l, "add_to_cart_failed", err)
	}
	l.Info("add_to_cart_success", "cart_id", item.CartID)
	return respond(c, http.StatusOK, item)
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_quantity")

	userCode, ok := authmw.UserCode(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing user")
	}
	id, valid := util.ParseUint(c.Param("id"))
	if !valid {
		return badRequest(c, l, "update_cart_failed", "cart id must be a positive integer", nil)
	}
	var req transport.CartUpdateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "update_cart_failed", "invalid body", err)
	}

	item, err := h.Svc.UpdateQuantity(ctx, userCode, id, req.Quantity)
	if err != nil {
		return fail(c, l, "update_cart_failed", err)
	}
	return respond(c, http.StatusOK, item)
}

func (h *CartHTTP) DeleteItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.delete_item")

	userCode, ok := authmw.UserCode(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing user")
	}
	id, valid := util.ParseUint(c.Param("id"))
	if !valid {
		return badRequest(c, l, "delete_cart_item_failed", "cart id must be a positive integer", nil)
	}
	if err := h.Svc.DeleteCartItem(ctx, userCode, id); err != nil {
		return fail(c, l, "delete_cart_item_failed", err)
	}
	return respond(c, http.StatusOK, true)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	userCode, ok := authmw.UserCode(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing user")
	}
	if err := h.Svc.ClearCart(ctx, userCode); err != nil {
		return fail(c, l, "clear_cart_failed", err)
	}
	return respond(c, http.StatusOK, true)
}
