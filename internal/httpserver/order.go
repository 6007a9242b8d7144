package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mongsom/shop/internal/service"
	"github.com/mongsom/shop/internal/transport"
	"github.com/mongsom/shop/internal/util"
	"github.com/mongsom/shop/pkg/logging"
	authmw "github.com/mongsom/shop/pkg/middleware/auth"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	userCode, ok := authmw.UserCode(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing user")
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "create_order_failed", "invalid body", err)
	}

	items := make([]service.OrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.OrderLine{ProductID: it.ProductID, OptID: it.OptID, Quantity: it.Quantity})
	}

	order, err := h.Svc.CreateOrder(ctx, service.CreateOrderInput{
		UserCode: userCode,
		Recipient: service.Recipient{
			Name:     req.ReceivedUserName,
			Phone:    req.ReceivedUserPhone,
			ZipCode:  req.ReceivedUserZipCode,
			Address:  req.ReceivedUserAddress,
			Address2: req.ReceivedUserAddress2,
			Message:  req.Message,
		},
		Items:      items,
		FinalPrice: req.FinalPrice,
		CartIDs:    req.CartIDs,
	})
	if err != nil {
		return fail(c, l, "create_order_failed", err)
	}

	l.Info("create_order_success", "order_id", order.OrderID, "order_num", order.OrderNum)
	return respond(c, http.StatusCreated, order)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	userCode, ok := authmw.UserCode(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing user")
	}

	orders, err := h.Svc.ListUserOrders(ctx, userCode)
	if err != nil {
		return fail(c, l, "list_orders_failed", err)
	}
	return respond(c, http.StatusOK, orders)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	userCode, ok := authmw.UserCode(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing user")
	}
	id, valid := util.ParseUint(c.Param("id"))
	if !valid {
		return badRequest(c, l, "get_order_failed", "order id must be a positive integer", nil)
	}

	order, err := h.Svc.GetUserOrder(ctx, userCode, id)
	if err != nil {
		return fail(c, l, "get_order_failed", err)
	}
	return respond(c, http.StatusOK, order)
}

// UpdateDelivery lets a buyer change delivery fields of their own order.
func (h *OrderHTTP) UpdateDelivery(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_delivery")

	userCode, ok := authmw.UserCode(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing user")
	}
	id, valid := util.ParseUint(c.Param("id"))
	if !valid {
		return badRequest(c, l, "update_delivery_failed", "order id must be a positive integer", nil)
	}

	var req transport.DeliveryUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "update_delivery_failed", "invalid body", err)
	}

	_, err := h.Svc.UpdateDeliveryInfo(ctx, service.DeliveryUpdate{
		OrderID:        id,
		UserCode:       &userCode,
		DeliveryStatus: req.DeliveryStatus,
		DeliveryCom:    req.DeliveryCom,
		InvoiceNum:     req.InvoiceNum,
	})
	if err != nil {
		return fail(c, l, "update_delivery_failed", err)
	}
	return respond(c, http.StatusOK, true)
}
