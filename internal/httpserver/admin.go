package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mongsom/shop/internal/service"
	"github.com/mongsom/shop/internal/transport"
	"github.com/mongsom/shop/internal/util"
	"github.com/mongsom/shop/pkg/logging"
)

type AdminHTTP struct {
	Orders   *service.AdminOrderService
	Payments *service.PaymentService
	Products *service.ProductService
}

func (h *AdminHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_orders")

	page, err := strconv.Atoi(c.Param("page"))
	if err != nil {
		return badRequest(c, l, "admin_list_orders_failed", "page must be an integer", err)
	}

	res, err := h.Orders.ListOrders(ctx, service.ListOrdersQuery{
		Page:      page,
		StartDate: c.QueryParam("startDate"),
		EndDate:   c.QueryParam("endDate"),
		OrderID:   c.QueryParam("orderId"),
	})
	if err != nil {
		return fail(c, l, "admin_list_orders_failed", err)
	}
	return respond(c, http.StatusOK, res)
}

func (h *AdminHTTP) GetOrderDetail(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.order_detail")

	id, valid := util.ParseUint(c.Param("orderId"))
	if !valid {
		return badRequest(c, l, "admin_order_detail_failed", "order id must be a positive integer", nil)
	}

	view, err := h.Orders.GetOrderDetail(ctx, id)
	if err != nil {
		return fail(c, l, "admin_order_detail_failed", err)
	}
	return respond(c, http.StatusOK, view)
}

func (h *AdminHTTP) UpdateDelivery(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_delivery")

	var req transport.DeliveryUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "admin_update_delivery_failed", "invalid body", err)
	}
	l = l.With("order_id", req.OrderID)

	_, err := h.Orders.UpdateDeliveryInfo(ctx, service.DeliveryUpdate{
		OrderID:        req.OrderID,
		UserCode:       req.UserCode,
		DeliveryStatus: req.DeliveryStatus,
		DeliveryCom:    req.DeliveryCom,
		InvoiceNum:     req.InvoiceNum,
	})
	if err != nil {
		return fail(c, l, "admin_update_delivery_failed", err)
	}

	l.Info("admin_update_delivery_success")
	return respond(c, http.StatusOK, true)
}

func (h *AdminHTTP) ReconcilePayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.reconcile_payment", "order_num", c.Param("orderNum"))

	res, err := h.Payments.ReconcilePayment(ctx, c.Param("orderNum"))
	if err != nil {
		return fail(c, l, "reconcile_payment_failed", err)
	}

	l.Info("reconcile_payment_done", "payment_state", res.PaymentState)
	return respond(c, http.StatusOK, res)
}

func (h *AdminHTTP) RegisterProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.register_product")

	var req transport.RegisterProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "register_product_failed", "invalid body", err)
	}

	opts := make([]service.OptionInput, 0, len(req.Options))
	for _, o := range req.Options {
		opts = append(opts, service.OptionInput{Name: o.OptName, Price: o.OptPrice})
	}

	product, err := h.Products.RegisterProduct(ctx, service.RegisterProductInput{
		Name:          req.Name,
		Contents:      req.Contents,
		Premium:       req.Premium,
		Price:         req.Price,
		SalesMargin:   req.SalesMargin,
		DiscountPer:   req.DiscountPer,
		DiscountPrice: req.DiscountPrice,
		DeliveryPrice: req.DeliveryPrice,
		Options:       opts,
		Images:        req.ProductImgURLs,
	})
	if err != nil {
		return fail(c, l, "register_product_failed", err)
	}

	l.Info("register_product_success", "product_id", product.ProductID)
	return respond(c, http.StatusCreated, product)
}
