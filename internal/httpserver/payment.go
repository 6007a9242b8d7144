package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mongsom/shop/internal/service"
	"github.com/mongsom/shop/internal/transport"
	"github.com/mongsom/shop/pkg/logging"
	authmw "github.com/mongsom/shop/pkg/middleware/auth"
)

type PaymentHTTP struct {
	Svc *service.PaymentService
}

func (h *PaymentHTTP) Confirm(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.confirm")

	userCode, ok := authmw.UserCode(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing user")
	}

	var req transport.ConfirmPaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "confirm_payment_failed", "invalid body", err)
	}
	l = l.With("order_num", req.OrderID, "payment_key", logging.Mask(req.PaymentKey))

	p, err := h.Svc.ConfirmPayment(ctx, service.ConfirmInput{
		UserCode:   userCode,
		PaymentKey: req.PaymentKey,
		OrderNum:   req.OrderID,
		Amount:     req.Amount,
	})
	if err != nil {
		return fail(c, l, "confirm_payment_failed", err)
	}

	l.Info("confirm_payment_success", "order_id", p.OrderID)
	return respond(c, http.StatusOK, p)
}
