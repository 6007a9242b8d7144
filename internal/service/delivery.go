package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mongsom/shop/internal/models"
	"github.com/mongsom/shop/pkg/events"
	"github.com/mongsom/shop/pkg/logging"
)

var deliveryTransitions = map[string][]string{
	models.DeliveryAwaitingPayment: {models.DeliveryPreparing, models.DeliveryCancelled},
	models.DeliveryPreparing:       {models.DeliveryShipped, models.DeliveryCancelled},
	models.DeliveryShipped:         {models.DeliveryDelivered, models.DeliveryCancelled},
	models.DeliveryDelivered:       {},
	models.DeliveryCancelled:       {},
}

func IsDeliveryStatus(s string) bool {
	_, ok := deliveryTransitions[s]
	return ok
}

func IsTerminal(s string) bool {
	next, ok := deliveryTransitions[s]
	return ok && len(next) == 0
}

func CanTransition(from, to string) bool {
	for _, s := range deliveryTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// DeliveryUpdate holds the fields to change; nil fields are left as they are.
type DeliveryUpdate struct {
	OrderID uint
	// UserCode, when set, must own the order.
	UserCode       *uint
	DeliveryStatus *string
	DeliveryCom    *string
	InvoiceNum     *string
}

// UpdateDeliveryInfo updates an order owned by in.UserCode.
func (s *OrderService) UpdateDeliveryInfo(ctx context.Context, in DeliveryUpdate) (*models.Order, error) {
	if in.UserCode == nil || *in.UserCode == 0 {
		return nil, fmt.Errorf("user code is required: %w", ErrValidation)
	}
	return s.applyDelivery(ctx, in)
}

func (s *OrderService) applyDelivery(ctx context.Context, in DeliveryUpdate) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.update_delivery", "order_id", in.OrderID)

	if in.OrderID == 0 {
		return nil, fmt.Errorf("order id is required: %w", ErrValidation)
	}
	if in.DeliveryStatus == nil && in.DeliveryCom == nil && in.InvoiceNum == nil {
		return nil, fmt.Errorf("nothing to update: %w", ErrValidation)
	}

	order, err := s.Repo.GetOrder(ctx, in.OrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %d: %w", in.OrderID, ErrNotFound)
	}
	if err != nil {
		return nil, persistence("get order", err)
	}
	if in.UserCode != nil && order.UserCode != *in.UserCode {
		// Same answer as a missing order so ids of other users are not confirmed.
		l.Warn("update_delivery_denied", "user_code", *in.UserCode)
		return nil, fmt.Errorf("order %d: %w", in.OrderID, ErrNotFound)
	}
	if order.PaymentState == models.PaymentConfirming {
		return nil, fmt.Errorf("order %d payment is being confirmed: %w", in.OrderID, ErrConflict)
	}

	from := order.DeliveryStatus
	to := from
	fields := map[string]any{}

	if in.DeliveryStatus != nil {
		to = strings.TrimSpace(*in.DeliveryStatus)
		if !IsDeliveryStatus(to) {
			return nil, fmt.Errorf("unknown delivery status %q: %w", to, ErrValidation)
		}
		if to != from {
			if !CanTransition(from, to) {
				return nil, fmt.Errorf("delivery status cannot move from %s to %s: %w", from, to, ErrValidation)
			}
			if from == models.DeliveryAwaitingPayment && to == models.DeliveryPreparing {
				return nil, fmt.Errorf("preparing is set by payment confirmation: %w", ErrValidation)
			}
			fields["delivery_status"] = to
		}
	}

	com, invoice := order.DeliveryCom, order.InvoiceNum
	if in.DeliveryCom != nil {
		com = strings.TrimSpace(*in.DeliveryCom)
		fields["delivery_com"] = com
	}
	if in.InvoiceNum != nil {
		invoice = strings.TrimSpace(*in.InvoiceNum)
		fields["invoice_num"] = invoice
	}
	if to == models.DeliveryShipped && (com == "" || invoice == "") {
		return nil, fmt.Errorf("shipped orders need a carrier and an invoice number: %w", ErrValidation)
	}

	if len(fields) == 0 {
		return order, nil
	}

	if err := s.Repo.UpdateDeliveryFields(ctx, order.OrderID, from, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %d changed concurrently: %w", in.OrderID, ErrConflict)
		}
		l.Error("update_delivery_failed", "error", err)
		return nil, persistence("update delivery", err)
	}

	order.DeliveryStatus, order.DeliveryCom, order.InvoiceNum = to, com, invoice
	l.Info("delivery_updated", "from", from, "to", to)

	if to != from {
		publish(ctx, s.Events, events.TopicOrders, order.OrderNum, events.OrderEvent{
			Type:           events.DeliveryUpdated,
			OrderID:        order.OrderID,
			OrderNum:       order.OrderNum,
			UserCode:       order.UserCode,
			DeliveryStatus: to,
			At:             nowUTC(),
		})
	}
	return order, nil
}
