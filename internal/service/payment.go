package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mongsom/shop/internal/lock"
	"github.com/mongsom/shop/internal/models"
	"github.com/mongsom/shop/internal/payment"
	"github.com/mongsom/shop/internal/repo"
	pkgdb "github.com/mongsom/shop/pkg/db"
	"github.com/mongsom/shop/pkg/events"
	"github.com/mongsom/shop/pkg/logging"
)

const defaultLockTTL = 30 * time.Second

type PaymentService struct {
	Repo    *repo.GormRepo
	Gateway payment.Gateway
	Locker  lock.Locker
	LockTTL time.Duration
	Events  events.Publisher
}

type ConfirmInput struct {
	// UserCode must own the order.
	UserCode   uint
	PaymentKey string
	OrderNum   string
	// Amount is the client's claim; the gateway is always asked for the stored order total.
	Amount int64
}

type ReconcileResult struct {
	PaymentState string          `json:"paymentState"`
	Payment      *models.Payment `json:"payment"`
}

func (s *PaymentService) locker() lock.Locker {
	if s.Locker == nil {
		return lock.Noop{}
	}
	return s.Locker
}

func (s *PaymentService) lockTTL() time.Duration {
	if s.LockTTL <= 0 {
		return defaultLockTTL
	}
	return s.LockTTL
}

func (s *PaymentService) loadOrder(ctx context.Context, orderNum string) (*models.Order, error) {
	order, err := s.Repo.GetOrderByNum(ctx, orderNum)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %s: %w", orderNum, ErrNotFound)
	}
	if err != nil {
		return nil, persistence("get order", err)
	}
	return order, nil
}

func (s *PaymentService) existingPayment(ctx context.Context, orderID uint) (*models.Payment, error) {
	p, err := s.Repo.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, persistence("get payment", err)
	}
	return p, nil
}

// lockOrder takes the cross-instance lock for an order number. A broken lock backend only
// costs the early rejection, the claim in the database still serializes confirmations.
func (s *PaymentService) lockOrder(ctx context.Context, l *slog.Logger, orderNum string) (func(), error) {
	unlock, ok, err := s.locker().TryLock(ctx, "confirm:"+orderNum, s.lockTTL())
	if err != nil {
		l.Warn("payment_lock_unavailable", "error", err)
		return func() {}, nil
	}
	if !ok {
		return nil, fmt.Errorf("order %s payment is being confirmed: %w", orderNum, ErrConflict)
	}
	return func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			l.Warn("payment_unlock_failed", "error", err)
		}
	}, nil
}

// ConfirmPayment confirms a payment with the gateway once per order. Repeated calls for an
// order that already has a payment return that payment without contacting the gateway.
func (s *PaymentService) ConfirmPayment(ctx context.Context, in ConfirmInput) (*models.Payment, error) {
	in.PaymentKey = strings.TrimSpace(in.PaymentKey)
	in.OrderNum = strings.TrimSpace(in.OrderNum)
	l := logging.FromContext(ctx).With("svc", "payment.confirm", "order_num", in.OrderNum)

	if in.UserCode == 0 {
		return nil, fmt.Errorf("user code is required: %w", ErrValidation)
	}
	if in.PaymentKey == "" || in.OrderNum == "" {
		return nil, fmt.Errorf("payment key and order number are required: %w", ErrValidation)
	}
	if in.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", ErrValidation)
	}

	order, err := s.loadOrder(ctx, in.OrderNum)
	if err != nil {
		return nil, err
	}
	l = l.With("order_id", order.OrderID, "user_code", order.UserCode)
	if order.UserCode != in.UserCode {
		l.Warn("confirm_payment_denied", "caller", in.UserCode)
		return nil, fmt.Errorf("order %s: %w", in.OrderNum, ErrNotFound)
	}

	if p, err := s.existingPayment(ctx, order.OrderID); err != nil || p != nil {
		if p != nil {
			l.Info("confirm_payment_already_done", "payment_id", p.PaymentID)
		}
		return p, err
	}

	if in.Amount != order.FinalPrice {
		l.Warn("confirm_payment_amount_mismatch", "claimed", in.Amount, "expected", order.FinalPrice)
		return nil, fmt.Errorf("amount %d does not match order total %d: %w", in.Amount, order.FinalPrice, ErrValidation)
	}

	unlock, err := s.lockOrder(ctx, l, in.OrderNum)
	if err != nil {
		return nil, err
	}
	defer unlock()

	claimed, err := s.Repo.ClaimPayment(ctx, order.OrderID, in.PaymentKey)
	if err != nil {
		return nil, persistence("claim order", err)
	}
	if !claimed {
		return s.afterLostClaim(ctx, order.OrderID, in.OrderNum)
	}

	// The gateway call and its bookkeeping outlive a client that hangs up.
	gctx := context.WithoutCancel(ctx)
	l.Info("confirm_payment_started", "payment_key", logging.Mask(in.PaymentKey), "amount", order.FinalPrice)

	res, err := s.Gateway.Confirm(gctx, payment.ConfirmRequest{
		PaymentKey: in.PaymentKey,
		OrderID:    order.OrderNum,
		Amount:     order.FinalPrice,
	})
	if err != nil {
		return nil, s.confirmFailed(gctx, l, order, err)
	}
	if res.Status != payment.StatusDone || res.TotalAmount != order.FinalPrice {
		// The gateway accepted the request, so money may have moved. Keep the claim and the
		// payment key for reconciliation.
		l.Error("confirm_payment_unexpected_result", "gateway_status", res.Status,
			"gateway_amount", res.TotalAmount, "expected", order.FinalPrice)
		return nil, fmt.Errorf("order %s gateway answered %s for %d: %w",
			order.OrderNum, res.Status, res.TotalAmount, ErrPaymentUnknown)
	}

	p, err := s.finalize(gctx, order, in.PaymentKey, res)
	if err != nil {
		l.Error("confirm_payment_record_failed", "error", err)
		return nil, err
	}
	l.Info("confirm_payment_done", "payment_id", p.PaymentID, "method", p.PaymentMethod)
	return p, nil
}

// afterLostClaim explains why the order could not be claimed.
func (s *PaymentService) afterLostClaim(ctx context.Context, orderID uint, orderNum string) (*models.Payment, error) {
	if p, err := s.existingPayment(ctx, orderID); err != nil || p != nil {
		return p, err
	}
	order, err := s.loadOrder(ctx, orderNum)
	if err != nil {
		return nil, err
	}
	if order.PaymentState == models.PaymentConfirming {
		return nil, fmt.Errorf("order %s payment is being confirmed: %w", orderNum, ErrConflict)
	}
	return nil, fmt.Errorf("order %s is %s, not awaiting payment: %w", orderNum, order.DeliveryStatus, ErrValidation)
}

func (s *PaymentService) confirmFailed(ctx context.Context, l *slog.Logger, order *models.Order, err error) error {
	if payment.IsUnknown(err) {
		// Leave the claim in place; only a lookup can tell whether money moved.
		l.Warn("confirm_payment_outcome_unknown", "error", err)
		return fmt.Errorf("order %s: %w: %v", order.OrderNum, ErrPaymentUnknown, err)
	}

	var ge *payment.GatewayError
	if errors.As(err, &ge) {
		l.Warn("confirm_payment_rejected", "gateway_status", ge.StatusCode, "gateway_code", ge.Code, "reason", ge.Message)
	} else {
		l.Warn("confirm_payment_rejected", "error", err)
	}
	if rerr := s.Repo.ReleasePayment(ctx, order.OrderID); rerr != nil {
		l.Error("confirm_payment_release_failed", "error", rerr)
	}
	return fmt.Errorf("order %s: %w: %w", order.OrderNum, ErrGateway, err)
}

func (s *PaymentService) finalize(ctx context.Context, order *models.Order, paymentKey string, res *payment.Result) (*models.Payment, error) {
	approvedAt := res.ApprovedAt
	if approvedAt.IsZero() {
		approvedAt = nowUTC()
	}

	p := &models.Payment{
		OrderID:       order.OrderID,
		OrderNum:      order.OrderNum,
		PaymentKey:    paymentKey,
		PaymentMethod: res.Method,
		PaymentAmount: res.TotalAmount,
		PaymentStatus: res.Status,
		PgProvider:    models.PgProviderToss,
		ApprovedAt:    approvedAt,
	}

	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		if err := tx.CreatePayment(ctx, p); err != nil {
			return err
		}
		return tx.MarkPaid(ctx, order.OrderID, approvedAt)
	})
	if pkgdb.IsUniqueViolation(err) {
		if existing, perr := s.existingPayment(ctx, order.OrderID); perr == nil && existing != nil {
			return existing, nil
		}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Captured at the gateway but the order moved on; it stays confirming for a refund.
		logging.FromContext(ctx).Error("confirm_payment_order_changed",
			"order_id", order.OrderID, "order_num", order.OrderNum)
		return nil, fmt.Errorf("order %s changed during payment confirmation: %w", order.OrderNum, ErrConflict)
	}
	if err != nil {
		return nil, persistence("record payment", err)
	}

	publish(ctx, s.Events, events.TopicOrders, order.OrderNum, events.OrderEvent{
		Type:           events.PaymentConfirmed,
		OrderID:        order.OrderID,
		OrderNum:       order.OrderNum,
		UserCode:       order.UserCode,
		FinalPrice:     p.PaymentAmount,
		DeliveryStatus: models.DeliveryPreparing,
		At:             approvedAt,
	})
	return p, nil
}

// ReconcilePayment settles an order whose confirmation outcome was unknown by looking the
// payment up at the gateway.
func (s *PaymentService) ReconcilePayment(ctx context.Context, orderNum string) (*ReconcileResult, error) {
	orderNum = strings.TrimSpace(orderNum)
	l := logging.FromContext(ctx).With("svc", "payment.reconcile", "order_num", orderNum)
	if orderNum == "" {
		return nil, fmt.Errorf("order number is required: %w", ErrValidation)
	}

	order, err := s.loadOrder(ctx, orderNum)
	if err != nil {
		return nil, err
	}
	l = l.With("order_id", order.OrderID)

	if p, err := s.existingPayment(ctx, order.OrderID); err != nil || p != nil {
		if err != nil {
			return nil, err
		}
		return &ReconcileResult{PaymentState: models.PaymentPaid, Payment: p}, nil
	}
	if order.PaymentState != models.PaymentConfirming {
		return nil, fmt.Errorf("order %s has no pending confirmation: %w", orderNum, ErrValidation)
	}

	unlock, err := s.lockOrder(ctx, l, orderNum)
	if err != nil {
		return nil, err
	}
	defer unlock()

	gctx := context.WithoutCancel(ctx)
	res, err := s.Gateway.Lookup(gctx, order.PaymentKey)
	var ge *payment.GatewayError
	switch {
	case err == nil:
	case payment.IsUnknown(err):
		l.Warn("reconcile_outcome_unknown", "error", err)
		return nil, fmt.Errorf("order %s: %w: %v", orderNum, ErrPaymentUnknown, err)
	case errors.As(err, &ge) && ge.NotFound():
		return s.reconcileRelease(gctx, l, order, "not_found")
	default:
		l.Warn("reconcile_lookup_failed", "error", err)
		return nil, fmt.Errorf("order %s: %w: %w", orderNum, ErrGateway, err)
	}

	switch res.Status {
	case payment.StatusDone:
		if res.TotalAmount != order.FinalPrice {
			l.Error("reconcile_amount_mismatch", "gateway_amount", res.TotalAmount, "expected", order.FinalPrice)
			return nil, fmt.Errorf("order %s paid %d, expected %d: %w", orderNum, res.TotalAmount, order.FinalPrice, ErrGateway)
		}
		p, err := s.finalize(gctx, order, order.PaymentKey, res)
		if err != nil {
			return nil, err
		}
		l.Info("reconcile_paid", "payment_id", p.PaymentID)
		return &ReconcileResult{PaymentState: models.PaymentPaid, Payment: p}, nil
	case payment.StatusCanceled, payment.StatusAborted, payment.StatusExpired:
		return s.reconcileRelease(gctx, l, order, res.Status)
	default:
		l.Info("reconcile_still_pending", "gateway_status", res.Status)
		return &ReconcileResult{PaymentState: models.PaymentConfirming}, nil
	}
}

func (s *PaymentService) reconcileRelease(ctx context.Context, l *slog.Logger, order *models.Order, reason string) (*ReconcileResult, error) {
	if err := s.Repo.ReleasePayment(ctx, order.OrderID); err != nil {
		return nil, persistence("release order", err)
	}
	l.Info("reconcile_released", "reason", reason)
	return &ReconcileResult{PaymentState: models.PaymentUnpaid}, nil
}
