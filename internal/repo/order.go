package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mongsom/shop/internal/models"
)

type OrderFilter struct {
	// PaidFrom is inclusive, PaidTo exclusive.
	PaidFrom    time.Time
	PaidTo      time.Time
	OrderIDLike string
	Offset      int
	Limit       int
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).First(&order, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) GetOrderForUser(ctx context.Context, orderID, userCode uint) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Details").
		First(&order, "order_id = ? AND user_code = ?", orderID, userCode).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) GetOrderByNum(ctx context.Context, orderNum string) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).First(&order, "order_num = ?", orderNum).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userCode uint) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Details").
		Where("user_code = ?", userCode).
		Order("created_at DESC").
		Order("order_id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListPaidOrders pages orders by payment time, newest first; equal payment times keep insertion order.
func (r *GormRepo) ListPaidOrders(ctx context.Context, f OrderFilter) (int64, []models.Order, error) {
	base := func() *gorm.DB {
		q := r.DB.WithContext(ctx).Model(&models.Order{}).
			Where("payment_at >= ? AND payment_at < ?", f.PaidFrom.UTC(), f.PaidTo.UTC())
		if f.OrderIDLike != "" {
			q = q.Where(`CAST(order_id AS TEXT) LIKE ? ESCAPE '\'`, "%"+escapeLike(f.OrderIDLike)+"%")
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return 0, nil, err
	}

	orders := make([]models.Order, 0, f.Limit)
	if total == 0 {
		return 0, orders, nil
	}
	if err := base().
		Order("payment_at DESC").
		Order("order_id ASC").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *GormRepo) GetOrderDetails(ctx context.Context, orderIDs ...uint) ([]models.OrderDetail, error) {
	var details []models.OrderDetail
	if len(orderIDs) == 0 {
		return details, nil
	}
	if err := r.DB.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("order_detail_id ASC").
		Find(&details).Error; err != nil {
		return nil, err
	}
	return details, nil
}

// UpdateDeliveryFields applies fields only while the order is still in fromStatus and no
// payment confirmation holds it.
func (r *GormRepo) UpdateDeliveryFields(ctx context.Context, orderID uint, fromStatus string, fields map[string]any) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("order_id = ? AND delivery_status = ? AND payment_state <> ?", orderID, fromStatus, models.PaymentConfirming).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClaimPayment moves an unpaid order awaiting payment into confirming. It reports false when
// another caller already holds or finished the confirmation.
func (r *GormRepo) ClaimPayment(ctx context.Context, orderID uint, paymentKey string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("order_id = ? AND payment_state = ? AND delivery_status = ?",
			orderID, models.PaymentUnpaid, models.DeliveryAwaitingPayment).
		Updates(map[string]any{
			"payment_state": models.PaymentConfirming,
			"payment_key":   paymentKey,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) ReleasePayment(ctx context.Context, orderID uint) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("order_id = ? AND payment_state = ?", orderID, models.PaymentConfirming).
		Updates(map[string]any{
			"payment_state": models.PaymentUnpaid,
			"payment_key":   "",
		}).Error
}

// MarkPaid finishes a claimed confirmation. It fails with gorm.ErrRecordNotFound when the
// order left awaiting_payment meanwhile.
func (r *GormRepo) MarkPaid(ctx context.Context, orderID uint, paidAt time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("order_id = ? AND payment_state = ? AND delivery_status = ?",
			orderID, models.PaymentConfirming, models.DeliveryAwaitingPayment).
		Updates(map[string]any{
			"payment_state":   models.PaymentPaid,
			"delivery_status": models.DeliveryPreparing,
			"payment_at":      paidAt.UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
