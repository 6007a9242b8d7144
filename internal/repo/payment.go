package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mongsom/shop/internal/models"
)

// GetPaymentByOrderID returns nil, nil when the order has no payment yet.
func (r *GormRepo) GetPaymentByOrderID(ctx context.Context, orderID uint) (*models.Payment, error) {
	var p models.Payment
	err := r.DB.WithContext(ctx).First(&p, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) CreatePayment(ctx context.Context, p *models.Payment) error {
	return r.DB.WithContext(ctx).Create(p).Error
}
