package repo

import (
	"context"

	"github.com/mongsom/shop/internal/models"
)

func (r *GormRepo) GetChangeItemsByOrderID(ctx context.Context, orderID uint) ([]models.ChangeItem, error) {
	var items []models.ChangeItem
	if err := r.DB.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("change_item_id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
