package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mongsom/shop/internal/models"
)

func (r *GormRepo) GetCart(ctx context.Context, userCode uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).
		Where("user_code = ?", userCode).
		Order("cart_id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AddToCart merges the quantity into an existing row for the same product and option.
func (r *GormRepo) AddToCart(ctx context.Context, item *models.CartItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("user_code = ? AND product_id = ? AND opt_id = ?", item.UserCode, item.ProductID, item.OptID).
			Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("user_code = ? AND product_id = ? AND opt_id = ?", item.UserCode, item.ProductID, item.OptID).
				First(item).Error
		}
		return tx.Create(item).Error
	})
}

func (r *GormRepo) UpdateCartQuantity(ctx context.Context, userCode, cartID uint, quantity int) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("cart_id = ? AND user_code = ?", cartID, userCode).
			First(&item).Error; err != nil {
			return err
		}
		return tx.Model(&item).Update("quantity", quantity).Error
	}); err != nil {
		return nil, err
	}
	item.Quantity = quantity
	return &item, nil
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, userCode, cartID uint) error {
	res := r.DB.WithContext(ctx).Where("cart_id = ? AND user_code = ?", cartID, userCode).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteCartItems removes the given rows of one user; no ids means the whole cart.
func (r *GormRepo) DeleteCartItems(ctx context.Context, userCode uint, cartIDs ...uint) error {
	q := r.DB.WithContext(ctx).Where("user_code = ?", userCode)
	if len(cartIDs) > 0 {
		q = q.Where("cart_id IN ?", cartIDs)
	}
	return q.Delete(&models.CartItem{}).Error
}
