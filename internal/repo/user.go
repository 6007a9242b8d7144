package repo

import (
	"context"

	"github.com/mongsom/shop/internal/models"
)

func (r *GormRepo) UserExists(ctx context.Context, userCode uint) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Where("user_code = ?", userCode).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
