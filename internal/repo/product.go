package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/mongsom/shop/internal/models"
)

func (r *GormRepo) ProductNameExists(ctx context.Context, name string) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Where("name = ?", name).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateProduct inserts the product together with its options and images.
func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("opt_id ASC") }).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("product_img_id ASC") }).
		First(&p, "product_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := r.DB.WithContext(ctx).
		Preload("Images").
		Order("product_id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// SearchProductsByName is the database fallback for catalog search.
func (r *GormRepo) SearchProductsByName(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	pattern := "%" + escapeLike(q) + "%"
	base := func() *gorm.DB {
		return r.DB.WithContext(ctx).Model(&models.Product{}).
			Where(`name LIKE ? ESCAPE '\' OR contents LIKE ? ESCAPE '\'`, pattern, pattern)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return 0, nil, err
	}
	items := make([]models.Product, 0, limit)
	if err := base().Order("product_id DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []models.Product
	if err := r.DB.WithContext(ctx).Where("product_id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, p := range items {
		out[p.ProductID] = p
	}
	return out, nil
}

func (r *GormRepo) GetOptionsByIDs(ctx context.Context, ids []uint) (map[uint]models.ProductOption, error) {
	out := make(map[uint]models.ProductOption, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []models.ProductOption
	if err := r.DB.WithContext(ctx).Where("opt_id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, o := range items {
		out[o.OptID] = o
	}
	return out, nil
}

// GetImageURLsByProductIDs groups image urls by product in insertion order.
func (r *GormRepo) GetImageURLsByProductIDs(ctx context.Context, ids []uint) (map[uint][]string, error) {
	out := make(map[uint][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var imgs []models.ProductImg
	if err := r.DB.WithContext(ctx).
		Where("product_id IN ?", ids).
		Order("product_img_id ASC").
		Find(&imgs).Error; err != nil {
		return nil, err
	}
	for _, img := range imgs {
		out[img.ProductID] = append(out[img.ProductID], img.ProductImgURL)
	}
	return out, nil
}
