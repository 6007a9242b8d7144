package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mongsom/shop/internal/models"
	"github.com/mongsom/shop/internal/repo"
	"github.com/mongsom/shop/internal/search"
	pkgdb "github.com/mongsom/shop/pkg/db"
	"github.com/mongsom/shop/pkg/events"
	"github.com/mongsom/shop/pkg/logging"
)

type ProductIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	Search(ctx context.Context, q string, from, size int) (search.Results, error)
}

type ProductService struct {
	Repo   *repo.GormRepo
	Index  ProductIndex
	Events events.Publisher
}

type OptionInput struct {
	Name  string
	Price int64
}

type RegisterProductInput struct {
	Name          string
	Contents      string
	Premium       bool
	Price         int64
	SalesMargin   int64
	DiscountPer   int
	DiscountPrice int64
	DeliveryPrice int64
	Options       []OptionInput
	Images        []string
}

func (in *RegisterProductInput) normalize() (name string, opts []models.ProductOption, imgs []models.ProductImg, err error) {
	name = strings.TrimSpace(in.Name)
	if name == "" {
		return "", nil, nil, fmt.Errorf("product name is required: %w", ErrValidation)
	}
	if in.Price < 0 || in.DeliveryPrice < 0 || in.DiscountPrice < 0 || in.SalesMargin < 0 {
		return "", nil, nil, fmt.Errorf("prices cannot be negative: %w", ErrValidation)
	}
	if in.DiscountPer < 0 || in.DiscountPer > 100 {
		return "", nil, nil, fmt.Errorf("discount percent must be within 0..100: %w", ErrValidation)
	}
	if in.DiscountPrice > in.Price {
		return "", nil, nil, fmt.Errorf("discount price exceeds price: %w", ErrValidation)
	}

	for _, o := range in.Options {
		n := strings.TrimSpace(o.Name)
		if n == "" {
			continue
		}
		if o.Price < 0 {
			return "", nil, nil, fmt.Errorf("option %q price cannot be negative: %w", n, ErrValidation)
		}
		opts = append(opts, models.ProductOption{OptName: n, OptPrice: o.Price})
	}
	for _, u := range in.Images {
		if u = strings.TrimSpace(u); u != "" {
			imgs = append(imgs, models.ProductImg{ProductImgURL: u})
		}
	}
	return name, opts, imgs, nil
}

// RegisterProduct stores a product with its options and images in one transaction.
// Blank option names and image urls are dropped before the non-empty checks.
func (s *ProductService) RegisterProduct(ctx context.Context, in RegisterProductInput) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "product.register")

	name, opts, imgs, err := in.normalize()
	if err != nil {
		return nil, err
	}

	discountPrice := in.DiscountPrice
	if discountPrice == 0 && in.DiscountPer > 0 {
		discountPrice = in.Price * int64(100-in.DiscountPer) / 100
	}

	p := &models.Product{
		Name:          name,
		Contents:      in.Contents,
		Premium:       in.Premium,
		Price:         in.Price,
		SalesMargin:   in.SalesMargin,
		DiscountPer:   in.DiscountPer,
		DiscountPrice: discountPrice,
		DeliveryPrice: in.DeliveryPrice,
		Options:       opts,
		Images:        imgs,
	}

	err = s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		exists, err := tx.ProductNameExists(ctx, name)
		if err != nil {
			return persistence("check product name", err)
		}
		if exists {
			return fmt.Errorf("%q: %w: %w", name, ErrValidation, ErrDuplicateName)
		}
		if len(opts) == 0 {
			return fmt.Errorf("%w: %w", ErrValidation, ErrMissingOptions)
		}
		if len(imgs) == 0 {
			return fmt.Errorf("%w: %w", ErrValidation, ErrMissingImages)
		}
		if err := tx.CreateProduct(ctx, p); err != nil {
			if pkgdb.IsUniqueViolation(err) {
				return fmt.Errorf("%q: %w: %w", name, ErrValidation, ErrDuplicateName)
			}
			return persistence("create product", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPersistence) {
			l.Error("register_product_failed", "error", err)
		} else {
			l.Warn("register_product_rejected", "reason", err.Error())
		}
		return nil, err
	}

	l.Info("product_registered", "product_id", p.ProductID, "options", len(opts), "images", len(imgs))

	if s.Index != nil {
		if err := s.Index.IndexProduct(ctx, p); err != nil {
			l.Warn("index_product_failed", "product_id", p.ProductID, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProducts, fmt.Sprint(p.ProductID), events.ProductEvent{
		Type:      events.ProductRegistered,
		ProductID: p.ProductID,
		Name:      p.Name,
		Price:     p.SalePrice(),
		At:        p.CreatedAt,
	})
	return p, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, persistence("get product", err)
	}
	return p, nil
}

func (s *ProductService) ListProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	total, items, err := s.Repo.GetProducts(ctx, offset, limit)
	if err != nil {
		return 0, nil, persistence("list products", err)
	}
	return total, items, nil
}

// SearchProducts asks the search index first and falls back to a name match in the database.
func (s *ProductService) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, []models.Product{}, nil
	}

	if s.Index != nil {
		res, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			byID, err := s.Repo.GetProductsByIDs(ctx, res.IDs)
			if err != nil {
				return 0, nil, persistence("load search hits", err)
			}
			items := make([]models.Product, 0, len(res.IDs))
			for _, id := range res.IDs {
				if p, ok := byID[id]; ok {
					items = append(items, p)
				}
			}
			return res.Total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_failed", "error", err)
	}

	total, items, err := s.Repo.SearchProductsByName(ctx, q, offset, limit)
	if err != nil {
		return 0, nil, persistence("search products", err)
	}
	return total, items, nil
}
