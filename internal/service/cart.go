package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mongsom/shop/internal/models"
	"github.com/mongsom/shop/internal/repo"
)

type CartService struct {
	Repo *repo.GormRepo
}

func (s *CartService) GetCart(ctx context.Context, userCode uint) ([]models.CartItem, error) {
	items, err := s.Repo.GetCart(ctx, userCode)
	if err != nil {
		return nil, persistence("get cart", err)
	}
	return items, nil
}

// AddToCart checks the option belongs to the product before merging it into the cart.
func (s *CartService) AddToCart(ctx context.Context, item *models.CartItem) error {
	if item.ProductID == 0 || item.OptID == 0 {
		return fmt.Errorf("product and option are required: %w", ErrValidation)
	}
	if item.Quantity <= 0 {
		return fmt.Errorf("quantity must be more than zero: %w", ErrValidation)
	}

	options, err := s.Repo.GetOptionsByIDs(ctx, []uint{item.OptID})
	if err != nil {
		return persistence("load option", err)
	}
	if o, ok := options[item.OptID]; !ok || o.ProductID != item.ProductID {
		return fmt.Errorf("option %d of product %d: %w", item.OptID, item.ProductID, ErrNotFound)
	}

	if err := s.Repo.AddToCart(ctx, item); err != nil {
		return persistence("add to cart", err)
	}
	return nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, userCode, cartID uint, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be more than zero: %w", ErrValidation)
	}
	item, err := s.Repo.UpdateCartQuantity(ctx, userCode, cartID, quantity)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("cart item %d: %w", cartID, ErrNotFound)
	}
	if err != nil {
		return nil, persistence("update cart", err)
	}
	return item, nil
}

func (s *CartService) DeleteCartItem(ctx context.Context, userCode, cartID uint) error {
	err := s.Repo.DeleteCartItem(ctx, userCode, cartID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("cart item %d: %w", cartID, ErrNotFound)
	}
	if err != nil {
		return persistence("delete cart item", err)
	}
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, userCode uint) error {
	if err := s.Repo.DeleteCartItems(ctx, userCode); err != nil {
		return persistence("clear cart", err)
	}
	return nil
}
