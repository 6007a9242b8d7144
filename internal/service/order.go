package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mongsom/shop/internal/models"
	"github.com/mongsom/shop/internal/repo"
	"github.com/mongsom/shop/pkg/events"
	"github.com/mongsom/shop/pkg/logging"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

type OrderLine struct {
	ProductID uint
	OptID     uint
	Quantity  int
}

type Recipient struct {
	Name     string
	Phone    string
	ZipCode  string
	Address  string
	Address2 string
	Message  string
}

type CreateOrderInput struct {
	UserCode  uint
	Recipient Recipient
	Items     []OrderLine
	// FinalPrice is what the client showed the buyer; it must match the server total.
	FinalPrice int64
	// CartIDs are removed from the user's cart with the order.
	CartIDs []uint
}

// Quote is the server side price of a checkout.
type Quote struct {
	Lines         []models.OrderDetail
	Subtotal      int64
	DeliveryPrice int64
	FinalPrice    int64
}

func (in *CreateOrderInput) validate() error {
	if in.UserCode == 0 {
		return fmt.Errorf("user code is required: %w", ErrValidation)
	}
	r := in.Recipient
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Phone) == "" || strings.TrimSpace(r.Address) == "" {
		return fmt.Errorf("recipient name, phone and address are required: %w", ErrValidation)
	}
	if len(in.Items) == 0 {
		return fmt.Errorf("order has no items: %w", ErrValidation)
	}
	for i, it := range in.Items {
		if it.ProductID == 0 || it.OptID == 0 {
			return fmt.Errorf("item %d: product and option are required: %w", i, ErrValidation)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("item %d: quantity must be more than zero: %w", i, ErrValidation)
		}
	}
	if in.FinalPrice < 0 {
		return fmt.Errorf("final price cannot be negative: %w", ErrValidation)
	}
	return nil
}

// QuoteItems prices lines from current product and option rows.
// Unit price is the product sale price plus the option surcharge; delivery is charged once,
// at the highest delivery price among the ordered products.
func QuoteItems(ctx context.Context, r *repo.GormRepo, items []OrderLine) (*Quote, error) {
	productIDs := make([]uint, 0, len(items))
	optIDs := make([]uint, 0, len(items))
	for _, it := range items {
		productIDs = append(productIDs, it.ProductID)
		optIDs = append(optIDs, it.OptID)
	}

	products, err := r.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, persistence("load products", err)
	}
	options, err := r.GetOptionsByIDs(ctx, optIDs)
	if err != nil {
		return nil, persistence("load options", err)
	}

	q := &Quote{Lines: make([]models.OrderDetail, 0, len(items))}
	for i, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("item %d: product %d does not exist: %w", i, it.ProductID, ErrValidation)
		}
		o, ok := options[it.OptID]
		if !ok || o.ProductID != p.ProductID {
			return nil, fmt.Errorf("item %d: option %d does not exist for product %d: %w", i, it.OptID, it.ProductID, ErrValidation)
		}

		unit := p.SalePrice() + o.OptPrice
		q.Subtotal += unit * int64(it.Quantity)
		if p.DeliveryPrice > q.DeliveryPrice {
			q.DeliveryPrice = p.DeliveryPrice
		}
		q.Lines = append(q.Lines, models.OrderDetail{
			ProductID: p.ProductID,
			OptID:     o.OptID,
			Quantity:  it.Quantity,
			Price:     unit,
		})
	}
	q.FinalPrice = q.Subtotal + q.DeliveryPrice
	return q, nil
}

func newOrderNum() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + nowUTC().Format("20060102") + "-" + id[:12]
}

func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.create", "user_code", in.UserCode)

	if err := in.validate(); err != nil {
		return nil, err
	}

	exists, err := s.Repo.UserExists(ctx, in.UserCode)
	if err != nil {
		return nil, persistence("load user", err)
	}
	if !exists {
		return nil, fmt.Errorf("user %d: %w", in.UserCode, ErrNotFound)
	}

	var order *models.Order
	err = s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		quote, err := QuoteItems(ctx, tx, in.Items)
		if err != nil {
			return err
		}
		if quote.FinalPrice != in.FinalPrice {
			return fmt.Errorf("final price %d does not match %d: %w", in.FinalPrice, quote.FinalPrice, ErrValidation)
		}

		order = &models.Order{
			OrderNum:             newOrderNum(),
			UserCode:             in.UserCode,
			ReceivedUserName:     strings.TrimSpace(in.Recipient.Name),
			ReceivedUserPhone:    strings.TrimSpace(in.Recipient.Phone),
			ReceivedUserZipCode:  strings.TrimSpace(in.Recipient.ZipCode),
			ReceivedUserAddress:  strings.TrimSpace(in.Recipient.Address),
			ReceivedUserAddress2: strings.TrimSpace(in.Recipient.Address2),
			Message:              strings.TrimSpace(in.Recipient.Message),
			FinalPrice:           quote.FinalPrice,
			DeliveryPrice:        quote.DeliveryPrice,
			DeliveryStatus:       models.DeliveryAwaitingPayment,
			PaymentState:         models.PaymentUnpaid,
			Details:              quote.Lines,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return persistence("create order", err)
		}
		if len(in.CartIDs) > 0 {
			if err := tx.DeleteCartItems(ctx, in.UserCode, in.CartIDs...); err != nil {
				return persistence("clear cart", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPersistence) {
			l.Error("create_order_failed", "error", err)
		}
		return nil, err
	}

	l.Info("order_created", "order_id", order.OrderID, "order_num", order.OrderNum, "final_price", order.FinalPrice)
	publish(ctx, s.Events, events.TopicOrders, order.OrderNum, events.OrderEvent{
		Type:           events.OrderCreated,
		OrderID:        order.OrderID,
		OrderNum:       order.OrderNum,
		UserCode:       order.UserCode,
		FinalPrice:     order.FinalPrice,
		DeliveryStatus: order.DeliveryStatus,
		At:             order.CreatedAt,
	})
	return order, nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, userCode uint) ([]models.Order, error) {
	orders, err := s.Repo.ListOrdersByUser(ctx, userCode)
	if err != nil {
		return nil, persistence("list orders", err)
	}
	return orders, nil
}

func (s *OrderService) GetUserOrder(ctx context.Context, userCode, orderID uint) (*models.Order, error) {
	order, err := s.Repo.GetOrderForUser(ctx, orderID, userCode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return nil, persistence("get order", err)
	}
	return order, nil
}
