package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mongsom/shop/internal/models"
	"github.com/mongsom/shop/internal/repo"
	"github.com/mongsom/shop/internal/util"
	"github.com/mongsom/shop/pkg/logging"
)

const (
	AdminOrderPageSize = 5
	DateLayout         = "2006-01-02"

	PlaceholderProductName = "product name unavailable"
	PlaceholderOptionName  = "option name unavailable"
)

type AdminOrderService struct {
	Repo   *repo.GormRepo
	Orders *OrderService
	// Location decides which calendar day a payment time belongs to.
	Location *time.Location
}

type ListOrdersQuery struct {
	Page      int
	StartDate string
	EndDate   string
	OrderID   string
}

type SummaryLine struct {
	OrderDetailID  uint     `json:"orderDetailId"`
	ProductID      uint     `json:"productId"`
	ProductName    string   `json:"productName"`
	ProductImgURLs []string `json:"productImgUrls"`
}

type OrderSummary struct {
	OrderID          uint          `json:"orderId"`
	OrderNum         string        `json:"orderNum"`
	UserCode         uint          `json:"userCode"`
	ReceivedUserName string        `json:"receivedUserName"`
	FinalPrice       int64         `json:"finalPrice"`
	DeliveryStatus   string        `json:"deliveryStatus"`
	DeliveryCom      string        `json:"deliveryCom"`
	InvoiceNum       string        `json:"invoiceNum"`
	ChangeState      int           `json:"changeState"`
	PaymentAt        *time.Time    `json:"paymentAt"`
	OrderDetails     []SummaryLine `json:"orderDetails"`
}

type OrderPage struct {
	Orders []OrderSummary `json:"orders"`
	util.PageMeta
}

type DetailLine struct {
	OrderDetailID  uint     `json:"orderDetailId"`
	ProductID      uint     `json:"productId"`
	ProductName    string   `json:"productName"`
	OptID          uint     `json:"optId"`
	OptName        string   `json:"optName"`
	ChangeStatus   *int     `json:"changeStatus"`
	ProductImgURLs []string `json:"productImgUrls"`
	Quantity       int      `json:"quantity"`
	Price          int64    `json:"price"`
	OrderStatus    int      `json:"orderStatus"`
}

type OrderDetailView struct {
	OrderID              uint         `json:"orderId"`
	OrderNum             string       `json:"orderNum"`
	UserCode             uint         `json:"userCode"`
	ReceivedUserName     string       `json:"receivedUserName"`
	ReceivedUserPhone    string       `json:"receivedUserPhone"`
	ReceivedUserZipCode  string       `json:"receivedUserZipCode"`
	ReceivedUserAddress  string       `json:"receivedUserAddress"`
	ReceivedUserAddress2 string       `json:"receivedUserAddress2"`
	Message              string       `json:"message"`
	FinalPrice           int64        `json:"finalPrice"`
	DeliveryPrice        int64        `json:"deliveryPrice"`
	DeliveryStatus       string       `json:"deliveryStatus"`
	DeliveryCom          string       `json:"deliveryCom"`
	InvoiceNum           string       `json:"invoiceNum"`
	ChangeState          int          `json:"changeState"`
	PaymentAt            *time.Time   `json:"paymentAt"`
	PaymentMethod        string       `json:"paymentMethod"`
	PaymentAmount        int64        `json:"paymentAmount"`
	PaymentStatus        string       `json:"paymentStatus"`
	PgProvider           string       `json:"pgProvider"`
	OrderDetails         []DetailLine `json:"orderDetails"`
}

func (s *AdminOrderService) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// paidRange turns inclusive calendar dates into the half-open time range [from, to).
func (s *AdminOrderService) paidRange(start, end string) (time.Time, time.Time, error) {
	loc := s.location()
	from, err := time.ParseInLocation(DateLayout, strings.TrimSpace(start), loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start date must be yyyy-MM-dd: %w", ErrValidation)
	}
	last, err := time.ParseInLocation(DateLayout, strings.TrimSpace(end), loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end date must be yyyy-MM-dd: %w", ErrValidation)
	}
	if last.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date is before start date: %w", ErrValidation)
	}
	return from, last.AddDate(0, 0, 1), nil
}

func (s *AdminOrderService) ListOrders(ctx context.Context, q ListOrdersQuery) (*OrderPage, error) {
	if q.Page < 1 {
		return nil, fmt.Errorf("page starts at 1: %w", ErrValidation)
	}
	from, to, err := s.paidRange(q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}

	offset, limit := util.Calculate(q.Page, AdminOrderPageSize)
	total, orders, err := s.Repo.ListPaidOrders(ctx, repo.OrderFilter{
		PaidFrom:    from,
		PaidTo:      to,
		OrderIDLike: strings.TrimSpace(q.OrderID),
		Offset:      offset,
		Limit:       limit,
	})
	if err != nil {
		return nil, persistence("list orders", err)
	}

	page := &OrderPage{
		Orders:   make([]OrderSummary, 0, len(orders)),
		PageMeta: util.NewPageMeta(q.Page, limit, total),
	}
	if len(orders) == 0 {
		return page, nil
	}

	ids := make([]uint, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.OrderID)
	}
	details, err := s.Repo.GetOrderDetails(ctx, ids...)
	if err != nil {
		return nil, persistence("list order details", err)
	}
	names, images := s.productInfo(ctx, details)

	byOrder := make(map[uint][]SummaryLine, len(orders))
	for _, d := range details {
		byOrder[d.OrderID] = append(byOrder[d.OrderID], SummaryLine{
			OrderDetailID:  d.OrderDetailID,
			ProductID:      d.ProductID,
			ProductName:    productName(names, d.ProductID),
			ProductImgURLs: imageURLs(images, d.ProductID),
		})
	}

	for _, o := range orders {
		lines := byOrder[o.OrderID]
		if lines == nil {
			lines = []SummaryLine{}
		}
		page.Orders = append(page.Orders, OrderSummary{
			OrderID:          o.OrderID,
			OrderNum:         o.OrderNum,
			UserCode:         o.UserCode,
			ReceivedUserName: o.ReceivedUserName,
			FinalPrice:       o.FinalPrice,
			DeliveryStatus:   o.DeliveryStatus,
			DeliveryCom:      o.DeliveryCom,
			InvoiceNum:       o.InvoiceNum,
			ChangeState:      o.ChangeState,
			PaymentAt:        o.PaymentAt,
			OrderDetails:     lines,
		})
	}
	return page, nil
}

// productInfo loads names and images for the lines. Lookup failures leave the maps empty so
// every line falls back to placeholders instead of failing the page.
func (s *AdminOrderService) productInfo(ctx context.Context, details []models.OrderDetail) (map[uint]models.Product, map[uint][]string) {
	l := logging.FromContext(ctx)
	ids := make([]uint, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ProductID)
	}

	products, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		l.Warn("admin_order_products_unavailable", "error", err)
		products = map[uint]models.Product{}
	}
	images, err := s.Repo.GetImageURLsByProductIDs(ctx, ids)
	if err != nil {
		l.Warn("admin_order_images_unavailable", "error", err)
		images = map[uint][]string{}
	}
	return products, images
}

func productName(products map[uint]models.Product, id uint) string {
	if p, ok := products[id]; ok && p.Name != "" {
		return p.Name
	}
	return PlaceholderProductName
}

func imageURLs(images map[uint][]string, id uint) []string {
	if urls := images[id]; urls != nil {
		return urls
	}
	return []string{}
}

func (s *AdminOrderService) GetOrderDetail(ctx context.Context, orderID uint) (*OrderDetailView, error) {
	l := logging.FromContext(ctx).With("svc", "admin.order_detail", "order_id", orderID)

	order, err := s.Repo.GetOrder(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return nil, persistence("get order", err)
	}

	view := &OrderDetailView{
		OrderID:              order.OrderID,
		OrderNum:             order.OrderNum,
		UserCode:             order.UserCode,
		ReceivedUserName:     order.ReceivedUserName,
		ReceivedUserPhone:    order.ReceivedUserPhone,
		ReceivedUserZipCode:  order.ReceivedUserZipCode,
		ReceivedUserAddress:  order.ReceivedUserAddress,
		ReceivedUserAddress2: order.ReceivedUserAddress2,
		Message:              order.Message,
		FinalPrice:           order.FinalPrice,
		DeliveryPrice:        order.DeliveryPrice,
		DeliveryStatus:       order.DeliveryStatus,
		DeliveryCom:          order.DeliveryCom,
		InvoiceNum:           order.InvoiceNum,
		ChangeState:          order.ChangeState,
		PaymentAt:            order.PaymentAt,
		OrderDetails:         []DetailLine{},
	}

	if p, err := s.Repo.GetPaymentByOrderID(ctx, orderID); err != nil {
		l.Warn("admin_order_payment_unavailable", "error", err)
	} else if p != nil {
		view.PaymentMethod = p.PaymentMethod
		view.PaymentAmount = p.PaymentAmount
		view.PaymentStatus = p.PaymentStatus
		view.PgProvider = p.PgProvider
	}

	details, err := s.Repo.GetOrderDetails(ctx, orderID)
	if err != nil {
		return nil, persistence("get order details", err)
	}
	if len(details) == 0 {
		return view, nil
	}

	products, images := s.productInfo(ctx, details)

	optIDs := make([]uint, 0, len(details))
	for _, d := range details {
		optIDs = append(optIDs, d.OptID)
	}
	options, err := s.Repo.GetOptionsByIDs(ctx, optIDs)
	if err != nil {
		l.Warn("admin_order_options_unavailable", "error", err)
		options = map[uint]models.ProductOption{}
	}

	changes := map[uint]int{}
	if items, err := s.Repo.GetChangeItemsByOrderID(ctx, orderID); err != nil {
		l.Warn("admin_order_changes_unavailable", "error", err)
	} else {
		// Latest request per line wins.
		for _, c := range items {
			changes[c.OrderItemID] = c.ChangeStatus
		}
	}

	for _, d := range details {
		line := DetailLine{
			OrderDetailID:  d.OrderDetailID,
			ProductID:      d.ProductID,
			ProductName:    productName(products, d.ProductID),
			OptID:          d.OptID,
			OptName:        PlaceholderOptionName,
			ProductImgURLs: imageURLs(images, d.ProductID),
			Quantity:       d.Quantity,
			Price:          d.Price,
			OrderStatus:    d.OrderStatus,
		}
		if o, ok := options[d.OptID]; ok && o.OptName != "" {
			line.OptName = o.OptName
		}
		if st, ok := changes[d.OrderDetailID]; ok {
			line.ChangeStatus = &st
		}
		view.OrderDetails = append(view.OrderDetails, line)
	}
	return view, nil
}

// UpdateDeliveryInfo is the privileged update: the order is found by id alone unless a user
// code is given, in which case that user must own it.
func (s *AdminOrderService) UpdateDeliveryInfo(ctx context.Context, in DeliveryUpdate) (*models.Order, error) {
	return s.Orders.applyDelivery(ctx, in)
}
