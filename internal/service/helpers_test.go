package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mongsom/shop/internal/models"
	"github.com/mongsom/shop/internal/payment"
	"github.com/mongsom/shop/internal/repo"
	"github.com/mongsom/shop/internal/search"
	"github.com/mongsom/shop/internal/testdb"
)

func newRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	return &repo.GormRepo{DB: testdb.Open(t)}
}

func seedUser(t *testing.T, r *repo.GormRepo, code uint) {
	t.Helper()
	require.NoError(t, r.DB.Create(&models.User{
		UserCode: code,
		UserID:   fmt.Sprintf("user%d", code),
		Name:     "홍길동",
		Role:     "user",
	}).Error)
}

type productSeed struct {
	name          string
	price         int64
	discountPrice int64
	deliveryPrice int64
	optPrices     []int64
}

func seedProduct(t *testing.T, r *repo.GormRepo, ps productSeed) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:          ps.name,
		Price:         ps.price,
		DiscountPrice: ps.discountPrice,
		DeliveryPrice: ps.deliveryPrice,
		Images:        []models.ProductImg{{ProductImgURL: "https://cdn.example.com/" + ps.name + ".jpg"}},
	}
	for i, op := range ps.optPrices {
		p.Options = append(p.Options, models.ProductOption{OptName: fmt.Sprintf("%s-opt%d", ps.name, i), OptPrice: op})
	}
	require.NoError(t, r.DB.Create(p).Error)
	return p
}

// seedOrder stores an order awaiting payment for finalPrice.
func seedOrder(t *testing.T, r *repo.GormRepo, userCode uint, finalPrice int64) *models.Order {
	t.Helper()
	o := &models.Order{
		OrderNum:            newOrderNum(),
		UserCode:            userCode,
		ReceivedUserName:    "홍길동",
		ReceivedUserPhone:   "010-0000-0000",
		ReceivedUserAddress: "서울시 어딘가 1",
		FinalPrice:          finalPrice,
		DeliveryStatus:      models.DeliveryAwaitingPayment,
		PaymentState:        models.PaymentUnpaid,
		Details:             []models.OrderDetail{{ProductID: 1, OptID: 1, Quantity: 1, Price: finalPrice}},
	}
	require.NoError(t, r.DB.Create(o).Error)
	return o
}

// seedPaidOrder stores a paid order with an explicit id (0 lets the database choose).
func seedPaidOrder(t *testing.T, r *repo.GormRepo, id uint, paidAt time.Time, status string) *models.Order {
	t.Helper()
	at := paidAt.UTC()
	o := &models.Order{
		OrderID:             id,
		OrderNum:            newOrderNum(),
		UserCode:            1,
		ReceivedUserName:    "홍길동",
		ReceivedUserPhone:   "010-0000-0000",
		ReceivedUserAddress: "서울시 어딘가 1",
		FinalPrice:          10000,
		DeliveryStatus:      status,
		PaymentState:        models.PaymentPaid,
		PaymentAt:           &at,
	}
	require.NoError(t, r.DB.Create(o).Error)
	return o
}

func reloadOrder(t *testing.T, r *repo.GormRepo, id uint) *models.Order {
	t.Helper()
	var o models.Order
	require.NoError(t, r.DB.First(&o, "order_id = ?", id).Error)
	return &o
}

func count(t *testing.T, r *repo.GormRepo, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, r.DB.Model(model).Count(&n).Error)
	return n
}

type fakeGateway struct {
	confirmCalls atomic.Int32
	lookupCalls  atomic.Int32

	mu       sync.Mutex
	requests []payment.ConfirmRequest
	delay    time.Duration
	confirm  func(req payment.ConfirmRequest) (*payment.Result, error)
	lookup   func(paymentKey string) (*payment.Result, error)
}

// doneGateway approves every confirmation for the requested amount.
func doneGateway() *fakeGateway {
	return &fakeGateway{
		confirm: func(req payment.ConfirmRequest) (*payment.Result, error) {
			return &payment.Result{
				PaymentKey:  req.PaymentKey,
				OrderID:     req.OrderID,
				Status:      payment.StatusDone,
				Method:      "카드",
				TotalAmount: req.Amount,
				ApprovedAt:  time.Date(2024, 3, 1, 1, 2, 3, 0, time.UTC),
			}, nil
		},
	}
}

func (g *fakeGateway) Confirm(_ context.Context, req payment.ConfirmRequest) (*payment.Result, error) {
	g.confirmCalls.Add(1)
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	return g.confirm(req)
}

func (g *fakeGateway) Lookup(_ context.Context, paymentKey string) (*payment.Result, error) {
	g.lookupCalls.Add(1)
	return g.lookup(paymentKey)
}

type publishedEvent struct {
	topic string
	key   string
	event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, key: key, event: event})
	return nil
}

func (p *recordingPublisher) all() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

type fakeIndex struct {
	indexed []uint
	hits    []uint
	err     error
}

func (f *fakeIndex) IndexProduct(_ context.Context, p *models.Product) error {
	f.indexed = append(f.indexed, p.ProductID)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, _, _ int) (search.Results, error) {
	if f.err != nil {
		return search.Results{}, f.err
	}
	return search.Results{Total: int64(len(f.hits)), IDs: f.hits}, nil
}

func ptr[T any](v T) *T { return &v }
