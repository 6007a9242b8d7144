package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mongsom/shop/internal/models"
	"github.com/mongsom/shop/internal/payment"
	"github.com/mongsom/shop/internal/repo"
	"github.com/mongsom/shop/internal/service"
	"github.com/mongsom/shop/internal/testdb"
	"github.com/mongsom/shop/internal/transport"
	authmw "github.com/mongsom/shop/pkg/middleware/auth"
	"github.com/mongsom/shop/pkg/tokens"
)

var testSecret = []byte("test-secret")

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

type testServer struct {
	e  *echo.Echo
	db *gorm.DB
	// gatewayCalls counts requests that reached the fake payment gateway.
	gatewayCalls atomic.Int32
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{db: testdb.Open(t)}

	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.gatewayCalls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(gw.Close)

	r := &repo.GormRepo{DB: ts.db}
	orders := &service.OrderService{Repo: r}
	payments := &service.PaymentService{Repo: r, Gateway: payment.NewTossClient(gw.URL, "sk_test", time.Second)}
	products := &service.ProductService{Repo: r}

	ts.e = echo.New()
	Register(ts.e, &Deps{
		DB:      ts.db,
		Auth:    authmw.NewAuthMiddleware(testSecret),
		Orders:  &OrderHTTP{Svc: orders},
		Payment: &PaymentHTTP{Svc: payments},
		Catalog: &CatalogHTTP{Svc: products},
		Cart:    &CartHTTP{Svc: &service.CartService{Repo: r}},
		Admin: &AdminHTTP{
			Orders:   &service.AdminOrderService{Repo: r, Orders: orders, Location: time.UTC},
			Payments: payments,
			Products: products,
		},
	})
	return ts
}

func bearer(t *testing.T, userCode uint, role string) string {
	t.Helper()
	tok, err := tokens.NewAccessToken(userCode, role, time.Now().Add(time.Hour), testSecret)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (ts *testServer) do(t *testing.T, method, target, auth, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func seedOrder(t *testing.T, db *gorm.DB, userCode uint, paidAt *time.Time) *models.Order {
	t.Helper()
	o := &models.Order{
		OrderNum:            fmt.Sprintf("ORD-TEST-%d-%d", userCode, time.Now().UnixNano()),
		UserCode:            userCode,
		ReceivedUserName:    "kim",
		ReceivedUserPhone:   "010-1234-5678",
		ReceivedUserAddress: "seoul",
		FinalPrice:          15000,
		DeliveryStatus:      models.DeliveryAwaitingPayment,
		PaymentState:        models.PaymentUnpaid,
	}
	if paidAt != nil {
		at := paidAt.UTC()
		o.PaymentAt = &at
		o.PaymentState = models.PaymentPaid
		o.DeliveryStatus = models.DeliveryPreparing
	}
	require.NoError(t, db.Create(o).Error)
	return o
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodGet, "/api/v1/orders", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, transport.CodeUnauthenticated, env.Code)
	assert.Equal(t, "null", string(env.Data))

	rec, env = ts.do(t, http.MethodGet, "/api/v1/admin/order/list/1?startDate=2026-03-01&endDate=2026-03-31", bearer(t, 7, tokens.RoleUser), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, transport.CodeForbidden, env.Code)
}

func TestAdminListOrdersPages(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	for i := range 12 {
		at := base.Add(time.Duration(i) * time.Minute)
		seedOrder(t, ts.db, 1, &at)
	}
	outside := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	seedOrder(t, ts.db, 1, &outside)

	admin := bearer(t, 99, tokens.RoleAdmin)
	wantSizes := []int{5, 5, 2}
	for page, want := range wantSizes {
		rec, env := ts.do(t, http.MethodGet,
			fmt.Sprintf("/api/v1/admin/order/list/%d?startDate=2026-03-01&endDate=2026-03-31", page+1), admin, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Equal(t, transport.CodeOK, env.Code)

		var got service.OrderPage
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Len(t, got.Orders, want)
		assert.Equal(t, 3, got.TotalPages)
		assert.Equal(t, 5, got.PageSize)
		assert.Equal(t, page+1, got.CurrentPage)
		assert.Equal(t, page < 2, got.HasNext)
	}
}

func TestAdminListOrdersBadInput(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	admin := bearer(t, 99, tokens.RoleAdmin)

	tests := []struct {
		name   string
		target string
	}{
		{"page not a number", "/api/v1/admin/order/list/abc?startDate=2026-03-01&endDate=2026-03-31"},
		{"page zero", "/api/v1/admin/order/list/0?startDate=2026-03-01&endDate=2026-03-31"},
		{"bad date", "/api/v1/admin/order/list/1?startDate=2026/03/01&endDate=2026-03-31"},
		{"end before start", "/api/v1/admin/order/list/1?startDate=2026-03-31&endDate=2026-03-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := ts.do(t, http.MethodGet, tt.target, admin, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, transport.CodeValidation, env.Code)
			assert.Equal(t, "null", string(env.Data))
		})
	}
}

func TestRegisterProductCodes(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	admin := bearer(t, 99, tokens.RoleAdmin)

	noOptions := `{"name":"mug","price":12000,"options":[],"productImgUrls":["https://cdn.example.com/mug.jpg"]}`
	rec, env := ts.do(t, http.MethodPost, "/api/v1/admin/product/regist", admin, noOptions)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, transport.CodeMissingOptions, env.Code)

	noImages := `{"name":"mug","price":12000,"options":[{"optName":"white"}],"productImgUrls":["  "]}`
	rec, env = ts.do(t, http.MethodPost, "/api/v1/admin/product/regist", admin, noImages)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, transport.CodeMissingImages, env.Code)

	var n int64
	require.NoError(t, ts.db.Model(&models.Product{}).Count(&n).Error)
	assert.Zero(t, n)

	valid := `{"name":"mug","price":12000,"options":[{"optName":"white"}],"productImgUrls":["https://cdn.example.com/mug.jpg"]}`
	rec, env = ts.do(t, http.MethodPost, "/api/v1/admin/product/regist", admin, valid)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, transport.CodeOK, env.Code)

	rec, env = ts.do(t, http.MethodPost, "/api/v1/admin/product/regist", admin, valid)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, transport.CodeDuplicateName, env.Code)
}

func TestUserDeliveryUpdateOwnership(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	paidAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	order := seedOrder(t, ts.db, 1, &paidAt)

	body := `{"deliveryStatus":"cancelled"}`
	rec, env := ts.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/orders/%d/delivery", order.OrderID), bearer(t, 2, tokens.RoleUser), body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, transport.CodeNotFound, env.Code)

	var got models.Order
	require.NoError(t, ts.db.First(&got, "order_id = ?", order.OrderID).Error)
	assert.Equal(t, models.DeliveryPreparing, got.DeliveryStatus)

	rec, env = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/orders/%d/delivery", order.OrderID), bearer(t, 1, tokens.RoleUser), body)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, transport.CodeOK, env.Code)
	assert.Equal(t, "true", string(env.Data))
}

func TestAdminDeliveryUpdateWithoutOwner(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	paidAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	order := seedOrder(t, ts.db, 1, &paidAt)

	body := fmt.Sprintf(`{"orderId":%d,"deliveryStatus":"shipped","deliveryCom":"CJ","invoiceNum":"1234567890"}`, order.OrderID)
	rec, env := ts.do(t, http.MethodPut, "/api/v1/admin/order/delivery/update", bearer(t, 99, tokens.RoleAdmin), body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, transport.CodeOK, env.Code)

	var got models.Order
	require.NoError(t, ts.db.First(&got, "order_id = ?", order.OrderID).Error)
	assert.Equal(t, models.DeliveryShipped, got.DeliveryStatus)
	assert.Equal(t, "CJ", got.DeliveryCom)
}

func TestConfirmAmountMismatchSkipsGateway(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	order := seedOrder(t, ts.db, 1, nil)

	body := fmt.Sprintf(`{"paymentKey":"pk_abcdef","orderId":%q,"amount":1}`, order.OrderNum)
	rec, env := ts.do(t, http.MethodPost, "/api/v1/payments/confirm", bearer(t, 1, tokens.RoleUser), body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, transport.CodeValidation, env.Code)
	assert.Zero(t, ts.gatewayCalls.Load())
}

func TestConfirmOtherUsersOrder(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	order := seedOrder(t, ts.db, 1, nil)

	body := fmt.Sprintf(`{"paymentKey":"pk_abcdef","orderId":%q,"amount":15000}`, order.OrderNum)
	rec, env := ts.do(t, http.MethodPost, "/api/v1/payments/confirm", bearer(t, 2, tokens.RoleUser), body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, transport.CodeNotFound, env.Code)
	assert.Zero(t, ts.gatewayCalls.Load())

	var got models.Order
	require.NoError(t, ts.db.First(&got, "order_id = ?", order.OrderID).Error)
	assert.Equal(t, models.PaymentUnpaid, got.PaymentState)
}

func TestProductNotFound(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodGet, "/api/v1/products/42", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, transport.CodeNotFound, env.Code)
}
