package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	authmw "github.com/mongsom/shop/pkg/middleware/auth"
	"github.com/mongsom/shop/pkg/middleware/csrf"
)

type Deps struct {
	DB      *gorm.DB
	Auth    *authmw.AuthMiddleware
	Orders  *OrderHTTP
	Payment *PaymentHTTP
	Catalog *CatalogHTTP
	Cart    *CartHTTP
	Admin   *AdminHTTP
	// SecureCookies marks the CSRF cookie Secure; set it behind TLS.
	SecureCookies bool
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		sqlDB, err := d.DB.DB()
		if err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		if err := sqlDB.PingContext(c.Request().Context()); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	v1 := e.Group("/api/v1", csrf.Middleware(csrf.Config{Secure: d.SecureCookies}))

	products := v1.Group("/products")
	products.GET("", d.Catalog.GetProducts)
	products.GET("/search", d.Catalog.Search)
	products.GET("/:id", d.Catalog.GetProduct)

	cart := v1.Group("/cart", d.Auth.RequireAuth)
	cart.GET("", d.Cart.GetCart)
	cart.POST("", d.Cart.AddToCart)
	cart.DELETE("", d.Cart.ClearCart)
	cart.PATCH("/:id", d.Cart.UpdateQuantity)
	cart.DELETE("/:id", d.Cart.DeleteItem)

	orders := v1.Group("/orders", d.Auth.RequireAuth)
	orders.POST("", d.Orders.CreateOrder)
	orders.GET("", d.Orders.ListOrders)
	orders.GET("/:id", d.Orders.GetOrder)
	orders.PATCH("/:id/delivery", d.Orders.UpdateDelivery)

	v1.POST("/payments/confirm", d.Payment.Confirm, d.Auth.RequireAuth)

	admin := v1.Group("/admin", d.Auth.RequireAdmin)
	admin.GET("/order/list/:page", d.Admin.ListOrders)
	admin.GET("/order/detail/:orderId", d.Admin.GetOrderDetail)
	admin.PUT("/order/delivery/update", d.Admin.UpdateDelivery)
	admin.POST("/payment/reconcile/:orderNum", d.Admin.ReconcilePayment)
	admin.POST("/product/regist", d.Admin.RegisterProduct)
}
