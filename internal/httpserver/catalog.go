package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mongsom/shop/internal/models"
	"github.com/mongsom/shop/internal/service"
	"github.com/mongsom/shop/internal/util"
	"github.com/mongsom/shop/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.ProductService
}

type productPage struct {
	Products []models.Product `json:"products"`
	util.PageMeta
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, valid := util.ParseUint(c.Param("id"))
	if !valid {
		return badRequest(c, l, "get_product_failed", "product id must be a positive integer", nil)
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(c, l, "get_product_failed", err)
	}
	return respond(c, http.StatusOK, product)
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.ListProducts(ctx, offset, limit)
	if err != nil {
		return fail(c, l, "get_products_failed", err)
	}
	return respond(c, http.StatusOK, productPage{Products: items, PageMeta: util.NewPageMeta(max(page, 1), limit, total)})
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return badRequest(c, l, "search_failed", "query is required", nil)
	}
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.SearchProducts(ctx, q, offset, limit)
	if err != nil {
		return fail(c, l, "search_failed", err)
	}
	return respond(c, http.StatusOK, productPage{Products: items, PageMeta: util.NewPageMeta(max(page, 1), limit, total)})
}
