package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mongsom/shop/internal/models"
	"github.com/mongsom/shop/pkg/events"
)

func validProduct() RegisterProductInput {
	return RegisterProductInput{
		Name:          "린넨 셔츠",
		Contents:      "여름용 린넨 셔츠",
		Price:         30000,
		DiscountPer:   10,
		DeliveryPrice: 3000,
		Options:       []OptionInput{{Name: " S "}, {Name: ""}, {Name: "L", Price: 2000}},
		Images:        []string{" https://cdn.example.com/a.jpg ", "  "},
	}
}

func assertNoProductRows(t *testing.T, svc *ProductService) {
	t.Helper()
	assert.Zero(t, count(t, svc.Repo, &models.Product{}))
	assert.Zero(t, count(t, svc.Repo, &models.ProductOption{}))
	assert.Zero(t, count(t, svc.Repo, &models.ProductImg{}))
}

func TestRegisterProduct(t *testing.T) {
	t.Parallel()
	idx := &fakeIndex{}
	pub := &recordingPublisher{}
	svc := &ProductService{Repo: newRepo(t), Index: idx, Events: pub}

	p, err := svc.RegisterProduct(context.Background(), validProduct())
	require.NoError(t, err)

	assert.Equal(t, int64(27000), p.DiscountPrice)
	require.Len(t, p.Options, 2)
	assert.Equal(t, "S", p.Options[0].OptName)
	assert.Equal(t, int64(2000), p.Options[1].OptPrice)
	require.Len(t, p.Images, 1)
	assert.Equal(t, "https://cdn.example.com/a.jpg", p.Images[0].ProductImgURL)

	stored, err := svc.GetProduct(context.Background(), p.ProductID)
	require.NoError(t, err)
	assert.Len(t, stored.Options, 2)
	assert.Len(t, stored.Images, 1)

	assert.Equal(t, []uint{p.ProductID}, idx.indexed)
	evs := pub.all()
	require.Len(t, evs, 1)
	assert.Equal(t, events.TopicProducts, evs[0].topic)
	assert.Equal(t, events.ProductRegistered, evs[0].event.(events.ProductEvent).Type)
}

func TestRegisterProduct_NonEmptyCollections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(in *RegisterProductInput)
		want   error
	}{
		{"no options", func(in *RegisterProductInput) { in.Options = nil }, ErrMissingOptions},
		{"only blank options", func(in *RegisterProductInput) { in.Options = []OptionInput{{Name: " "}} }, ErrMissingOptions},
		{"no images", func(in *RegisterProductInput) { in.Images = nil }, ErrMissingImages},
		{"only blank images", func(in *RegisterProductInput) { in.Images = []string{"", "\t"} }, ErrMissingImages},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &ProductService{Repo: newRepo(t)}
			in := validProduct()
			tt.mutate(&in)

			_, err := svc.RegisterProduct(context.Background(), in)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrValidation)
			assertNoProductRows(t, svc)
		})
	}
}

func TestRegisterProduct_DuplicateName(t *testing.T) {
	t.Parallel()
	svc := &ProductService{Repo: newRepo(t)}

	_, err := svc.RegisterProduct(context.Background(), validProduct())
	require.NoError(t, err)

	in := validProduct()
	in.Name = "  " + in.Name
	_, err = svc.RegisterProduct(context.Background(), in)
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.EqualValues(t, 1, count(t, svc.Repo, &models.Product{}))
	assert.EqualValues(t, 2, count(t, svc.Repo, &models.ProductOption{}))
}

func TestRegisterProduct_InvalidFields(t *testing.T) {
	t.Parallel()
	svc := &ProductService{Repo: newRepo(t)}

	for _, mutate := range []func(in *RegisterProductInput){
		func(in *RegisterProductInput) { in.Name = " " },
		func(in *RegisterProductInput) { in.Price = -1 },
		func(in *RegisterProductInput) { in.DiscountPer = 101 },
		func(in *RegisterProductInput) { in.DiscountPrice = in.Price + 1 },
		func(in *RegisterProductInput) { in.Options[2].Price = -5 },
	} {
		in := validProduct()
		mutate(&in)
		_, err := svc.RegisterProduct(context.Background(), in)
		assert.ErrorIs(t, err, ErrValidation)
		assert.False(t, errors.Is(err, ErrMissingOptions))
	}
	assertNoProductRows(t, svc)
}

func TestSearchProducts(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	shirt := seedProduct(t, r, productSeed{name: "linen shirt", price: 1000, optPrices: []int64{0}})
	seedProduct(t, r, productSeed{name: "wool socks", price: 1000, optPrices: []int64{0}})
	ctx := context.Background()

	dbOnly := &ProductService{Repo: r}
	total, items, err := dbOnly.SearchProducts(ctx, "shirt", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, shirt.ProductID, items[0].ProductID)

	indexed := &ProductService{Repo: r, Index: &fakeIndex{hits: []uint{shirt.ProductID, 999}}}
	total, items, err = indexed.SearchProducts(ctx, "셔츠", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, shirt.ProductID, items[0].ProductID)

	broken := &ProductService{Repo: r, Index: &fakeIndex{err: errors.New("es down")}}
	total, _, err = broken.SearchProducts(ctx, "socks", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	total, items, err = dbOnly.SearchProducts(ctx, "  ", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestGetProduct_NotFound(t *testing.T) {
	t.Parallel()
	svc := &ProductService{Repo: newRepo(t)}

	_, err := svc.GetProduct(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}
