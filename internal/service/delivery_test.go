package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mongsom/shop/internal/models"
	"github.com/mongsom/shop/pkg/events"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to string
		want     bool
	}{
		{models.DeliveryAwaitingPayment, models.DeliveryPreparing, true},
		{models.DeliveryPreparing, models.DeliveryShipped, true},
		{models.DeliveryShipped, models.DeliveryDelivered, true},
		{models.DeliveryAwaitingPayment, models.DeliveryCancelled, true},
		{models.DeliveryPreparing, models.DeliveryCancelled, true},
		{models.DeliveryShipped, models.DeliveryCancelled, true},
		{models.DeliveryPreparing, models.DeliveryAwaitingPayment, false},
		{models.DeliveryShipped, models.DeliveryPreparing, false},
		{models.DeliveryPreparing, models.DeliveryDelivered, false},
		{models.DeliveryDelivered, models.DeliveryCancelled, false},
		{models.DeliveryCancelled, models.DeliveryPreparing, false},
		{"pending", models.DeliveryShipped, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
	assert.True(t, IsTerminal(models.DeliveryDelivered))
	assert.True(t, IsTerminal(models.DeliveryCancelled))
	assert.False(t, IsTerminal(models.DeliveryShipped))
	assert.False(t, IsTerminal("pending"))
}

func newDeliveryServices(t *testing.T) (*OrderService, *AdminOrderService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	orders := &OrderService{Repo: newRepo(t), Events: pub}
	return orders, &AdminOrderService{Repo: orders.Repo, Orders: orders}, pub
}

func TestUpdateDeliveryInfo_OwnershipMismatch(t *testing.T) {
	t.Parallel()
	orders, _, pub := newDeliveryServices(t)
	order := seedPaidOrder(t, orders.Repo, 0, time.Now(), models.DeliveryPreparing)

	_, err := orders.UpdateDeliveryInfo(context.Background(), DeliveryUpdate{
		OrderID:        order.OrderID,
		UserCode:       ptr(uint(2)),
		DeliveryStatus: ptr(models.DeliveryShipped),
		DeliveryCom:    ptr("CJ대한통운"),
		InvoiceNum:     ptr("1234567890"),
	})
	assert.ErrorIs(t, err, ErrNotFound)

	stored := reloadOrder(t, orders.Repo, order.OrderID)
	assert.Equal(t, models.DeliveryPreparing, stored.DeliveryStatus)
	assert.Empty(t, stored.DeliveryCom)
	assert.Empty(t, stored.InvoiceNum)
	assert.Empty(t, pub.all())
}

func TestUpdateDeliveryInfo_OwnerAppliesOnlyGivenFields(t *testing.T) {
	t.Parallel()
	orders, _, _ := newDeliveryServices(t)
	order := seedPaidOrder(t, orders.Repo, 0, time.Now(), models.DeliveryPreparing)
	ctx := context.Background()

	_, err := orders.UpdateDeliveryInfo(ctx, DeliveryUpdate{
		OrderID:     order.OrderID,
		UserCode:    ptr(uint(1)),
		DeliveryCom: ptr(" 우체국택배 "),
	})
	require.NoError(t, err)

	stored := reloadOrder(t, orders.Repo, order.OrderID)
	assert.Equal(t, "우체국택배", stored.DeliveryCom)
	assert.Empty(t, stored.InvoiceNum)
	assert.Equal(t, models.DeliveryPreparing, stored.DeliveryStatus)

	// The carrier set earlier counts towards shipping.
	updated, err := orders.UpdateDeliveryInfo(ctx, DeliveryUpdate{
		OrderID:        order.OrderID,
		UserCode:       ptr(uint(1)),
		DeliveryStatus: ptr(models.DeliveryShipped),
		InvoiceNum:     ptr("6000123"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryShipped, updated.DeliveryStatus)
	assert.Equal(t, "우체국택배", updated.DeliveryCom)
}

func TestUpdateDeliveryInfo_RequiresUserCode(t *testing.T) {
	t.Parallel()
	orders, _, _ := newDeliveryServices(t)
	order := seedPaidOrder(t, orders.Repo, 0, time.Now(), models.DeliveryPreparing)

	_, err := orders.UpdateDeliveryInfo(context.Background(), DeliveryUpdate{
		OrderID:     order.OrderID,
		DeliveryCom: ptr("CJ"),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAdminUpdateDeliveryInfo_Transitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		from   string
		update DeliveryUpdate
		want   error
		status string
	}{
		{"ship with carrier and invoice", models.DeliveryPreparing,
			DeliveryUpdate{DeliveryStatus: ptr(models.DeliveryShipped), DeliveryCom: ptr("CJ"), InvoiceNum: ptr("1")}, nil, models.DeliveryShipped},
		{"ship without invoice", models.DeliveryPreparing,
			DeliveryUpdate{DeliveryStatus: ptr(models.DeliveryShipped), DeliveryCom: ptr("CJ")}, ErrValidation, models.DeliveryPreparing},
		{"deliver", models.DeliveryShipped,
			DeliveryUpdate{DeliveryStatus: ptr(models.DeliveryDelivered)}, nil, models.DeliveryDelivered},
		{"cancel shipped", models.DeliveryShipped,
			DeliveryUpdate{DeliveryStatus: ptr(models.DeliveryCancelled)}, nil, models.DeliveryCancelled},
		{"skip shipping", models.DeliveryPreparing,
			DeliveryUpdate{DeliveryStatus: ptr(models.DeliveryDelivered)}, ErrValidation, models.DeliveryPreparing},
		{"backwards", models.DeliveryShipped,
			DeliveryUpdate{DeliveryStatus: ptr(models.DeliveryPreparing)}, ErrValidation, models.DeliveryShipped},
		{"leave terminal", models.DeliveryDelivered,
			DeliveryUpdate{DeliveryStatus: ptr(models.DeliveryCancelled)}, ErrValidation, models.DeliveryDelivered},
		{"mark paid by hand", models.DeliveryAwaitingPayment,
			DeliveryUpdate{DeliveryStatus: ptr(models.DeliveryPreparing)}, ErrValidation, models.DeliveryAwaitingPayment},
		{"unknown status", models.DeliveryPreparing,
			DeliveryUpdate{DeliveryStatus: ptr("pending")}, ErrValidation, models.DeliveryPreparing},
		{"same status is a no-op", models.DeliveryPreparing,
			DeliveryUpdate{DeliveryStatus: ptr(models.DeliveryPreparing)}, nil, models.DeliveryPreparing},
		{"nothing to update", models.DeliveryPreparing,
			DeliveryUpdate{}, ErrValidation, models.DeliveryPreparing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, admin, _ := newDeliveryServices(t)
			order := seedPaidOrder(t, admin.Repo, 0, time.Now(), tt.from)

			in := tt.update
			in.OrderID = order.OrderID
			_, err := admin.UpdateDeliveryInfo(context.Background(), in)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.status, reloadOrder(t, admin.Repo, order.OrderID).DeliveryStatus)
		})
	}
}

func TestAdminUpdateDeliveryInfo_AnyOwnerAndEvent(t *testing.T) {
	t.Parallel()
	_, admin, pub := newDeliveryServices(t)
	order := seedPaidOrder(t, admin.Repo, 0, time.Now(), models.DeliveryPreparing)

	updated, err := admin.UpdateDeliveryInfo(context.Background(), DeliveryUpdate{
		OrderID:        order.OrderID,
		DeliveryStatus: ptr(models.DeliveryCancelled),
	})
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryCancelled, updated.DeliveryStatus)

	evs := pub.all()
	require.Len(t, evs, 1)
	ev := evs[0].event.(events.OrderEvent)
	assert.Equal(t, events.DeliveryUpdated, ev.Type)
	assert.Equal(t, models.DeliveryCancelled, ev.DeliveryStatus)

	_, err = admin.UpdateDeliveryInfo(context.Background(), DeliveryUpdate{OrderID: 999, DeliveryCom: ptr("CJ")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminUpdateDeliveryInfo_BlockedWhileConfirming(t *testing.T) {
	t.Parallel()
	_, admin, _ := newDeliveryServices(t)
	order := seedOrder(t, admin.Repo, 1, 1000)
	claimed, err := admin.Repo.ClaimPayment(context.Background(), order.OrderID, "pk")
	require.NoError(t, err)
	require.True(t, claimed)

	_, err = admin.UpdateDeliveryInfo(context.Background(), DeliveryUpdate{
		OrderID:        order.OrderID,
		DeliveryStatus: ptr(models.DeliveryCancelled),
	})
	assert.ErrorIs(t, err, ErrConflict)
}
