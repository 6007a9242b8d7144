package events

import "time"

// Event types carried in the "type" field.
const (
	OrderCreated      = "order_created"
	PaymentConfirmed  = "payment_confirmed"
	DeliveryUpdated   = "delivery_updated"
	ProductRegistered = "product_registered"
)

type OrderEvent struct {
	Type           string    `json:"type"`
	OrderID        uint      `json:"orderId"`
	OrderNum       string    `json:"orderNum"`
	UserCode       uint      `json:"userCode"`
	FinalPrice     int64     `json:"finalPrice,omitempty"`
	DeliveryStatus string    `json:"deliveryStatus,omitempty"`
	At             time.Time `json:"at"`
}

type ProductEvent struct {
	Type      string    `json:"type"`
	ProductID uint      `json:"productId"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	At        time.Time `json:"at"`
}
