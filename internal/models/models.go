package models

import "time"

type User struct {
	UserCode  uint      `gorm:"primaryKey;autoIncrement" json:"userCode"`
	UserID    string    `gorm:"size:100;uniqueIndex;not null" json:"userId"`
	Name      string    `gorm:"size:100" json:"name"`
	Email     string    `gorm:"size:255" json:"email"`
	Phone     string    `gorm:"size:30" json:"-"`
	Role      string    `gorm:"size:20;not null;default:'user'" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (User) TableName() string { return "users" }

type Product struct {
	ProductID     uint      `gorm:"primaryKey;autoIncrement" json:"productId"`
	Name          string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Contents      string    `gorm:"type:text" json:"contents"`
	Premium       bool      `gorm:"not null;default:false" json:"premium"`
	Price         int64     `gorm:"not null" json:"price"`
	SalesMargin   int64     `gorm:"not null;default:0" json:"salesMargin"`
	DiscountPer   int       `gorm:"not null;default:0" json:"discountPer"`
	DiscountPrice int64     `gorm:"not null;default:0" json:"discountPrice"`
	DeliveryPrice int64     `gorm:"not null;default:0" json:"deliveryPrice"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	Options []ProductOption `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
	Images  []ProductImg    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
}

func (Product) TableName() string { return "products" }

// SalePrice is the unit price charged before option surcharges.
func (p *Product) SalePrice() int64 {
	if p.DiscountPrice > 0 {
		return p.DiscountPrice
	}
	return p.Price
}

type ProductOption struct {
	OptID     uint   `gorm:"primaryKey;autoIncrement" json:"optId"`
	ProductID uint   `gorm:"index;not null" json:"productId"`
	OptName   string `gorm:"size:255;not null" json:"optName"`
	OptPrice  int64  `gorm:"not null;default:0" json:"optPrice"`
}

func (ProductOption) TableName() string { return "product_options" }

type ProductImg struct {
	ProductImgID  uint   `gorm:"primaryKey;autoIncrement" json:"productImgId"`
	ProductID     uint   `gorm:"index;not null" json:"productId"`
	ProductImgURL string `gorm:"size:1024;not null" json:"productImgUrl"`
}

func (ProductImg) TableName() string { return "product_imgs" }

type CartItem struct {
	CartID    uint      `gorm:"primaryKey;autoIncrement" json:"cartId"`
	UserCode  uint      `gorm:"not null;uniqueIndex:ux_cart_user_product_opt" json:"userCode"`
	ProductID uint      `gorm:"not null;uniqueIndex:ux_cart_user_product_opt" json:"productId"`
	OptID     uint      `gorm:"not null;uniqueIndex:ux_cart_user_product_opt" json:"optId"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (CartItem) TableName() string { return "cart_items" }

// Delivery statuses.
const (
	DeliveryAwaitingPayment = "awaiting_payment"
	DeliveryPreparing       = "preparing"
	DeliveryShipped         = "shipped"
	DeliveryDelivered       = "delivered"
	DeliveryCancelled       = "cancelled"
)

// Payment states of an order. confirming marks a gateway call that owns the order.
const (
	PaymentUnpaid     = "unpaid"
	PaymentConfirming = "confirming"
	PaymentPaid       = "paid"
)

type Order struct {
	OrderID              uint       `gorm:"primaryKey;autoIncrement" json:"orderId"`
	OrderNum             string     `gorm:"size:64;uniqueIndex;not null" json:"orderNum"`
	UserCode             uint       `gorm:"index;not null" json:"userCode"`
	ReceivedUserName     string     `gorm:"size:100;not null" json:"receivedUserName"`
	ReceivedUserPhone    string     `gorm:"size:30;not null" json:"receivedUserPhone"`
	ReceivedUserZipCode  string     `gorm:"size:10" json:"receivedUserZipCode"`
	ReceivedUserAddress  string     `gorm:"size:255;not null" json:"receivedUserAddress"`
	ReceivedUserAddress2 string     `gorm:"size:255" json:"receivedUserAddress2"`
	Message              string     `gorm:"size:500" json:"message"`
	FinalPrice           int64      `gorm:"not null" json:"finalPrice"`
	DeliveryPrice        int64      `gorm:"not null;default:0" json:"deliveryPrice"`
	DeliveryStatus       string     `gorm:"size:32;not null;index" json:"deliveryStatus"`
	DeliveryCom          string     `gorm:"size:64" json:"deliveryCom"`
	InvoiceNum           string     `gorm:"size:64" json:"invoiceNum"`
	ChangeState          int        `gorm:"not null;default:0" json:"changeState"`
	PaymentState         string     `gorm:"size:16;not null;default:'unpaid'" json:"paymentState"`
	PaymentKey           string     `gorm:"size:200" json:"-"`
	PaymentAt            *time.Time `gorm:"index" json:"paymentAt"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`

	Details []OrderDetail `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"orderDetails,omitempty"`
}

func (Order) TableName() string { return "orders" }

type OrderDetail struct {
	OrderDetailID uint  `gorm:"primaryKey;autoIncrement" json:"orderDetailId"`
	OrderID       uint  `gorm:"index;not null" json:"orderId"`
	ProductID     uint  `gorm:"index;not null" json:"productId"`
	OptID         uint  `gorm:"not null" json:"optId"`
	Quantity      int   `gorm:"not null" json:"quantity"`
	Price         int64 `gorm:"not null" json:"price"`
	OrderStatus   int   `gorm:"not null;default:0" json:"orderStatus"`
}

func (OrderDetail) TableName() string { return "order_details" }

const PgProviderToss = "tosspayments"

type Payment struct {
	PaymentID     uint      `gorm:"primaryKey;autoIncrement" json:"paymentId"`
	OrderID       uint      `gorm:"uniqueIndex;not null" json:"orderId"`
	OrderNum      string    `gorm:"size:64;uniqueIndex;not null" json:"orderNum"`
	PaymentKey    string    `gorm:"size:200;not null" json:"-"`
	PaymentMethod string    `gorm:"size:50" json:"paymentMethod"`
	PaymentAmount int64     `gorm:"not null" json:"paymentAmount"`
	PaymentStatus string    `gorm:"size:32;not null" json:"paymentStatus"`
	PgProvider    string    `gorm:"size:32;not null" json:"pgProvider"`
	ApprovedAt    time.Time `json:"approvedAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (Payment) TableName() string { return "payments" }

type ChangeItem struct {
	ChangeItemID uint      `gorm:"primaryKey;autoIncrement" json:"changeItemId"`
	OrderItemID  uint      `gorm:"index;not null" json:"orderItemId"`
	OrderID      uint      `gorm:"index;not null" json:"orderId"`
	UserCode     uint      `gorm:"index;not null" json:"userCode"`
	ChangeStatus int       `gorm:"not null;default:0" json:"changeStatus"`
	Reason       string    `gorm:"size:500" json:"reason"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (ChangeItem) TableName() string { return "change_items" }

// All lists every table for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &Product{}, &ProductOption{}, &ProductImg{}, &CartItem{},
		&Order{}, &OrderDetail{}, &Payment{}, &ChangeItem{},
	}
}
