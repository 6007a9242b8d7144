package transport

type CreateOrderItem struct {
	ProductID uint `json:"productId"`
	OptID     uint `json:"optId"`
	Quantity  int  `json:"quantity"`
}

type CreateOrderRequest struct {
	ReceivedUserName     string            `json:"receivedUserName"`
	ReceivedUserPhone    string            `json:"receivedUserPhone"`
	ReceivedUserZipCode  string            `json:"receivedUserZipCode"`
	ReceivedUserAddress  string            `json:"receivedUserAddress"`
	ReceivedUserAddress2 string            `json:"receivedUserAddress2"`
	Message              string            `json:"message"`
	FinalPrice           int64             `json:"finalPrice"`
	Items                []CreateOrderItem `json:"items"`
	CartIDs              []uint            `json:"cartIds"`
}

// ConfirmPaymentRequest mirrors the redirect parameters of the payment widget;
// orderId is our order number.
type ConfirmPaymentRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

type DeliveryUpdateRequest struct {
	OrderID        uint    `json:"orderId"`
	UserCode       *uint   `json:"userCode"`
	DeliveryStatus *string `json:"deliveryStatus"`
	DeliveryCom    *string `json:"deliveryCom"`
	InvoiceNum     *string `json:"invoiceNum"`
}

type ProductOptionRequest struct {
	OptName  string `json:"optName"`
	OptPrice int64  `json:"optPrice"`
}

type RegisterProductRequest struct {
	Name           string                 `json:"name"`
	Contents       string                 `json:"contents"`
	Premium        bool                   `json:"premium"`
	Price          int64                  `json:"price"`
	SalesMargin    int64                  `json:"salesMargin"`
	DiscountPer    int                    `json:"discountPer"`
	DiscountPrice  int64                  `json:"discountPrice"`
	DeliveryPrice  int64                  `json:"deliveryPrice"`
	Options        []ProductOptionRequest `json:"options"`
	ProductImgURLs []string               `json:"productImgUrls"`
}

type AddCartRequest struct {
	ProductID uint `json:"productId"`
	OptID     uint `json:"optId"`
	Quantity  int  `json:"quantity"`
}

type CartUpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}
