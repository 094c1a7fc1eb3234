package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryMode is how an order reaches the client
type DeliveryMode string

const (
	DeliveryPickup DeliveryMode = "pickup"
	DeliveryHome   DeliveryMode = "delivery"
)

// Valid reports whether m is a known delivery mode
func (m DeliveryMode) Valid() bool {
	return m == DeliveryPickup || m == DeliveryHome
}

// OrderStatus is the fulfilment state of an order
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusInProgress OrderStatus = "in_progress"
	StatusDelivered  OrderStatus = "delivered"
)

var statusRank = map[OrderStatus]int{
	StatusPending:    0,
	StatusInProgress: 1,
	StatusDelivered:  2,
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Before reports whether s comes strictly before other in the
// pending -> in_progress -> delivered sequence
func (s OrderStatus) Before(other OrderStatus) bool {
	return statusRank[s] < statusRank[other]
}

// Order is a client purchase. TotalAmount always equals the sum of its
// items' price*quantity plus DeliveryFee.
type Order struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	TenantID     *uint           `json:"tenant_id" gorm:"index"`
	ClientID     uint            `json:"client_id" gorm:"index;not null"`
	Client       *Client         `json:"client,omitempty" gorm:"foreignKey:ClientID;constraint:OnDelete:RESTRICT"`
	DeliveryMode DeliveryMode    `json:"delivery_mode" gorm:"type:varchar(20);not null;default:'pickup'"`
	DeliveryFee  decimal.Decimal `json:"delivery_fee" gorm:"type:decimal(10,2);not null;default:0"`
	Status       OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	TotalAmount  decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2);not null;default:0"`
	Items        []OrderItem     `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (o *Order) OwnerTenantID() *uint { return o.TenantID }

// OrderItem is one order line. Price is the product price captured when
// the line was created and is never updated afterwards.
type OrderItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"order_id" gorm:"index;not null"`
	ProductID uint            `json:"product_id" gorm:"index;not null"`
	Product   *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	Quantity  int             `json:"quantity" gorm:"not null;check:quantity > 0"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
}

// MoneyScale is the number of decimals stored for every amount
const MoneyScale = 2

// ValidAmount reports whether d is a non-negative amount the money columns
// store exactly
func ValidAmount(d decimal.Decimal) bool {
	return !d.IsNegative() && d.Equal(d.Round(MoneyScale))
}

// Subtotal returns price * quantity
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// DashboardStats summarizes one tenant's activity
type DashboardStats struct {
	TotalProducts int64           `json:"total_products"`
	TotalClients  int64           `json:"total_clients"`
	TotalSales    int64           `json:"total_sales"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	PendingOrders int64           `json:"pending_orders"`
}
