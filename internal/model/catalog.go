package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TenantOwned is implemented by every tenant-scoped row
type TenantOwned interface {
	OwnerTenantID() *uint
}

// Category groups products; names are unique per tenant
type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  *uint     `json:"tenant_id" gorm:"uniqueIndex:idx_categories_tenant_name;index"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:idx_categories_tenant_name"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Category) OwnerTenantID() *uint { return c.TenantID }

// Product is a catalog item; names are unique per tenant
type Product struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	TenantID   *uint           `json:"tenant_id" gorm:"uniqueIndex:idx_products_tenant_name;index"`
	CategoryID uint            `json:"category_id" gorm:"index;not null"`
	Category   *Category       `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
	Name       string          `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:idx_products_tenant_name"`
	Price      decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Stock      int             `json:"stock" gorm:"not null;default:0;check:stock >= 0"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (p *Product) OwnerTenantID() *uint { return p.TenantID }

// Client is a customer of a tenant; phones are unique per tenant
type Client struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  *uint     `json:"tenant_id" gorm:"uniqueIndex:idx_clients_tenant_phone;index"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Phone     string    `json:"phone" gorm:"type:varchar(20);not null;uniqueIndex:idx_clients_tenant_phone"`
	Area      string    `json:"area" gorm:"type:varchar(100)"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Client) OwnerTenantID() *uint { return c.TenantID }
