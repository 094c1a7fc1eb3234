package model

import (
	"time"
)

// Tenant is the isolated business every scoped row belongs to
type Tenant struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(200);uniqueIndex;not null"`
	Domain    string    `json:"domain" gorm:"type:varchar(255);uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an authenticated principal. A user without tenant cannot
// reach any tenant-scoped data.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"type:varchar(150);uniqueIndex;not null"`
	Email     string    `json:"email" gorm:"type:varchar(254);uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"`
	FirstName string    `json:"first_name" gorm:"type:varchar(150)"`
	LastName  string    `json:"last_name" gorm:"type:varchar(150)"`
	TenantID  *uint     `json:"tenant_id,omitempty" gorm:"index"`
	Tenant    *Tenant   `json:"tenant,omitempty" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// All lists every persisted model in migration order
func All() []interface{} {
	return []interface{}{
		&Tenant{},
		&User{},
		&Category{},
		&Product{},
		&Client{},
		&Order{},
		&OrderItem{},
	}
}
