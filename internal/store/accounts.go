package store

import (
	"context"
	"errors"
	"strings"

	"github.com/suteetoe/backoffice/internal/apperror"
	"github.com/suteetoe/backoffice/internal/model"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound   = apperror.NotFound("user_not_found", "user not found")
	ErrTenantNotFound = apperror.NotFound("tenant_not_found", "tenant not found")
	ErrUsernameTaken  = apperror.Conflict("username_taken", "this username is already taken")
	ErrEmailTaken     = apperror.Conflict("email_taken", "this email is already registered")
)

// Accounts reads and writes users and tenants. These tables define tenancy
// rather than belong to it, so Accounts is not tenant-filtered.
type Accounts struct {
	db *gorm.DB
}

// NewAccounts returns an accessor for users and tenants
func NewAccounts(db *gorm.DB) *Accounts {
	return &Accounts{db: db}
}

// Transaction runs fn with accounts bound to one database transaction
func (a *Accounts) Transaction(ctx context.Context, fn func(tx *Accounts) error) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Accounts{db: tx})
	})
}

// GetOrCreateTenant returns the tenant named name, creating it with domain
// when missing. created reports whether a row was inserted.
func (a *Accounts) GetOrCreateTenant(ctx context.Context, name, domain string) (tenant *model.Tenant, created bool, err error) {
	var t model.Tenant
	err = a.db.WithContext(ctx).Where("name = ?", name).First(&t).Error
	if err == nil {
		return &t, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	t = model.Tenant{Name: name, Domain: domain}
	if err := a.db.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, false, err
	}
	return &t, true, nil
}

// TenantByID returns a tenant
func (a *Accounts) TenantByID(ctx context.Context, id uint) (*model.Tenant, error) {
	var t model.Tenant
	if err := first(a.db.WithContext(ctx).Where("id = ?", id), &t, ErrTenantNotFound); err != nil {
		return nil, err
	}
	return &t, nil
}

// TenantByDomain returns the tenant serving host, ignoring case and port
func (a *Accounts) TenantByDomain(ctx context.Context, host string) (*model.Tenant, error) {
	domain := strings.ToLower(host)
	if i := strings.LastIndex(domain, ":"); i >= 0 && !strings.Contains(domain[i:], "]") {
		domain = domain[:i]
	}

	var t model.Tenant
	if err := first(a.db.WithContext(ctx).Where("LOWER(domain) = ?", domain), &t, ErrTenantNotFound); err != nil {
		return nil, err
	}
	return &t, nil
}

// UserByID returns a user with its tenant
func (a *Accounts) UserByID(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := first(a.db.WithContext(ctx).Preload("Tenant").Where("id = ?", id), &u, ErrUserNotFound); err != nil {
		return nil, err
	}
	return &u, nil
}

// UserByUsername returns a user with its tenant
func (a *Accounts) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := first(a.db.WithContext(ctx).Preload("Tenant").Where("username = ?", username), &u, ErrUserNotFound); err != nil {
		return nil, err
	}
	return &u, nil
}

// CheckAvailable fails when username or email belong to a user other than exceptID
func (a *Accounts) CheckAvailable(ctx context.Context, username, email string, exceptID uint) error {
	taken := func(column, value string) (bool, error) {
		var count int64
		err := a.db.WithContext(ctx).Model(&model.User{}).
			Where(column+" = ? AND id <> ?", value, exceptID).
			Count(&count).Error
		return count > 0, err
	}

	if username != "" {
		ok, err := taken("username", username)
		if err != nil {
			return err
		}
		if ok {
			return ErrUsernameTaken
		}
	}
	if email != "" {
		ok, err := taken("email", email)
		if err != nil {
			return err
		}
		if ok {
			return ErrEmailTaken
		}
	}
	return nil
}

// CreateUser inserts a user
func (a *Accounts) CreateUser(ctx context.Context, u *model.User) error {
	err := a.db.WithContext(ctx).Omit("Tenant").Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrUsernameTaken.Wrap(err)
	}
	return err
}

// UpdateProfile writes the user's username, email and names
func (a *Accounts) UpdateProfile(ctx context.Context, u *model.User) error {
	err := a.db.WithContext(ctx).Model(&model.User{ID: u.ID}).Updates(map[string]interface{}{
		"username":   u.Username,
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrUsernameTaken.Wrap(err)
	}
	return err
}

// UpdatePassword stores a new password hash
func (a *Accounts) UpdatePassword(ctx context.Context, userID uint, hash string) error {
	return a.db.WithContext(ctx).Model(&model.User{ID: userID}).Update("password", hash).Error
}
