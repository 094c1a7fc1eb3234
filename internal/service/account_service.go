package service

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/suteetoe/backoffice/internal/apperror"
	"github.com/suteetoe/backoffice/internal/model"
	"github.com/suteetoe/backoffice/internal/store"
	"github.com/suteetoe/backoffice/pkg/jwtutil"
	"github.com/suteetoe/backoffice/pkg/logger"
	"github.com/suteetoe/backoffice/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

var (
	ErrInvalidCredentials = apperror.Unauthorized("invalid_credentials", "invalid username or password")
	ErrNoTenant           = apperror.Unauthorized(apperror.CodeTenantRequired, "account is not associated with a tenant")
	ErrWrongTenantDomain  = apperror.Unauthorized("tenant_domain_mismatch", "account does not belong to this tenant")
	ErrWeakPassword       = apperror.Validation("weak_password", "password must be at least 8 characters and contain a letter and a digit")
	ErrPasswordMismatch   = apperror.Validation("password_mismatch", "passwords do not match")
)

// RegisterInput is a self-service sign-up request
type RegisterInput struct {
	Username        string `json:"username" validate:"required,max=150"`
	Email           string `json:"email" validate:"required,email"`
	FirstName       string `json:"first_name" validate:"max=150"`
	LastName        string `json:"last_name" validate:"max=150"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

// ProfileInput holds the editable profile fields
type ProfileInput struct {
	Username  string `json:"username" validate:"required,max=150"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

// Session is an authenticated principal and its bearer token
type Session struct {
	Token  string        `json:"token"`
	User   *model.User   `json:"user"`
	Tenant *model.Tenant `json:"tenant"`
}

// AccountService registers and authenticates principals
type AccountService struct {
	accounts     *store.Accounts
	jwt          *jwtutil.JWTUtil
	metrics      *metrics.Business
	domainSuffix string
	cost         int
}

// NewAccountService returns an account service. Registered tenants get
// the domain <username>.<domainSuffix>.
func NewAccountService(accounts *store.Accounts, jwt *jwtutil.JWTUtil, m *metrics.Business, domainSuffix string) *AccountService {
	return &AccountService{
		accounts:     accounts,
		jwt:          jwt,
		metrics:      m,
		domainSuffix: domainSuffix,
		cost:         bcrypt.DefaultCost,
	}
}

// CheckPassword enforces the password policy
func CheckPassword(password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}

	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLetter(r):
			letter = true
		}
	}
	if !letter || !digit {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a principal and its tenant, then signs them in. The
// tenant is named after the username and reused if it already exists.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (sess *Session, err error) {
	log := logger.FromContext(ctx)
	defer func() { s.metrics.RecordAuthAttempt("register", err) }()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "username and email are required").
			With("Reason", "username, email")
	}
	if err := CheckPassword(in.Password, in.PasswordConfirm); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return nil, err
	}

	var user *model.User
	var tenant *model.Tenant
	err = s.accounts.Transaction(ctx, func(tx *store.Accounts) error {
		if err := tx.CheckAvailable(ctx, in.Username, in.Email, 0); err != nil {
			return err
		}

		var created bool
		var err error
		tenant, created, err = tx.GetOrCreateTenant(ctx, in.Username, in.Username+"."+s.domainSuffix)
		if err != nil {
			return err
		}
		if created {
			log.Info("Tenant created", zap.Uint("tenant_id", tenant.ID), zap.String("domain", tenant.Domain))
		}

		user = &model.User{
			Username:  in.Username,
			Email:     in.Email,
			Password:  string(hash),
			FirstName: in.FirstName,
			LastName:  in.LastName,
			TenantID:  &tenant.ID,
		}
		return tx.CreateUser(ctx, user)
	})
	if err != nil {
		log.Warn("Registration failed", zap.String("username", in.Username), zap.Error(err))
		return nil, err
	}

	user.Tenant = tenant
	log.Info("User registered",
		zap.Uint("user_id", user.ID),
		zap.Uint("tenant_id", tenant.ID))
	return s.session(user)
}

// Login checks credentials. Principals without tenant are refused, and
// when host is a tenant's domain the principal must belong to it.
func (s *AccountService) Login(ctx context.Context, username, password, host string) (sess *Session, err error) {
	log := logger.FromContext(ctx)
	defer func() { s.metrics.RecordAuthAttempt("login", err) }()

	user, err := s.accounts.UserByUsername(ctx, username)
	if err != nil {
		if apperror.IsNotFound(err) {
			log.Warn("Login for unknown user", zap.String("username", username))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		log.Warn("Invalid password", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}

	if user.TenantID == nil || user.Tenant == nil {
		log.Warn("Login refused, user has no tenant", zap.Uint("user_id", user.ID))
		return nil, ErrNoTenant
	}

	if host != "" {
		hostTenant, err := s.accounts.TenantByDomain(ctx, host)
		switch {
		case err == nil && hostTenant.ID != *user.TenantID:
			log.Warn("Login refused, user does not belong to host tenant",
				zap.Uint("user_id", user.ID),
				zap.String("host", host))
			return nil, ErrWrongTenantDomain
		case err != nil && !errors.Is(err, store.ErrTenantNotFound):
			return nil, err
		}
	}

	log.Info("User logged in",
		zap.Uint("user_id", user.ID),
		zap.Uint("tenant_id", *user.TenantID))
	return s.session(user)
}

func (s *AccountService) session(user *model.User) (*Session, error) {
	var tenantName string
	if user.Tenant != nil {
		tenantName = user.Tenant.Name
	}
	token, err := s.jwt.GenerateToken(user.ID, user.Username, user.Email, user.TenantID, tenantName)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user, Tenant: user.Tenant}, nil
}

// Profile returns the principal with its tenant
func (s *AccountService) Profile(ctx context.Context, userID uint) (*model.User, error) {
	return s.accounts.UserByID(ctx, userID)
}

// UpdateProfile changes the principal's username, email and names
func (s *AccountService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*model.User, error) {
	user, err := s.accounts.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.accounts.CheckAvailable(ctx, in.Username, in.Email, user.ID); err != nil {
		return nil, err
	}

	user.Username = in.Username
	user.Email = in.Email
	user.FirstName = in.FirstName
	user.LastName = in.LastName
	if err := s.accounts.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Profile updated", zap.Uint("user_id", user.ID))
	return user, nil
}

// ChangePassword replaces the password after checking the current one
func (s *AccountService) ChangePassword(ctx context.Context, userID uint, current, password, confirm string) error {
	user, err := s.accounts.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return apperror.Validation("wrong_password", "current password is incorrect")
	}
	if err := CheckPassword(password, confirm); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("Password changed", zap.Uint("user_id", user.ID))
	return nil
}
