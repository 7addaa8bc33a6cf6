// Package accounts handles registration, login and admin user management.
package accounts

import (
	"context"
	"strings"

	"github.com/ABH36/Machine-test/apperr"
	"github.com/ABH36/Machine-test/auth"
	"github.com/ABH36/Machine-test/models"
	"github.com/ABH36/Machine-test/orders"
	"github.com/ABH36/Machine-test/policy"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id int) error
}

type ProductLister interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListVendorProducts(ctx context.Context, vendorID int) ([]models.Product, error)
}

// ProductInvalidator drops cached products. Deleting a vendor removes its
// products, so their cache entries must go too.
type ProductInvalidator interface {
	Invalidate(ctx context.Context, ids ...int)
}

type OrderLister interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
}

type Service struct {
	users      UserStore
	products   ProductLister
	orders     OrderLister
	cache      ProductInvalidator
	tokens     *auth.TokenIssuer
	bcryptCost int
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewService wires the account service. cache may be nil.
func NewService(users UserStore, products ProductLister, orders OrderLister, cache ProductInvalidator, tokens *auth.TokenIssuer, bcryptCost int, logger *zap.Logger) *Service {
	return &Service{
		users:      users,
		products:   products,
		orders:     orders,
		cache:      cache,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		validate:   validator.New(),
		logger:     logger,
	}
}

// Register creates a user or vendor account and returns a token for it.
// Missing fields are reported before the role check.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	ctx, span := otel.Tracer("marketplace").Start(ctx, "Register")
	defer span.End()

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	switch {
	case name == "":
		return nil, apperr.Validation("name", "Please include all fields")
	case email == "":
		return nil, apperr.Validation("email", "Please include all fields")
	case req.Password == "":
		return nil, apperr.Validation("password", "Please include all fields")
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return nil, apperr.Validation("email", "Invalid email address")
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if err := policy.Authorize(policy.Principal{}, policy.ActionRegister, policy.Resource{Role: role}); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	user := &models.User{Name: name, Email: email, PasswordHash: hash, Role: role}
	if err := s.users.CreateUser(ctx, user); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("user.id", user.ID), attribute.String("user.role", string(role)))
	s.logger.Info("User registered",
		zap.Int("user_id", user.ID),
		zap.String("role", string(role)),
	)
	return s.respond(*user)
}

func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	ctx, span := otel.Tracer("marketplace").Start(ctx, "Login")
	defer span.End()

	if req.Email == "" || req.Password == "" {
		return nil, apperr.Validation("email", "Please provide email and password")
	}

	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized("Invalid credentials")
		}
		span.RecordError(err)
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	s.logger.Info("User logged in", zap.Int("user_id", user.ID))
	return s.respond(*user)
}

func (s *Service) respond(user models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error("Failed to generate token", zap.Error(err))
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

func (s *Service) ListUsers(ctx context.Context, caller policy.Principal) ([]models.User, error) {
	if err := policy.Authorize(caller, policy.ActionListUsers, policy.Resource{}); err != nil {
		return nil, err
	}
	return s.users.ListUsers(ctx)
}

// DeleteUser removes a non-admin account. Products of a deleted vendor go
// with it; orders are kept for revenue history.
func (s *Service) DeleteUser(ctx context.Context, caller policy.Principal, id int) error {
	ctx, span := otel.Tracer("marketplace").Start(ctx, "DeleteUser")
	defer span.End()
	span.SetAttributes(attribute.Int("user.id", id))

	if err := policy.Authorize(caller, policy.ActionDeleteUser, policy.Resource{}); err != nil {
		return err
	}

	target, err := s.users.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(caller, policy.ActionDeleteUser, policy.Resource{Role: target.Role}); err != nil {
		s.logger.Warn("Rejected admin account deletion",
			zap.Int("target_id", id),
			zap.Int("requested_by", caller.UserID),
		)
		return err
	}

	var owned []int
	if target.Role == models.RoleVendor && s.cache != nil {
		products, err := s.products.ListVendorProducts(ctx, id)
		if err != nil {
			return err
		}
		for _, p := range products {
			owned = append(owned, p.ID)
		}
	}

	if err := s.users.DeleteUser(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	if len(owned) > 0 {
		s.cache.Invalidate(ctx, owned...)
	}
	s.logger.Info("User deleted",
		zap.Int("user_id", id),
		zap.Int("deleted_by", caller.UserID),
		zap.Int("products_removed", len(owned)),
	)
	return nil
}

// Stats gathers the admin dashboard. Revenue counts approved orders only.
func (s *Service) Stats(ctx context.Context, caller policy.Principal) (*models.AdminStats, error) {
	ctx, span := otel.Tracer("marketplace").Start(ctx, "AdminStats")
	defer span.End()

	if err := policy.Authorize(caller, policy.ActionViewStats, policy.Resource{}); err != nil {
		return nil, err
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	vendorCount := 0
	for _, u := range users {
		if u.Role == models.RoleVendor {
			vendorCount++
		}
	}

	stats := &models.AdminStats{
		Users:         users,
		Products:      products,
		Orders:        all,
		TotalRevenue:  orders.PlatformRevenue(all),
		VendorCount:   vendorCount,
		VendorRevenue: orders.RevenueByVendor(all),
	}
	span.SetAttributes(attribute.Float64("revenue.total", stats.TotalRevenue))
	return stats, nil
}
