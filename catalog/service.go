// Package catalog manages vendor-owned products.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/ABH36/Machine-test/apperr"
	"github.com/ABH36/Machine-test/circuitbreaker"
	"github.com/ABH36/Machine-test/models"
	"github.com/ABH36/Machine-test/policy"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ProductStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id int) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListVendorProducts(ctx context.Context, vendorID int) ([]models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int) error
}

// Cache is an optional read-through cache for single product lookups.
type Cache interface {
	Get(ctx context.Context, id int) (*models.Product, bool)
	Set(ctx context.Context, p *models.Product)
	Invalidate(ctx context.Context, ids ...int)
}

type noCache struct{}

func (noCache) Get(context.Context, int) (*models.Product, bool) { return nil, false }
func (noCache) Set(context.Context, *models.Product)             {}
func (noCache) Invalidate(context.Context, ...int)               {}

type Service struct {
	store   ProductStore
	cache   Cache
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewService wires a product service. cache may be nil.
func NewService(store ProductStore, cache Cache, logger *zap.Logger) *Service {
	if cache == nil {
		cache = noCache{}
	}
	return &Service{
		store: store,
		cache: cache,
		breaker: circuitbreaker.NewCircuitBreaker("product-store", 5, 30*time.Second,
			circuitbreaker.WithLogger(logger),
			circuitbreaker.WithFailureFilter(func(err error) bool {
				return apperr.KindOf(err) == apperr.KindInternal
			}),
		),
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context) ([]models.Product, error) {
	ctx, span := otel.Tracer("marketplace").Start(ctx, "ListProducts")
	defer span.End()

	products, err := s.store.ListProducts(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("products.count", len(products)))
	return products, nil
}

func (s *Service) Get(ctx context.Context, id int) (*models.Product, error) {
	ctx, span := otel.Tracer("marketplace").Start(ctx, "GetProduct")
	defer span.End()
	span.SetAttributes(attribute.Int("product.id", id))

	if p, ok := s.cache.Get(ctx, id); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return p, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	var product *models.Product
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		product, err = s.store.GetProduct(ctx, id)
		return err
	})
	if err != nil {
		if err == circuitbreaker.ErrCircuitOpen {
			span.SetAttributes(attribute.String("circuit.state", "open"))
			return nil, apperr.Upstream(err, "Service temporarily unavailable")
		}
		if apperr.KindOf(err) == apperr.KindInternal {
			span.RecordError(err)
			s.logger.Error("Failed to fetch product", zap.Int("product_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.cache.Set(ctx, product)
	return product, nil
}

func (s *Service) Create(ctx context.Context, caller policy.Principal, req models.CreateProductRequest) (*models.Product, error) {
	ctx, span := otel.Tracer("marketplace").Start(ctx, "CreateProduct")
	defer span.End()

	if err := policy.Authorize(caller, policy.ActionCreateProduct, policy.Resource{}); err != nil {
		return nil, err
	}

	p := &models.Product{
		VendorID:    caller.UserID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    strings.TrimSpace(req.Category),
		Image:       req.Image,
	}
	if p.Category == "" {
		p.Category = models.DefaultCategory
	}
	if err := validate(p); err != nil {
		return nil, err
	}

	if err := s.store.CreateProduct(ctx, p); err != nil {
		span.RecordError(err)
		s.logger.Error("Failed to create product", zap.Error(err))
		return nil, err
	}

	span.SetAttributes(attribute.Int("product.id", p.ID))
	s.logger.Info("Product created",
		zap.Int("product_id", p.ID),
		zap.Int("vendor_id", p.VendorID),
	)
	return p, nil
}

// Update applies a partial update. Only the owning vendor may change a product.
func (s *Service) Update(ctx context.Context, caller policy.Principal, id int, req models.UpdateProductRequest) (*models.Product, error) {
	ctx, span := otel.Tracer("marketplace").Start(ctx, "UpdateProduct")
	defer span.End()
	span.SetAttributes(attribute.Int("product.id", id))

	// callers without the vendor role never learn whether a product id exists
	if err := policy.Precheck(caller, policy.ActionUpdateProduct); err != nil {
		return nil, err
	}

	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(caller, policy.ActionUpdateProduct, policy.Resource{OwnerID: p.VendorID}); err != nil {
		return nil, err
	}

	req.Apply(p)
	if err := validate(p); err != nil {
		return nil, err
	}

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.cache.Invalidate(ctx, id)

	s.logger.Info("Product updated", zap.Int("product_id", id))
	return p, nil
}

func (s *Service) Delete(ctx context.Context, caller policy.Principal, id int) error {
	ctx, span := otel.Tracer("marketplace").Start(ctx, "DeleteProduct")
	defer span.End()
	span.SetAttributes(attribute.Int("product.id", id))

	if err := policy.Precheck(caller, policy.ActionDeleteProduct); err != nil {
		return err
	}

	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(caller, policy.ActionDeleteProduct, policy.Resource{OwnerID: p.VendorID}); err != nil {
		return err
	}

	if err := s.store.DeleteProduct(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	s.cache.Invalidate(ctx, id)

	s.logger.Info("Product deleted", zap.Int("product_id", id))
	return nil
}

// ListVendor returns the caller's own products, newest first.
func (s *Service) ListVendor(ctx context.Context, caller policy.Principal) ([]models.Product, error) {
	if err := policy.Authorize(caller, policy.ActionListVendorProducts, policy.Resource{}); err != nil {
		return nil, err
	}
	return s.store.ListVendorProducts(ctx, caller.UserID)
}

func validate(p *models.Product) error {
	switch {
	case p.Name == "":
		return apperr.Validation("name", "Name is required")
	case p.Description == "":
		return apperr.Validation("description", "Description is required")
	case p.Price < 0:
		return apperr.Validation("price", "Price must not be negative")
	case p.Stock < 0:
		return apperr.Validation("stock", "Stock must not be negative")
	}
	return nil
}
