package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"storefront/internal/cache"
	apperrors "storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/repository"
)

const (
	productCacheTTL = 5 * time.Minute
	// ProductListCacheKey caches the full catalog; cmd/seed invalidates it.
	ProductListCacheKey = "products:all"
)

// CatalogService serves the read-only product catalog.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
}

type catalogService struct {
	repo  repository.ProductRepository
	cache *cache.Client
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(repo repository.ProductRepository, cache *cache.Client) CatalogService {
	return &catalogService{
		repo:  repo,
		cache: cache,
	}
}

// ListProducts returns the full catalog with caching.
func (s *catalogService) ListProducts(ctx context.Context) ([]model.Product, error) {
	// Try cache first
	if data, _ := s.cache.Get(ctx, ProductListCacheKey); data != nil {
		var cached []model.Product
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	// Cache the result
	if payload, err := json.Marshal(products); err == nil {
		_ = s.cache.Set(ctx, ProductListCacheKey, payload, productCacheTTL)
	}

	return products, nil
}

// GetProduct retrieves a product by ID with caching.
func (s *catalogService) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	key := fmt.Sprintf("product:%d", id)
	if data, _ := s.cache.Get(ctx, key); data != nil {
		var cached model.Product
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}

	if payload, err := json.Marshal(product); err == nil {
		_ = s.cache.Set(ctx, key, payload, productCacheTTL)
	}

	return product, nil
}
