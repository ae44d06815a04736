package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ddkma/bakery_shop/internal/models"
	"github.com/ddkma/bakery_shop/internal/repo"
	"github.com/ddkma/bakery_shop/internal/transport"
)

type CatalogService struct {
	Repo *repo.GormRepo
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]transport.ProductView, error) {
	items, err := s.Repo.ListAvailableProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return productViews(items), nil
}

func (s *CatalogService) ListFeatured(ctx context.Context) ([]transport.ProductView, error) {
	items, err := s.Repo.ListFeaturedProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list featured products: %w", err)
	}
	return productViews(items), nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	if product.Deleted {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// GetProductAdmin resolves a product regardless of its deleted or available
// state, for the back-office views that manage retired rows.
func (s *CatalogService) GetProductAdmin(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return product, nil
}

func (s *CatalogService) ListAll(ctx context.Context) ([]models.Product, error) {
	items, err := s.Repo.ListAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all products: %w", err)
	}
	return items, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrInvalidInput)
	}
	if req.Price.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("price cannot be negative: %w", ErrInvalidInput)
	}

	product := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Featured:    req.Featured,
		Stock:       req.Stock,
		Available:   req.Available,
	}
	if err := s.Repo.CreateProduct(ctx, &product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, req transport.CreateProductRequest) (*models.Product, error) {
	if req.Price.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("price cannot be negative: %w", ErrInvalidInput)
	}

	product := models.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Featured:    req.Featured,
		Stock:       req.Stock,
		Available:   req.Available,
	}
	updated, err := s.Repo.UpdateProduct(ctx, &product)
	if err != nil {
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}
	if !updated {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	deleted, err := s.Repo.SoftDeleteProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	if !deleted {
		return ErrProductNotFound
	}
	return nil
}

func productViews(items []models.Product) []transport.ProductView {
	views := make([]transport.ProductView, len(items))
	for i, p := range items {
		views[i] = transport.ProductView{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Image:       p.Image,
		}
	}
	return views
}
