package inventory

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateProductRequest) (*Product, error) {
	product := Product{
		Name:        req.Name,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		WeightKg:    req.WeightKg,
		Quantity:    req.Quantity,
		IsActive:    true,
	}
	id, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateProductRequest) (*Product, error) {
	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.UnitPrice != nil {
		updates["unit_price"] = *req.UnitPrice
	}
	if req.WeightKg != nil {
		updates["weight_kg"] = *req.WeightKg
	}
	if req.Quantity != nil {
		updates["quantity"] = *req.Quantity
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListProductsRequest) ([]Product, int, error) {
	return s.repo.List(ctx, req)
}

// Deduct removes quantity from stock when an invoice is finalized.
func (s *Service) Deduct(ctx context.Context, productID int64, qty float64) error {
	if qty <= 0 {
		return fmt.Errorf("deduct quantity must be positive, got %v", qty)
	}
	return s.repo.Adjust(ctx, productID, -qty)
}
