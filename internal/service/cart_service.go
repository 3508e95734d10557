package service

import (
	"context"
	"fmt"

	"shop-service/internal/apperr"
	"shop-service/internal/models"
	"shop-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartStore is the persistence surface the cart service depends on
type CartStore interface {
	GetProductByCode(ctx context.Context, code string) (*models.Product, error)
	AddCartItem(ctx context.Context, sessionID string, productID int64, quantity int) (*models.CartItem, error)
	RemoveCartItem(ctx context.Context, sessionID string, productID int64) error
	ListCartLines(ctx context.Context, sessionID string) ([]models.CartLine, error)
	CountCartItems(ctx context.Context, sessionID string) (int, error)
}

// BadgeCache invalidates the cached per-session cart item count after a
// cart mutation. Optional; a nil cache disables badge maintenance.
type BadgeCache interface {
	InvalidateCartCount(ctx context.Context, token string) error
}

// CartService handles session-scoped cart operations
type CartService struct {
	store  CartStore
	badge  BadgeCache
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(store CartStore, badge BadgeCache) *CartService {
	return &CartService{
		store:  store,
		badge:  badge,
		logger: util.GetLogger(),
	}
}

// Add registers a product in the session's cart. Adding a product that is
// already present returns the existing entry unchanged; quantity does not
// accumulate.
func (s *CartService) Add(ctx context.Context, sessionID, productCode string, quantity int) (*models.CartItem, error) {
	ctx, span := util.StartSpan(ctx, "CartService.Add")
	defer span.End()

	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be positive: %w", apperr.ErrInvalidInput)
	}

	product, err := s.store.GetProductByCode(ctx, productCode)
	if err != nil {
		return nil, err
	}

	item, err := s.store.AddCartItem(ctx, sessionID, product.ID, quantity)
	if err != nil {
		return nil, err
	}

	util.CartAddsTotal.Inc()
	s.invalidateBadge(ctx, sessionID)
	s.logger.Info("Product added to cart",
		zap.String("product_code", productCode),
		zap.String("session_id", sessionID))
	return item, nil
}

// Remove deletes the cart entry for a product entirely
func (s *CartService) Remove(ctx context.Context, sessionID, productCode string) error {
	ctx, span := util.StartSpan(ctx, "CartService.Remove")
	defer span.End()

	product, err := s.store.GetProductByCode(ctx, productCode)
	if err != nil {
		return err
	}

	if err := s.store.RemoveCartItem(ctx, sessionID, product.ID); err != nil {
		return err
	}

	util.CartRemovesTotal.Inc()
	s.invalidateBadge(ctx, sessionID)
	return nil
}

// List returns the session's cart entries in insertion order with derived
// totals
func (s *CartService) List(ctx context.Context, sessionID string) (*models.CartSummary, error) {
	ctx, span := util.StartSpan(ctx, "CartService.List")
	defer span.End()

	lines, err := s.store.ListCartLines(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	summary := &models.CartSummary{
		Items:      lines,
		TotalPrice: decimal.Zero,
	}
	for _, line := range lines {
		summary.TotalItems += line.Quantity
		summary.TotalPrice = summary.TotalPrice.Add(line.TotalPrice())
	}
	if summary.Items == nil {
		summary.Items = []models.CartLine{}
	}
	return summary, nil
}

// Count returns the session's cart item count, for the badge header
func (s *CartService) Count(ctx context.Context, sessionID string) (int, error) {
	return s.store.CountCartItems(ctx, sessionID)
}

func (s *CartService) invalidateBadge(ctx context.Context, sessionID string) {
	if s.badge == nil {
		return
	}
	if err := s.badge.InvalidateCartCount(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to invalidate cart badge",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
}
