package service

import (
	"context"
	"fmt"

	"shop-service/internal/apperr"
	"shop-service/internal/models"
	"shop-service/internal/util"

	"go.uber.org/zap"
)

// TagStore is the persistence surface for tag and category normalization
type TagStore interface {
	GetProductByCode(ctx context.Context, code string) (*models.Product, error)
	EnsureTag(ctx context.Context, name string) (*models.Tag, error)
	AttachTag(ctx context.Context, productID, tagID int64) error
	ListProductTags(ctx context.Context, productID int64) ([]models.Tag, error)
	EnsureCategory(ctx context.Context, name string) (*models.Category, error)
	SetProductCategory(ctx context.Context, productID, categoryID int64) error
	ClearProductCategory(ctx context.Context, productID int64) error
}

// TagService normalizes free-text tag and category names into shared
// reference entities
type TagService struct {
	store  TagStore
	logger *zap.Logger
}

// NewTagService creates a new tag service
func NewTagService(store TagStore) *TagService {
	return &TagService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// EnsureTag resolves a tag by exact, case-sensitive name, creating it on
// first use
func (s *TagService) EnsureTag(ctx context.Context, name string) (*models.Tag, error) {
	if name == "" {
		return nil, fmt.Errorf("tag name is required: %w", apperr.ErrInvalidInput)
	}
	return s.store.EnsureTag(ctx, name)
}

// AttachTag associates a tag with a product; re-attaching is a no-op
func (s *TagService) AttachTag(ctx context.Context, productCode, tagName string) (*models.Tag, error) {
	product, err := s.store.GetProductByCode(ctx, productCode)
	if err != nil {
		return nil, err
	}

	tag, err := s.EnsureTag(ctx, tagName)
	if err != nil {
		return nil, err
	}

	if err := s.store.AttachTag(ctx, product.ID, tag.ID); err != nil {
		return nil, err
	}
	return tag, nil
}

// ListTags returns the tags attached to a product
func (s *TagService) ListTags(ctx context.Context, productCode string) ([]models.Tag, error) {
	product, err := s.store.GetProductByCode(ctx, productCode)
	if err != nil {
		return nil, err
	}
	return s.store.ListProductTags(ctx, product.ID)
}

// SetCategory assigns a category to a product. A product holds at most one
// category; callers must clear the existing association before reassigning.
func (s *TagService) SetCategory(ctx context.Context, productCode, categoryName string) (*models.Category, error) {
	if categoryName == "" {
		return nil, fmt.Errorf("category name is required: %w", apperr.ErrInvalidInput)
	}

	product, err := s.store.GetProductByCode(ctx, productCode)
	if err != nil {
		return nil, err
	}

	category, err := s.store.EnsureCategory(ctx, categoryName)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetProductCategory(ctx, product.ID, category.ID); err != nil {
		return nil, err
	}

	s.logger.Info("Category assigned",
		zap.String("product_code", productCode),
		zap.String("category", categoryName))
	return category, nil
}

// ClearCategory removes a product's category association
func (s *TagService) ClearCategory(ctx context.Context, productCode string) error {
	product, err := s.store.GetProductByCode(ctx, productCode)
	if err != nil {
		return err
	}
	return s.store.ClearProductCategory(ctx, product.ID)
}
