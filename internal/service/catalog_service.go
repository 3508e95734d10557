package service

import (
	"context"
	"fmt"
	"time"

	"shop-service/internal/apperr"
	"shop-service/internal/models"
	"shop-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogStore is the persistence surface the catalog gateway depends on
type CatalogStore interface {
	GetProductByCode(ctx context.Context, code string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	ToggleAvailability(ctx context.Context, code string) (*models.Product, error)
	ListProductTags(ctx context.Context, productID int64) ([]models.Tag, error)
}

// BarcodeGenerator renders the barcode artifact for a product code
type BarcodeGenerator interface {
	Generate(code string) (string, error)
}

// ProductEventSink receives product lifecycle notifications. Sinks run
// synchronously before the catalog call returns, so each creation and
// deletion is observed exactly once.
type ProductEventSink interface {
	OnProductCreated(ctx context.Context, snapshot models.ProductSnapshot) error
	OnProductDeleted(ctx context.Context, snapshot models.ProductSnapshot) error
}

// ProductEventPublisher publishes product lifecycle events to the bus
type ProductEventPublisher interface {
	PublishProductCreated(ctx context.Context, event *models.ProductCreatedEvent) error
	PublishProductDeleted(ctx context.Context, event *models.ProductDeletedEvent) error
}

// CatalogService owns product reads and mutations
type CatalogService struct {
	store          CatalogStore
	tags           TagStore
	barcodes       BarcodeGenerator
	eventPublisher ProductEventPublisher
	sinks          []ProductEventSink
	logger         *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store CatalogStore, tags TagStore, barcodes BarcodeGenerator, eventPublisher ProductEventPublisher) *CatalogService {
	return &CatalogService{
		store:          store,
		tags:           tags,
		barcodes:       barcodes,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// RegisterSink subscribes a sink to product lifecycle notifications
func (s *CatalogService) RegisterSink(sink ProductEventSink) {
	s.sinks = append(s.sinks, sink)
}

// CreateProductRequest carries a product draft
type CreateProductRequest struct {
	Code        string          `json:"code" binding:"required"`
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Tags        []string        `json:"tags"`
}

// CreateProduct inserts a product, generates its barcode artifact, attaches
// tags and notifies the audit sinks before returning
func (s *CatalogService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	if req.Code == "" || req.Title == "" {
		return nil, fmt.Errorf("code and title are required: %w", apperr.ErrInvalidInput)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("price must not be negative: %w", apperr.ErrInvalidInput)
	}

	barcodePath, err := s.barcodes.Generate(req.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to generate barcode: %w", err)
	}

	product := &models.Product{
		Code:        req.Code,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		IsAvailable: true,
		BarcodePath: barcodePath,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	for _, name := range req.Tags {
		tag, err := s.tags.EnsureTag(ctx, name)
		if err != nil {
			return nil, err
		}
		if err := s.tags.AttachTag(ctx, product.ID, tag.ID); err != nil {
			return nil, err
		}
	}

	snapshot := snapshotOf(product)
	if err := s.notifyCreated(ctx, snapshot); err != nil {
		return nil, err
	}

	util.ProductsCreatedTotal.Inc()
	s.logger.Info("Product created",
		zap.String("code", product.Code),
		zap.Int64("product_id", product.ID))

	if s.eventPublisher != nil {
		event := &models.ProductCreatedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeProductCreated,
				Timestamp: time.Now(),
			},
			Product: snapshot,
		}
		if err := s.eventPublisher.PublishProductCreated(ctx, event); err != nil {
			s.logger.Error("Failed to publish ProductCreated event", zap.Error(err))
		}
	}
	return product, nil
}

// DeleteProduct removes a product and notifies the audit sinks with a
// snapshot of the fields as they were immediately before deletion
func (s *CatalogService) DeleteProduct(ctx context.Context, code string) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteProduct")
	defer span.End()

	product, err := s.store.GetProductByCode(ctx, code)
	if err != nil {
		return err
	}

	if err := s.store.DeleteProduct(ctx, product.ID); err != nil {
		return err
	}

	snapshot := snapshotOf(product)
	if err := s.notifyDeleted(ctx, snapshot); err != nil {
		return err
	}

	util.ProductsDeletedTotal.Inc()
	s.logger.Info("Product deleted", zap.String("code", code))

	if s.eventPublisher != nil {
		event := &models.ProductDeletedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeProductDeleted,
				Timestamp: time.Now(),
			},
			Product: snapshot,
		}
		if err := s.eventPublisher.PublishProductDeleted(ctx, event); err != nil {
			s.logger.Error("Failed to publish ProductDeleted event", zap.Error(err))
		}
	}
	return nil
}

// ToggleAvailability inverts a product's availability flag, for manual
// stock-out marking
func (s *CatalogService) ToggleAvailability(ctx context.Context, code string) (*models.Product, error) {
	product, err := s.store.ToggleAvailability(ctx, code)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product availability toggled",
		zap.String("code", code),
		zap.Bool("is_available", product.IsAvailable))
	return product, nil
}

// ProductDetail is a product with its attached tags
type ProductDetail struct {
	Product *models.Product `json:"product"`
	Tags    []models.Tag    `json:"tags"`
}

// GetProduct retrieves a product with its tags
func (s *CatalogService) GetProduct(ctx context.Context, code string) (*ProductDetail, error) {
	product, err := s.store.GetProductByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	tags, err := s.store.ListProductTags(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return &ProductDetail{Product: product, Tags: tags}, nil
}

// ListProducts retrieves all products
func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.store.ListProducts(ctx)
}

func (s *CatalogService) notifyCreated(ctx context.Context, snapshot models.ProductSnapshot) error {
	for _, sink := range s.sinks {
		if err := sink.OnProductCreated(ctx, snapshot); err != nil {
			return fmt.Errorf("product created sink failed: %w", err)
		}
	}
	return nil
}

func (s *CatalogService) notifyDeleted(ctx context.Context, snapshot models.ProductSnapshot) error {
	for _, sink := range s.sinks {
		if err := sink.OnProductDeleted(ctx, snapshot); err != nil {
			return fmt.Errorf("product deleted sink failed: %w", err)
		}
	}
	return nil
}

func snapshotOf(product *models.Product) models.ProductSnapshot {
	return models.ProductSnapshot{
		ProductID:   product.ID,
		Code:        product.Code,
		Title:       product.Title,
		Description: product.Description,
		Price:       product.Price,
		IsAvailable: product.IsAvailable,
	}
}
