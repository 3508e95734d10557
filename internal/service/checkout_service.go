package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shop-service/internal/apperr"
	"shop-service/internal/models"
	"shop-service/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var validate = validator.New()

// OrderStore is the persistence surface the checkout engine depends on.
// PlaceOrder must apply its whole sequence atomically.
type OrderStore interface {
	ListCartLines(ctx context.Context, sessionID string) ([]models.CartLine, error)
	PlaceOrder(ctx context.Context, sessionID, email, label string, confirmed bool) (*models.Order, []models.OrderItem, error)
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	ConfirmOrder(ctx context.Context, orderID int64) (*models.Order, error)
}

// OrderEventPublisher publishes order events to the bus
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderConfirmed(ctx context.Context, event *models.OrderConfirmedEvent) error
}

// CheckoutService converts carts into orders
type CheckoutService struct {
	store          OrderStore
	eventPublisher OrderEventPublisher
	badge          BadgeCache
	logger         *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(store OrderStore, eventPublisher OrderEventPublisher, badge BadgeCache) *CheckoutService {
	return &CheckoutService{
		store:          store,
		eventPublisher: eventPublisher,
		badge:          badge,
		logger:         util.GetLogger(),
	}
}

// CheckoutResult is returned to API callers after a successful checkout
type CheckoutResult struct {
	Order *models.Order      `json:"order"`
	Items []models.OrderItem `json:"items"`
}

// Checkout validates the request and converts the session's cart into an
// order. The direct flow creates the order already confirmed, so product
// availability flips inside the same transaction that writes the order and
// clears the cart. Nothing is persisted if any step fails.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID, email string) (*CheckoutResult, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Checkout")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if err := validate.Var(email, "required,email"); err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_email").Inc()
		return nil, fmt.Errorf("invalid email %q: %w", email, apperr.ErrInvalidInput)
	}

	// Read the lines up front for the event payload; the authoritative
	// snapshot is re-taken inside the PlaceOrder transaction.
	lines, err := s.store.ListCartLines(ctx, sessionID)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, err
	}
	if len(lines) == 0 {
		util.OrdersFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, apperr.ErrEmptyCart
	}

	order, items, err := s.store.PlaceOrder(ctx, sessionID, email, newOrderLabel(), true)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.String("label", order.Label),
		zap.String("total", order.Total.String()))

	s.invalidateBadge(ctx, sessionID)
	s.publishOrderPlaced(ctx, order, items, lines)

	return &CheckoutResult{Order: order, Items: items}, nil
}

// Confirm performs the deferred confirmation transition. Confirming an
// already-confirmed order is a no-op.
func (s *CheckoutService) Confirm(ctx context.Context, orderID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Confirm")
	defer span.End()

	current, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current.Confirmed {
		return current, nil
	}

	order, err := s.store.ConfirmOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	util.OrdersConfirmedTotal.Inc()
	s.logger.Info("Order confirmed", zap.Int64("order_id", order.ID))

	if s.eventPublisher != nil {
		event := &models.OrderConfirmedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderConfirmed,
				Timestamp: time.Now(),
			},
			OrderID: order.ID,
			Email:   order.Email,
		}
		if err := s.eventPublisher.PublishOrderConfirmed(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderConfirmed event", zap.Error(err))
		}
	}
	return order, nil
}

// GetOrder retrieves an order with its line items
func (s *CheckoutService) GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return order, items, nil
}

func (s *CheckoutService) publishOrderPlaced(ctx context.Context, order *models.Order, items []models.OrderItem, lines []models.CartLine) {
	if s.eventPublisher == nil {
		return
	}

	codes := make(map[int64]string, len(lines))
	for _, line := range lines {
		codes[line.ProductID] = line.Code
	}

	itemData := make([]models.OrderItemData, 0, len(items))
	for _, item := range items {
		itemData = append(itemData, models.OrderItemData{
			ProductID: item.ProductID,
			Code:      codes[item.ProductID],
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:   order.ID,
		Label:     order.Label,
		Email:     order.Email,
		Total:     order.Total,
		Confirmed: order.Confirmed,
		Items:     itemData,
	}

	if err := s.eventPublisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}
}

func (s *CheckoutService) invalidateBadge(ctx context.Context, sessionID string) {
	if s.badge == nil {
		return
	}
	if err := s.badge.InvalidateCartCount(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to invalidate cart badge", zap.Error(err))
	}
}

func newOrderLabel() string {
	return "ORD-" + strings.ToUpper(uuid.New().String()[:8])
}

func failureReason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, apperr.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, apperr.ErrNotFound):
		return "product_vanished"
	default:
		return "db_error"
	}
}
