package service

import (
	"context"
	"fmt"

	"shop-service/internal/models"
	"shop-service/internal/util"

	"go.uber.org/zap"
)

// HistoryStore is the persistence surface for the audit trail
type HistoryStore interface {
	AppendProductHistory(ctx context.Context, record *models.ProductHistory) error
	ListProductHistory(ctx context.Context, code string) ([]models.ProductHistory, error)
}

// AuditTrail appends an immutable history record for every product creation
// and deletion. It subscribes to the catalog as a ProductEventSink and runs
// synchronously inside the catalog call, so each lifecycle event yields
// exactly one record.
type AuditTrail struct {
	store  HistoryStore
	logger *zap.Logger
}

// NewAuditTrail creates a new audit trail
func NewAuditTrail(store HistoryStore) *AuditTrail {
	return &AuditTrail{
		store:  store,
		logger: util.GetLogger(),
	}
}

// OnProductCreated appends a creation record linked to the live product
func (a *AuditTrail) OnProductCreated(ctx context.Context, snapshot models.ProductSnapshot) error {
	productID := snapshot.ProductID
	record := &models.ProductHistory{
		ProductID:   &productID,
		Code:        snapshot.Code,
		Title:       snapshot.Title,
		Description: snapshot.Description,
		Price:       snapshot.Price,
		Action:      models.HistoryActionCreated,
	}

	if err := a.store.AppendProductHistory(ctx, record); err != nil {
		return fmt.Errorf("failed to record product creation: %w", err)
	}

	a.logger.Info("Product history appended",
		zap.String("code", snapshot.Code),
		zap.String("action", record.Action))
	return nil
}

// OnProductDeleted appends a deletion record. The product link is cleared
// while the snapshot fields persist, so history survives the deletion.
func (a *AuditTrail) OnProductDeleted(ctx context.Context, snapshot models.ProductSnapshot) error {
	record := &models.ProductHistory{
		ProductID:   nil,
		Code:        snapshot.Code,
		Title:       snapshot.Title,
		Description: snapshot.Description,
		Price:       snapshot.Price,
		Action:      models.HistoryActionDeleted,
	}

	if err := a.store.AppendProductHistory(ctx, record); err != nil {
		return fmt.Errorf("failed to record product deletion: %w", err)
	}

	a.logger.Info("Product history appended",
		zap.String("code", snapshot.Code),
		zap.String("action", record.Action))
	return nil
}

// History lists a product code's lifecycle records, oldest first
func (a *AuditTrail) History(ctx context.Context, code string) ([]models.ProductHistory, error) {
	records, err := a.store.ListProductHistory(ctx, code)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.ProductHistory{}
	}
	return records, nil
}
