package store

import (
	"context"

	"shop-service/internal/models"
)

// AppendProductHistory appends an immutable lifecycle snapshot. History rows
// are never updated once written.
func (s *Store) AppendProductHistory(ctx context.Context, record *models.ProductHistory) error {
	query := `
		INSERT INTO product_history (product_id, code, title, description, price, action)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, recorded_at`

	return s.db.GetContext(ctx, record, query,
		record.ProductID, record.Code, record.Title,
		record.Description, record.Price, record.Action)
}

// ListProductHistory returns all history records for a product code, oldest
// first, ties broken by insertion order
func (s *Store) ListProductHistory(ctx context.Context, code string) ([]models.ProductHistory, error) {
	var records []models.ProductHistory
	err := s.db.SelectContext(ctx, &records,
		"SELECT * FROM product_history WHERE code = $1 ORDER BY recorded_at, id", code)
	return records, err
}
