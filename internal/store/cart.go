package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shop-service/internal/apperr"
	"shop-service/internal/models"
)

// AddCartItem registers a product in a session's cart. The insert is a
// single atomic statement keyed on (session_id, product_id); if the pair
// already exists the existing row is returned unchanged.
func (s *Store) AddCartItem(ctx context.Context, sessionID string, productID int64, quantity int) (*models.CartItem, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cart_items (session_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id, product_id) DO NOTHING`,
		sessionID, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	var item models.CartItem
	err = s.db.GetContext(ctx, &item,
		"SELECT * FROM cart_items WHERE session_id = $1 AND product_id = $2",
		sessionID, productID)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveCartItem deletes the cart entry entirely (no partial decrement)
func (s *Store) RemoveCartItem(ctx context.Context, sessionID string, productID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE session_id = $1 AND product_id = $2",
		sessionID, productID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("cart entry for product %d: %w", productID, apperr.ErrNotFound)
	}
	return nil
}

// ListCartLines returns a session's cart entries joined with their products,
// in insertion order
func (s *Store) ListCartLines(ctx context.Context, sessionID string) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := s.db.SelectContext(ctx, &lines, `
		SELECT ci.id, ci.product_id, p.code, p.title, p.price, ci.quantity, ci.added_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.session_id = $1
		ORDER BY ci.id`,
		sessionID)
	return lines, err
}

// CountCartItems returns the sum of quantities in a session's cart
func (s *Store) CountCartItems(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE session_id = $1", sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return count, err
}

// ClearCart deletes all entries for a session; clearing an empty cart is a no-op
func (s *Store) ClearCart(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE session_id = $1", sessionID)
	return err
}
