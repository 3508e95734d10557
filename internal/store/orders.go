package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shop-service/internal/apperr"
	"shop-service/internal/models"
)

// PlaceOrder converts a session's cart into an order inside one serializable
// transaction: lock the cart rows, create the order, capture the current
// product price on every line, recompute the total from the captured lines,
// clear the cart and, when the order is created confirmed, mark every line's
// product unavailable. Either every step commits or none is observable; a
// product deleted concurrently aborts the whole checkout.
func (s *Store) PlaceOrder(ctx context.Context, sessionID, email, label string, confirmed bool) (*models.Order, []models.OrderItem, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var entries []models.CartItem
	err = tx.SelectContext(ctx, &entries,
		"SELECT * FROM cart_items WHERE session_id = $1 ORDER BY id FOR UPDATE", sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock cart: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil, apperr.ErrEmptyCart
	}

	var order models.Order
	err = tx.GetContext(ctx, &order, `
		INSERT INTO orders (label, email, session_id, total, confirmed)
		VALUES ($1, $2, $3, 0, $4)
		RETURNING *`,
		label, email, sessionID, confirmed)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create order: %w", err)
	}

	items := make([]models.OrderItem, 0, len(entries))
	for _, entry := range entries {
		var item models.OrderItem
		err = tx.GetContext(ctx, &item, `
			INSERT INTO order_items (order_id, product_id, quantity, price)
			SELECT $1, p.id, $2, p.price FROM products p WHERE p.id = $3
			RETURNING *`,
			order.ID, entry.Quantity, entry.ProductID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("product %d vanished during checkout: %w", entry.ProductID, apperr.ErrNotFound)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create order item: %w", err)
		}
		items = append(items, item)
	}

	err = tx.GetContext(ctx, &order.Total, `
		UPDATE orders SET total = (
			SELECT COALESCE(SUM(price * quantity), 0) FROM order_items WHERE order_id = $1
		) WHERE id = $1
		RETURNING total`,
		order.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set order total: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM cart_items WHERE session_id = $1", sessionID); err != nil {
		return nil, nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if confirmed {
		if _, err := tx.ExecContext(ctx, `
			UPDATE products SET is_available = false
			WHERE id IN (SELECT product_id FROM order_items WHERE order_id = $1)`,
			order.ID); err != nil {
			return nil, nil, fmt.Errorf("failed to update availability: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return &order, items, nil
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderItemsByOrderID retrieves all line items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// ConfirmOrder performs the one-way confirmation transition. The first call
// flips the flag and marks every line's product unavailable; repeat calls
// are no-ops returning the order unchanged.
func (s *Store) ConfirmOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var order models.Order
	err = tx.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE id = $1 FOR UPDATE", orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", orderID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if order.Confirmed {
		return &order, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE orders SET confirmed = true WHERE id = $1", orderID); err != nil {
		return nil, fmt.Errorf("failed to confirm order: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE products SET is_available = false
		WHERE id IN (SELECT product_id FROM order_items WHERE order_id = $1)`,
		orderID); err != nil {
		return nil, fmt.Errorf("failed to update availability: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	order.Confirmed = true
	return &order, nil
}
