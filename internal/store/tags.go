package store

import (
	"context"
	"fmt"

	"shop-service/internal/apperr"
	"shop-service/internal/models"
)

// EnsureTag resolves a tag name to its row, creating it on first use.
// Matching is exact and case-sensitive; concurrent calls for the same name
// converge on one row via the unique constraint.
func (s *Store) EnsureTag(ctx context.Context, name string) (*models.Tag, error) {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO tags (name) VALUES ($1) ON CONFLICT (name) DO NOTHING", name)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure tag: %w", err)
	}

	var tag models.Tag
	err = s.db.GetContext(ctx, &tag, "SELECT * FROM tags WHERE name = $1", name)
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// AttachTag associates a tag with a product; attaching an already-attached
// tag is a no-op
func (s *Store) AttachTag(ctx context.Context, productID, tagID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO product_tags (product_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT (product_id, tag_id) DO NOTHING`,
		productID, tagID)
	return err
}

// ListProductTags returns the tags attached to a product
func (s *Store) ListProductTags(ctx context.Context, productID int64) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.SelectContext(ctx, &tags, `
		SELECT t.id, t.name FROM tags t
		JOIN product_tags pt ON pt.tag_id = t.id
		WHERE pt.product_id = $1
		ORDER BY t.id`,
		productID)
	return tags, err
}

// EnsureCategory resolves a category name to its row, creating it on first use
func (s *Store) EnsureCategory(ctx context.Context, name string) (*models.Category, error) {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING", name)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure category: %w", err)
	}

	var category models.Category
	err = s.db.GetContext(ctx, &category, "SELECT * FROM categories WHERE name = $1", name)
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// SetProductCategory assigns a category to an uncategorized product. A
// product holds at most one category; assigning a second fails with
// ErrConflict and leaves the original in place.
func (s *Store) SetProductCategory(ctx context.Context, productID, categoryID int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET category_id = $1 WHERE id = $2 AND category_id IS NULL",
		categoryID, productID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	if _, err := s.GetProductByID(ctx, productID); err != nil {
		return err
	}
	return fmt.Errorf("product %d already has a category: %w", productID, apperr.ErrConflict)
}

// ClearProductCategory removes a product's category association
func (s *Store) ClearProductCategory(ctx context.Context, productID int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET category_id = NULL WHERE id = $1", productID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("product %d: %w", productID, apperr.ErrNotFound)
	}
	return nil
}
