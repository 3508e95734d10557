package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shop-service/internal/apperr"
	"shop-service/internal/models"
)

// memStore is an in-memory stand-in for store.Store with the same
// contracts: idempotent cart registration, all-or-nothing checkout,
// one-way confirmation.
type memStore struct {
	mu sync.Mutex

	nextID   int64
	products map[int64]*models.Product
	cart     []*models.CartItem
	orders   map[int64]*models.Order
	items    map[int64][]models.OrderItem
	tags     map[string]*models.Tag
	prodTags map[int64][]int64
	cats     map[string]*models.Category
	history  []*models.ProductHistory
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[int64]*models.Product),
		orders:   make(map[int64]*models.Order),
		items:    make(map[int64][]models.OrderItem),
		tags:     make(map[string]*models.Tag),
		prodTags: make(map[int64][]int64),
		cats:     make(map[string]*models.Category),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addProduct(p models.Product) *models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	p.IsAvailable = true
	p.CreatedAt = time.Now()
	m.products[p.ID] = &p
	return &p
}

func (m *memStore) GetProductByCode(_ context.Context, code string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("product %s: %w", code, apperr.ErrNotFound)
}

func (m *memStore) GetProductByID(_ context.Context, id int64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, apperr.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) ListProducts(_ context.Context) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Product
	for id := int64(1); id <= m.nextID; id++ {
		if p, ok := m.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) CreateProduct(_ context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Code == product.Code {
			return fmt.Errorf("product %s already exists: %w", product.Code, apperr.ErrConflict)
		}
	}
	product.ID = m.id()
	product.CreatedAt = time.Now()
	cp := *product
	m.products[product.ID] = &cp
	return nil
}

func (m *memStore) DeleteProduct(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return fmt.Errorf("product %d: %w", id, apperr.ErrNotFound)
	}
	delete(m.products, id)
	kept := m.cart[:0]
	for _, e := range m.cart {
		if e.ProductID != id {
			kept = append(kept, e)
		}
	}
	m.cart = kept
	return nil
}

func (m *memStore) ToggleAvailability(_ context.Context, code string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Code == code {
			p.IsAvailable = !p.IsAvailable
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("product %s: %w", code, apperr.ErrNotFound)
}

func (m *memStore) SetAvailability(_ context.Context, productID int64, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[productID]; ok {
		p.IsAvailable = available
	}
	return nil
}

func (m *memStore) AddCartItem(_ context.Context, sessionID string, productID int64, quantity int) (*models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.cart {
		if e.SessionID == sessionID && e.ProductID == productID {
			cp := *e
			return &cp, nil
		}
	}
	entry := &models.CartItem{
		ID:        m.id(),
		SessionID: sessionID,
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   time.Now(),
	}
	m.cart = append(m.cart, entry)
	cp := *entry
	return &cp, nil
}

func (m *memStore) RemoveCartItem(_ context.Context, sessionID string, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.cart {
		if e.SessionID == sessionID && e.ProductID == productID {
			m.cart = append(m.cart[:i], m.cart[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("cart entry for product %d: %w", productID, apperr.ErrNotFound)
}

func (m *memStore) ListCartLines(_ context.Context, sessionID string) ([]models.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cartLinesLocked(sessionID), nil
}

func (m *memStore) cartLinesLocked(sessionID string) []models.CartLine {
	var lines []models.CartLine
	for _, e := range m.cart {
		if e.SessionID != sessionID {
			continue
		}
		p, ok := m.products[e.ProductID]
		if !ok {
			// mirrors the SQL join: dangling entries produce no line
			continue
		}
		lines = append(lines, models.CartLine{
			ID:        e.ID,
			ProductID: e.ProductID,
			Code:      p.Code,
			Title:     p.Title,
			Price:     p.Price,
			Quantity:  e.Quantity,
			AddedAt:   e.AddedAt,
		})
	}
	return lines
}

func (m *memStore) CountCartItems(_ context.Context, sessionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, e := range m.cart {
		if e.SessionID == sessionID {
			count += e.Quantity
		}
	}
	return count, nil
}

func (m *memStore) ClearCart(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearCartLocked(sessionID)
	return nil
}

func (m *memStore) clearCartLocked(sessionID string) {
	kept := m.cart[:0]
	for _, e := range m.cart {
		if e.SessionID != sessionID {
			kept = append(kept, e)
		}
	}
	m.cart = kept
}

// PlaceOrder mirrors the store transaction: every step applies or none does.
func (m *memStore) PlaceOrder(_ context.Context, sessionID, email, label string, confirmed bool) (*models.Order, []models.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []*models.CartItem
	for _, e := range m.cart {
		if e.SessionID == sessionID {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		return nil, nil, apperr.ErrEmptyCart
	}

	// Validate every line before mutating anything
	for _, e := range entries {
		if _, ok := m.products[e.ProductID]; !ok {
			return nil, nil, fmt.Errorf("product %d vanished during checkout: %w", e.ProductID, apperr.ErrNotFound)
		}
	}

	order := &models.Order{
		ID:        m.id(),
		Label:     label,
		Email:     email,
		SessionID: sessionID,
		Confirmed: confirmed,
		CreatedAt: time.Now(),
	}

	var items []models.OrderItem
	for _, e := range entries {
		p := m.products[e.ProductID]
		item := models.OrderItem{
			ID:        m.id(),
			OrderID:   order.ID,
			ProductID: e.ProductID,
			Quantity:  e.Quantity,
			Price:     p.Price,
		}
		order.Total = order.Total.Add(item.TotalPrice())
		items = append(items, item)
	}

	m.orders[order.ID] = order
	m.items[order.ID] = items
	m.clearCartLocked(sessionID)

	if confirmed {
		for _, item := range items {
			if p, ok := m.products[item.ProductID]; ok {
				p.IsAvailable = false
			}
		}
	}

	cp := *order
	return &cp, append([]models.OrderItem(nil), items...), nil
}

func (m *memStore) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, apperr.ErrNotFound)
	}
	cp := *order
	return &cp, nil
}

func (m *memStore) GetOrderItemsByOrderID(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.OrderItem(nil), m.items[orderID]...), nil
}

func (m *memStore) ConfirmOrder(_ context.Context, orderID int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", orderID, apperr.ErrNotFound)
	}
	if !order.Confirmed {
		order.Confirmed = true
		for _, item := range m.items[orderID] {
			if p, ok := m.products[item.ProductID]; ok {
				p.IsAvailable = false
			}
		}
	}
	cp := *order
	return &cp, nil
}

func (m *memStore) EnsureTag(_ context.Context, name string) (*models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tag, ok := m.tags[name]; ok {
		cp := *tag
		return &cp, nil
	}
	tag := &models.Tag{ID: m.id(), Name: name}
	m.tags[name] = tag
	cp := *tag
	return &cp, nil
}

func (m *memStore) AttachTag(_ context.Context, productID, tagID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.prodTags[productID] {
		if id == tagID {
			return nil
		}
	}
	m.prodTags[productID] = append(m.prodTags[productID], tagID)
	return nil
}

func (m *memStore) ListProductTags(_ context.Context, productID int64) ([]models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Tag
	for _, tagID := range m.prodTags[productID] {
		for _, tag := range m.tags {
			if tag.ID == tagID {
				out = append(out, *tag)
			}
		}
	}
	return out, nil
}

func (m *memStore) EnsureCategory(_ context.Context, name string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cat, ok := m.cats[name]; ok {
		cp := *cat
		return &cp, nil
	}
	cat := &models.Category{ID: m.id(), Name: name}
	m.cats[name] = cat
	cp := *cat
	return &cp, nil
}

func (m *memStore) SetProductCategory(_ context.Context, productID, categoryID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return fmt.Errorf("product %d: %w", productID, apperr.ErrNotFound)
	}
	if p.CategoryID != nil {
		return fmt.Errorf("product %d already has a category: %w", productID, apperr.ErrConflict)
	}
	p.CategoryID = &categoryID
	return nil
}

func (m *memStore) ClearProductCategory(_ context.Context, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return fmt.Errorf("product %d: %w", productID, apperr.ErrNotFound)
	}
	p.CategoryID = nil
	return nil
}

func (m *memStore) AppendProductHistory(_ context.Context, record *models.ProductHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record.ID = m.id()
	record.RecordedAt = time.Now()
	cp := *record
	m.history = append(m.history, &cp)
	return nil
}

func (m *memStore) ListProductHistory(_ context.Context, code string) ([]models.ProductHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ProductHistory
	for _, rec := range m.history {
		if rec.Code == code {
			out = append(out, *rec)
		}
	}
	return out, nil
}

// fakePublisher records published events
type fakePublisher struct {
	mu              sync.Mutex
	productsCreated []*models.ProductCreatedEvent
	productsDeleted []*models.ProductDeletedEvent
	ordersPlaced    []*models.OrderPlacedEvent
	ordersConfirmed []*models.OrderConfirmedEvent
}

func (f *fakePublisher) PublishProductCreated(_ context.Context, e *models.ProductCreatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productsCreated = append(f.productsCreated, e)
	return nil
}

func (f *fakePublisher) PublishProductDeleted(_ context.Context, e *models.ProductDeletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productsDeleted = append(f.productsDeleted, e)
	return nil
}

func (f *fakePublisher) PublishOrderPlaced(_ context.Context, e *models.OrderPlacedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ordersPlaced = append(f.ordersPlaced, e)
	return nil
}

func (f *fakePublisher) PublishOrderConfirmed(_ context.Context, e *models.OrderConfirmedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ordersConfirmed = append(f.ordersConfirmed, e)
	return nil
}

// fakeBarcodes returns deterministic paths without touching the filesystem
type fakeBarcodes struct{}

func (fakeBarcodes) Generate(code string) (string, error) {
	return fmt.Sprintf("uploads/barcodes/%s_barcode.png", code), nil
}
