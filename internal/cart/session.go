package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/fieldops-cart/internal/domain"
	"github.com/nikolayk812/fieldops-cart/internal/port"
	"github.com/nikolayk812/fieldops-cart/pkg/retry"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const storageKeyPrefix = "cart_"

var ErrNoCustomer = errors.New("no current customer")

// StorageKey is the persistence key of a customer's cart.
func StorageKey(customerID string) string {
	return storageKeyPrefix + customerID
}

// Session keeps the persisted copy of the current customer's cart in step with
// the in-memory Store. Storage failures are logged and never roll back memory.
type Session struct {
	store    *Store
	storage  port.CartStorage
	taxRate  decimal.Decimal
	currency currency.Unit
	retry    retry.RetryConfig
}

type SessionOpt func(*Session)

func TaxRateOpt(rate decimal.Decimal) SessionOpt {
	return func(s *Session) { s.taxRate = rate }
}

func CurrencyOpt(unit currency.Unit) SessionOpt {
	return func(s *Session) { s.currency = unit }
}

func RetryOpt(c retry.RetryConfig) SessionOpt {
	return func(s *Session) { s.retry = c }
}

func NewSession(store *Store, storage port.CartStorage, opts ...SessionOpt) *Session {
	s := &Session{
		store:    store,
		storage:  storage,
		taxRate:  domain.DefaultTaxRate,
		currency: domain.DefaultCurrency,
		retry: retry.RetryConfig{
			MaxAttempts: 3,
			Backoff:     retry.LinearBackoff(50 * time.Millisecond),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Store() *Store {
	return s.store
}

// Open makes customerID current and restores its persisted cart. An absent,
// unreadable or corrupt entry yields an empty cart.
func (s *Session) Open(ctx context.Context, customerID string) {
	const op = "Session.Open"
	log := slog.With("op", op, "customer", customerID)

	s.store.SetCurrentCustomer(customerID)

	items, err := s.load(ctx, customerID)
	if err != nil {
		log.Error("failed to load cart from storage", "err", err)
		items = nil
	}

	s.store.LoadCustomerCart(customerID, items)
	log.Debug("cart opened", "nItems", len(items))
}

func (s *Session) load(ctx context.Context, customerID string) ([]domain.CartLineItem, error) {
	value, ok, err := s.storage.Get(ctx, StorageKey(customerID))
	if err != nil {
		return nil, fmt.Errorf("storage.Get: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var items []domain.CartLineItem
	if err := json.Unmarshal([]byte(value), &items); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: %w", err)
	}
	return items, nil
}

// Save writes the current cart to storage. It is a no-op without a customer.
func (s *Session) Save(ctx context.Context) {
	const op = "Session.Save"

	snapshot, ok := s.store.Snapshot()
	if !ok {
		slog.Debug("no current customer, nothing to save", "op", op)
		return
	}
	s.persist(ctx, snapshot)
}

func (s *Session) persist(ctx context.Context, c domain.Cart) {
	const op = "Session.persist"
	log := slog.With("op", op, "customer", c.OwnerID)

	data, err := json.Marshal(c.Items)
	if err != nil {
		log.Error("failed to serialize cart", "err", err)
		return
	}

	err = retry.Do(ctx, s.retry, func() error {
		return s.storage.Set(ctx, StorageKey(c.OwnerID), string(data))
	})
	if err != nil {
		log.Error("failed to save cart to storage", "err", err)
	}
}

func (s *Session) Add(ctx context.Context, item domain.CartLineItem) {
	s.store.AddProduct(item)
	s.Save(ctx)
}

func (s *Session) Remove(ctx context.Context, productID string) {
	s.store.RemoveProduct(productID)
	s.Save(ctx)
}

func (s *Session) Clear(ctx context.Context) {
	s.store.ClearProducts()
	s.Save(ctx)
}

func (s *Session) SetDiscount(ctx context.Context, productID string, discount decimal.Decimal) {
	s.store.SetProductDiscount(productID, discount)
	s.Save(ctx)
}

// UpdateQuantity sets the quantity of an existing line, clamped at zero.
func (s *Session) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	s.updateLine(ctx, productID, func(item *domain.CartLineItem) {
		item.Quantity = quantity
	})
}

// UpdatePrice overrides the unit price of an existing line.
func (s *Session) UpdatePrice(ctx context.Context, productID string, price decimal.Decimal) {
	s.updateLine(ctx, productID, func(item *domain.CartLineItem) {
		item.Price = price
	})
}

func (s *Session) updateLine(ctx context.Context, productID string, fn func(*domain.CartLineItem)) {
	customerID, ok := s.store.updateLine(productID, fn)
	if !ok {
		return
	}
	s.persist(ctx, domain.Cart{OwnerID: customerID, Items: s.store.Cart(customerID)})
}

func (s *Session) Totals() domain.Totals {
	return domain.CalculateTotals(s.store.CurrentCart(), s.taxRate, s.currency)
}

// Complete turns the current cart into an order, drops the persisted copy and
// empties the cart in memory.
func (s *Session) Complete(ctx context.Context) (domain.Order, error) {
	const op = "Session.Complete"

	snapshot, ok := s.store.Snapshot()
	if !ok {
		return domain.Order{}, fmt.Errorf("%s: %w", op, ErrNoCustomer)
	}
	customerID := snapshot.OwnerID
	log := slog.With("op", op, "customer", customerID)

	order := domain.Order{
		Reference:  uuid.New(),
		CustomerID: customerID,
		Lines:      domain.BuildOrderLines(snapshot.Items, s.taxRate),
		Totals:     domain.CalculateTotals(snapshot.Items, s.taxRate, s.currency),
	}

	err := retry.Do(ctx, s.retry, func() error {
		return s.storage.Remove(ctx, StorageKey(customerID))
	})
	if err != nil {
		log.Error("failed to remove cart from storage", "err", err)
	}
	s.store.clearCustomer(customerID)

	log.Info("order completed", "reference", order.Reference, "nLines", len(order.Lines))
	return order, nil
}

// Logout drops every in-memory cart. Persisted carts stay for the next login.
func (s *Session) Logout() {
	s.store.ClearAllCarts()
}
