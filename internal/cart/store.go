package cart

import (
	"slices"
	"sync"

	"github.com/nikolayk812/fieldops-cart/internal/domain"
	"github.com/shopspring/decimal"
)

// GuestCustomerID owns the cart of walk-in point-of-sale customers.
const GuestCustomerID = "pos_guest"

// Store keeps one ordered cart per customer and a current customer context.
//
// Every mutator except LoadCustomerCart acts on the current customer and is a
// no-op while no customer is set. Methods never fail.
type Store struct {
	mu sync.RWMutex

	currentCustomerID string
	carts             map[string][]domain.CartLineItem
}

func NewStore() *Store {
	return &Store{
		carts: make(map[string][]domain.CartLineItem),
	}
}

func (s *Store) SetCurrentCustomer(customerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentCustomerID = customerID
}

// CurrentCustomer reports the current customer and whether one is set.
func (s *Store) CurrentCustomer() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.currentCustomerID, s.currentCustomerID != ""
}

// CurrentCart returns a copy of the current customer's cart. It is empty when
// no customer is set or the customer has no cart yet.
func (s *Store) CurrentCart() []domain.CartLineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.currentCustomerID == "" {
		return []domain.CartLineItem{}
	}
	return cloneItems(s.carts[s.currentCustomerID])
}

// Snapshot returns the current customer together with a copy of its cart,
// read under one lock. ok is false when no customer is set.
func (s *Store) Snapshot() (domain.Cart, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.currentCustomerID == "" {
		return domain.Cart{Items: []domain.CartLineItem{}}, false
	}
	return domain.Cart{
		OwnerID: s.currentCustomerID,
		Items:   cloneItems(s.carts[s.currentCustomerID]),
	}, true
}

// Cart returns a copy of the given customer's cart without touching the context.
func (s *Store) Cart(customerID string) []domain.CartLineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneItems(s.carts[customerID])
}

// Customers lists customers that have a cart entry, empty or not.
func (s *Store) Customers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.carts))
	for id := range s.carts {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// AddProduct appends the item, or when a line with the same ID exists,
// overwrites only its quantity and price.
func (s *Store) AddProduct(item domain.CartLineItem) {
	if item.ID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentCustomerID == "" {
		return
	}

	items := s.carts[s.currentCustomerID]
	item.Quantity = domain.ClampQuantity(item.Quantity)

	idx := indexOf(items, item.ID)
	if idx < 0 {
		s.carts[s.currentCustomerID] = append(items, item.Clone())
		return
	}

	items[idx].Quantity = item.Quantity
	items[idx].Price = item.Price
}

func (s *Store) RemoveProduct(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentCustomerID == "" {
		return
	}

	items := s.carts[s.currentCustomerID]
	s.carts[s.currentCustomerID] = slices.DeleteFunc(items, func(item domain.CartLineItem) bool {
		return item.ID == productID
	})
}

func (s *Store) ClearProducts() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentCustomerID == "" {
		return
	}
	s.carts[s.currentCustomerID] = []domain.CartLineItem{}
}

// LoadCustomerCart switches the context to customerID and replaces its cart
// with items. A nil slice seeds an empty cart.
func (s *Store) LoadCustomerCart(customerID string, items []domain.CartLineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentCustomerID = customerID

	loaded := cloneItems(items)
	for i := range loaded {
		loaded[i].Quantity = domain.ClampQuantity(loaded[i].Quantity)
	}
	s.carts[customerID] = loaded
}

func (s *Store) SetProductDiscount(productID string, discount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentCustomerID == "" {
		return
	}

	items := s.carts[s.currentCustomerID]
	if idx := indexOf(items, productID); idx >= 0 {
		d := discount
		items[idx].Discount = &d
	}
}

// ClearAllCarts drops every cart and unsets the current customer.
func (s *Store) ClearAllCarts() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts = make(map[string][]domain.CartLineItem)
	s.currentCustomerID = ""
}

// updateLine applies fn to the current customer's line with productID and
// reports the customer it changed. Quantity stays clamped.
func (s *Store) updateLine(productID string, fn func(*domain.CartLineItem)) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentCustomerID == "" {
		return "", false
	}

	items := s.carts[s.currentCustomerID]
	idx := indexOf(items, productID)
	if idx < 0 {
		return "", false
	}

	fn(&items[idx])
	items[idx].Quantity = domain.ClampQuantity(items[idx].Quantity)
	return s.currentCustomerID, true
}

// clearCustomer empties one customer's cart regardless of the context.
func (s *Store) clearCustomer(customerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.carts[customerID]; ok {
		s.carts[customerID] = []domain.CartLineItem{}
	}
}

func indexOf(items []domain.CartLineItem, productID string) int {
	return slices.IndexFunc(items, func(item domain.CartLineItem) bool {
		return item.ID == productID
	})
}

func cloneItems(items []domain.CartLineItem) []domain.CartLineItem {
	out := make([]domain.CartLineItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
