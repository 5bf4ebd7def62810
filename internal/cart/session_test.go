package cart_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nikolayk812/fieldops-cart/internal/cart"
	"github.com/nikolayk812/fieldops-cart/internal/domain"
	"github.com/nikolayk812/fieldops-cart/pkg/retry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

var errStorageDown = errors.New("storage down")

// fakeStorage is an in-memory port.CartStorage with failure injection.
type fakeStorage struct {
	mu      sync.Mutex
	values  map[string]string
	failGet bool
	failSet    int
	failRemove int
	sets       int
	removes    int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{values: make(map[string]string)}
}

func (f *fakeStorage) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failGet {
		return "", false, errStorageDown
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeStorage) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sets++
	if f.failSet > 0 {
		f.failSet--
		return errStorageDown
	}
	f.values[key] = value
	return nil
}

func (f *fakeStorage) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.removes++
	if f.failRemove > 0 {
		f.failRemove--
		return errStorageDown
	}
	delete(f.values, key)
	return nil
}

func (f *fakeStorage) stored(t *testing.T, customerID string) []domain.CartLineItem {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.values[cart.StorageKey(customerID)]
	require.True(t, ok, "cart of %s is not stored", customerID)

	var items []domain.CartLineItem
	require.NoError(t, json.Unmarshal([]byte(v), &items))
	return items
}

func noWaitRetry(attempts int) cart.SessionOpt {
	return cart.RetryOpt(retry.RetryConfig{
		MaxAttempts: attempts,
		Backoff:     retry.LinearBackoff(0),
	})
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "cart_42", cart.StorageKey("42"))
	assert.Equal(t, "cart_pos_guest", cart.StorageKey(cart.GuestCustomerID))
}

func TestSession_Open(t *testing.T) {
	tests := []struct {
		name    string
		stored  *string
		failGet bool
		want    []domain.CartLineItem
	}{
		{
			name: "absent key opens an empty cart",
			want: []domain.CartLineItem{},
		},
		{
			name:   "persisted cart is restored",
			stored: ptr(`[{"id":"p1","name":"Widget","price":12.5,"quantity":2,"imageUrl":"u"}]`),
			want: []domain.CartLineItem{{
				ID: "p1", Name: "Widget", Price: decimal.RequireFromString("12.5"), Quantity: 2, ImageURL: "u",
			}},
		},
		{
			name:   "corrupt value opens an empty cart",
			stored: ptr(`{broken`),
			want:   []domain.CartLineItem{},
		},
		{
			name:    "storage failure opens an empty cart",
			stored:  ptr(`[{"id":"p1","quantity":1,"price":1}]`),
			failGet: true,
			want:    []domain.CartLineItem{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := newFakeStorage()
			storage.failGet = tt.failGet
			if tt.stored != nil {
				storage.values[cart.StorageKey("C")] = *tt.stored
			}

			store := cart.NewStore()
			store.LoadCustomerCart("C", []domain.CartLineItem{item("stale", "Stale", 1, 1)})
			store.SetCurrentCustomer("other")

			session := cart.NewSession(store, storage)
			session.Open(t.Context(), "C")

			customerID, ok := store.CurrentCustomer()
			require.True(t, ok)
			assert.Equal(t, "C", customerID)
			assertItems(t, tt.want, store.CurrentCart())
		})
	}
}

func TestSession_MutationsArePersisted(t *testing.T) {
	ctx := t.Context()
	storage := newFakeStorage()
	session := cart.NewSession(cart.NewStore(), storage)

	session.Open(ctx, "C")
	session.Add(ctx, item("p1", "Widget", 5, 1))
	session.Add(ctx, item("p2", "Gadget", 10, 2))
	session.UpdateQuantity(ctx, "p1", -4)
	session.UpdatePrice(ctx, "p2", decimal.RequireFromString("7.25"))
	session.SetDiscount(ctx, "p2", decimal.NewFromInt(10))

	want := []domain.CartLineItem{
		item("p1", "Widget", 5, 0),
		item("p2", "Gadget", 7.25, 2),
	}
	discount := decimal.NewFromInt(10)
	want[1].Discount = &discount

	assertItems(t, want, storage.stored(t, "C"))
	assertItems(t, want, session.Store().CurrentCart())

	session.Remove(ctx, "p1")
	assertItems(t, want[1:], storage.stored(t, "C"))

	session.Clear(ctx)
	assert.Empty(t, storage.stored(t, "C"))
}

func TestSession_UpdateMissingLineIsNoOp(t *testing.T) {
	ctx := t.Context()
	storage := newFakeStorage()
	session := cart.NewSession(cart.NewStore(), storage)
	session.Open(ctx, "C")

	session.UpdateQuantity(ctx, "missing", 3)
	session.UpdatePrice(ctx, "missing", decimal.NewFromInt(3))

	assert.Empty(t, session.Store().CurrentCart())
	assert.Zero(t, storage.sets)
}

func TestSession_SaveWithoutCustomer(t *testing.T) {
	storage := newFakeStorage()
	session := cart.NewSession(cart.NewStore(), storage)

	session.Add(t.Context(), item("p1", "Widget", 5, 1))

	assert.Zero(t, storage.sets)
	assert.Empty(t, storage.values)
}

func TestSession_SaveRetriesAndKeepsMemoryOnFailure(t *testing.T) {
	ctx := t.Context()

	storage := newFakeStorage()
	storage.failSet = 2
	session := cart.NewSession(cart.NewStore(), storage, noWaitRetry(3))
	session.Open(ctx, "C")
	session.Add(ctx, item("p1", "Widget", 5, 1))

	assert.Equal(t, 3, storage.sets)
	assertItems(t, []domain.CartLineItem{item("p1", "Widget", 5, 1)}, storage.stored(t, "C"))

	failing := newFakeStorage()
	failing.failSet = 100
	session = cart.NewSession(cart.NewStore(), failing, noWaitRetry(2))
	session.Open(ctx, "D")
	session.Add(ctx, item("p1", "Widget", 5, 1))

	assert.Equal(t, 2, failing.sets)
	assertItems(t, []domain.CartLineItem{item("p1", "Widget", 5, 1)}, session.Store().CurrentCart())
}

func TestSession_Totals(t *testing.T) {
	ctx := t.Context()
	omr := currency.MustParseISO("OMR")
	session := cart.NewSession(cart.NewStore(), newFakeStorage(),
		cart.TaxRateOpt(decimal.RequireFromString("0.05")),
		cart.CurrencyOpt(omr),
	)

	session.Open(ctx, "C")
	session.Add(ctx, item("p1", "Widget", 10, 2))
	session.Add(ctx, item("p2", "Gadget", 5, 1))

	totals := session.Totals()
	assert.True(t, totals.Untaxed.Amount.Equal(decimal.NewFromInt(25)), totals.Untaxed.Amount.String())
	assert.True(t, totals.Tax.Amount.Equal(decimal.RequireFromString("1.25")), totals.Tax.Amount.String())
	assert.True(t, totals.Total.Amount.Equal(decimal.RequireFromString("26.25")), totals.Total.Amount.String())
	assert.Equal(t, 3, totals.TotalQuantity)
	assert.Equal(t, omr, totals.Total.Currency)
}

func TestSession_Complete(t *testing.T) {
	ctx := t.Context()
	storage := newFakeStorage()
	session := cart.NewSession(cart.NewStore(), storage)

	_, err := session.Complete(ctx)
	require.ErrorIs(t, err, cart.ErrNoCustomer)

	session.Open(ctx, "C")
	session.Add(ctx, item("42", "Widget", 10, 2))
	session.Add(ctx, item("sku-x", "Gadget", 5, 1))

	order, err := session.Complete(ctx)
	require.NoError(t, err)

	assert.Equal(t, "C", order.CustomerID)
	assert.NotEmpty(t, order.Reference)
	require.Len(t, order.Lines, 2)
	require.NotNil(t, order.Lines[0].ProductOdooID)
	assert.Equal(t, "42", *order.Lines[0].ProductOdooID)
	assert.Nil(t, order.Lines[1].ProductOdooID)
	assert.True(t, order.Totals.Untaxed.Amount.Equal(decimal.NewFromInt(25)))

	assert.Empty(t, session.Store().CurrentCart())
	assert.Equal(t, 1, storage.removes)
	_, ok := storage.values[cart.StorageKey("C")]
	assert.False(t, ok)
}

func TestSession_CompleteRetriesRemove(t *testing.T) {
	ctx := t.Context()
	storage := newFakeStorage()
	storage.failRemove = 1
	session := cart.NewSession(cart.NewStore(), storage, noWaitRetry(3))

	session.Open(ctx, "C")
	session.Add(ctx, item("p1", "Widget", 5, 1))

	_, err := session.Complete(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, storage.removes)
	_, ok := storage.values[cart.StorageKey("C")]
	assert.False(t, ok)

	session.Open(ctx, "C")
	assert.Empty(t, session.Store().CurrentCart())
}

// ownerCheckingStorage counts writes whose items belong to a customer other
// than the one encoded in the key. Item ids are prefixed with their owner.
type ownerCheckingStorage struct {
	*fakeStorage
	foreign atomic.Int64
}

func (o *ownerCheckingStorage) Set(ctx context.Context, key, value string) error {
	var items []domain.CartLineItem
	if err := json.Unmarshal([]byte(value), &items); err != nil {
		return err
	}

	owner := strings.TrimPrefix(key, "cart_")
	for _, it := range items {
		if !strings.HasPrefix(it.ID, owner+"-") {
			o.foreign.Add(1)
			break
		}
	}
	return o.fakeStorage.Set(ctx, key, value)
}

func TestSession_SaveWhileSwitchingCustomers(t *testing.T) {
	ctx := t.Context()
	storage := &ownerCheckingStorage{fakeStorage: newFakeStorage()}
	store := cart.NewStore()
	session := cart.NewSession(store, storage, noWaitRetry(1))

	store.LoadCustomerCart("A", []domain.CartLineItem{item("A-1", "Axle", 1, 1)})
	store.LoadCustomerCart("B", []domain.CartLineItem{item("B-1", "Bolt", 1, 1), item("B-2", "Belt", 1, 1)})

	const rounds = 5000

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range rounds {
			if i%2 == 0 {
				store.SetCurrentCustomer("A")
			} else {
				store.SetCurrentCustomer("B")
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := range rounds {
			session.Save(ctx)
			session.UpdateQuantity(ctx, "A-1", i)
			session.UpdatePrice(ctx, "B-1", decimal.NewFromInt(int64(i)))
		}
	}()
	wg.Wait()

	assert.Zero(t, storage.foreign.Load())
}

func TestSession_Logout(t *testing.T) {
	ctx := t.Context()
	storage := newFakeStorage()
	session := cart.NewSession(cart.NewStore(), storage)

	session.Open(ctx, cart.GuestCustomerID)
	session.Add(ctx, item("p1", "Widget", 5, 1))
	session.Logout()

	_, ok := session.Store().CurrentCustomer()
	assert.False(t, ok)
	assert.Empty(t, session.Store().Customers())

	session.Open(ctx, cart.GuestCustomerID)
	assertItems(t, []domain.CartLineItem{item("p1", "Widget", 5, 1)}, session.Store().CurrentCart())
}

func ptr[T any](v T) *T {
	return &v
}
