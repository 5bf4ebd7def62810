package httphandler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nikolayk812/fieldops-cart/internal/cart"
	"github.com/nikolayk812/fieldops-cart/internal/domain"
	"github.com/shopspring/decimal"
)

// PUT    v1/customers/{customerID}/cart           open the customer's persisted cart
// PUT    v1/cart/customer                         switch current customer {"customer_id"}
// GET    v1/cart                                  current cart
// POST   v1/cart/items                            add line item (200, 400, 409 without customer)
// PATCH  v1/cart/items/{productID}                {"quantity":"3","price":"9.5"} as typed by the operator
// PUT    v1/cart/items/{productID}/discount       {"discount": 10}
// DELETE v1/cart/items/{productID}                (409 without customer)
// DELETE v1/cart                                  clear current cart (409 without customer)
// GET    v1/cart/totals
// POST   v1/cart/checkout                         (201 order, 409 without customer)
// DELETE v1/carts                                 logout, drop every in-memory cart

type cartSession interface {
	Open(ctx context.Context, customerID string)
	Add(ctx context.Context, item domain.CartLineItem)
	Remove(ctx context.Context, productID string)
	Clear(ctx context.Context)
	SetDiscount(ctx context.Context, productID string, discount decimal.Decimal)
	UpdateQuantity(ctx context.Context, productID string, quantity int)
	UpdatePrice(ctx context.Context, productID string, price decimal.Decimal)
	Totals() domain.Totals
	Complete(ctx context.Context) (domain.Order, error)
	Logout()
	Store() *cart.Store
}

type CartHandler struct {
	session cartSession
}

func RegisterCart(mux *http.ServeMux, session cartSession) {
	h := CartHandler{session}
	mux.HandleFunc("PUT /v1/customers/{customerID}/cart", h.OpenCart)
	mux.HandleFunc("PUT /v1/cart/customer", h.SetCustomer)
	mux.HandleFunc("GET /v1/cart", h.GetCart)
	mux.HandleFunc("POST /v1/cart/items", h.AddItem)
	mux.HandleFunc("PATCH /v1/cart/items/{productID}", h.UpdateItem)
	mux.HandleFunc("PUT /v1/cart/items/{productID}/discount", h.SetDiscount)
	mux.HandleFunc("DELETE /v1/cart/items/{productID}", h.RemoveItem)
	mux.HandleFunc("DELETE /v1/cart", h.ClearCart)
	mux.HandleFunc("GET /v1/cart/totals", h.GetTotals)
	mux.HandleFunc("POST /v1/cart/checkout", h.Checkout)
	mux.HandleFunc("DELETE /v1/carts", h.Logout)
}

func (h CartHandler) OpenCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.OpenCart"

	h.session.Open(r.Context(), r.PathValue("customerID"))
	h.writeCart(w, op)
}

func (h CartHandler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.SetCustomer"

	var req CustomerRequest
	if !decode(w, r, op, &req) {
		return
	}
	if req.CustomerID == "" {
		http.Error(w, "customer_id is required", http.StatusBadRequest)
		return
	}

	h.session.Store().SetCurrentCustomer(req.CustomerID)
	h.writeCart(w, op)
}

func (h CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, "CartHandler.GetCart")
}

func (h CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.AddItem"

	if !h.requireCustomer(w) {
		return
	}

	var item domain.CartLineItem
	if !decode(w, r, op, &item) {
		return
	}
	if item.ID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	h.session.Add(r.Context(), item)
	h.writeCart(w, op)
}

func (h CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.UpdateItem"

	if !h.requireCustomer(w) {
		return
	}

	var upd LineUpdate
	if !decode(w, r, op, &upd) {
		return
	}

	productID := r.PathValue("productID")
	if upd.Quantity != nil {
		h.session.UpdateQuantity(r.Context(), productID, domain.ParseQuantity(*upd.Quantity))
	}
	if upd.Price != nil {
		h.session.UpdatePrice(r.Context(), productID, domain.ParsePrice(*upd.Price))
	}
	h.writeCart(w, op)
}

func (h CartHandler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.SetDiscount"

	if !h.requireCustomer(w) {
		return
	}

	var req DiscountRequest
	if !decode(w, r, op, &req) {
		return
	}

	h.session.SetDiscount(r.Context(), r.PathValue("productID"), req.Discount)
	h.writeCart(w, op)
}

func (h CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if !h.requireCustomer(w) {
		return
	}

	h.session.Remove(r.Context(), r.PathValue("productID"))
	h.writeCart(w, "CartHandler.RemoveItem")
}

func (h CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if !h.requireCustomer(w) {
		return
	}

	h.session.Clear(r.Context())
	h.writeCart(w, "CartHandler.ClearCart")
}

func (h CartHandler) GetTotals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, "CartHandler.GetTotals", http.StatusOK, toTotalsResponse(h.session.Totals()))
}

func (h CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.Checkout"
	log := slog.With("op", op)

	if !h.requireCustomer(w) {
		return
	}

	order, err := h.session.Complete(r.Context())
	if err != nil {
		http.Error(w, "failed to complete order", http.StatusConflict)
		log.Warn("failed to complete order", "err", err)
		return
	}

	writeJSON(w, op, http.StatusCreated, OrderResponse{
		Order:  order,
		Totals: toTotalsResponse(order.Totals),
	})
}

func (h CartHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.session.Logout()
	w.WriteHeader(http.StatusNoContent)
}

func (h CartHandler) requireCustomer(w http.ResponseWriter) bool {
	if _, ok := h.session.Store().CurrentCustomer(); !ok {
		http.Error(w, "no customer selected", http.StatusConflict)
		return false
	}
	return true
}

func (h CartHandler) writeCart(w http.ResponseWriter, op string) {
	store := h.session.Store()
	customerID, _ := store.CurrentCustomer()
	writeJSON(w, op, http.StatusOK, CartResponse{
		CustomerID: customerID,
		Items:      store.CurrentCart(),
	})
}

func decode(w http.ResponseWriter, r *http.Request, op string, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		slog.Warn("failed to parse JSON", "op", op, "err", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, op string, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response body", "op", op, "err", err)
	}
}
