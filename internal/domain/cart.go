package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Cart is the snapshot of one customer's cart, in display order.
type Cart struct {
	OwnerID string
	Items   []CartLineItem
}

// CartLineItem is one product entry within a cart, keyed by ID.
//
// Fields the cart does not know about are kept in Extra and written back
// unmodified when the item is serialized.
type CartLineItem struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Quantity    int
	ImageURL    string
	Discount    *decimal.Decimal
	ProductCode string

	Extra map[string]json.RawMessage
}

const (
	keyID          = "id"
	keyName        = "name"
	keyPrice       = "price"
	keyQuantity    = "quantity"
	keyImageURL    = "imageUrl"
	keyDiscount    = "discount"
	keyProductCode = "product_code"
)

// Clone returns a deep copy of the item.
func (i CartLineItem) Clone() CartLineItem {
	c := i
	if i.Discount != nil {
		d := *i.Discount
		c.Discount = &d
	}
	if i.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(i.Extra))
		for k, v := range i.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return c
}

// Subtotal is price times quantity with the line discount percentage applied.
func (i CartLineItem) Subtotal() decimal.Decimal {
	sub := i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
	if i.Discount != nil && i.Discount.IsPositive() {
		off := sub.Mul(*i.Discount).Div(decimal.NewFromInt(100))
		sub = sub.Sub(off)
	}
	return sub
}

func (i CartLineItem) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(i.Extra)+7)
	for k, v := range i.Extra {
		m[k] = v
	}

	m[keyID] = i.ID
	m[keyName] = i.Name
	m[keyPrice] = json.Number(i.Price.String())
	m[keyQuantity] = i.Quantity
	m[keyImageURL] = i.ImageURL
	if i.Discount != nil {
		m[keyDiscount] = json.Number(i.Discount.String())
	}
	if i.ProductCode != "" {
		m[keyProductCode] = i.ProductCode
	}

	return json.Marshal(m)
}

func (i *CartLineItem) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var item CartLineItem
	var err error

	if item.ID, err = decodeID(raw[keyID]); err != nil {
		return fmt.Errorf("field %s: %w", keyID, err)
	}
	if err = decodeOptional(raw[keyName], &item.Name); err != nil {
		return fmt.Errorf("field %s: %w", keyName, err)
	}
	if err = decodeOptional(raw[keyImageURL], &item.ImageURL); err != nil {
		return fmt.Errorf("field %s: %w", keyImageURL, err)
	}
	if err = decodeOptional(raw[keyProductCode], &item.ProductCode); err != nil {
		return fmt.Errorf("field %s: %w", keyProductCode, err)
	}
	if v, ok := raw[keyPrice]; ok && !isNull(v) {
		if err = item.Price.UnmarshalJSON(v); err != nil {
			return fmt.Errorf("field %s: %w", keyPrice, err)
		}
	}
	if v, ok := raw[keyDiscount]; ok && !isNull(v) {
		var d decimal.Decimal
		if err = d.UnmarshalJSON(v); err != nil {
			return fmt.Errorf("field %s: %w", keyDiscount, err)
		}
		item.Discount = &d
	}
	if v, ok := raw[keyQuantity]; ok && !isNull(v) {
		var q float64
		if err = json.Unmarshal(v, &q); err != nil {
			return fmt.Errorf("field %s: %w", keyQuantity, err)
		}
		item.Quantity = ClampQuantity(int(math.Trunc(q)))
	}

	for _, k := range []string{keyID, keyName, keyPrice, keyQuantity, keyImageURL, keyDiscount, keyProductCode} {
		delete(raw, k)
	}
	if len(raw) > 0 {
		item.Extra = raw
	}

	*i = item
	return nil
}

// decodeID accepts both string and numeric ids; ERP records use integers.
func decodeID(v json.RawMessage) (string, error) {
	if len(v) == 0 || isNull(v) {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, nil
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", fmt.Errorf("id is neither string nor number: %s", v)
	}
	return normalizeNumericID(n), nil
}

// maxExactFloat is the largest integer a float64 holds exactly.
const maxExactFloat = 1 << 53

// normalizeNumericID spells integral numbers as plain integers, so 1e3 and
// 12.0 become "1000" and "12".
func normalizeNumericID(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}

	f, err := n.Float64()
	if err == nil && f == math.Trunc(f) && math.Abs(f) <= maxExactFloat {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}

func decodeOptional(v json.RawMessage, dst *string) error {
	if len(v) == 0 || isNull(v) {
		return nil
	}
	return json.Unmarshal(v, dst)
}

func isNull(v json.RawMessage) bool {
	return strings.TrimSpace(string(v)) == "null"
}

// ClampQuantity keeps quantities non-negative.
func ClampQuantity(q int) int {
	if q < 0 {
		return 0
	}
	return q
}
