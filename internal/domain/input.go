package domain

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
	floatPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d+)?|\.\d+)([eE][+-]?\d+)?`)
)

// ParseQuantity parses a quantity typed by the operator from its leading
// integer, so "2.5" and "3 pcs" read as 2 and 3. No leading integer reads as
// zero and negative values are clamped.
func ParseQuantity(s string) int {
	prefix := intPrefix.FindString(strings.TrimSpace(s))
	if prefix == "" {
		return 0
	}

	q, err := strconv.Atoi(prefix)
	if err != nil {
		return 0
	}
	return ClampQuantity(q)
}

// ParsePrice parses a manually overridden unit price from its leading number,
// so "9.5 AED" reads as 9.5. No leading number reads as zero.
func ParsePrice(s string) decimal.Decimal {
	prefix := floatPrefix.FindString(strings.TrimSpace(s))
	if prefix == "" {
		return decimal.Zero
	}

	p, err := decimal.NewFromString(prefix)
	if err != nil {
		return decimal.Zero
	}
	return p
}
