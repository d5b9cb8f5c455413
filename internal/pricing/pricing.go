package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountMode selects how DiscountValue is applied to the subtotal.
type DiscountMode string

const (
	DiscountFixed   DiscountMode = "fixed"
	DiscountPercent DiscountMode = "percent"
)

// Item is a line item as typed by the user. Numeric cells are kept as text
// because they are recomputed while the user is still typing.
type Item struct {
	Description string
	Quantity    string
	UnitCost    string
}

// Blank reports whether the row has no description. Blank rows are ignored
// for totals and export whatever their numeric cells contain.
func (i Item) Blank() bool {
	return strings.TrimSpace(i.Description) == ""
}

// Config holds the invoice-level adjustments.
type Config struct {
	DiscountValue string
	DiscountMode  DiscountMode
	Shipping      string
	TaxEnabled    bool
	GSTRate       string
	QSTRate       string
}

// Totals is the result of Compute. Rates are percentages.
type Totals struct {
	Subtotal          decimal.Decimal
	DiscountAmount    decimal.Decimal
	BaseAfterDiscount decimal.Decimal
	Shipping          decimal.Decimal
	CombinedTaxRate   decimal.Decimal
	TaxAmount         decimal.Decimal
	Total             decimal.Decimal
}

// maxExponent bounds the decimal exponent of accepted input. Rescaling a
// value like 1e400000000 to add it to another takes minutes.
const maxExponent = 64

// ParseNumber parses numeric text, treating anything unparsable or out of
// range as zero.
func ParseNumber(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !InRange(d) {
		return decimal.Zero
	}

	return d
}

// InRange reports whether d's exponent is small enough to compute with.
func InRange(d decimal.Decimal) bool {
	e := d.Exponent()
	return e >= -maxExponent && e <= maxExponent
}

// CombinedRate is GST + QST when tax is enabled, otherwise zero. The two
// rates are added, never compounded.
func CombinedRate(cfg Config) decimal.Decimal {
	if !cfg.TaxEnabled {
		return decimal.Zero
	}

	return ParseNumber(cfg.GSTRate).Add(ParseNumber(cfg.QSTRate))
}

// Compute prices the given items. It is pure and never fails: malformed
// numbers contribute zero.
func Compute(items []Item, cfg Config) Totals {
	subtotal := decimal.Zero

	for _, it := range items {
		if it.Blank() {
			continue
		}

		subtotal = subtotal.Add(ParseNumber(it.Quantity).Mul(ParseNumber(it.UnitCost)))
	}

	discountValue := ParseNumber(cfg.DiscountValue)

	discount := discountValue
	if cfg.DiscountMode == DiscountPercent {
		discount = percentOf(subtotal, discountValue)
	}

	base := decimal.Max(decimal.Zero, subtotal.Sub(discount))
	shipping := ParseNumber(cfg.Shipping)
	rate := CombinedRate(cfg)
	tax := percentOf(base.Add(shipping), rate)

	return Totals{
		Subtotal:          subtotal,
		DiscountAmount:    discount,
		BaseAfterDiscount: base,
		Shipping:          shipping,
		CombinedTaxRate:   rate,
		TaxAmount:         tax,
		Total:             base.Add(shipping).Add(tax),
	}
}

func percentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Shift(-2)
}
