package invoice

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/facture/internal/customer"
	"github.com/MrJamesThe3rd/facture/internal/pricing"
)

const (
	FlagFixed   = "true"
	FlagPercent = "%"

	// NumberWidth is the zero-padded width of the numeric tail.
	NumberWidth = 4
)

var ErrInvalidNumber = errors.New("invalid invoice number")

// Draft is the editable invoice state. Numeric inputs stay as entered text so
// a half-typed value survives until it is fixed.
type Draft struct {
	SequenceNumber int
	Customer       string
	Prefix         string

	Date    time.Time
	DueDate time.Time

	Logo     string
	Currency string
	From     string
	To       string
	Notes    string

	Items   []pricing.Item
	Pricing pricing.Config
}

// Number renders the full invoice number, e.g. "ACME-0012".
func (d Draft) Number() string {
	return FormatNumber(d.Prefix, d.SequenceNumber)
}

func (d Draft) Totals() pricing.Totals {
	return pricing.Compute(d.Items, d.Pricing)
}

func FormatNumber(prefix string, n int) string {
	return fmt.Sprintf("%s%0*d", prefix, NumberWidth, n)
}

// SplitNumber splits a full invoice number on its last "-". A number without
// a dash is all tail.
func SplitNumber(number string) (string, int, error) {
	number = strings.TrimSpace(number)

	prefix, tail := "", number
	if i := strings.LastIndex(number, "-"); i >= 0 {
		prefix, tail = number[:i], number[i+1:]
	}

	n, err := strconv.Atoi(tail)
	if err != nil || n < 0 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidNumber, number)
	}

	return prefix, n, nil
}

// NumberText normalises numeric input for the payload: parseable text is kept
// as typed, anything else becomes "0".
func NumberText(s string) json.Number {
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil || !pricing.InRange(d) {
		return "0"
	}

	if json.Valid([]byte(s)) {
		return json.Number(s)
	}

	return json.Number(d.String())
}

// ToPayload builds the canonical payload. Rows with a blank description are
// dropped and the tax rates collapse into one combined percentage.
func ToPayload(d Draft) Payload {
	p := Payload{
		Logo:     d.Logo,
		From:     d.From,
		To:       d.To,
		Number:   d.Number(),
		Date:     formatDate(d.Date),
		DueDate:  formatDate(d.DueDate),
		Currency: d.Currency,
		Notes:    d.Notes,
		Items:    []Item{},
	}

	for _, it := range d.Items {
		if it.Blank() {
			continue
		}

		p.Items = append(p.Items, Item{
			Name:     strings.TrimSpace(it.Description),
			Quantity: NumberText(it.Quantity),
			UnitCost: NumberText(it.UnitCost),
		})
	}

	p.Discounts = NumberText(d.Pricing.DiscountValue)
	p.Shipping = NumberText(d.Pricing.Shipping)
	p.Tax = json.Number(pricing.CombinedRate(d.Pricing).String())

	p.Fields = Fields{
		Discounts: FlagFixed,
		Shipping:  "true",
		Tax:       FlagPercent,
	}

	if d.Pricing.DiscountMode == pricing.DiscountPercent {
		p.Fields.Discounts = FlagPercent
	}

	return p
}

// Lookup resolves a recipient address to a registered customer.
type Lookup interface {
	MatchAddress(address string) (customer.Customer, bool)
}

// FromPayload restores a draft from a stored payload. The combined tax comes
// back as the GST rate with QST at zero, and tax is enabled iff it is
// positive. Dates that do not parse are left zero. When the recipient matches
// a customer, that customer's prefix wins over the one in the number.
func FromPayload(p Payload, customers Lookup) (Draft, error) {
	prefix, n, err := SplitNumber(p.Number)
	if err != nil {
		return Draft{}, err
	}

	d := Draft{
		SequenceNumber: n,
		Date:           parseDate(p.Date),
		DueDate:        parseDate(p.DueDate),
		Logo:           p.Logo,
		Currency:       p.Currency,
		From:           p.From,
		To:             p.To,
		Notes:          p.Notes,
		Items:          make([]pricing.Item, 0, len(p.Items)),
	}

	if strings.Contains(p.Number, "-") {
		d.Prefix = prefix + "-"
	}

	if customers != nil {
		if c, ok := customers.MatchAddress(p.To); ok {
			d.Customer = c.Name
			d.Prefix = c.Prefix
		}
	}

	for _, it := range p.Items {
		d.Items = append(d.Items, pricing.Item{
			Description: it.Name,
			Quantity:    it.Quantity.String(),
			UnitCost:    it.UnitCost.String(),
		})
	}

	tax := orDefault(p.Tax.String(), "0")

	d.Pricing = pricing.Config{
		DiscountValue: orDefault(p.Discounts.String(), "0"),
		DiscountMode:  pricing.DiscountFixed,
		Shipping:      orDefault(p.Shipping.String(), "0"),
		TaxEnabled:    pricing.ParseNumber(tax).IsPositive(),
		GSTRate:       tax,
		QSTRate:       "0",
	}

	if p.Fields.Discounts == FlagPercent {
		d.Pricing.DiscountMode = pricing.DiscountPercent
	}

	return d, nil
}

// Neutralize clears the adjustments so a saved template carries no discount,
// shipping or tax of its own. rate is the combined default tax percentage.
func Neutralize(p Payload, rate decimal.Decimal) Payload {
	p.Discounts = "0"
	p.Shipping = "0"
	p.Tax = json.Number(rate.String())
	p.Fields = Fields{
		Discounts: FlagFixed,
		Shipping:  "true",
		Tax:       FlagPercent,
	}

	return p
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(time.DateOnly)
}

func parseDate(s string) time.Time {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}

	return t
}
