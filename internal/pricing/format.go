package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Labels are the human-readable totals shown under the line items.
type Labels struct {
	Subtotal string
	Tax      string
	Total    string
}

// Formatter renders amounts with locale-aware digit grouping.
type Formatter struct {
	p *message.Printer
}

func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{p: message.NewPrinter(tag)}
}

// groupingLimit is where float64 stops resolving cents reliably.
var groupingLimit = decimal.New(1, 12)

// Money renders an amount rounded to cents, e.g. 1,234.56. Amounts of a
// trillion or more are printed exactly, without grouping.
func (f *Formatter) Money(d decimal.Decimal) string {
	r := d.Round(2)
	if r.Abs().GreaterThanOrEqual(groupingLimit) {
		return r.StringFixed(2)
	}

	return f.p.Sprint(number.Decimal(r.InexactFloat64(), number.Scale(2)))
}

func (f *Formatter) Labels(t Totals) Labels {
	return Labels{
		Subtotal: fmt.Sprintf("Subtotal: %s", f.Money(t.Subtotal)),
		Tax:      fmt.Sprintf("Tax (%s%%): %s", t.CombinedTaxRate.StringFixed(3), f.Money(t.TaxAmount)),
		Total:    fmt.Sprintf("Total: %s", f.Money(t.Total)),
	}
}
