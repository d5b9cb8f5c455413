package invoice_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/facture/internal/customer"
	"github.com/MrJamesThe3rd/facture/internal/invoice"
	"github.com/MrJamesThe3rd/facture/internal/pricing"
)

type lookup map[string]customer.Customer

func (l lookup) MatchAddress(address string) (customer.Customer, bool) {
	for _, c := range l {
		if c.Address == address {
			return c, true
		}
	}

	return customer.Customer{}, false
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}

	return t
}

func sampleDraft() invoice.Draft {
	return invoice.Draft{
		SequenceNumber: 12,
		Customer:       "Acme",
		Prefix:         "ACME-",
		Date:           day("2024-03-01"),
		DueDate:        day("2024-03-31"),
		Logo:           "https://example.com/logo.png",
		Currency:       "CAD",
		From:           "Me\nHere",
		To:             "Acme Corp\n1 Road",
		Notes:          "Thanks",
		Items: []pricing.Item{
			{Description: "Design", Quantity: "2", UnitCost: "50.00"},
			{Description: "Hosting", Quantity: "1", UnitCost: "19.99"},
		},
		Pricing: pricing.Config{
			DiscountValue: "10",
			DiscountMode:  pricing.DiscountPercent,
			Shipping:      "5",
			TaxEnabled:    true,
			GSTRate:       "14.975",
			QSTRate:       "0",
		},
	}
}

func TestFormatNumber(t *testing.T) {
	type testCase struct {
		name   string
		prefix string
		n      int
		want   string
	}

	tests := []testCase{
		{name: "Padded", prefix: "ACME-", n: 12, want: "ACME-0012"},
		{name: "NoPrefix", prefix: "", n: 7, want: "0007"},
		{name: "WiderThanPad", prefix: "X-", n: 123456, want: "X-123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, invoice.FormatNumber(tt.prefix, tt.n))
		})
	}
}

func TestSplitNumber(t *testing.T) {
	type testCase struct {
		name       string
		number     string
		wantPrefix string
		wantTail   int
		wantErr    bool
	}

	tests := []testCase{
		{name: "Prefixed", number: "ACME-0012", wantPrefix: "ACME", wantTail: 12},
		{name: "LastDashWins", number: "ACME-2024-0007", wantPrefix: "ACME-2024", wantTail: 7},
		{name: "NoDash", number: "0042", wantPrefix: "", wantTail: 42},
		{name: "NonNumericTail", number: "ACME-ABC", wantErr: true},
		{name: "EmptyTail", number: "ACME-", wantErr: true},
		{name: "Empty", number: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, tail, err := invoice.SplitNumber(tt.number)

			if tt.wantErr {
				assert.ErrorIs(t, err, invoice.ErrInvalidNumber)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantPrefix, prefix)
			assert.Equal(t, tt.wantTail, tail)
		})
	}
}

func TestToPayload(t *testing.T) {
	d := sampleDraft()
	d.Items = append(d.Items,
		pricing.Item{Description: "   ", Quantity: "9", UnitCost: "9"},
		pricing.Item{Description: "  Typo ", Quantity: "abc", UnitCost: ".5"},
	)
	d.Pricing.GSTRate = "5"
	d.Pricing.QSTRate = "9.975"

	p := invoice.ToPayload(d)

	assert.Equal(t, "ACME-0012", p.Number)
	assert.Equal(t, "2024-03-01", p.Date)
	assert.Equal(t, "2024-03-31", p.DueDate)
	assert.Equal(t, []invoice.Item{
		{Name: "Design", Quantity: "2", UnitCost: "50.00"},
		{Name: "Hosting", Quantity: "1", UnitCost: "19.99"},
		{Name: "Typo", Quantity: "0", UnitCost: "0.5"},
	}, p.Items)
	assert.Equal(t, json.Number("10"), p.Discounts)
	assert.Equal(t, json.Number("5"), p.Shipping)
	assert.Equal(t, json.Number("14.975"), p.Tax)
	assert.Equal(t, invoice.Fields{Discounts: "%", Shipping: "true", Tax: "%"}, p.Fields)
}

func TestToPayload_TaxDisabledAndFixedDiscount(t *testing.T) {
	d := sampleDraft()
	d.Pricing.TaxEnabled = false
	d.Pricing.DiscountMode = pricing.DiscountFixed
	d.Pricing.DiscountValue = "oops"

	p := invoice.ToPayload(d)

	assert.Equal(t, json.Number("0"), p.Tax)
	assert.Equal(t, json.Number("0"), p.Discounts)
	assert.Equal(t, "true", p.Fields.Discounts)
}

func TestToPayload_NoItems(t *testing.T) {
	d := sampleDraft()
	d.Items = []pricing.Item{{Description: "", Quantity: "1", UnitCost: "0.00"}}

	data, err := json.Marshal(invoice.ToPayload(d))
	require.NoError(t, err)

	assert.Contains(t, string(data), `"items":[]`)
}

func TestRoundTrip(t *testing.T) {
	customers := lookup{"Acme": {Name: "Acme", Address: "Acme Corp\n1 Road", Prefix: "ACME-"}}

	want := sampleDraft()

	data, err := json.Marshal(invoice.ToPayload(want))
	require.NoError(t, err)

	var p invoice.Payload
	require.NoError(t, json.Unmarshal(data, &p))

	got, err := invoice.FromPayload(p, customers)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestFromPayload_CollapsesTax(t *testing.T) {
	d := sampleDraft()
	d.Pricing.GSTRate = "5"
	d.Pricing.QSTRate = "9.975"

	got, err := invoice.FromPayload(invoice.ToPayload(d), nil)
	require.NoError(t, err)

	assert.Equal(t, "14.975", got.Pricing.GSTRate)
	assert.Equal(t, "0", got.Pricing.QSTRate)
	assert.True(t, got.Pricing.TaxEnabled)

	// Totals survive the collapse.
	assert.True(t, d.Totals().Total.Equal(got.Totals().Total))
}

func TestFromPayload_ZeroTaxDisables(t *testing.T) {
	d := sampleDraft()
	d.Pricing.TaxEnabled = false

	got, err := invoice.FromPayload(invoice.ToPayload(d), nil)
	require.NoError(t, err)

	assert.False(t, got.Pricing.TaxEnabled)
	assert.Equal(t, "0", got.Pricing.GSTRate)
}

func TestFromPayload_Customer(t *testing.T) {
	type testCase struct {
		name         string
		to           string
		number       string
		customers    lookup
		wantCustomer string
		wantPrefix   string
		wantNumber   string
	}

	tests := []testCase{
		{
			name:         "MatchUsesCustomerPrefix",
			to:           "Acme Corp",
			number:       "OLD-0003",
			customers:    lookup{"Acme": {Name: "Acme", Address: "Acme Corp", Prefix: "ACME-"}},
			wantCustomer: "Acme",
			wantPrefix:   "ACME-",
			wantNumber:   "ACME-0003",
		},
		{
			name:       "NoMatchKeepsNumberPrefix",
			to:         "Someone Else",
			number:     "OLD-0003",
			customers:  lookup{"Acme": {Name: "Acme", Address: "Acme Corp", Prefix: "ACME-"}},
			wantPrefix: "OLD-",
			wantNumber: "OLD-0003",
		},
		{
			name:       "UnpaddedTailIsNormalised",
			to:         "Nobody",
			number:     "7",
			wantPrefix: "",
			wantNumber: "0007",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := invoice.FromPayload(invoice.Payload{To: tt.to, Number: tt.number}, tt.customers)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCustomer, got.Customer)
			assert.Equal(t, tt.wantPrefix, got.Prefix)
			assert.Equal(t, tt.to, got.To)
			assert.Equal(t, tt.wantNumber, got.Number())
		})
	}
}

func TestFromPayload_InvalidNumber(t *testing.T) {
	_, err := invoice.FromPayload(invoice.Payload{Number: "ACME-XYZ"}, nil)
	assert.ErrorIs(t, err, invoice.ErrInvalidNumber)
}

func TestFromPayload_BadDatesAreZero(t *testing.T) {
	got, err := invoice.FromPayload(invoice.Payload{Number: "1", Date: "01/03/2024"}, nil)
	require.NoError(t, err)

	assert.True(t, got.Date.IsZero())
	assert.True(t, got.DueDate.IsZero())
}

func TestPayload_UnmarshalLegacy(t *testing.T) {
	type testCase struct {
		name string
		data string
		want invoice.Payload
	}

	tests := []testCase{
		{
			name: "FlattenedHistory",
			data: `{
				"number": "ACME-0004",
				"to": "Acme",
				"items[1][name]": "Second",
				"items[1][quantity]": "3",
				"items[1][unit_cost]": "2.5",
				"items[0][name]": "First",
				"items[0][quantity]": "1",
				"items[0][unit_cost]": "abc",
				"discounts": 5,
				"shipping": 0,
				"tax": 14.975,
				"fields[discounts]": "%",
				"fields[shipping]": "true",
				"fields[tax]": "%"
			}`,
			want: invoice.Payload{
				Number: "ACME-0004",
				To:     "Acme",
				Items: []invoice.Item{
					{Name: "First", Quantity: "1", UnitCost: "0"},
					{Name: "Second", Quantity: "3", UnitCost: "2.5"},
				},
				Discounts: "5",
				Shipping:  "0",
				Tax:       "14.975",
				Fields:    invoice.Fields{Discounts: "%", Shipping: "true", Tax: "%"},
			},
		},
		{
			name: "InvoiceNumberTemplate",
			data: `{"invoice_number": "0009", "items": [{"name": "A", "quantity": 1, "unit_cost": 2}]}`,
			want: invoice.Payload{
				Number: "0009",
				Items:  []invoice.Item{{Name: "A", Quantity: "1", UnitCost: "2"}},
			},
		},
		{
			name: "NumericInvoiceNumber",
			data: `{"invoice_number": 15}`,
			want: invoice.Payload{Number: "15"},
		},
		{
			name: "HandEditedNumbersFallBackToZero",
			data: `{
				"number": "A-0001",
				"items": [
					{"name": "x", "quantity": "abc", "unit_cost": "1"},
					{"name": "y", "quantity": "", "unit_cost": null},
					{"name": "z", "quantity": "2", "unit_cost": 3.5}
				],
				"shipping": "",
				"discounts": "1e400000000",
				"tax": "+5"
			}`,
			want: invoice.Payload{
				Number: "A-0001",
				Items: []invoice.Item{
					{Name: "x", Quantity: "0", UnitCost: "1"},
					{Name: "y", Quantity: "0"},
					{Name: "z", Quantity: "2", UnitCost: "3.5"},
				},
				Discounts: "0",
				Shipping:  "0",
				Tax:       "5",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got invoice.Payload
			require.NoError(t, json.Unmarshal([]byte(tt.data), &got))

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPayload_Form(t *testing.T) {
	p := invoice.ToPayload(sampleDraft())
	form := p.Form()

	assert.Equal(t, "ACME-0012", form.Get("number"))
	assert.Equal(t, "Design", form.Get("items[0][name]"))
	assert.Equal(t, "2", form.Get("items[0][quantity]"))
	assert.Equal(t, "19.99", form.Get("items[1][unit_cost]"))
	assert.Equal(t, "14.975", form.Get("tax"))
	assert.Equal(t, "%", form.Get("fields[discounts]"))
	assert.Equal(t, "true", form.Get("fields[shipping]"))
	assert.Equal(t, "%", form.Get("fields[tax]"))
	assert.Empty(t, form.Get("items[2][name]"))
}

func TestNeutralize(t *testing.T) {
	p := invoice.ToPayload(sampleDraft())

	got := invoice.Neutralize(p, decimal.RequireFromString("14.975"))

	assert.Equal(t, json.Number("0"), got.Discounts)
	assert.Equal(t, json.Number("0"), got.Shipping)
	assert.Equal(t, json.Number("14.975"), got.Tax)
	assert.Equal(t, "true", got.Fields.Discounts)
	assert.Equal(t, p.Items, got.Items)
}
