package invoice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/facture/internal/invoice"
	"github.com/MrJamesThe3rd/facture/internal/pricing"
)

type itemDTO struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitCost    string `json:"unit_cost"`
}

// draftDTO is the JSON shape of an editable invoice. Requests are decoded on
// top of a fresh draft so omitted keys keep their defaults.
type draftDTO struct {
	Number         string               `json:"number"`
	SequenceNumber int                  `json:"sequence_number"`
	Customer       string               `json:"customer"`
	Prefix         string               `json:"prefix"`
	Date           string               `json:"date"`
	DueDate        string               `json:"due_date"`
	Logo           string               `json:"logo"`
	Currency       string               `json:"currency"`
	From           string               `json:"from"`
	To             string               `json:"to"`
	Notes          string               `json:"notes"`
	Items          []itemDTO            `json:"items"`
	Discount       string               `json:"discount"`
	DiscountMode   pricing.DiscountMode `json:"discount_mode"`
	Shipping       string               `json:"shipping"`
	TaxEnabled     bool                 `json:"tax_enabled"`
	GSTRate        string               `json:"gst_rate"`
	QSTRate        string               `json:"qst_rate"`
}

type totalsResponse struct {
	Subtotal          decimal.Decimal `json:"subtotal"`
	DiscountAmount    decimal.Decimal `json:"discount_amount"`
	BaseAfterDiscount decimal.Decimal `json:"base_after_discount"`
	Shipping          decimal.Decimal `json:"shipping"`
	CombinedTaxRate   decimal.Decimal `json:"combined_tax_rate"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	Total             decimal.Decimal `json:"total"`
	Labels            labelsResponse  `json:"labels"`
}

type labelsResponse struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

type draftResponse struct {
	Draft  draftDTO       `json:"draft"`
	Totals totalsResponse `json:"totals"`
}

func toDraftDTO(d invoice.Draft) draftDTO {
	dto := draftDTO{
		Number:         d.Number(),
		SequenceNumber: d.SequenceNumber,
		Customer:       d.Customer,
		Prefix:         d.Prefix,
		Date:           d.Date.Format(time.DateOnly),
		DueDate:        d.DueDate.Format(time.DateOnly),
		Logo:           d.Logo,
		Currency:       d.Currency,
		From:           d.From,
		To:             d.To,
		Notes:          d.Notes,
		Items:          make([]itemDTO, len(d.Items)),
		Discount:       d.Pricing.DiscountValue,
		DiscountMode:   d.Pricing.DiscountMode,
		Shipping:       d.Pricing.Shipping,
		TaxEnabled:     d.Pricing.TaxEnabled,
		GSTRate:        d.Pricing.GSTRate,
		QSTRate:        d.Pricing.QSTRate,
	}

	for i, it := range d.Items {
		dto.Items[i] = itemDTO{Description: it.Description, Quantity: it.Quantity, UnitCost: it.UnitCost}
	}

	return dto
}

func (dto draftDTO) toDraft() (invoice.Draft, error) {
	date, err := time.Parse(time.DateOnly, dto.Date)
	if err != nil {
		return invoice.Draft{}, fmt.Errorf("invalid date %q", dto.Date)
	}

	due, err := time.Parse(time.DateOnly, dto.DueDate)
	if err != nil {
		return invoice.Draft{}, fmt.Errorf("invalid due_date %q", dto.DueDate)
	}

	switch dto.DiscountMode {
	case pricing.DiscountFixed, pricing.DiscountPercent:
	default:
		return invoice.Draft{}, fmt.Errorf("invalid discount_mode %q", dto.DiscountMode)
	}

	if dto.SequenceNumber < 0 {
		return invoice.Draft{}, fmt.Errorf("invalid sequence_number %d", dto.SequenceNumber)
	}

	d := invoice.Draft{
		SequenceNumber: dto.SequenceNumber,
		Customer:       dto.Customer,
		Prefix:         dto.Prefix,
		Date:           date,
		DueDate:        due,
		Logo:           dto.Logo,
		Currency:       dto.Currency,
		From:           dto.From,
		To:             dto.To,
		Notes:          dto.Notes,
		Items:          make([]pricing.Item, len(dto.Items)),
		Pricing: pricing.Config{
			DiscountValue: dto.Discount,
			DiscountMode:  dto.DiscountMode,
			Shipping:      dto.Shipping,
			TaxEnabled:    dto.TaxEnabled,
			GSTRate:       dto.GSTRate,
			QSTRate:       dto.QSTRate,
		},
	}

	for i, it := range dto.Items {
		d.Items[i] = pricing.Item{Description: it.Description, Quantity: it.Quantity, UnitCost: it.UnitCost}
	}

	return d, nil
}

func toTotalsResponse(t pricing.Totals, f *pricing.Formatter) totalsResponse {
	labels := f.Labels(t)

	return totalsResponse{
		Subtotal:          t.Subtotal,
		DiscountAmount:    t.DiscountAmount,
		BaseAfterDiscount: t.BaseAfterDiscount,
		Shipping:          t.Shipping,
		CombinedTaxRate:   t.CombinedTaxRate,
		TaxAmount:         t.TaxAmount,
		Total:             t.Total,
		Labels: labelsResponse{
			Subtotal: labels.Subtotal,
			Tax:      labels.Tax,
			Total:    labels.Total,
		},
	}
}
