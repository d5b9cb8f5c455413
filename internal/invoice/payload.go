package invoice

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
)

// Item is an exported line item.
type Item struct {
	Name     string      `json:"name"`
	Quantity json.Number `json:"quantity"`
	UnitCost json.Number `json:"unit_cost"`
}

// Fields carries the renderer's display flags for the adjustments.
// Discounts is "%" for a percentage discount and "true" for a fixed one.
type Fields struct {
	Discounts string `json:"discounts"`
	Shipping  string `json:"shipping"`
	Tax       string `json:"tax"`
}

// Payload is the canonical invoice as sent to the renderer and as stored in
// templates and history. Tax is the combined GST+QST percentage; the split
// between the two is not kept.
type Payload struct {
	Logo     string `json:"logo"`
	From     string `json:"from"`
	To       string `json:"to"`
	Number   string `json:"number"`
	Date     string `json:"date"`
	DueDate  string `json:"due_date"`
	Currency string `json:"currency"`
	Notes    string `json:"notes"`

	Items []Item `json:"items"`

	Discounts json.Number `json:"discounts"`
	Shipping  json.Number `json:"shipping"`
	Tax       json.Number `json:"tax"`
	Fields    Fields      `json:"fields"`
}

var flatItemKey = regexp.MustCompile(`^items\[(\d+)\]\[(name|quantity|unit_cost)\]$`)

// UnmarshalJSON accepts the current layout as well as two older ones: history
// files that stored the flattened wire keys (items[0][name], fields[tax]) and
// templates that stored a bare invoice_number instead of number.
func (p *Payload) UnmarshalJSON(data []byte) error {
	type plain Payload

	// Numeric fields are decoded raw so hand-edited text such as "" or "abc"
	// falls back to zero instead of failing the whole file.
	var decoded struct {
		plain
		Items []struct {
			Name     string          `json:"name"`
			Quantity json.RawMessage `json:"quantity"`
			UnitCost json.RawMessage `json:"unit_cost"`
		} `json:"items"`
		Discounts json.RawMessage `json:"discounts"`
		Shipping  json.RawMessage `json:"shipping"`
		Tax       json.RawMessage `json:"tax"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	*p = Payload(decoded.plain)

	if decoded.Items != nil {
		p.Items = make([]Item, 0, len(decoded.Items))
		for _, it := range decoded.Items {
			p.Items = append(p.Items, Item{
				Name:     it.Name,
				Quantity: lenientNumber(it.Quantity),
				UnitCost: lenientNumber(it.UnitCost),
			})
		}
	}

	p.Discounts = lenientNumber(decoded.Discounts)
	p.Shipping = lenientNumber(decoded.Shipping)
	p.Tax = lenientNumber(decoded.Tax)

	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	if p.Number == "" {
		p.Number = scalarText(flat["invoice_number"])
	}

	if len(p.Items) == 0 {
		if items := flatItems(flat); len(items) > 0 {
			p.Items = items
		}
	}

	if p.Fields.Discounts == "" {
		p.Fields.Discounts = scalarText(flat["fields[discounts]"])
	}

	if p.Fields.Shipping == "" {
		p.Fields.Shipping = scalarText(flat["fields[shipping]"])
	}

	if p.Fields.Tax == "" {
		p.Fields.Tax = scalarText(flat["fields[tax]"])
	}

	return nil
}

func flatItems(flat map[string]json.RawMessage) []Item {
	byIndex := make(map[int]*Item)

	for key, value := range flat {
		m := flatItemKey.FindStringSubmatch(key)
		if m == nil {
			continue
		}

		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		it, ok := byIndex[idx]
		if !ok {
			it = &Item{}
			byIndex[idx] = it
		}

		text := scalarText(value)

		switch m[2] {
		case "name":
			it.Name = text
		case "quantity":
			it.Quantity = NumberText(text)
		case "unit_cost":
			it.UnitCost = NumberText(text)
		}
	}

	indices := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indices = append(indices, idx)
	}

	slices.Sort(indices)

	items := make([]Item, 0, len(indices))
	for _, idx := range indices {
		items = append(items, *byIndex[idx])
	}

	return items
}

// lenientNumber keeps an absent or null value empty and turns any other
// scalar into a number, unparsable text becoming "0".
func lenientNumber(raw json.RawMessage) json.Number {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	return NumberText(scalarText(raw))
}

// scalarText returns a JSON string or number as text, and "" for anything else.
func scalarText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}

	return ""
}

// Form flattens the payload into the renderer's form encoding.
func (p Payload) Form() url.Values {
	v := url.Values{}

	v.Set("logo", p.Logo)
	v.Set("from", p.From)
	v.Set("to", p.To)
	v.Set("number", p.Number)
	v.Set("date", p.Date)
	v.Set("due_date", p.DueDate)
	v.Set("currency", p.Currency)
	v.Set("notes", p.Notes)

	for i, it := range p.Items {
		prefix := fmt.Sprintf("items[%d]", i)
		v.Set(prefix+"[name]", it.Name)
		v.Set(prefix+"[quantity]", numberOrZero(it.Quantity))
		v.Set(prefix+"[unit_cost]", numberOrZero(it.UnitCost))
	}

	v.Set("discounts", numberOrZero(p.Discounts))
	v.Set("shipping", numberOrZero(p.Shipping))
	v.Set("tax", numberOrZero(p.Tax))

	v.Set("fields[discounts]", orDefault(p.Fields.Discounts, FlagFixed))
	v.Set("fields[shipping]", orDefault(p.Fields.Shipping, "true"))
	v.Set("fields[tax]", orDefault(p.Fields.Tax, FlagPercent))

	return v
}

func numberOrZero(n json.Number) string {
	return orDefault(n.String(), "0")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}

	return s
}
