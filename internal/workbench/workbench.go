package workbench

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/facture/internal/archive"
	"github.com/MrJamesThe3rd/facture/internal/customer"
	"github.com/MrJamesThe3rd/facture/internal/invoice"
	"github.com/MrJamesThe3rd/facture/internal/pricing"
	"github.com/MrJamesThe3rd/facture/internal/sequence"
	"github.com/MrJamesThe3rd/facture/internal/settings"
)

const (
	// MinRows is the number of item rows an editor always shows.
	MinRows = 4

	dueAfterDays = 30
)

//go:generate mockgen -source=workbench.go -destination=renderer_mock.go -package=workbench
type Renderer interface {
	Render(ctx context.Context, p invoice.Payload) ([]byte, error)
}

// Rates are the default tax percentages applied to new drafts and templates.
type Rates struct {
	GST string
	QST string
}

// Combined is GST + QST.
func (r Rates) Combined() decimal.Decimal {
	return pricing.ParseNumber(r.GST).Add(pricing.ParseNumber(r.QST))
}

// Workbench owns the application state shared by every front-end: settings,
// customers, the invoice counter, templates, history and the renderer.
type Workbench struct {
	settings  *settings.Service
	customers *customer.Registry
	sequence  *sequence.Sequencer
	archive   *archive.Archive
	renderer  Renderer
	rates     Rates
}

func New(
	settingsService *settings.Service,
	customers *customer.Registry,
	seq *sequence.Sequencer,
	arch *archive.Archive,
	r Renderer,
	rates Rates,
) *Workbench {
	return &Workbench{
		settings:  settingsService,
		customers: customers,
		sequence:  seq,
		archive:   arch,
		renderer:  r,
		rates:     rates,
	}
}

// Result describes a generated invoice.
type Result struct {
	Number    string
	HistoryID string
	PDF       []byte
	Next      int
}

// DefaultPricing is the adjustment block of a fresh draft: no discount, no
// shipping, tax enabled at the default rates.
func (w *Workbench) DefaultPricing() pricing.Config {
	return pricing.Config{
		DiscountValue: "0",
		DiscountMode:  pricing.DiscountFixed,
		Shipping:      "0",
		TaxEnabled:    true,
		GSTRate:       w.rates.GST,
		QSTRate:       w.rates.QST,
	}
}

// NewDraft starts a blank invoice from the current settings and counter.
func (w *Workbench) NewDraft(now time.Time) invoice.Draft {
	s := w.settings.Get()
	today := truncateDay(now)

	return invoice.Draft{
		SequenceNumber: w.sequence.Current(),
		Date:           today,
		DueDate:        today.AddDate(0, 0, dueAfterDays),
		Logo:           s.Logo,
		Currency:       s.Currency,
		From:           s.From,
		Items:          Pad(nil),
		Pricing:        w.DefaultPricing(),
	}
}

// Recalculate prices the draft.
func (w *Workbench) Recalculate(d invoice.Draft) pricing.Totals {
	return d.Totals()
}

// SelectCustomer fills the recipient from a registered customer. An empty
// name clears the selection and prefix but keeps the recipient text.
func (w *Workbench) SelectCustomer(d invoice.Draft, name string) (invoice.Draft, error) {
	if name == "" {
		d.Customer = ""
		d.Prefix = ""

		return d, nil
	}

	c, ok := w.customers.Get(name)
	if !ok {
		return d, fmt.Errorf("%w: %s", customer.ErrNotFound, name)
	}

	d.Customer = c.Name
	d.Prefix = c.Prefix
	d.To = c.Address

	return d, nil
}

// Generate renders the draft, records it in history and advances the
// counter. Nothing changes when rendering fails. A failed history write is
// logged and does not stop the counter from advancing.
func (w *Workbench) Generate(ctx context.Context, d invoice.Draft, now time.Time) (Result, error) {
	p := invoice.ToPayload(d)

	pdf, err := w.renderer.Render(ctx, p)
	if err != nil {
		return Result{}, fmt.Errorf("rendering invoice %s: %w", p.Number, err)
	}

	id, err := w.archive.AppendHistory(p, now)
	if err != nil {
		slog.Error("failed to record invoice history", "number", p.Number, "error", err)
	}

	next := w.sequence.Next()

	slog.Info("generated invoice", "number", p.Number, "history", id, "next", next)

	return Result{
		Number:    p.Number,
		HistoryID: id,
		PDF:       pdf,
		Next:      next,
	}, nil
}

// LoadHistory reopens a past invoice with its adjustments as stored and
// moves the counter to its number.
func (w *Workbench) LoadHistory(id string, now time.Time) (invoice.Draft, error) {
	p, err := w.archive.LoadHistory(id)
	if err != nil {
		return invoice.Draft{}, err
	}

	return w.open(p, now)
}

// LoadTemplate opens a template. Its adjustments are replaced by the
// defaults whatever the file contains.
func (w *Workbench) LoadTemplate(name string, now time.Time) (invoice.Draft, error) {
	p, err := w.archive.LoadTemplate(name)
	if err != nil {
		return invoice.Draft{}, err
	}

	d, err := w.open(p, now)
	if err != nil {
		return invoice.Draft{}, err
	}

	d.Pricing = w.DefaultPricing()

	return d, nil
}

func (w *Workbench) open(p invoice.Payload, now time.Time) (invoice.Draft, error) {
	d, err := invoice.FromPayload(p, w.customers)
	if err != nil {
		return invoice.Draft{}, err
	}

	s := w.settings.Get()
	today := truncateDay(now)

	if d.Logo == "" {
		d.Logo = s.Logo
	}

	if d.Currency == "" {
		d.Currency = s.Currency
	}

	if d.Date.IsZero() {
		d.Date = today
	}

	if d.DueDate.IsZero() {
		d.DueDate = today.AddDate(0, 0, dueAfterDays)
	}

	d.Items = Pad(d.Items)

	w.sequence.SetLast(d.SequenceNumber)

	return d, nil
}

func (w *Workbench) SaveTemplate(name string, d invoice.Draft) error {
	return w.archive.SaveTemplate(name, invoice.ToPayload(d), w.rates.Combined())
}

func (w *Workbench) Templates() ([]string, error) {
	return w.archive.ListTemplates()
}

func (w *Workbench) History() ([]string, error) {
	return w.archive.ListHistory()
}

func (w *Workbench) CurrentNumber() int {
	return w.sequence.Current()
}

func (w *Workbench) Settings() settings.Settings {
	return w.settings.Get()
}

func (w *Workbench) SaveSettings(s settings.Settings) settings.Settings {
	return w.settings.Save(s)
}

func (w *Workbench) Customers() []customer.Customer {
	return w.customers.All()
}

func (w *Workbench) Customer(name string) (customer.Customer, bool) {
	return w.customers.Get(name)
}

// AddCustomer registers and persists a new customer.
func (w *Workbench) AddCustomer(name, address, prefix string) error {
	if err := w.customers.Add(name, address, prefix); err != nil {
		return err
	}

	return w.customers.Save()
}

func (w *Workbench) UpdateCustomer(name, address, prefix string) error {
	return w.customers.Update(name, address, prefix)
}

func (w *Workbench) RemoveCustomer(name string) error {
	w.customers.Remove(name)
	return w.customers.Save()
}

// Pad returns a copy of items with blank rows appended up to MinRows.
func Pad(items []pricing.Item) []pricing.Item {
	out := make([]pricing.Item, 0, max(len(items), MinRows))
	out = append(out, items...)

	for len(out) < MinRows {
		out = append(out, pricing.Item{Quantity: "1", UnitCost: "0.00"})
	}

	return out
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
