package view

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/facture/internal/invoice"
	"github.com/MrJamesThe3rd/facture/internal/pricing"
	"github.com/MrJamesThe3rd/facture/internal/renderer"
	"github.com/MrJamesThe3rd/facture/internal/store"
	"github.com/MrJamesThe3rd/facture/internal/workbench"
)

type editorState int

const (
	editorStateBrowse editorState = iota
	editorStateHeader
	editorStateItem
	editorStatePricing
	editorStateTemplate
	editorStateGeneratePath
	editorStateGenerating
)

const noCustomer = "(none)"

// editorFields holds the values bound to the active form. It sits behind a
// pointer so the form keeps writing to the same fields across model copies.
type editorFields struct {
	customer string
	number   string
	to       string
	date     string
	dueDate  string
	notes    string

	itemIdx  int
	desc     string
	quantity string
	unitCost string

	discount     string
	discountMode string
	shipping     string
	taxEnabled   bool
	gst          string
	qst          string

	name string
	path string
}

type EditorModel struct {
	CommonModel
	wb        *workbench.Workbench
	formatter *pricing.Formatter

	draft  invoice.Draft
	source string

	state   editorState
	table   table.Model
	form    *huh.Form
	fields  *editorFields
	spinner spinner.Model

	status string
	err    error
}

func NewEditorModel(wb *workbench.Workbench, formatter *pricing.Formatter, d invoice.Draft, source string) EditorModel {
	columns := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Description", Width: 36},
		{Title: "Qty", Width: 8},
		{Title: "Unit cost", Width: 12},
		{Title: "Amount", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(8),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := EditorModel{
		wb:        wb,
		formatter: formatter,
		draft:     d,
		source:    source,
		table:     t,
		fields:    &editorFields{},
		spinner:   sp,
	}
	m.refreshTable()

	return m
}

func (m EditorModel) Title() string { return "Invoice " + m.draft.Number() }

func (m EditorModel) ShortHelp() string {
	switch m.state {
	case editorStateBrowse:
		return "h: header | a: add item | enter: edit item | x: delete item | p: pricing | t: save template | g: generate | Esc: back"
	case editorStateGenerating:
		return "Generating..."
	}

	return "Navigate form | Esc: cancel"
}

func (m EditorModel) Init() tea.Cmd {
	return nil
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case generatedMsg:
		m.state = editorStateBrowse
		m.table.Focus()

		if msg.next > 0 {
			m.draft.SequenceNumber = msg.next
		}

		if msg.err != nil {
			m.err = msg.err
			m.status = describeGenerateError(msg.err)

			return m, nil
		}

		m.err = nil
		m.status = fmt.Sprintf("Saved invoice %s to %s", msg.number, msg.path)

		return m, nil

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(4, msg.Height-22))

		return m, nil
	}

	switch m.state {
	case editorStateBrowse:
		return m.updateBrowse(msg)
	case editorStateGenerating:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m.updateForm(msg)
}

func (m EditorModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "h":
			return m.openForm(editorStateHeader, m.headerForm())
		case "a":
			return m.openForm(editorStateItem, m.itemForm(-1))
		case "enter", "e":
			return m.openForm(editorStateItem, m.itemForm(m.table.Cursor()))
		case "x":
			m.deleteItem(m.table.Cursor())
			return m, nil
		case "p":
			return m.openForm(editorStatePricing, m.pricingForm())
		case "t":
			return m.openForm(editorStateTemplate, m.templateForm())
		case "g":
			return m.openForm(editorStateGeneratePath, m.pathForm())
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m EditorModel) openForm(state editorState, form *huh.Form) (tea.Model, tea.Cmd) {
	m.state = state
	m.form = form
	m.status = ""
	m.table.Blur()

	return m, m.form.Init()
}

func (m EditorModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.closeForm()
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	switch m.state {
	case editorStateHeader:
		m.applyHeader()
	case editorStateItem:
		m.applyItem()
	case editorStatePricing:
		m.applyPricing()
	case editorStateTemplate:
		if err := m.wb.SaveTemplate(m.fields.name, m.draft); err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Error saving template: %v", err))
		} else {
			m.status = okStyle.Render(fmt.Sprintf("Saved template %q", strings.TrimSpace(m.fields.name)))
		}
	case editorStateGeneratePath:
		m.state = editorStateGenerating
		m.form = nil

		return m, tea.Batch(m.spinner.Tick, m.generateCmd(m.draft, strings.TrimSpace(m.fields.path)))
	}

	m.closeForm()
	m.refreshTable()

	return m, nil
}

func (m *EditorModel) closeForm() {
	m.state = editorStateBrowse
	m.form = nil
	m.table.Focus()
}

func (m EditorModel) headerForm() *huh.Form {
	f := m.fields
	f.customer = m.draft.Customer
	if f.customer == "" {
		f.customer = noCustomer
	}

	f.number = strconv.Itoa(m.draft.SequenceNumber)
	f.to = m.draft.To
	f.date = FormatDate(m.draft.Date)
	f.dueDate = FormatDate(m.draft.DueDate)
	f.notes = m.draft.Notes

	options := []huh.Option[string]{huh.NewOption(noCustomer, noCustomer)}
	for _, c := range m.wb.Customers() {
		options = append(options, huh.NewOption(c.Name, c.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("customer").
				Title("Customer").
				Options(options...).
				Value(&f.customer),

			huh.NewInput().
				Key("number").
				Title("Invoice number").
				Value(&f.number).
				Validate(func(s string) error {
					if n, err := strconv.Atoi(strings.TrimSpace(s)); err != nil || n < 0 {
						return fmt.Errorf("must be a whole number")
					}

					return nil
				}),

			huh.NewInput().
				Key("date").
				Title("Date").
				Value(&f.date).
				Validate(validateDate),

			huh.NewInput().
				Key("due_date").
				Title("Due date").
				Value(&f.dueDate).
				Validate(validateDate),
		),
		huh.NewGroup(
			huh.NewText().
				Key("to").
				Title("Bill to").
				Description("Replaced by the customer's address when the customer changes").
				Value(&f.to),

			huh.NewText().
				Key("notes").
				Title("Notes").
				Value(&f.notes),
		),
	).WithWidth(60).WithShowHelp(false)
}

func (m *EditorModel) applyHeader() {
	f := m.fields

	m.draft.SequenceNumber, _ = strconv.Atoi(strings.TrimSpace(f.number))
	m.draft.Date = parseDate(f.date)
	m.draft.DueDate = parseDate(f.dueDate)
	m.draft.To = f.to
	m.draft.Notes = f.notes

	selected := f.customer
	if selected == noCustomer {
		selected = ""
	}

	if selected == m.draft.Customer {
		return
	}

	d, err := m.wb.SelectCustomer(m.draft, selected)
	if err != nil {
		m.status = errorStyle.Render(err.Error())
		return
	}

	m.draft = d
}

func (m EditorModel) itemForm(idx int) *huh.Form {
	f := m.fields
	f.itemIdx = idx
	f.desc, f.quantity, f.unitCost = "", "1", "0.00"

	if idx >= 0 && idx < len(m.draft.Items) {
		it := m.draft.Items[idx]
		f.desc, f.quantity, f.unitCost = it.Description, it.Quantity, it.UnitCost
	} else {
		f.itemIdx = -1
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("description").
				Title("Description").
				Description("Rows without a description are left off the invoice").
				Value(&f.desc),

			huh.NewInput().
				Key("quantity").
				Title("Quantity").
				Value(&f.quantity).
				Validate(validateNumber),

			huh.NewInput().
				Key("unit_cost").
				Title("Unit cost").
				Value(&f.unitCost).
				Validate(validateNumber),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m *EditorModel) applyItem() {
	f := m.fields
	it := pricing.Item{Description: f.desc, Quantity: f.quantity, UnitCost: f.unitCost}

	items := append([]pricing.Item(nil), m.draft.Items...)

	if f.itemIdx < 0 {
		items = insertItem(items, it)
	} else {
		items[f.itemIdx] = it
	}

	m.draft.Items = workbench.Pad(items)
}

// insertItem fills the first blank row, or appends when there is none.
func insertItem(items []pricing.Item, it pricing.Item) []pricing.Item {
	for i, existing := range items {
		if existing.Blank() {
			items[i] = it
			return items
		}
	}

	return append(items, it)
}

func (m *EditorModel) deleteItem(idx int) {
	if idx < 0 || idx >= len(m.draft.Items) {
		return
	}

	items := append([]pricing.Item(nil), m.draft.Items[:idx]...)
	items = append(items, m.draft.Items[idx+1:]...)

	m.draft.Items = workbench.Pad(items)
	m.refreshTable()
}

func (m EditorModel) pricingForm() *huh.Form {
	f := m.fields
	p := m.draft.Pricing

	f.discount = p.DiscountValue
	f.discountMode = string(p.DiscountMode)
	f.shipping = p.Shipping
	f.taxEnabled = p.TaxEnabled
	f.gst = p.GSTRate
	f.qst = p.QSTRate

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("discount").
				Title("Discount").
				Value(&f.discount).
				Validate(validateNumber),

			huh.NewSelect[string]().
				Key("discount_mode").
				Title("Discount type").
				Options(
					huh.NewOption("Fixed amount", string(pricing.DiscountFixed)),
					huh.NewOption("Percentage", string(pricing.DiscountPercent)),
				).
				Value(&f.discountMode),

			huh.NewInput().
				Key("shipping").
				Title("Shipping").
				Value(&f.shipping).
				Validate(validateNumber),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Key("tax").
				Title("Charge tax?").
				Value(&f.taxEnabled),

			huh.NewInput().
				Key("gst").
				Title("GST %").
				Value(&f.gst).
				Validate(validateNumber),

			huh.NewInput().
				Key("qst").
				Title("QST %").
				Value(&f.qst).
				Validate(validateNumber),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m *EditorModel) applyPricing() {
	f := m.fields

	m.draft.Pricing = pricing.Config{
		DiscountValue: f.discount,
		DiscountMode:  pricing.DiscountMode(f.discountMode),
		Shipping:      f.shipping,
		TaxEnabled:    f.taxEnabled,
		GSTRate:       f.gst,
		QSTRate:       f.qst,
	}
}

func (m EditorModel) templateForm() *huh.Form {
	m.fields.name = ""

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("name").
				Title("Template name").
				Description("Discount, shipping and tax are not kept").
				Value(&m.fields.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name cannot be empty")
					}

					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m EditorModel) pathForm() *huh.Form {
	m.fields.path = "invoice_" + m.draft.Number() + ".pdf"

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("path").
				Title("Save PDF as").
				Value(&m.fields.path).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("path cannot be empty")
					}

					return nil
				}),
		),
	).WithWidth(50).WithShowHelp(false)
}

// preview is the draft with the values of an open item or pricing form
// applied, so totals follow the form as it is typed.
func (m EditorModel) preview() invoice.Draft {
	d := m.draft
	d.Items = append([]pricing.Item(nil), m.draft.Items...)

	p := m
	p.draft = d

	switch m.state {
	case editorStateItem:
		p.applyItem()
	case editorStatePricing:
		p.applyPricing()
	}

	return p.draft
}

func (m *EditorModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.draft.Items))

	for i, it := range m.draft.Items {
		amount := ""
		if !it.Blank() {
			amount = m.formatter.Money(pricing.ParseNumber(it.Quantity).Mul(pricing.ParseNumber(it.UnitCost)))
		}

		rows = append(rows, table.Row{strconv.Itoa(i + 1), it.Description, it.Quantity, it.UnitCost, amount})
	}

	m.table.SetRows(rows)
}

func (m EditorModel) View() string {
	d := m.preview()
	labels := m.formatter.Labels(d.Totals())

	customer := d.Customer
	if customer == "" {
		customer = faintStyle.Render(noCustomer)
	}

	discount := d.Pricing.DiscountValue
	if d.Pricing.DiscountMode == pricing.DiscountPercent {
		discount += "%"
	}

	tax := "off"
	if d.Pricing.TaxEnabled {
		tax = fmt.Sprintf("GST %s%% + QST %s%%", d.Pricing.GSTRate, d.Pricing.QSTRate)
	}

	header := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Invoice "+d.Number()),
		faintStyle.Render(m.source),
		"",
		fmt.Sprintf("Customer: %s   Date: %s   Due: %s   Currency: %s", customer, FormatDate(d.Date), FormatDate(d.DueDate), d.Currency),
		fmt.Sprintf("Bill to:  %s", firstLine(d.To)),
		fmt.Sprintf("Discount: %s   Shipping: %s   Tax: %s", discount, d.Pricing.Shipping, tax),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	totals := lipgloss.NewStyle().Align(lipgloss.Right).Render(
		lipgloss.JoinVertical(lipgloss.Right, labels.Subtotal, labels.Tax, activeStyle(labels.Total)),
	)

	content := lipgloss.JoinVertical(lipgloss.Left, header, "", tableView, totals)

	switch m.state {
	case editorStateGenerating:
		content = lipgloss.JoinVertical(lipgloss.Left, content, "",
			fmt.Sprintf("%s Rendering invoice %s...", m.spinner.View(), d.Number()))
	case editorStateBrowse:
	default:
		if m.form != nil {
			content = lipgloss.JoinHorizontal(lipgloss.Top, content, panelStyle.Width(64).Render(m.form.View()))
		}
	}

	if m.status != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, content, "", m.status)
	}

	return screenStyle.Render(lipgloss.JoinVertical(lipgloss.Left, content, "", faintStyle.Render(m.ShortHelp())))
}

type generatedMsg struct {
	number string
	path   string
	next   int
	err    error
}

// generateCmd checks that the destination directory is writable, renders,
// and only then replaces path. A failed render never touches an existing
// file at path.
func (m EditorModel) generateCmd(d invoice.Draft, path string) tea.Cmd {
	return func() tea.Msg {
		if err := checkWritable(filepath.Dir(path)); err != nil {
			return generatedMsg{err: err}
		}

		ctx, cancel := RenderCtx()
		defer cancel()

		res, err := m.wb.Generate(ctx, d, time.Now())
		if err != nil {
			return generatedMsg{err: err}
		}

		if err := store.WriteFile(path, res.PDF); err != nil {
			return generatedMsg{
				number: res.Number,
				next:   res.Next,
				err:    fmt.Errorf("invoice %s was issued but saving %s failed: %w", res.Number, path, err),
			}
		}

		return generatedMsg{number: res.Number, path: path, next: res.Next}
	}
}

func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".facture-*")
	if err != nil {
		return fmt.Errorf("cannot write to %s: %w", dir, err)
	}

	f.Close()
	os.Remove(f.Name())

	return nil
}

func describeGenerateError(err error) string {
	var svcErr *renderer.ServiceError

	switch {
	case errors.Is(err, renderer.ErrMissingAPIKey):
		return errorStyle.Render("Set RENDERER_API_KEY to generate invoices.")
	case errors.As(err, &svcErr):
		return errorStyle.Render(fmt.Sprintf("Invoice service returned %d: %s", svcErr.StatusCode, svcErr.Body))
	}

	return errorStyle.Render(fmt.Sprintf("Error: %v", err))
}

func validateNumber(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("not a number")
	}

	return nil
}
