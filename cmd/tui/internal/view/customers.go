package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/facture/internal/customer"
	"github.com/MrJamesThe3rd/facture/internal/workbench"
)

type customersState int

const (
	customersStateBrowse customersState = iota
	customersStateAdd
	customersStateEdit
	customersStateConfirmDelete
)

type customerFields struct {
	name    string
	address string
	prefix  string
	confirm bool
}

type CustomersModel struct {
	CommonModel
	wb *workbench.Workbench

	state     customersState
	table     table.Model
	customers []customer.Customer
	form      *huh.Form
	fields    *customerFields
	status    string
}

func NewCustomersModel(wb *workbench.Workbench) CustomersModel {
	columns := []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Prefix", Width: 10},
		{Title: "Address", Width: 40},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
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

	m := CustomersModel{
		wb:     wb,
		table:  t,
		fields: &customerFields{},
	}
	m.refreshTable()

	return m
}

func (m CustomersModel) Title() string { return "Customers" }

func (m CustomersModel) ShortHelp() string {
	if m.state != customersStateBrowse {
		return "Navigate form | Esc: cancel"
	}

	return "a: add | e: edit | d: delete | Esc: back"
}

func (m CustomersModel) Init() tea.Cmd {
	return nil
}

func (m CustomersModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == customersStateBrowse {
		return m.updateBrowse(msg)
	}

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

	f := m.fields

	switch m.state {
	case customersStateAdd:
		if err := m.wb.AddCustomer(f.name, f.address, f.prefix); err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Error: %v", err))
		} else {
			m.status = okStyle.Render(fmt.Sprintf("Added %s", strings.TrimSpace(f.name)))
		}
	case customersStateEdit:
		if err := m.wb.UpdateCustomer(f.name, f.address, f.prefix); err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Error: %v", err))
		} else {
			m.status = okStyle.Render(fmt.Sprintf("Updated %s", f.name))
		}
	case customersStateConfirmDelete:
		if f.confirm {
			if err := m.wb.RemoveCustomer(f.name); err != nil {
				m.status = errorStyle.Render(fmt.Sprintf("Error: %v", err))
			} else {
				m.status = okStyle.Render(fmt.Sprintf("Deleted %s", f.name))
			}
		}
	}

	m.closeForm()
	m.refreshTable()

	return m, nil
}

func (m CustomersModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "a":
			*m.fields = customerFields{}
			return m.openForm(customersStateAdd, m.editForm(true))
		case "e", "enter":
			c, ok := m.selected()
			if !ok {
				return m, nil
			}

			*m.fields = customerFields{name: c.Name, address: c.Address, prefix: c.Prefix}

			return m.openForm(customersStateEdit, m.editForm(false))
		case "d":
			c, ok := m.selected()
			if !ok {
				return m, nil
			}

			*m.fields = customerFields{name: c.Name}

			return m.openForm(customersStateConfirmDelete, m.deleteForm())
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m CustomersModel) openForm(state customersState, form *huh.Form) (tea.Model, tea.Cmd) {
	m.state = state
	m.form = form
	m.status = ""
	m.table.Blur()

	return m, m.form.Init()
}

func (m *CustomersModel) closeForm() {
	m.state = customersStateBrowse
	m.form = nil
	m.table.Focus()
}

func (m CustomersModel) selected() (customer.Customer, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.customers) {
		return customer.Customer{}, false
	}

	return m.customers[idx], true
}

func (m CustomersModel) editForm(isNew bool) *huh.Form {
	f := m.fields

	var fields []huh.Field

	if isNew {
		fields = append(fields, huh.NewInput().
			Key("name").
			Title("Name").
			Value(&f.name).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return customer.ErrEmptyName
				}

				if _, exists := m.wb.Customer(strings.TrimSpace(s)); exists {
					return customer.ErrDuplicateName
				}

				return nil
			}))
	}

	fields = append(fields,
		huh.NewText().
			Key("address").
			Title("Address").
			Value(&f.address),

		huh.NewInput().
			Key("prefix").
			Title("Invoice prefix").
			Placeholder("e.g. ACME-").
			Value(&f.prefix),
	)

	return huh.NewForm(huh.NewGroup(fields...)).WithWidth(50).WithShowHelp(false)
}

func (m CustomersModel) deleteForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("confirm").
				Title(fmt.Sprintf("Delete %s?", m.fields.name)).
				Value(&m.fields.confirm),
		),
	).WithShowHelp(false)
}

func (m *CustomersModel) refreshTable() {
	m.customers = m.wb.Customers()

	rows := make([]table.Row, 0, len(m.customers))
	for _, c := range m.customers {
		rows = append(rows, table.Row{c.Name, c.Prefix, firstLine(c.Address)})
	}

	m.table.SetRows(rows)
}

func (m CustomersModel) View() string {
	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Customers"), "", tableView)

	if m.form != nil {
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panelStyle.Width(54).Render(m.form.View()))
	}

	if m.status != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, content, "", m.status)
	}

	return screenStyle.Render(lipgloss.JoinVertical(lipgloss.Left, content, "", faintStyle.Render(m.ShortHelp())))
}
