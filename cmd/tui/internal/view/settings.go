package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/facture/internal/settings"
	"github.com/MrJamesThe3rd/facture/internal/workbench"
)

type SettingsModel struct {
	CommonModel
	wb *workbench.Workbench

	form   *huh.Form
	values *settings.Settings
	saved  bool
}

func NewSettingsModel(wb *workbench.Workbench) SettingsModel {
	current := wb.Settings()

	m := SettingsModel{
		wb:     wb,
		values: &current,
	}
	m.form = m.buildForm()

	return m
}

func (m SettingsModel) Title() string { return "Settings" }

func (m SettingsModel) ShortHelp() string {
	if m.saved {
		return "Esc: back to menu"
	}

	return "Esc: cancel | Enter: next"
}

func (m SettingsModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m SettingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	if m.saved {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	*m.values = m.wb.SaveSettings(*m.values)
	m.saved = true

	return m, nil
}

func (m SettingsModel) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("logo").
				Title("Logo URL").
				Value(&m.values.Logo),

			huh.NewText().
				Key("from").
				Title("From").
				Description("Your business name and address").
				Value(&m.values.From),

			huh.NewInput().
				Key("currency").
				Title("Currency").
				Value(&m.values.Currency).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("currency cannot be empty")
					}

					return nil
				}),
		),
	).WithWidth(60).WithShowHelp(false)
}

func (m SettingsModel) View() string {
	if m.saved {
		return screenStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			okStyle.Render("Settings saved."),
			"",
			fmt.Sprintf("Currency: %s", m.values.Currency),
			fmt.Sprintf("From:     %s", firstLine(m.values.From)),
			"",
			faintStyle.Render(m.ShortHelp()),
		))
	}

	return screenStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Settings"),
		"",
		m.form.View(),
		"",
		faintStyle.Render(m.ShortHelp()),
	))
}
