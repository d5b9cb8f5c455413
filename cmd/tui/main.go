package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"github.com/MrJamesThe3rd/facture/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/facture/internal/config"
	"github.com/MrJamesThe3rd/facture/internal/invoice"
	"github.com/MrJamesThe3rd/facture/internal/pricing"
	"github.com/MrJamesThe3rd/facture/internal/workbench"
)

type model struct {
	wb        *workbench.Workbench
	formatter *pricing.Formatter

	currentView View
	width       int
	height      int

	editorView    view.EditorModel
	archiveView   view.ArchiveModel
	customersView view.CustomersModel
	settingsView  view.SettingsModel
}

type View int

const (
	ViewMenu      View = 0
	ViewEditor    View = 1
	ViewArchive   View = 2
	ViewCustomers View = 3
	ViewSettings  View = 4
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	wb, err := workbench.Open(cfg)
	if err != nil {
		slog.Error("failed to open data directory", "dir", cfg.App.DataDir, "error", err)
		os.Exit(1)
	}

	return model{
		wb:          wb,
		formatter:   pricing.NewFormatter(language.English),
		currentView: ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				return m.openEditor(m.wb.NewDraft(time.Now()), "New invoice")
			case "2":
				m.currentView = ViewArchive
				m.archiveView = view.NewArchiveModel(m.wb, view.ArchiveHistory)

				return m, m.archiveView.Init()
			case "3":
				m.currentView = ViewArchive
				m.archiveView = view.NewArchiveModel(m.wb, view.ArchiveTemplates)

				return m, m.archiveView.Init()
			case "4":
				m.currentView = ViewCustomers
				m.customersView = view.NewCustomersModel(m.wb)

				return m, m.customersView.Init()
			case "5":
				m.currentView = ViewSettings
				m.settingsView = view.NewSettingsModel(m.wb)

				return m, m.settingsView.Init()
			}
		}
	case view.OpenDraftMsg:
		return m.openEditor(msg.Draft, msg.Source)
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewEditor:
		var newModel tea.Model
		newModel, cmd = m.editorView.Update(msg)
		m.editorView = newModel.(view.EditorModel)
	case ViewArchive:
		var newModel tea.Model
		newModel, cmd = m.archiveView.Update(msg)
		m.archiveView = newModel.(view.ArchiveModel)
	case ViewCustomers:
		var newModel tea.Model
		newModel, cmd = m.customersView.Update(msg)
		m.customersView = newModel.(view.CustomersModel)
	case ViewSettings:
		var newModel tea.Model
		newModel, cmd = m.settingsView.Update(msg)
		m.settingsView = newModel.(view.SettingsModel)
	}

	return m, cmd
}

func (m model) openEditor(d invoice.Draft, source string) (tea.Model, tea.Cmd) {
	m.currentView = ViewEditor
	m.editorView = view.NewEditorModel(m.wb, m.formatter, d, source)

	return m, m.editorView.Init()
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Facture\n\n" +
				fmt.Sprintf("Next invoice number: %d\n\n", m.wb.CurrentNumber()) +
				"1. New Invoice\n" +
				"2. Open From History\n" +
				"3. Open Template\n" +
				"4. Customers\n" +
				"5. Settings\n\n" +
				"q. Quit",
		)
	case ViewEditor:
		return m.editorView.View()
	case ViewArchive:
		return m.archiveView.View()
	case ViewCustomers:
		return m.customersView.View()
	case ViewSettings:
		return m.settingsView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
