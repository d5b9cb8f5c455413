package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/facture/internal/invoice"
	"github.com/MrJamesThe3rd/facture/internal/workbench"
)

type ArchiveKind int

const (
	ArchiveHistory ArchiveKind = iota
	ArchiveTemplates
)

func (k ArchiveKind) String() string {
	if k == ArchiveTemplates {
		return "Templates"
	}

	return "History"
}

type entry string

func (e entry) FilterValue() string { return string(e) }
func (e entry) Title() string       { return string(e) }
func (e entry) Description() string { return "" }

type ArchiveModel struct {
	CommonModel
	wb   *workbench.Workbench
	kind ArchiveKind

	list list.Model
	err  error
}

func NewArchiveModel(wb *workbench.Workbench, kind ArchiveKind) ArchiveModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false

	l := list.New(nil, delegate, 60, 16)
	l.Title = kind.String()
	l.SetShowHelp(false)

	m := ArchiveModel{wb: wb, kind: kind, list: l}
	m.reload()

	return m
}

func (m ArchiveModel) Title() string { return m.kind.String() }

func (m ArchiveModel) ShortHelp() string {
	return "Enter: open | /: filter | Esc: back"
}

func (m ArchiveModel) Init() tea.Cmd {
	return nil
}

func (m *ArchiveModel) reload() {
	var (
		names []string
		err   error
	)

	if m.kind == ArchiveTemplates {
		names, err = m.wb.Templates()
	} else {
		names, err = m.wb.History()
	}

	if err != nil {
		m.err = err
		return
	}

	items := make([]list.Item, 0, len(names))
	for _, n := range names {
		items = append(items, entry(n))
	}

	m.list.SetItems(items)
}

func (m ArchiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadFailedMsg:
		m.err = msg.err
		return m, nil
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-4, max(msg.Height-6, 5))
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "esc":
			return m, Back
		case "enter":
			selected, ok := m.list.SelectedItem().(entry)
			if !ok {
				return m, nil
			}

			return m, m.open(string(selected))
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m ArchiveModel) open(name string) tea.Cmd {
	var (
		d   invoice.Draft
		err error
	)

	if m.kind == ArchiveTemplates {
		d, err = m.wb.LoadTemplate(name, time.Now())
	} else {
		d, err = m.wb.LoadHistory(name, time.Now())
	}

	if err != nil {
		return func() tea.Msg { return loadFailedMsg{err: err} }
	}

	source := fmt.Sprintf("%s: %s", m.kind, name)

	return func() tea.Msg { return OpenDraftMsg{Draft: d, Source: source} }
}

type loadFailedMsg struct{ err error }

func (m ArchiveModel) View() string {
	if m.err != nil {
		return screenStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			errorStyle.Render(fmt.Sprintf("Error: %v", m.err)),
			"",
			faintStyle.Render("Esc: back"),
		))
	}

	if len(m.list.Items()) == 0 {
		return screenStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(m.kind.String()),
			"",
			faintStyle.Render("Nothing saved yet."),
			"",
			faintStyle.Render("Esc: back"),
		))
	}

	return screenStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.list.View(),
		"",
		faintStyle.Render(m.ShortHelp()),
	))
}
