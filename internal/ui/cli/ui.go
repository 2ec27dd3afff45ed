package cli

import (
	"fmt"
	"time"

	"agatypes/internal/engine/types"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)
)

// tokenItem is one row of the inspector.
type tokenItem struct {
	label    string
	kind     types.TokenKind
	location types.Location
	rendered string
}

func (i tokenItem) Title() string {
	return fmt.Sprintf("%s  %s", i.label, statusStyle.Render(i.location.String()))
}
func (i tokenItem) Description() string { return fmt.Sprintf("%s: %s", i.kind, i.rendered) }
func (i tokenItem) FilterValue() string { return i.label + " " + i.rendered }

// inspector loads rows and hover text; the model holds no session state of
// its own.
type inspector interface {
	Load() updateMsg
	Hover(pos types.Position) string
}

type model struct {
	path       string
	tokenList  list.Model
	source     inspector
	diagnostic *types.Diagnostic
	loadErr    string
	detail     string
	showDetail bool
	lastUpdate time.Time
}

type updateMsg struct {
	items      []tokenItem
	diagnostic *types.Diagnostic
	err        error
}

type hoverMsg struct {
	text string
}

func initialModel(path string, source inspector) model {
	tokenList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	tokenList.Title = "Tokens"
	tokenList.SetShowStatusBar(false)
	tokenList.SetFilteringEnabled(true)
	return model{path: path, tokenList: tokenList, source: source}
}

func (m model) loadCmd() tea.Cmd {
	if m.source == nil {
		return nil
	}
	source := m.source
	return func() tea.Msg { return source.Load() }
}

func (m model) Init() tea.Cmd {
	return m.loadCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.tokenList.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			return m, m.loadCmd()
		case "esc":
			m.showDetail = false
			return m, nil
		case "enter":
			selected, ok := m.tokenList.SelectedItem().(tokenItem)
			if !ok || m.source == nil {
				return m, nil
			}
			source := m.source
			return m, func() tea.Msg { return hoverMsg{text: source.Hover(selected.location.Start)} }
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		height := msg.Height - v - 6
		if height < 5 {
			height = 5
		}
		m.tokenList.SetSize(msg.Width-h, height)
	case updateMsg:
		m.lastUpdate = time.Now()
		m.diagnostic = msg.diagnostic
		m.loadErr = ""
		if msg.err != nil {
			m.loadErr = msg.err.Error()
		}
		items := make([]list.Item, 0, len(msg.items))
		for _, it := range msg.items {
			items = append(items, it)
		}
		m.tokenList.SetItems(items)
	case hoverMsg:
		m.detail = msg.text
		m.showDetail = true
		return m, nil
	}

	var cmd tea.Cmd
	m.tokenList, cmd = m.tokenList.Update(msg)
	return m, cmd
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %s | %d tokens",
		m.lastUpdate.Format("15:04:05"), len(m.tokenList.Items())))

	var summary string
	switch {
	case m.loadErr != "":
		summary = errorStyle.Render(m.loadErr)
	case m.diagnostic != nil:
		summary = errorStyle.Render(fmt.Sprintf("%d:%d %s", m.diagnostic.Line+1, m.diagnostic.Column+1, m.diagnostic.Message))
	default:
		summary = successStyle.Render("No errors")
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("agatypes: "+m.path), status, summary)
	help := statusStyle.Render("enter: hover | r: refresh | /: filter | esc: close | q: quit")

	body := m.tokenList.View()
	if m.showDetail {
		body = detailStyle.Render(m.detail) + "\n\n" + body
	}
	return docStyle.Render(header + "\n" + help + "\n\n" + body)
}
