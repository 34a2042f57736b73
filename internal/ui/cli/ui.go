package cli

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	coreapp "scopelens/internal/core/app"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
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

	undefinedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#334155"))

	focusedPaneStyle = paneStyle.BorderForeground(lipgloss.Color("#3B82F6"))
)

type item struct {
	path, title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.path }

type fileEntry struct {
	update  coreapp.Update
	updated time.Time
}

type panelMode int

const (
	panelFiles panelMode = iota
	panelSource
)

type updateMsg struct {
	update coreapp.Update
}

type model struct {
	fileList   list.Model
	source     viewport.Model
	mode       panelMode
	files      map[string]fileEntry
	selected   string
	lastUpdate time.Time
	width      int
	height     int
}

func initialModel() model {
	fileList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	fileList.Title = "Files"
	fileList.SetShowStatusBar(false)
	fileList.SetFilteringEnabled(true)

	return model{
		fileList:   fileList,
		source:     viewport.New(0, 0),
		mode:       panelFiles,
		files:      make(map[string]fileEntry),
		lastUpdate: time.Now(),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyActions(msg, m)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m = m.resize()
		return m, nil
	case updateMsg:
		m = m.apply(msg.update)
		return m, nil
	}

	var cmd tea.Cmd
	if m.mode == panelFiles {
		m.fileList, cmd = m.fileList.Update(msg)
	} else {
		m.source, cmd = m.source.Update(msg)
	}
	return m, cmd
}

func (m model) resize() model {
	h, v := docStyle.GetFrameSize()
	width := m.width - h
	height := m.height - v - 6
	if height < 5 {
		height = 5
	}
	listWidth := width / 3
	m.fileList.SetSize(listWidth, height)
	m.source.Width = width - listWidth - 4
	m.source.Height = height - 2
	return m
}

func (m model) apply(u coreapp.Update) model {
	m.lastUpdate = time.Now()
	if u.Removed {
		delete(m.files, u.Path)
		if m.selected == u.Path {
			m.selected = ""
		}
	} else {
		m.files[u.Path] = fileEntry{update: u, updated: m.lastUpdate}
	}

	paths := make([]string, 0, len(m.files))
	for path := range m.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	items := make([]list.Item, 0, len(paths))
	selectedIdx := 0
	for i, path := range paths {
		items = append(items, describe(path, m.files[path].update))
		if path == m.selected {
			selectedIdx = i
		}
	}
	m.fileList.SetItems(items)
	if len(items) > 0 {
		m.fileList.Select(selectedIdx)
	}
	return m.syncSource()
}

func describe(path string, u coreapp.Update) item {
	it := item{path: path, title: filepath.Base(path)}
	switch {
	case u.Err != nil:
		it.desc = "error: " + u.Err.Error()
	case u.Result.Undefined != "":
		it.desc = "undefined: " + u.Result.Undefined
	case u.Result.Globals != "":
		it.desc = "globals: " + u.Result.Globals
	default:
		it.desc = "no free variables"
	}
	return it
}

// syncSource shows the selected file's highlighted text in the viewport.
func (m model) syncSource() model {
	selected, ok := m.fileList.SelectedItem().(item)
	if !ok {
		m.selected = ""
		m.source.SetContent("")
		return m
	}
	if selected.path != m.selected {
		m.source.GotoTop()
	}
	m.selected = selected.path
	entry := m.files[selected.path]
	if entry.update.Err != nil {
		m.source.SetContent(errorStyle.Render(entry.update.Err.Error()))
		return m
	}
	m.source.SetContent(entry.update.Result.Highlighted)
	return m
}

func (m model) undefinedFiles() int {
	n := 0
	for _, entry := range m.files {
		if entry.update.Err == nil && entry.update.Result.Undefined != "" {
			n++
		}
	}
	return n
}

func (m model) failedFiles() int {
	n := 0
	for _, entry := range m.files {
		if entry.update.Err != nil {
			n++
		}
	}
	return n
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d files",
		m.lastUpdate.Format("15:04:05"), len(m.files)))

	var summary string
	undefined, failed := m.undefinedFiles(), m.failedFiles()
	if undefined == 0 && failed == 0 {
		summary = successStyle.Render("No undefined names")
	} else {
		summary = fmt.Sprintf("%s | %s",
			undefinedStyle.Render(fmt.Sprintf("%d with undefined names", undefined)),
			errorStyle.Render(fmt.Sprintf("%d failed", failed)))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Scope Lens"), status, summary)

	listPane, sourcePane := paneStyle, paneStyle
	if m.mode == panelFiles {
		listPane = focusedPaneStyle
	} else {
		sourcePane = focusedPaneStyle
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		listPane.Render(m.fileList.View()),
		sourcePane.Render(m.source.View()),
	)
	return docStyle.Render(header + "\n" + renderHelp(m) + "\n\n" + body)
}

func renderHelp(m model) string {
	if m.mode == panelFiles {
		return statusStyle.Render("tab: source | ↑/↓: select | /: filter | q: quit")
	}
	return statusStyle.Render("tab: files | ↑/↓ pgup/pgdn: scroll | q: quit")
}
