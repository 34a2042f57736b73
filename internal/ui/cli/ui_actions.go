package cli

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd) {
	filtering := m.fileList.FilterState() == list.Filtering
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if !filtering {
			return m, tea.Quit
		}
	case "tab":
		if !filtering {
			if m.mode == panelFiles {
				m.mode = panelSource
			} else {
				m.mode = panelFiles
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.mode == panelSource {
		m.source, cmd = m.source.Update(msg)
		return m, cmd
	}
	m.fileList, cmd = m.fileList.Update(msg)
	return m.syncSource(), cmd
}
