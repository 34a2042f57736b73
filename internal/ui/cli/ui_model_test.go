package cli

import (
	"errors"
	"strings"
	"testing"

	coreapp "scopelens/internal/core/app"
	"scopelens/internal/core/ports"

	tea "github.com/charmbracelet/bubbletea"
)

func resultUpdate(path, undefined, highlighted string) updateMsg {
	return updateMsg{update: coreapp.Update{
		Path:   path,
		Result: &ports.Result{Undefined: undefined, Highlighted: highlighted},
	}}
}

func TestModel_UpdatesFileList(t *testing.T) {
	m := initialModel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(model)

	updated, _ = m.Update(resultUpdate("/src/b.js", "y", "b-source"))
	state, ok := updated.(model)
	if !ok {
		t.Fatalf("expected model type, got %T", updated)
	}
	updated, _ = state.Update(resultUpdate("/src/a.js", "", "a-source"))
	state = updated.(model)

	if len(state.fileList.Items()) != 2 {
		t.Fatalf("expected 2 file items, got %d", len(state.fileList.Items()))
	}
	first := state.fileList.Items()[0].(item)
	if first.path != "/src/a.js" || first.desc != "no free variables" {
		t.Fatalf("unexpected first item: %+v", first)
	}
	// Selection stays on the file chosen first.
	if state.selected != "/src/b.js" {
		t.Fatalf("expected /src/b.js selected, got %q", state.selected)
	}
	if state.undefinedFiles() != 1 {
		t.Fatalf("expected 1 file with undefined names, got %d", state.undefinedFiles())
	}
	if !strings.Contains(state.View(), "1 with undefined names") {
		t.Fatal("expected summary in view")
	}
}

func TestModel_ErrorsAndRemoval(t *testing.T) {
	m := initialModel()
	updated, _ := m.Update(updateMsg{update: coreapp.Update{Path: "/x.js", Err: errors.New("boom")}})
	state := updated.(model)

	it := state.fileList.Items()[0].(item)
	if it.desc != "error: boom" {
		t.Fatalf("unexpected description %q", it.desc)
	}
	if state.failedFiles() != 1 {
		t.Fatalf("expected 1 failed file, got %d", state.failedFiles())
	}

	updated, _ = state.Update(updateMsg{update: coreapp.Update{Path: "/x.js", Removed: true}})
	state = updated.(model)
	if len(state.fileList.Items()) != 0 || len(state.files) != 0 {
		t.Fatal("expected removed file to disappear")
	}
	if state.selected != "" {
		t.Fatalf("expected no selection, got %q", state.selected)
	}
}

func TestModel_FocusAndQuit(t *testing.T) {
	m := initialModel()

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	state := updated.(model)
	if state.mode != panelSource {
		t.Fatalf("expected source panel after tab, got %v", state.mode)
	}

	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyTab})
	state = updated.(model)
	if state.mode != panelFiles {
		t.Fatalf("expected files panel after second tab, got %v", state.mode)
	}

	_, cmd := state.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestModel_SelectionDrivesViewport(t *testing.T) {
	m := initialModel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(model)
	updated, _ = m.Update(resultUpdate("/a.js", "", "first"))
	m = updated.(model)
	updated, _ = m.Update(resultUpdate("/b.js", "", "second"))
	m = updated.(model)

	if m.selected != "/a.js" {
		t.Fatalf("expected /a.js selected, got %q", m.selected)
	}
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(model)
	if m.selected != "/b.js" {
		t.Fatalf("expected /b.js selected after moving down, got %q", m.selected)
	}
	if !strings.Contains(m.source.View(), "second") {
		t.Fatalf("expected viewport to show second file, got %q", m.source.View())
	}
}
