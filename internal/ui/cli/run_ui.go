package cli

import (
	"context"
	"errors"
	"log/slog"

	coreapp "scopelens/internal/core/app"

	tea "github.com/charmbracelet/bubbletea"
)

func runUI(ctx context.Context, app *coreapp.App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(initialModel(), tea.WithAltScreen(), tea.WithContext(ctx))

	app.SetUpdateHandler(func(update coreapp.Update) {
		p.Send(updateMsg{update: update})
	})

	// Send blocks until the program runs, so the initial scan starts
	// alongside it. The watcher stops when ctx is cancelled on exit.
	go func() {
		if _, err := app.Watch(ctx); err != nil {
			slog.Error("failed to start watcher", "error", err)
			p.Quit()
		}
	}()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
