package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/minhvu/tcbsync/internal/shared"
	"github.com/minhvu/tcbsync/internal/ui"
)

// TUI launches the interactive terminal dashboard.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.session == nil || r.sync == nil || r.settings == nil {
		return fmt.Errorf("%w: services not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/tcbsync-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, ui.Opts{
		Session:      r.session,
		Sync:         r.sync,
		Settings:     r.settings,
		Supervisor:   r.supervisor,
		Poller:       r.poller,
		Logger:       fileLogger,
		OpenLiveView: r.config.Sync.OpenLiveView,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
