package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/watchlist/internal/formatter"
	"github.com/desertthunder/watchlist/internal/shared"
	"github.com/desertthunder/watchlist/internal/tasks"
	"github.com/desertthunder/watchlist/internal/ui"
	"github.com/urfave/cli/v3"
)

const eventBuffer = 16

// TUI launches the interactive terminal UI for one watchlist session.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	if level, err := r.config.LogLevel(); err == nil {
		shared.SetLogLevel(fileLogger, level)
	}
	r.SetLogger(fileLogger)

	events := make(chan tasks.SyncEvent, eventBuffer)
	catalog := tasks.NewCatalogCache(r.catalogSource())
	sync := tasks.NewSynchronizer(r.listStore(), catalog, r.syncOpts(events))
	defer func() {
		sync.Close()
		close(events)
	}()

	model := ui.NewModel(ctx, catalog, sync, events, ui.Options{
		ExportFormat:  format,
		ExportDir:     cmd.String("export-dir"),
		CreateOnStart: r.config.List.CreateOnStart,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
