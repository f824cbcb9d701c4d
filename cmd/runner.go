package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/watchlist/internal/services"
	"github.com/desertthunder/watchlist/internal/shared"
	"github.com/desertthunder/watchlist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	catalog    tasks.CatalogSource
	store      tasks.ListStore
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Catalog and Store are built from Config on first use when left nil.
type RunnerOpts struct {
	Config     *shared.Config
	Catalog    tasks.CatalogSource
	Store      tasks.ListStore
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		catalog:    opts.Catalog,
		store:      opts.Store,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, catalogCommand, listsCommand, listCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// LoadConfig replaces the default configuration with the file named by --config when it exists.
func (r *Runner) LoadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		r.logger.Debug("config file not found, using defaults", "path", path)
	} else {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	level, err := r.config.LogLevel()
	if err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

// SetLogger swaps the logger used by commands and the synchronizer.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) catalogSource() tasks.CatalogSource {
	if r.catalog == nil {
		api := services.NewAPIService(r.config.Catalog.URL, r.httpClient)
		r.catalog = services.NewCatalogService(api, r.config.Catalog.Path)
	}
	return r.catalog
}

func (r *Runner) listStore() tasks.ListStore {
	if r.store == nil {
		api := services.NewAPIService(r.config.Store.URL, r.httpClient).WithRateLimit(r.config.Store.RateLimit)
		r.store = services.NewListService(api)
	}
	return r.store
}

func (r *Runner) syncOpts(events chan<- tasks.SyncEvent) tasks.SyncOpts {
	return tasks.SyncOpts{
		AutoCreateOnSearch: r.config.List.AutoCreateOnSearch,
		DefaultListName:    r.config.List.DefaultName,
		Timeout:            r.config.Store.Timeout(),
		Logger:             shared.WithLogger(r.logger, "component", "sync", "session", shared.GenerateID()),
		Events:             events,
	}
}

// loadCatalog fetches the catalog into a fresh cache.
func (r *Runner) loadCatalog(ctx context.Context) (*tasks.CatalogCache, error) {
	catalog := tasks.NewCatalogCache(r.catalogSource())
	if err := catalog.Load(ctx); err != nil {
		return nil, err
	}
	r.logger.Debug("catalog loaded", "items", catalog.Len())
	return catalog, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
