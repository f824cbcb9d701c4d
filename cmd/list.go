package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/watchlist/internal/formatter"
	"github.com/desertthunder/watchlist/internal/models"
	"github.com/desertthunder/watchlist/internal/shared"
	"github.com/desertthunder/watchlist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Lists prints every list held by the store.
func (r *Runner) Lists(ctx context.Context, cmd *cli.Command) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.Store.Timeout())
	defer cancel()

	lists, err := r.listStore().GetLists(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch lists: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(lists, cmd.Bool("pretty"))
	}
	if len(lists) == 0 {
		return r.writePlain("No lists found\n")
	}

	rows := make([][]string, 0, len(lists))
	for _, l := range lists {
		rows = append(rows, []string{l.ID.String(), l.Name, fmt.Sprint(len(l.Items))})
	}
	out := renderTable(r.output, []string{"ID", "Name", "Items"}, rows, []columnAlignment{alignRight, alignLeft, alignRight})
	return r.writePlain("%s\n", out)
}

// ListCreate creates a list named by the argument, or the configured default name.
//
// With --search the list starts with every matching title.
func (r *Runner) ListCreate(ctx context.Context, cmd *cli.Command) error {
	opts := r.syncOpts(nil)
	if name := strings.TrimSpace(cmd.StringArg("name")); name != "" {
		opts.DefaultListName = name
	}

	catalog := tasks.NewCatalogCache(r.catalogSource())
	var results []models.CatalogItem
	if query, ok := shared.NormalizeQuery(cmd.String("search")); ok {
		if err := catalog.Load(ctx); err != nil {
			return err
		}
		if results = catalog.Search(query); len(results) == 0 {
			return fmt.Errorf("%w: no titles match %q", shared.ErrInvalidArgument, query)
		}
		opts.AutoCreateOnSearch = true
	}

	sync := tasks.NewSynchronizer(r.listStore(), catalog, opts)
	defer sync.Close()

	var list models.WatchList
	if len(results) > 0 {
		created, err := sync.MaterializeFromSearch(ctx, results)
		if err != nil {
			return err
		}
		list = *created
	} else {
		created, err := sync.EnsureList(ctx)
		if err != nil {
			return err
		}
		list = created
	}

	r.logger.Info("list created", "list_id", list.ID, "name", list.Name, "items", len(list.Items))
	if cmd.Bool("json") {
		return r.writeJSON(list, cmd.Bool("pretty"))
	}
	return r.writePlain("✓ Created list %q (ID: %d, %d items)\n", list.Name, list.ID, len(list.Items))
}

// ListShow prints a list with resolved catalog details.
func (r *Runner) ListShow(ctx context.Context, cmd *cli.Command) error {
	s, err := r.attach(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer s.sync.Close()

	format := formatter.Text
	if cmd.Bool("json") {
		format = formatter.JSON
	}

	data, err := formatter.Render(s.list, s.catalog, format)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", strings.TrimRight(string(data), "\n"))
}

// ListAdd appends each item id argument to the list, stopping at the first failure.
func (r *Runner) ListAdd(ctx context.Context, cmd *cli.Command) error {
	ids, err := itemArgs(cmd)
	if err != nil {
		return err
	}

	s, err := r.attach(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer s.sync.Close()

	for _, id := range ids {
		item, ok := s.catalog.Lookup(id)
		if !ok {
			return fmt.Errorf("%w: item %d is not in the catalog", shared.ErrItemNotFound, id)
		}
		if err := s.sync.AddItem(ctx, id); err != nil {
			return err
		}
		if err := r.writePlain("✓ Added %s (%d)\n", item.Name, id); err != nil {
			return err
		}
	}
	return nil
}

// ListRemove deletes each item id argument from the list.
func (r *Runner) ListRemove(ctx context.Context, cmd *cli.Command) error {
	ids, err := itemArgs(cmd)
	if err != nil {
		return err
	}

	s, err := r.attach(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer s.sync.Close()

	for _, id := range ids {
		current, _ := s.sync.Snapshot()
		present := current.Contains(id)
		if err := s.sync.RemoveItem(ctx, id); err != nil {
			return err
		}
		msg := "Item %d was not in the list\n"
		if present {
			msg = "✓ Removed %d\n"
		}
		if err := r.writePlain(msg, id); err != nil {
			return err
		}
	}
	return nil
}

// ListRename sets a new list name.
func (r *Runner) ListRename(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return fmt.Errorf("%w: new list name is required", shared.ErrMissingArgument)
	}

	s, err := r.attach(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer s.sync.Close()

	if err := s.sync.Rename(ctx, name); err != nil {
		return err
	}
	return r.writePlain("✓ Renamed list %d to %q\n", s.list.ID, name)
}

// ListExport writes the list to a file in the requested format.
func (r *Runner) ListExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	s, err := r.attach(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer s.sync.Close()

	path, err := formatter.WriteExport(s.list, s.catalog, format, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("list exported", "list_id", s.list.ID, "format", format, "path", path)
	return r.writePlain("✓ Exported %q to %s\n", s.list.Name, path)
}

// session is a synchronizer attached to an existing list.
type session struct {
	catalog *tasks.CatalogCache
	sync    *tasks.Synchronizer
	list    models.WatchList
}

// attach adopts the list named by --id, loading the catalog first when withCatalog is set.
func (r *Runner) attach(ctx context.Context, cmd *cli.Command, withCatalog bool) (*session, error) {
	id, err := models.ParseID(cmd.String("id"))
	if err != nil {
		return nil, fmt.Errorf("%w: --id: %v", shared.ErrInvalidArgument, err)
	}

	catalog := tasks.NewCatalogCache(r.catalogSource())
	if withCatalog {
		if err := catalog.Load(ctx); err != nil {
			return nil, err
		}
	}

	sync := tasks.NewSynchronizer(r.listStore(), catalog, r.syncOpts(nil))
	list, err := sync.Attach(ctx, id)
	if err != nil {
		sync.Close()
		return nil, err
	}

	return &session{catalog: catalog, sync: sync, list: list}, nil
}

func itemArgs(cmd *cli.Command) ([]models.ID, error) {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: at least one item id is required", shared.ErrMissingArgument)
	}

	ids := make([]models.ID, 0, len(args))
	for _, arg := range args {
		id, err := models.ParseID(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
