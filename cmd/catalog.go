package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/watchlist/internal/models"
	"github.com/desertthunder/watchlist/internal/shared"
	"github.com/urfave/cli/v3"
)

// CatalogSearch prints catalog items whose name contains the query.
func (r *Runner) CatalogSearch(ctx context.Context, cmd *cli.Command) error {
	query, ok := shared.NormalizeQuery(cmd.StringArg("query"))
	if !ok {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}

	catalog, err := r.loadCatalog(ctx)
	if err != nil {
		return err
	}

	results := catalog.Search(query)
	r.logger.Debug("search complete", "query", query, "results", len(results))
	if cmd.Bool("json") {
		return r.writeJSON(results, cmd.Bool("pretty"))
	}
	if len(results) == 0 {
		return r.writePlain("No matches for %q\n", query)
	}
	return r.writeCatalog(results)
}

// CatalogList prints the whole catalog.
func (r *Runner) CatalogList(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.loadCatalog(ctx)
	if err != nil {
		return err
	}

	items := catalog.Items()
	if cmd.Bool("json") {
		return r.writeJSON(items, cmd.Bool("pretty"))
	}
	return r.writeCatalog(items)
}

func (r *Runner) writeCatalog(items []models.CatalogItem) error {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rating := ""
		if it.Rating != nil {
			rating = strconv.FormatFloat(*it.Rating, 'f', -1, 64)
		}
		rows = append(rows, []string{it.ID.String(), it.Name, it.Platform, strconv.Itoa(it.ReleaseYear), it.Genre, rating})
	}

	out := renderTable(r.output,
		[]string{"ID", "Name", "Platform", "Year", "Genre", "Rating"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignRight},
	)
	return r.writePlain("%s\n", out)
}
