// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// outputFlags returns the --json and --pretty flags shared by commands that print data.
func outputFlags(extra ...cli.Flag) []cli.Flag {
	return append(extra,
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	)
}

func listIDFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "id",
		Usage:    "List ID created by an earlier session",
		Required: true,
	}
}

// setupCommand handles setup operations for configuration and the development database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml to the --config path",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the development store database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "seed",
						Usage: "JSON file with catalog records to load",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead of migrating",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// serveCommand runs the development list store.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the development catalog & list store backed by SQLite",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "seed",
				Usage: "JSON file with catalog records to load before serving",
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to [server] host:port)",
			},
			&cli.BoolFlag{
				Name:  "fail-writes",
				Usage: "Answer every POST and PATCH with 503 to exercise client rollback",
			},
		},
		Action: r.Serve,
	}
}

// catalogCommand handles catalog queries
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Catalog operations",
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search catalog titles (case-insensitive substring)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags:     outputFlags(),
				Action:    r.CatalogSearch,
			},
			{
				Name:   "list",
				Usage:  "List every catalog title",
				Flags:  outputFlags(),
				Action: r.CatalogList,
			},
		},
	}
}

// listsCommand prints every list in the store
func listsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "lists",
		Usage:  "Show all lists in the store",
		Flags:  outputFlags(),
		Action: r.Lists,
	}
}

// listCommand handles operations on a single watchlist
func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Watchlist operations",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a list, optionally seeded from a search",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: outputFlags(&cli.StringFlag{
					Name:  "search",
					Usage: "Seed the list with every title matching this query",
				}),
				Action: r.ListCreate,
			},
			{
				Name:   "show",
				Usage:  "Show a list with catalog details",
				Flags: []cli.Flag{
					listIDFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the list as JSON with resolved items",
					},
				},
				Action: r.ListShow,
			},
			{
				Name:      "add",
				Usage:     "Add catalog items to a list",
				ArgsUsage: "<item-id>...",
				Flags:     []cli.Flag{listIDFlag()},
				Action:    r.ListAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove catalog items from a list",
				ArgsUsage: "<item-id>...",
				Flags:     []cli.Flag{listIDFlag()},
				Action:    r.ListRemove,
			},
			{
				Name:      "rename",
				Usage:     "Rename a list",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     []cli.Flag{listIDFlag()},
				Action:    r.ListRename,
			},
			{
				Name:  "export",
				Usage: "Export a list to a file",
				Flags: []cli.Flag{
					listIDFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: txt, csv, md or json",
						Value:   "txt",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: {id}_watchlist.{ext})",
					},
				},
				Action: r.ListExport,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive list management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for searching and curating a watchlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "Export format used by the export key",
				Value: "txt",
			},
			&cli.StringFlag{
				Name:  "export-dir",
				Usage: "Directory for exported files",
				Value: ".",
			},
		},
		Action: r.TUI,
	}
}
