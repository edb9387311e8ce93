// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles session operations against the sync service.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the session with the sync service",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in and persist the session token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "username",
						Aliases: []string{"u"},
						Usage:   "Account username",
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password (prompted when omitted)",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and sign in",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "username",
						Aliases: []string{"u"},
						Usage:   "Account username",
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password (prompted when omitted)",
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Discard the persisted session token",
				Action: r.AuthLogout,
			},
			{
				Name:   "whoami",
				Usage:  "Show the signed-in user",
				Action: r.AuthWhoami,
			},
		},
	}
}

// syncCommand handles sync job control and observation.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Control and observe the bank sync job",
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Show the current job state and activity log",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SyncStatus,
			},
			{
				Name:  "start",
				Usage: "Start a sync for a date range",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "from",
						Usage: "Start date (YYYY-MM-DD), defaults to 30 days ago",
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "End date (YYYY-MM-DD), defaults to today",
					},
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Follow the job until it finishes",
					},
				},
				Action: r.SyncStart,
			},
			{
				Name:   "stop",
				Usage:  "Request the running job to stop",
				Action: r.SyncStop,
			},
			{
				Name:  "watch",
				Usage: "Poll the job until it reaches a terminal state",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "logs",
						Usage: "Print new activity log lines as they arrive",
						Value: true,
					},
				},
				Action: r.SyncWatch,
			},
			{
				Name:  "history",
				Usage: "List sync runs started from this client",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SyncHistory,
			},
			{
				Name:  "live",
				Usage: "Open the live browser view of the running job",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "print",
						Usage: "Print the stream URL instead of opening a browser",
					},
				},
				Action: r.SyncLive,
			},
		},
	}
}

// settingsCommand handles sync configuration management.
func settingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Manage sync configuration",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the current configuration",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "reveal",
						Usage: "Show secret values instead of masking them",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SettingsShow,
			},
			{
				Name:      "set",
				Usage:     "Set one configuration field",
				UsageText: "tcbsync settings set <field> <value>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "field"},
					&cli.StringArg{Name: "value"},
				},
				Action: r.SettingsSet,
			},
			{
				Name:  "export",
				Usage: "Export the configuration to a JSON file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.SettingsExport,
			},
			{
				Name:  "import",
				Usage: "Import configuration from a JSON file, merging over current values",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Action: r.SettingsImport,
			},
			{
				Name:  "map",
				Usage: "Manage account mappings",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List account mappings",
						Action: r.MapList,
					},
					{
						Name:  "add",
						Usage: "Add an account mapping",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "name",
								Usage: "Display name for the mapping",
								Value: "New Account",
							},
							&cli.StringFlag{
								Name:     "actual-id",
								Usage:    "Actual Budget account id",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "arrangements",
								Usage: "Comma separated bank arrangement ids",
							},
						},
						Action: r.MapAdd,
					},
					{
						Name:      "remove",
						Usage:     "Remove an account mapping by index",
						UsageText: "tcbsync settings map remove <index>",
						Arguments: []cli.Argument{
							&cli.StringArg{Name: "index"},
						},
						Action: r.MapRemove,
					},
				},
			},
		},
	}
}

// setupCommand handles local database initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize the local database and config file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal dashboard",
		Action:  r.TUI,
	}
}
