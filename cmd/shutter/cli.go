package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/hpungsan/shutter/internal/capture"
	"github.com/hpungsan/shutter/internal/config"
	"github.com/hpungsan/shutter/internal/errors"
	"github.com/hpungsan/shutter/internal/hotkey"
	"github.com/hpungsan/shutter/internal/library"
	"github.com/hpungsan/shutter/internal/mcp"
	"github.com/hpungsan/shutter/internal/platform"
	"github.com/hpungsan/shutter/internal/settings"
	"github.com/hpungsan/shutter/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, log logrus.FieldLogger) *cli.App {
	app := &cli.App{
		Name:    "shutter",
		Usage:   "Screen capture and screenshot library",
		Version: Version,
		Commands: []*cli.Command{
			daemonCmd(db, cfg, log),
			uiCmd(db, cfg, log),
			mcpCmd(db, cfg, log),
			captureCmd(db, cfg, log),
			listCmd(db),
			getCmd(db),
			deleteCmd(db),
			renameCmd(db),
			similarCmd(db),
			saveAsCmd(db),
			copyCmd(db),
			revealCmd(db),
			openCmd(db),
			settingsCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// daemonCmd runs the hotkey listener, gallery and window host until interrupted.
func daemonCmd(db *sql.DB, cfg *config.Config, log logrus.FieldLogger) *cli.Command {
	return &cli.Command{
		Name:  "daemon",
		Usage: "Listen for the capture hotkey and serve the gallery and window host",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "hotkey", Usage: "Override the capture hotkey (e.g. ctrl+shift+s)"},
		},
		Action: func(c *cli.Context) error {
			if h := c.String("hotkey"); h != "" {
				if _, _, err := hotkey.Parse(h); err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				cfg.Hotkey = h
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			var err error
			hotkey.RunOnMain(func() {
				err = runDaemon(ctx, db, cfg, log)
			})
			return err
		},
	}
}

// uiCmd serves only the gallery.
func uiCmd(db *sql.DB, cfg *config.Config, log logrus.FieldLogger) *cli.Command {
	return &cli.Command{
		Name:  "ui",
		Usage: "Serve the screenshot gallery without the capture hotkey",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			if bind := c.String("bind"); bind != "" {
				cfg.UIBind = bind
			}
			if port := c.Int("port"); port > 0 {
				cfg.UIPort = port
			}
			srv, err := web.NewServer(db, cfg, Version, log, nil)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return web.Run(ctx, srv, log)
		},
	}
}

// mcpCmd serves the MCP tools over stdio.
func mcpCmd(db *sql.DB, cfg *config.Config, log logrus.FieldLogger) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the screenshot library to MCP clients over stdio",
		Action: func(c *cli.Context) error {
			return mcp.Run(db, cfg, Version, newOrchestrator(db, cfg, log, nil))
		},
	}
}

// captureCmd takes one fullscreen capture without any UI.
func captureCmd(db *sql.DB, cfg *config.Config, log logrus.FieldLogger) *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Capture a whole display now",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "display", Aliases: []string{"d"}, Usage: "Display id (defaults to the main display)"},
		},
		Action: func(c *cli.Context) error {
			o := newOrchestrator(db, cfg, log, nil)
			result, err := o.CaptureFullscreen(c.Context, capture.FullscreenRequest{DisplayID: c.String("display")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List screenshots, newest first",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "after", Usage: "Only list screenshots with a larger id"},
		},
		Action: func(c *cli.Context) error {
			var (
				output *library.ListOutput
				err    error
			)
			if after := c.Int64("after"); after > 0 {
				output, err = library.ListNewer(c.Context, db, after)
			} else {
				output, err = library.List(c.Context, db)
			}
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// getCmd creates the get command.
func getCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show one screenshot",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := parseID(c)
			if err != nil {
				return outputError(err)
			}
			output, err := library.Get(c.Context, db, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a screenshot and its file",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := parseID(c)
			if err != nil {
				return outputError(err)
			}
			output, err := library.Delete(c.Context, db, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// renameCmd creates the rename command.
func renameCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "rename",
		Usage:     "Set a screenshot's title and rename its file (no title clears it)",
		ArgsUsage: "<id> [title...]",
		Action: func(c *cli.Context) error {
			id, err := parseID(c)
			if err != nil {
				return outputError(err)
			}
			title := strings.Join(c.Args().Tail(), " ")
			output, err := library.Rename(c.Context, db, library.RenameInput{ID: id, Title: title})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// similarCmd creates the similar command.
func similarCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "similar",
		Usage:     "Find near-duplicate screenshots",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "max-distance", Value: library.DefaultMaxDistance, Usage: "Largest hash distance to report"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum matches (0 = all)"},
		},
		Action: func(c *cli.Context) error {
			id, err := parseID(c)
			if err != nil {
				return outputError(err)
			}
			maxDistance := c.Int("max-distance")
			output, err := library.Similar(c.Context, db, library.SimilarInput{
				ID:          id,
				MaxDistance: &maxDistance,
				Limit:       c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// saveAsCmd creates the save-as command.
func saveAsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "save-as",
		Usage:     "Copy a screenshot's file to another path",
		ArgsUsage: "<id> <dest>",
		Action: func(c *cli.Context) error {
			id, err := parseID(c)
			if err != nil {
				return outputError(err)
			}
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("destination path is required"))
			}
			output, err := library.SaveAs(c.Context, db, library.SaveAsInput{ID: id, Dest: c.Args().Get(1)})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// copyCmd creates the copy command.
func copyCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "copy",
		Usage:     "Copy a screenshot to the clipboard",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := parseID(c)
			if err != nil {
				return outputError(err)
			}
			if err := library.Copy(c.Context, db, &platform.Clipboard{}, id); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"id": id, "copied": true})
		},
	}
}

// revealCmd creates the reveal command.
func revealCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "reveal",
		Usage:     "Show a screenshot in the file manager",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := parseID(c)
			if err != nil {
				return outputError(err)
			}
			if err := library.Reveal(c.Context, db, &platform.Opener{}, id); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// openCmd creates the open command.
func openCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Open a screenshot in the default viewer",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := parseID(c)
			if err != nil {
				return outputError(err)
			}
			if err := library.Open(c.Context, db, &platform.Opener{}, id); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// settingsCmd creates the settings command group.
func settingsCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	fallback := func() string {
		if cfg == nil {
			return config.DefaultSaveDirectory()
		}
		return cfg.SaveDirectory
	}
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change settings",
		Subcommands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Print the current settings",
				Action: func(c *cli.Context) error {
					output, err := settings.Get(c.Context, db, fallback())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "set",
				Usage:     "Change settings (known keys: " + strings.Join(settings.Keys(), ", ") + ")",
				ArgsUsage: "<key=value>...",
				Action: func(c *cli.Context) error {
					values, err := parseAssignments(c.Args().Slice())
					if err != nil {
						return outputError(err)
					}
					if err := settings.Set(c.Context, db, values); err != nil {
						return outputError(err)
					}
					output, err := settings.Get(c.Context, db, fallback())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	sErr := errors.As(err)
	return cli.Exit(fmt.Sprintf("[%s] %s", sErr.Code, sErr.Message), 1)
}

// parseID reads the first positional argument as a screenshot id.
func parseID(c *cli.Context) (int64, error) {
	if c.NArg() == 0 {
		return 0, errors.NewInvalidRequest("screenshot id is required")
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("invalid screenshot id %q", c.Args().First()))
	}
	return id, nil
}

// parseAssignments turns key=value arguments into a settings map.
func parseAssignments(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, errors.NewInvalidRequest("at least one key=value is required")
	}
	values := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("expected key=value, got %q", a))
		}
		values[k] = strings.TrimSpace(v)
	}
	return values, nil
}
