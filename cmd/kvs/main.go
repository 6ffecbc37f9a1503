// Command kvs is the single-process command-line front end for the
// store: one invocation opens the database, performs one operation,
// and exits.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	repl "github.com/jassi-singh/kvs/internal/cli"
	"github.com/jassi-singh/kvs/internal/config"
	"github.com/jassi-singh/kvs/internal/kvs"
	"github.com/jassi-singh/kvs/internal/kvserr"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	app := &cli.App{
		Name:  "kvs",
		Usage: "a log-structured key-value store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data-dir", Aliases: []string{"d"}, Usage: "database directory"},
			&cli.StringFlag{Name: "engine", Aliases: []string{"e"}, Usage: "storage engine: kvs or sled"},
		},
		Commands: []*cli.Command{
			setCommand(),
			getCommand(),
			rmCommand(),
			replCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if exitErr, ok := err.(cli.ExitCoder); ok {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

// openFacade opens the engine-selection facade using the effective
// configuration: flags override config.yml/.env, which override
// built-in defaults.
func openFacade(c *cli.Context) (*kvs.Facade, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("kvs: load configuration: %w", err)
	}

	dataDir := cfg.DataDir
	if c.String("data-dir") != "" {
		dataDir = c.String("data-dir")
	}
	engineName := kvs.Name(cfg.Engine)
	if c.String("engine") != "" {
		engineName = kvs.Name(c.String("engine"))
	}

	return kvs.Open(dataDir, engineName, cfg.CompactionTrigger, slog.Default())
}

// fail reports err to stderr and exits with its mapped exit code. It
// never returns.
func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(kvserr.ExitCode(err))
}

func setCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "store a value under a key",
		ArgsUsage: "KEY VALUE",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("usage: kvs set KEY VALUE", 1)
			}
			store, err := openFacade(c)
			if err != nil {
				fail(err)
			}
			defer store.Close()

			if err := store.Set(c.Args().Get(0), c.Args().Get(1)); err != nil {
				fail(err)
			}
			return nil
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "look up the value stored under a key",
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: kvs get KEY", 1)
			}
			store, err := openFacade(c)
			if err != nil {
				fail(err)
			}
			defer store.Close()

			value, ok, err := store.Get(c.Args().Get(0))
			if err != nil {
				fail(err)
			}
			if !ok {
				fmt.Println("Key not found")
				return nil
			}
			fmt.Println(value)
			return nil
		},
	}
}

func rmCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "remove a key",
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: kvs rm KEY", 1)
			}
			store, err := openFacade(c)
			if err != nil {
				fail(err)
			}
			defer store.Close()

			if err := store.Remove(c.Args().Get(0)); err != nil {
				if errors.Is(err, kvserr.ErrKeyNotFound) {
					fmt.Println("Key not found")
				}
				fail(err)
			}
			return nil
		},
	}
}

func replCommand() *cli.Command {
	return &cli.Command{
		Name:  "repl",
		Usage: "start an interactive session against the database",
		Action: func(c *cli.Context) error {
			store, err := openFacade(c)
			if err != nil {
				fail(err)
			}
			defer store.Close()

			return repl.NewHandler(store).Run()
		},
	}
}
