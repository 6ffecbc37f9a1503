// Command kvs-server runs the TCP front end over the store: it binds a
// listener and serves one length-framed request per connection on the
// accept goroutine, sequentially.
package main

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/jassi-singh/kvs/internal/config"
	"github.com/jassi-singh/kvs/internal/kvs"
	"github.com/jassi-singh/kvs/internal/kvserr"
	"github.com/jassi-singh/kvs/internal/wire"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	app := &cli.App{
		Name:  "kvs-server",
		Usage: "TCP front end for the key-value store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Aliases: []string{"a"}, Usage: "listen address"},
			&cli.StringFlag{Name: "data-dir", Aliases: []string{"d"}, Usage: "database directory"},
			&cli.StringFlag{Name: "engine", Aliases: []string{"e"}, Usage: "storage engine: kvs or sled"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("kvs-server: fatal", "error", err)
		os.Exit(kvserr.ExitCode(err))
	}
}

func run(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	addr := cfg.ServerAddr
	if c.String("addr") != "" {
		addr = c.String("addr")
	}
	dataDir := cfg.DataDir
	if c.String("data-dir") != "" {
		dataDir = c.String("data-dir")
	}
	engineName := kvs.Name(cfg.Engine)
	if c.String("engine") != "" {
		engineName = kvs.Name(c.String("engine"))
	}

	store, err := kvs.Open(dataDir, engineName, cfg.CompactionTrigger, slog.Default())
	if err != nil {
		slog.Error("kvs-server: failed to open database", "data_dir", dataDir, "engine", engineName, "error", err)
		return err
	}
	defer store.Close()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer listener.Close()

	slog.Info("kvs-server: listening", "addr", addr, "engine", store.Name(), "data_dir", dataDir)

	for {
		conn, err := listener.Accept()
		if err != nil {
			slog.Error("kvs-server: accept failed", "error", err)
			continue
		}
		requestID := uuid.New().String()
		if err := serveConnection(store, conn, requestID); err != nil {
			slog.Error("kvs-server: request failed", "request_id", requestID, "error", err)
		}
	}
}

// serveConnection reads one framed Request, applies it to store, and
// writes back one framed Response. It runs on the accept goroutine:
// per the concurrency model, only one connection is served at a time.
func serveConnection(store *kvs.Facade, conn net.Conn, requestID string) error {
	defer conn.Close()

	req, err := wire.ReadRequest(conn)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	slog.Debug("kvs-server: handling request", "request_id", requestID, "op", req.Op, "key", req.Key)

	resp := handle(store, req)
	return wire.WriteResponse(conn, resp)
}

func handle(store *kvs.Facade, req wire.Request) wire.Response {
	switch req.Op {
	case wire.OpSet:
		if err := store.Set(req.Key, req.Value); err != nil {
			return wire.Response{Ok: false, Value: err.Error()}
		}
		return wire.Response{Ok: true}
	case wire.OpGet:
		value, ok, err := store.Get(req.Key)
		if err != nil {
			return wire.Response{Ok: false, Value: err.Error()}
		}
		if !ok {
			return wire.Response{Ok: false, Value: "Key not found"}
		}
		return wire.Response{Ok: true, Value: value}
	case wire.OpRemove:
		if err := store.Remove(req.Key); err != nil {
			if errors.Is(err, kvserr.ErrKeyNotFound) {
				return wire.Response{Ok: false, Value: "Key not found"}
			}
			return wire.Response{Ok: false, Value: err.Error()}
		}
		return wire.Response{Ok: true}
	default:
		return wire.Response{Ok: false, Value: "unknown operation"}
	}
}
