// Command kvs-client is the TCP front end for the store: each
// invocation dials the server, writes one framed request, reads one
// framed response, and exits.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/jassi-singh/kvs/internal/wire"
)

func main() {
	app := &cli.App{
		Name:  "kvs-client",
		Usage: "TCP client for the key-value store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Aliases: []string{"a"}, Value: "127.0.0.1:4000", Usage: "server address"},
		},
		Commands: []*cli.Command{
			setCommand(),
			getCommand(),
			rmCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func roundTrip(addr string, req wire.Request) (wire.Response, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return wire.Response{}, fmt.Errorf("kvs-client: connect to %s: %w", addr, err)
	}
	defer conn.Close()

	if err := wire.WriteRequest(conn, req); err != nil {
		return wire.Response{}, err
	}
	return wire.ReadResponse(conn)
}

func setCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "store a value under a key",
		ArgsUsage: "KEY VALUE",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("usage: kvs-client set KEY VALUE", 1)
			}
			resp, err := roundTrip(c.String("addr"), wire.Request{Op: wire.OpSet, Key: c.Args().Get(0), Value: c.Args().Get(1)})
			if err != nil {
				return cli.Exit(err, 1)
			}
			if !resp.Ok {
				return cli.Exit(resp.Value, 1)
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
				return cli.Exit("usage: kvs-client get KEY", 1)
			}
			resp, err := roundTrip(c.String("addr"), wire.Request{Op: wire.OpGet, Key: c.Args().Get(0)})
			if err != nil {
				return cli.Exit(err, 1)
			}
			fmt.Println(resp.Value)
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
				return cli.Exit("usage: kvs-client rm KEY", 1)
			}
			resp, err := roundTrip(c.String("addr"), wire.Request{Op: wire.OpRemove, Key: c.Args().Get(0)})
			if err != nil {
				return cli.Exit(err, 1)
			}
			if !resp.Ok {
				fmt.Println(resp.Value)
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}
