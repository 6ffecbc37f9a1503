// Package cli provides the interactive REPL front end layered over the
// engine-selection facade, adapted from the single-process command
// loop of the teacher CLI.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jassi-singh/kvs/internal/kvserr"
)

// Store is the subset of the facade's surface the REPL needs.
type Store interface {
	Set(key, value string) error
	Get(key string) (string, bool, error)
	Remove(key string) error
}

// Handler manages the interactive command-line interface.
type Handler struct {
	store   Store
	scanner *bufio.Scanner
}

// NewHandler creates a new CLI handler over store.
func NewHandler(store Store) *Handler {
	return &Handler{
		store:   store,
		scanner: bufio.NewScanner(os.Stdin),
	}
}

// Run starts the interactive command loop, processing input until an
// exit command is received or an error occurs.
func (h *Handler) Run() error {
	fmt.Println("kvs - interactive session")
	fmt.Println("Commands: SET <key> <value>, GET <key>, RM <key>, EXIT")
	fmt.Print("> ")

	for h.scanner.Scan() {
		line := strings.TrimSpace(h.scanner.Text())
		if line == "" {
			fmt.Print("> ")
			continue
		}

		parts := strings.Fields(line)
		command := strings.ToUpper(parts[0])

		switch command {
		case "SET":
			h.handleSet(parts)
		case "GET":
			h.handleGet(parts)
		case "RM", "DELETE":
			h.handleRemove(parts)
		case "EXIT", "QUIT":
			slog.Info("cli: shutdown requested by user")
			fmt.Println("Goodbye!")
			return nil
		default:
			slog.Warn("cli: unknown command received", "command", command)
			fmt.Printf("Unknown command: %s\n", command)
			fmt.Println("Commands: SET <key> <value>, GET <key>, RM <key>, EXIT")
		}

		fmt.Print("> ")
	}

	if err := h.scanner.Err(); err != nil {
		return fmt.Errorf("cli: reading input: %w", err)
	}
	return nil
}

func (h *Handler) handleSet(parts []string) {
	if len(parts) < 3 {
		fmt.Println("Usage: SET <key> <value>")
		return
	}
	key := parts[1]
	value := strings.Join(parts[2:], " ")

	if err := h.store.Set(key, value); err != nil {
		slog.Error("cli: SET command failed", "key", key, "error", err)
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("OK")
}

func (h *Handler) handleGet(parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: GET <key>")
		return
	}
	key := parts[1]

	value, ok, err := h.store.Get(key)
	if err != nil {
		slog.Error("cli: GET command failed", "key", key, "error", err)
		fmt.Printf("Error: %v\n", err)
		return
	}
	if !ok {
		fmt.Println("Key not found")
		return
	}
	fmt.Println(value)
}

func (h *Handler) handleRemove(parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: RM <key>")
		return
	}
	key := parts[1]

	if err := h.store.Remove(key); err != nil {
		if errors.Is(err, kvserr.ErrKeyNotFound) {
			fmt.Println("Key not found")
			return
		}
		slog.Error("cli: RM command failed", "key", key, "error", err)
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("OK")
}
