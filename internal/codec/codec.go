// Package codec serializes and parses the commands that make up the
// on-disk log. Each command is written as one JSON object per line;
// a Get command is never written, only Set and Remove.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jassi-singh/kvs/internal/kvserr"
)

// Tag identifies which command a Record carries.
type Tag string

const (
	TagSet    Tag = "Set"
	TagRemove Tag = "Remove"
)

// Command is a single mutation: a Set of key to value, or a Remove of
// key. Value is empty and meaningless for Remove.
type Command struct {
	Tag   Tag
	Key   string
	Value string
}

// Set builds a Set command.
func Set(key, value string) Command {
	return Command{Tag: TagSet, Key: key, Value: value}
}

// Remove builds a Remove command.
func Remove(key string) Command {
	return Command{Tag: TagRemove, Key: key}
}

// wireRecord is the on-disk tagged-union shape: exactly one of Set or
// Remove is populated, mirroring a Rust enum serialized field-by-field.
type wireRecord struct {
	Set *struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	} `json:"Set,omitempty"`
	Remove *struct {
		Key string `json:"key"`
	} `json:"Remove,omitempty"`
}

// Encode serializes a command to its line form, including the
// terminating newline.
func Encode(cmd Command) ([]byte, error) {
	var rec wireRecord
	switch cmd.Tag {
	case TagSet:
		rec.Set = &struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		}{Key: cmd.Key, Value: cmd.Value}
	case TagRemove:
		rec.Remove = &struct {
			Key string `json:"key"`
		}{Key: cmd.Key}
	default:
		return nil, fmt.Errorf("codec: unknown command tag %q", cmd.Tag)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("codec: encode: %w", err)
	}
	data = append(data, '\n')
	return data, nil
}

// Decode parses a single line (without its trailing newline) into a
// Command. An empty or unrecognized line is a Parse error.
func Decode(line []byte) (Command, error) {
	var rec wireRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return Command{}, fmt.Errorf("%w: %v", kvserr.ErrParse, err)
	}

	switch {
	case rec.Set != nil:
		return Set(rec.Set.Key, rec.Set.Value), nil
	case rec.Remove != nil:
		return Remove(rec.Remove.Key), nil
	default:
		return Command{}, fmt.Errorf("%w: record has neither Set nor Remove", kvserr.ErrParse)
	}
}

// DecodeAll parses every newline-terminated record from r, in
// appearance order. A final, non-empty chunk with no trailing newline
// means the log was truncated mid-write; that is a Parse error that
// aborts the whole read rather than silently dropping or guessing at
// the partial record.
func DecodeAll(r io.Reader) ([]Command, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kvserr.ErrParse, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	if data[len(data)-1] != '\n' {
		return nil, fmt.Errorf("%w: final record has no terminating newline", kvserr.ErrParse)
	}

	var commands []Command
	for _, line := range bytes.Split(bytes.TrimSuffix(data, []byte("\n")), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		cmd, err := Decode(line)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}
	return commands, nil
}
