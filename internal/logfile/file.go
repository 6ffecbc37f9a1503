// Package logfile wraps the single on-disk command log: an
// append-only file of newline-terminated records, read back either in
// full (for replay and compaction) or truncated and rewritten (for
// compaction's atomic swap).
package logfile

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jassi-singh/kvs/internal/codec"
)

// LogFile is the engine's exclusive handle onto kv_00001.log. The
// internal lock serializes Append, ReadAll, Overwrite, and Close calls
// on this handle; the engine that owns it takes no lock of its own and
// is not safe for concurrent use.
type LogFile struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// Open opens (creating if necessary) the log file at path for
// read/write/append access.
func Open(path string) (*LogFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("logfile: open %s: %w", path, err)
	}
	return &LogFile{path: path, file: f}, nil
}

// Append writes serialized bytes to the end of the log and guarantees
// they are visible to subsequent ReadAll calls on this handle. It does
// not fsync: crash durability beyond process-level visibility is
// explicitly best-effort.
func (lf *LogFile) Append(serialized []byte) error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if _, err := lf.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("logfile: seek to end: %w", err)
	}
	if _, err := lf.file.Write(serialized); err != nil {
		return fmt.Errorf("logfile: append: %w", err)
	}
	return nil
}

// ReadAll rewinds and parses every record currently in the log, in
// appearance order.
func (lf *LogFile) ReadAll() ([]codec.Command, error) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if _, err := lf.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("logfile: rewind: %w", err)
	}
	return codec.DecodeAll(lf.file)
}

// Overwrite atomically (from the engine's perspective) replaces the
// log contents with the serialized form of commands, in order:
// rewind, truncate to zero length, append each command.
func (lf *LogFile) Overwrite(commands []codec.Command) error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if _, err := lf.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("logfile: rewind before overwrite: %w", err)
	}
	if err := lf.file.Truncate(0); err != nil {
		return fmt.Errorf("logfile: truncate: %w", err)
	}

	for _, cmd := range commands {
		data, err := codec.Encode(cmd)
		if err != nil {
			return err
		}
		if _, err := lf.file.Write(data); err != nil {
			return fmt.Errorf("logfile: write during overwrite: %w", err)
		}
	}
	return nil
}

// OrdinalCount returns the number of complete records currently in the
// log.
func (lf *LogFile) OrdinalCount() (int, error) {
	commands, err := lf.ReadAll()
	if err != nil {
		return 0, err
	}
	return len(commands), nil
}

// Close releases the underlying file handle.
func (lf *LogFile) Close() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	if err := lf.file.Close(); err != nil {
		return fmt.Errorf("logfile: close: %w", err)
	}
	return nil
}

// Path returns the filesystem path this handle was opened with.
func (lf *LogFile) Path() string {
	return lf.path
}
