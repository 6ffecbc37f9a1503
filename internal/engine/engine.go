// Package engine implements the log-structured storage engine: the
// append-only command log plus in-memory index, with inline
// compaction. This is the "kvs" engine variant behind the
// engine-selection facade.
package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jassi-singh/kvs/internal/codec"
	"github.com/jassi-singh/kvs/internal/index"
	"github.com/jassi-singh/kvs/internal/kvserr"
	"github.com/jassi-singh/kvs/internal/logfile"
)

// LogFileName is the well-known name of the single active log file
// inside a kvs database directory.
const LogFileName = "kv_00001.log"

// indexCacheName is the optional best-effort index snapshot. When
// present and valid it lets Open skip a full log replay.
const indexCacheName = "kv_memory.index"

// DefaultCompactionThreshold is the live-key count above which Set
// triggers a compaction before appending, chosen as a conservative
// point where replay time starts to matter.
const DefaultCompactionThreshold = 500

// KVStore is the log-structured engine: an append-only log plus an
// in-memory index of key to log ordinal.
type KVStore struct {
	log    *logfile.LogFile
	idx    *index.Index
	next   uint64 // ordinal to assign to the next appended record
	thresh int
}

// Open opens the engine at path. If path names an existing regular
// file, that file is used as the log directly; if it names a
// directory, kv_00001.log inside it is used, created if absent (the
// directory itself is created if needed). The index is rebuilt by
// replaying the log in order, unless a valid kv_memory.index cache is
// present, in which case that is loaded instead and the ordinal
// counter is derived from the log's current record count.
func Open(path string, compactionThreshold int) (*KVStore, error) {
	if compactionThreshold <= 0 {
		compactionThreshold = DefaultCompactionThreshold
	}

	logPath, err := resolveLogPath(path)
	if err != nil {
		return nil, err
	}

	log, err := logfile.Open(logPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kvserr.ErrUninitialized, err)
	}

	store := &KVStore{log: log, idx: index.New(), thresh: compactionThreshold}
	if err := store.recover(logPath); err != nil {
		log.Close()
		return nil, err
	}
	return store, nil
}

// resolveLogPath implements the open(path) contract of §4.4: a file is
// used directly, a directory gets kv_00001.log created inside it.
func resolveLogPath(path string) (string, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil && !info.IsDir():
		return path, nil
	case err == nil && info.IsDir():
		return filepath.Join(path, LogFileName), nil
	case errors.Is(err, os.ErrNotExist):
		// Treat a nonexistent path as a directory to create, matching
		// the original's "create the directory as needed" behavior.
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("kvs: create database directory %s: %w", path, err)
		}
		return filepath.Join(path, LogFileName), nil
	default:
		return "", fmt.Errorf("kvs: stat %s: %w", path, err)
	}
}

// recover rebuilds the index either from the cache file or by
// replaying the log, and sets the next ordinal.
func (s *KVStore) recover(logPath string) error {
	dir := filepath.Dir(logPath)
	cachePath := filepath.Join(dir, indexCacheName)

	if loadIndexCache(cachePath, s.idx) {
		count, err := s.log.OrdinalCount()
		if err != nil {
			return err
		}
		s.next = uint64(count) + 1
		return nil
	}

	commands, err := s.log.ReadAll()
	if err != nil {
		return err
	}

	var ordinal uint64
	for _, cmd := range commands {
		ordinal++
		switch cmd.Tag {
		case codec.TagSet:
			s.idx.Insert(cmd.Key, ordinal)
		case codec.TagRemove:
			s.idx.Remove(cmd.Key)
		}
	}
	s.next = ordinal + 1
	return nil
}

// Set stores value under key. If the index has grown past the
// compaction threshold, compaction runs first. The index is only
// updated after the append succeeds.
func (s *KVStore) Set(key, value string) error {
	if s.idx.Len() > s.thresh {
		if err := s.Compact(); err != nil {
			return err
		}
	}

	data, err := codec.Encode(codec.Set(key, value))
	if err != nil {
		return err
	}
	if err := s.log.Append(data); err != nil {
		return err
	}

	s.idx.Insert(key, s.next)
	s.next++
	writeIndexCache(s)
	return nil
}

// Get returns the value stored for key, or ok=false if the key is
// absent. It never mutates the index or appends to the log.
func (s *KVStore) Get(key string) (string, bool, error) {
	ptr, ok := s.idx.Lookup(key)
	if !ok {
		return "", false, nil
	}

	commands, err := s.log.ReadAll()
	if err != nil {
		return "", false, err
	}
	if ptr == 0 || ptr > uint64(len(commands)) {
		return "", false, kvserr.ErrOffsetError
	}

	cmd := commands[ptr-1]
	if cmd.Tag != codec.TagSet {
		return "", false, kvserr.ErrOffsetError
	}
	return cmd.Value, true, nil
}

// Remove deletes key. It fails with ErrKeyNotFound if the key is
// absent; otherwise it appends a Remove record and deletes the key
// from the index.
func (s *KVStore) Remove(key string) error {
	if _, ok := s.idx.Lookup(key); !ok {
		return kvserr.ErrKeyNotFound
	}

	data, err := codec.Encode(codec.Remove(key))
	if err != nil {
		return err
	}
	if err := s.log.Append(data); err != nil {
		return err
	}

	s.idx.Remove(key)
	writeIndexCache(s)
	return nil
}

// Len reports the number of live keys currently indexed.
func (s *KVStore) Len() int {
	return s.idx.Len()
}

// Close releases the underlying log file handle.
func (s *KVStore) Close() error {
	return s.log.Close()
}

// Path returns the path of the log file this engine is backed by.
func (s *KVStore) Path() string {
	return s.log.Path()
}
