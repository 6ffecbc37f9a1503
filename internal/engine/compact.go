package engine

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jassi-singh/kvs/internal/codec"
	"github.com/jassi-singh/kvs/internal/index"
)

// indexCachePath returns the kv_memory.index path alongside logPath.
func indexCachePath(logPath string) string {
	return filepath.Join(filepath.Dir(logPath), indexCacheName)
}

// Compact rewrites the log to contain at most one live record per key
// and rebuilds the index against the rewritten ordinals. An empty log
// is a no-op. Compaction is triggered inline by Set and may also be
// called directly.
//
// The algorithm walks the log in reverse, keeping only the first
// (i.e. most recent) state seen per key — present with a value, or
// removed — then re-emits those states in the reverse of the walk
// order, which restores the original relative order of surviving
// keys' last writes.
func (s *KVStore) Compact() error {
	commands, err := s.log.ReadAll()
	if err != nil {
		return err
	}
	if len(commands) == 0 {
		return nil
	}

	type state struct {
		value   string
		present bool
	}
	seen := make(map[string]state)
	var order []string

	for i := len(commands) - 1; i >= 0; i-- {
		cmd := commands[i]
		if _, ok := seen[cmd.Key]; ok {
			continue
		}
		switch cmd.Tag {
		case codec.TagSet:
			seen[cmd.Key] = state{value: cmd.Value, present: true}
		case codec.TagRemove:
			seen[cmd.Key] = state{present: false}
		}
		order = append(order, cmd.Key)
	}

	compacted := make([]codec.Command, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		key := order[i]
		st := seen[key]
		if st.present {
			compacted = append(compacted, codec.Set(key, st.value))
		} else {
			compacted = append(compacted, codec.Remove(key))
		}
	}

	if err := s.log.Overwrite(compacted); err != nil {
		return err
	}

	s.idx.Clear()
	var ordinal uint64
	for _, cmd := range compacted {
		ordinal++
		if cmd.Tag == codec.TagSet {
			s.idx.Insert(cmd.Key, ordinal)
		}
	}
	s.next = ordinal + 1

	writeIndexCache(s)
	return nil
}

// writeIndexCache regenerates the kv_memory.index cache from the
// current index. Called after every Set, Remove, and Compact, so the
// cache is never behind the index it mirrors. The original
// implementation wrote this cache from the Get path instead, which
// goes stale under writes made between reads; this rewrite never
// touches the cache from Get.
func writeIndexCache(s *KVStore) {
	cachePath := indexCachePath(s.log.Path())
	data, err := json.Marshal(s.idx.Snapshot())
	if err != nil {
		return
	}
	_ = os.WriteFile(cachePath, data, 0644)
}

// loadIndexCache attempts to populate idx from the cache file at
// path. It reports whether a usable cache was loaded; a missing or
// malformed cache is not an error, the caller falls back to replay.
func loadIndexCache(path string, idx *index.Index) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var pointers map[string]uint64
	if err := json.Unmarshal(data, &pointers); err != nil {
		return false
	}
	idx.Load(pointers)
	return true
}
