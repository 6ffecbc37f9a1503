// Package kvs implements the engine-selection facade: a uniform
// operation surface over the log-structured ("kvs") engine and the
// externally supplied embedded backend ("sled"/Badger), chosen at
// startup by scanning the target directory for markers and refusing a
// mismatched request.
package kvs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jassi-singh/kvs/internal/engine"
	"github.com/jassi-singh/kvs/internal/kvserr"
	"github.com/jassi-singh/kvs/internal/sled"
)

// Name identifies a storage engine variant by its CLI/config name.
type Name string

const (
	Kvs  Name = "kvs"
	Sled Name = "sled"
)

// Engine is the uniform set/get/remove/close contract both backends
// satisfy. A Facade holds exactly one live Engine at a time.
type Engine interface {
	Set(key, value string) error
	Get(key string) (string, bool, error)
	Remove(key string) error
	Close() error
}

// Facade dispatches to whichever engine was selected at Open.
type Facade struct {
	Engine
	name Name
}

// Name reports which engine variant this facade is backed by.
func (f *Facade) Name() Name {
	return f.name
}

// Open scans dir for on-disk engine markers, refuses a request that
// conflicts with what is already there, and otherwise opens the
// requested engine.
func Open(dir string, requested Name, compactionThreshold int, logger *slog.Logger) (*Facade, error) {
	if requested != Kvs && requested != Sled {
		return nil, fmt.Errorf("%w: %q", kvserr.ErrUnsupportedEngine, requested)
	}

	hasSled, hasKvs, err := detectMarkers(dir, logger)
	if err != nil {
		return nil, err
	}

	if hasSled && hasKvs {
		return nil, kvserr.ErrBothEnginesPresent
	}
	if hasSled && requested == Kvs {
		return nil, kvserr.ErrKvsOverSled
	}
	if hasKvs && requested == Sled {
		return nil, kvserr.ErrSledOverKvs
	}

	switch requested {
	case Kvs:
		store, err := engine.Open(dir, compactionThreshold)
		if err != nil {
			return nil, err
		}
		return &Facade{Engine: store, name: Kvs}, nil
	case Sled:
		store, err := sled.Open(filepath.Join(dir, sled.MarkerName), logger)
		if err != nil {
			return nil, err
		}
		return &Facade{Engine: store, name: Sled}, nil
	default:
		// Unreachable: requested was validated above.
		return nil, kvserr.ErrUnsupportedEngine
	}
}

// detectMarkers scans dir once for the sled marker (a "db" entry) and
// the kvs marker (any kv_*.log file). A kv_*.log-shaped entry whose
// ordinal suffix does not parse is logged and ignored rather than
// treated as a marker or a fatal error.
func detectMarkers(dir string, logger *slog.Logger) (hasSled, hasKvs bool, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("kvs: scan database directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if name == sled.MarkerName {
			hasSled = true
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		if ordinal, ok := strings.CutPrefix(name, "kv_"); ok {
			ordinal, ok = strings.CutSuffix(ordinal, ".log")
			if !ok {
				continue
			}
			if _, err := strconv.ParseUint(ordinal, 10, 64); err != nil {
				logger.Warn("kvs: ignoring datafile with unparseable name",
					"name", name, "error", fmt.Errorf("%w: %v", kvserr.ErrInvalidDatafileName, err))
				continue
			}
			hasKvs = true
		}
	}
	return hasSled, hasKvs, nil
}
