package params

import (
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
)

const (
	// StateDBName is the bbolt database file under the data dir.
	StateDBName = "bustrack.db"
)

// DefaultDatadirRoot is ~/.bustrack, or ./.bustrack if home can't be found.
var DefaultDatadirRoot = func() string {
	home, err := homedir.Dir()
	if err != nil {
		return ".bustrack"
	}
	return filepath.Join(home, ".bustrack")
}()

var (
	CacheLastPushTTL  = 1 * time.Hour
	CacheLastKnownTTL = 24 * time.Hour
)

// DefaultDedupeCacheSize bounds the LRU used to drop duplicate pushes.
var DefaultDedupeCacheSize = 10_000

// DefaultPathCacheSize bounds the LRU of processed history paths.
var DefaultPathCacheSize = 256

// DefaultImportBatchSize is the number of fixes stored per transaction on import.
var DefaultImportBatchSize = 1000
