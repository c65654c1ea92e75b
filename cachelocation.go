package changeimpact

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/viant/changeimpact/cache"
)

// OpenCache resolves the cache path per §6's storage-location rule
// (repository-local by default, user-global when requested) and opens it.
func OpenCache(root string, opts Options) (*cache.DB, error) {
	dir := opts.CacheDir
	if dir == "" {
		dir = ".changeimpact-cache"
	}

	var path string
	switch opts.CacheScope {
	case CacheGlobal:
		configHome, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		key, err := repoKey(root)
		if err != nil {
			return nil, err
		}
		path = filepath.Join(configHome, "changeimpact", "cache", schemaDir(), key, "index.db")
	default:
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		path = filepath.Join(absRoot, dir, schemaDir(), "index.db")
	}

	return cache.OpenWithPath(path)
}

func schemaDir() string { return fmt.Sprintf("v%d", cache.SchemaVersion) }

// repoKey derives a stable, filesystem-safe identifier for root so the
// user-global cache location doesn't collide across repositories.
func repoKey(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	hash, err := cache.ContentHash([]byte(absRoot))
	if err != nil {
		return "", err
	}
	return filepath.Base(absRoot) + "-" + hex.EncodeToString(uint64ToBytes(hash)), nil
}

func uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}
