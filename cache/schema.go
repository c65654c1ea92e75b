package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/minio/highwayhash"

	"github.com/viant/changeimpact/errkind"
	"github.com/viant/changeimpact/symbol"
)

// hashKey matches the fixed 32-byte key the teacher's content-hash helper
// uses; identical across runs so cached hashes are comparable run to run.
var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// ContentHash returns the HighwayHash64 of data, the staleness fingerprint
// stored alongside each file's mtime (§4.7).
func ContentHash(data []byte) (uint64, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0, err
	}
	if _, err := h.Write(data); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// SchemaVersion forces a full rebuild whenever the on-disk row shapes change
// incompatibly with what this binary expects.
const SchemaVersion = 1

// FileRecord is one row of the files table.
type FileRecord struct {
	Path         string
	ContentHash  uint64
	ModTime      time.Time
	Language     symbol.Language
	SchemaVersion int
}

// Meta is the single meta row recording schema and tool provenance.
type Meta struct {
	SchemaVersion int
	ToolVersion   string
	CreatedAt     time.Time
}

const (
	prefixFile   = "f:"
	prefixSymbol = "s:"
	prefixEdge   = "e:"
	keyMeta      = "m:meta"
)

func fileKey(path string) []byte   { return []byte(prefixFile + path) }
func symbolKey(id symbol.ID) []byte { return []byte(prefixSymbol + id.String()) }

// edgeKey is ordered by src_path first so all of one file's edges form a
// contiguous iteration range, replaceable atomically with one prefix scan.
func edgeKey(ref symbol.Reference, srcPath string) []byte {
	return []byte(prefixEdge + srcPath + "\x00" + ref.From.String() + "\x00" + ref.To.String() + "\x00" + string(ref.Kind))
}

func edgePrefix(srcPath string) []byte { return []byte(prefixEdge + srcPath + "\x00") }

func encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// PutMeta writes the single meta row, overwriting any prior one.
func (db *DB) PutMeta(m Meta) error {
	buf, err := encode(m)
	if err != nil {
		return errkind.New(errkind.CacheIo, "encoding meta row", err)
	}
	return db.bdb.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyMeta), buf)
	})
}

// GetMeta reads the meta row. ok is false when no meta row has ever been
// written (a fresh, empty cache).
func (db *DB) GetMeta() (m Meta, ok bool, err error) {
	err = db.bdb.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get([]byte(keyMeta))
		if getErr == badger.ErrKeyNotFound {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		ok = true
		return item.Value(func(val []byte) error { return decode(val, &m) })
	})
	if err != nil {
		err = errkind.New(errkind.CacheCorrupt, "reading meta row", err)
	}
	return m, ok, err
}

// FreshnessOf reports whether path's cached row matches contentHash.
// modTime is accepted but not compared: the hash alone decides. A missing
// row is never fresh.
func (db *DB) FreshnessOf(path string, contentHash uint64, modTime time.Time) (fresh bool, err error) {
	rec, ok, err := db.GetFile(path)
	if err != nil || !ok {
		return false, err
	}
	// Ties: the hash is authoritative, per §4.7's staleness policy.
	return rec.ContentHash == contentHash, nil
}

// GetFile reads one files-table row.
func (db *DB) GetFile(path string) (rec FileRecord, ok bool, err error) {
	err = db.bdb.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get(fileKey(path))
		if getErr == badger.ErrKeyNotFound {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		ok = true
		return item.Value(func(val []byte) error { return decode(val, &rec) })
	})
	if err != nil {
		err = errkind.New(errkind.CacheCorrupt, "reading file row "+path, err)
	}
	return rec, ok, err
}

// ReplaceFile atomically replaces path's file row, its symbol rows, and all
// edges whose src_path is path (§4.7: "all rows with a given src_path are
// replaced atomically when that file is re-indexed").
func (db *DB) ReplaceFile(ctx context.Context, rec FileRecord, syms []symbol.Symbol, refs []symbol.Reference) error {
	if err := ctx.Err(); err != nil {
		return errkind.New(errkind.CacheIo, "context cancelled before replacing file row", err)
	}
	return db.bdb.Update(func(txn *badger.Txn) error {
		if err := deletePrefix(txn, edgePrefix(rec.Path)); err != nil {
			return err
		}
		if err := deleteSymbolsForPath(txn, rec.Path); err != nil {
			return err
		}

		fileBuf, err := encode(rec)
		if err != nil {
			return err
		}
		if err := txn.Set(fileKey(rec.Path), fileBuf); err != nil {
			return err
		}

		for _, s := range syms {
			buf, err := encode(s)
			if err != nil {
				return err
			}
			if err := txn.Set(symbolKey(s.ID), buf); err != nil {
				return err
			}
		}
		for _, r := range refs {
			buf, err := encode(r)
			if err != nil {
				return err
			}
			if err := txn.Set(edgeKey(r, rec.Path), buf); err != nil {
				return err
			}
		}
		return nil
	})
}

func deletePrefix(txn *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		k := it.Item().KeyCopy(nil)
		keys = append(keys, k)
	}
	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// deleteSymbolsForPath removes all symbol rows for path. Symbol keys are
// not prefixed by path (they're keyed by canonical SymbolId, which embeds
// the path as its second field, not a leading byte range), so this scans
// the whole symbols table; acceptable since ReplaceFile already pays for a
// per-file transaction and workspace sizes are bounded by source tree size.
func deleteSymbolsForPath(txn *badger.Txn, path string) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	opts.Prefix = []byte(prefixSymbol)
	it := txn.NewIterator(opts)
	defer it.Close()

	var toDelete [][]byte
	for it.Seek([]byte(prefixSymbol)); it.ValidForPrefix([]byte(prefixSymbol)); it.Next() {
		var s symbol.Symbol
		err := it.Item().Value(func(val []byte) error { return decode(val, &s) })
		if err != nil {
			return err
		}
		if s.Path == path {
			toDelete = append(toDelete, it.Item().KeyCopy(nil))
		}
	}
	for _, k := range toDelete {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// LoadGraph reads every symbol and edge row in the cache (§4.7 load_graph).
func (db *DB) LoadGraph() ([]symbol.Symbol, []symbol.Reference, error) {
	var syms []symbol.Symbol
	var refs []symbol.Reference

	err := db.bdb.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixSymbol)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek([]byte(prefixSymbol)); it.ValidForPrefix([]byte(prefixSymbol)); it.Next() {
			var s symbol.Symbol
			if err := it.Item().Value(func(val []byte) error { return decode(val, &s) }); err != nil {
				return err
			}
			syms = append(syms, s)
		}

		eopts := badger.DefaultIteratorOptions
		eopts.Prefix = []byte(prefixEdge)
		eit := txn.NewIterator(eopts)
		defer eit.Close()
		for eit.Seek([]byte(prefixEdge)); eit.ValidForPrefix([]byte(prefixEdge)); eit.Next() {
			var r symbol.Reference
			if err := eit.Item().Value(func(val []byte) error { return decode(val, &r) }); err != nil {
				return err
			}
			refs = append(refs, r)
		}
		return nil
	})
	if err != nil {
		return nil, nil, errkind.New(errkind.CacheCorrupt, "loading graph from cache", err)
	}
	return syms, refs, nil
}

// Stats reports row counts per table.
type Stats struct {
	Files   int
	Symbols int
	Edges   int
}

func (db *DB) Stats() (Stats, error) {
	var s Stats
	err := db.bdb.View(func(txn *badger.Txn) error {
		s.Files = countPrefix(txn, []byte(prefixFile))
		s.Symbols = countPrefix(txn, []byte(prefixSymbol))
		s.Edges = countPrefix(txn, []byte(prefixEdge))
		return nil
	})
	if err != nil {
		err = errkind.New(errkind.CacheIo, "computing cache stats", err)
	}
	return s, err
}

func countPrefix(txn *badger.Txn, prefix []byte) int {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()
	n := 0
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		n++
	}
	return n
}

// Clear drops all file, symbol, and edge rows and the meta row, but keeps
// the opened database in place, per §4.7 clear().
func (db *DB) Clear() error {
	return db.bdb.DropPrefix(
		[]byte(prefixFile),
		[]byte(prefixSymbol),
		[]byte(prefixEdge),
		[]byte(keyMeta),
	)
}
