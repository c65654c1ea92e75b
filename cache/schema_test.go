package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/changeimpact/symbol"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestContentHash_Deterministic(t *testing.T) {
	h1, err := ContentHash([]byte("fn main() {}"))
	require.NoError(t, err)
	h2, err := ContentHash([]byte("fn main() {}"))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	h3, err := ContentHash([]byte("fn main() { }"))
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestReplaceFile_RoundTrip(t *testing.T) {
	db := openTestDB(t)

	s := symbol.Symbol{
		ID:        symbol.ID{Language: symbol.Rust, Path: "src/a.rs", Kind: symbol.KindFunc, Name: "helper", Line: 3},
		Language:  symbol.Rust,
		Path:      "src/a.rs",
		Kind:      symbol.KindFunc,
		Name:      "helper",
		LineStart: 3,
		LineEnd:   5,
	}
	ref := symbol.Reference{From: s.ID, To: s.ID, Kind: symbol.Call}
	rec := FileRecord{Path: "src/a.rs", ContentHash: 42, ModTime: time.Unix(100, 0), Language: symbol.Rust, SchemaVersion: SchemaVersion}

	require.NoError(t, db.ReplaceFile(context.Background(), rec, []symbol.Symbol{s}, []symbol.Reference{ref}))

	got, ok, err := db.GetFile("src/a.rs")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(42), got.ContentHash)

	syms, refs, err := db.LoadGraph()
	require.NoError(t, err)
	require.Len(t, syms, 1)
	require.Len(t, refs, 1)
	assert.Equal(t, "helper", syms[0].Name)
}

func TestReplaceFile_AtomicPerPathReplacement(t *testing.T) {
	db := openTestDB(t)

	s1 := symbol.Symbol{ID: symbol.ID{Language: symbol.Rust, Path: "src/a.rs", Kind: symbol.KindFunc, Name: "old", Line: 1}, Path: "src/a.rs", Name: "old", Kind: symbol.KindFunc, Language: symbol.Rust}
	rec1 := FileRecord{Path: "src/a.rs", ContentHash: 1, Language: symbol.Rust}
	require.NoError(t, db.ReplaceFile(context.Background(), rec1, []symbol.Symbol{s1}, nil))

	s2 := symbol.Symbol{ID: symbol.ID{Language: symbol.Rust, Path: "src/a.rs", Kind: symbol.KindFunc, Name: "new", Line: 1}, Path: "src/a.rs", Name: "new", Kind: symbol.KindFunc, Language: symbol.Rust}
	rec2 := FileRecord{Path: "src/a.rs", ContentHash: 2, Language: symbol.Rust}
	require.NoError(t, db.ReplaceFile(context.Background(), rec2, []symbol.Symbol{s2}, nil))

	syms, _, err := db.LoadGraph()
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "new", syms[0].Name)
}

func TestReplaceFile_EdgesScopedToOwningPath(t *testing.T) {
	db := openTestDB(t)

	a := symbol.ID{Language: symbol.Rust, Path: "src/a.rs", Kind: symbol.KindFunc, Name: "a", Line: 1}
	b := symbol.ID{Language: symbol.Rust, Path: "src/b.rs", Kind: symbol.KindFunc, Name: "b", Line: 1}

	require.NoError(t, db.ReplaceFile(context.Background(),
		FileRecord{Path: "src/a.rs", Language: symbol.Rust},
		[]symbol.Symbol{{ID: a, Path: "src/a.rs", Name: "a", Kind: symbol.KindFunc, Language: symbol.Rust}},
		[]symbol.Reference{{From: a, To: b, Kind: symbol.Call}},
	))
	require.NoError(t, db.ReplaceFile(context.Background(),
		FileRecord{Path: "src/b.rs", Language: symbol.Rust},
		[]symbol.Symbol{{ID: b, Path: "src/b.rs", Name: "b", Kind: symbol.KindFunc, Language: symbol.Rust}},
		nil,
	))

	// Re-indexing b.rs with no edges must not disturb a.rs's edge row.
	_, refs, err := db.LoadGraph()
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, a, refs[0].From)
}

func TestFreshnessOf(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.ReplaceFile(context.Background(),
		FileRecord{Path: "src/a.rs", ContentHash: 7, ModTime: time.Unix(5, 0), Language: symbol.Rust},
		nil, nil,
	))

	fresh, err := db.FreshnessOf("src/a.rs", 7, time.Unix(5, 0))
	require.NoError(t, err)
	assert.True(t, fresh)

	stale, err := db.FreshnessOf("src/a.rs", 8, time.Unix(5, 0))
	require.NoError(t, err)
	assert.False(t, stale)

	missing, err := db.FreshnessOf("src/missing.rs", 1, time.Time{})
	require.NoError(t, err)
	assert.False(t, missing)
}

func TestMeta_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	_, ok, err := db.GetMeta()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.PutMeta(Meta{SchemaVersion: SchemaVersion, ToolVersion: "test"}))
	m, ok, err := db.GetMeta()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, SchemaVersion, m.SchemaVersion)
}

func TestStats(t *testing.T) {
	db := openTestDB(t)
	a := symbol.ID{Language: symbol.Rust, Path: "src/a.rs", Kind: symbol.KindFunc, Name: "a", Line: 1}
	require.NoError(t, db.ReplaceFile(context.Background(),
		FileRecord{Path: "src/a.rs", Language: symbol.Rust},
		[]symbol.Symbol{{ID: a, Path: "src/a.rs", Name: "a", Kind: symbol.KindFunc, Language: symbol.Rust}},
		[]symbol.Reference{{From: a, To: a, Kind: symbol.Call}},
	))

	s, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, s.Files)
	assert.Equal(t, 1, s.Symbols)
	assert.Equal(t, 1, s.Edges)
}

func TestClear(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.ReplaceFile(context.Background(), FileRecord{Path: "src/a.rs", Language: symbol.Rust}, nil, nil))
	require.NoError(t, db.PutMeta(Meta{SchemaVersion: SchemaVersion}))

	require.NoError(t, db.Clear())

	s, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, s.Files)
	_, ok, err := db.GetMeta()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGCRunner_Validation(t *testing.T) {
	_, err := NewGCRunner(nil, time.Second, 0.5, nil)
	assert.Error(t, err)

	db := openTestDB(t)
	_, err = NewGCRunner(db, 0, 0.5, nil)
	assert.Error(t, err)

	_, err = NewGCRunner(db, time.Second, 1.5, nil)
	assert.Error(t, err)

	r, err := NewGCRunner(db, 10*time.Millisecond, 0.5, nil)
	require.NoError(t, err)
	r.Start()
	time.Sleep(25 * time.Millisecond)
	r.Stop()
}
