// Package changeimpact wires the workspace walker, per-language analyzers,
// reference graph, BFS impact engine, and persistent cache into the two
// control-flow paths the system exposes: diff-driven and seed-driven
// impact runs (§2).
package changeimpact

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/viant/changeimpact/cache"
	"github.com/viant/changeimpact/diffparser"
	"github.com/viant/changeimpact/errkind"
	"github.com/viant/changeimpact/graph"
	"github.com/viant/changeimpact/impact"
	"github.com/viant/changeimpact/lang"
	"github.com/viant/changeimpact/lang/ecma"
	"github.com/viant/changeimpact/lang/rust"
	"github.com/viant/changeimpact/lang/ruby"
	"github.com/viant/changeimpact/mapping"
	"github.com/viant/changeimpact/symbol"
	"github.com/viant/changeimpact/workspace"
)

// CacheScope selects where the persistent cache file lives (§6).
type CacheScope string

const (
	CacheLocal  CacheScope = "local"
	CacheGlobal CacheScope = "global"
)

// Options collects the §6 configuration table.
type Options struct {
	Direction  impact.Direction
	MaxDepth   int // negative means unbounded
	WithEdges  bool
	PerSeed    bool
	IgnoreDirs []string
	CacheScope CacheScope
	CacheDir   string
	// Parallelism bounds concurrent analyzer workers; 0 picks a default.
	Parallelism int
}

// Report is the result of one run: the changed set (diff-driven runs only),
// the combined impact output, and the per-seed breakdown when requested.
type Report struct {
	Changed  []symbol.Symbol
	Output   *impact.Output
	PerSeed  []impact.PerSeed
	ParseErr []diffparser.FileError
}

// ResolveRoot locates the nearest enclosing project root for path and its
// dominant language, for callers that only have a file or subdirectory path
// rather than a known repository root (§6 workspace root detection).
func ResolveRoot(path string) (root string, language symbol.Language, err error) {
	root, language, ok := workspace.NewDetector().Root(path)
	if !ok {
		return "", "", errkind.New(errkind.Io, "no project root marker found above "+path, nil)
	}
	return root, language, nil
}

// NewAnalyzerFactory registers every supported language analyzer by file
// extension, mirroring the teacher's inspector.Factory dispatch.
func NewAnalyzerFactory() *lang.Factory {
	f := lang.NewFactory()
	f.Register(rust.New(), ".rs")
	f.Register(ruby.New(), ".rb")
	f.Register(ecma.NewJavaScript(), ".js", ".jsx", ".mjs", ".cjs")
	f.Register(ecma.NewTypeScript(), ".ts")
	f.Register(ecma.NewTSX(), ".tsx")
	return f
}

type analyzedFile struct {
	path    string
	symbols []symbol.Symbol
	raws    []lang.RawReference
	stats   lang.Stats
}

// AnalyzeWorkspace walks root, analyzing every recognized file in parallel
// (§5: parallel analyzer workers, bounded by host parallelism), then
// assembles the resolved reference graph single-threaded.
func AnalyzeWorkspace(ctx context.Context, root string, opts Options) (*graph.Graph, error) {
	factory := NewAnalyzerFactory()
	w := workspace.New(workspace.Options{IgnoreDirs: opts.IgnoreDirs})

	var mu sync.Mutex
	var files []workspace.File
	if err := w.Walk(ctx, root, func(f workspace.File) error {
		mu.Lock()
		files = append(files, f)
		mu.Unlock()
		return nil
	}); err != nil {
		return nil, err
	}

	results, err := analyzeParallel(ctx, factory, files, opts.Parallelism)
	if err != nil {
		return nil, err
	}

	var allSymbols []symbol.Symbol
	var allRaws []lang.RawReference
	for _, r := range results {
		allSymbols = append(allSymbols, r.symbols...)
		allRaws = append(allRaws, r.raws...)
	}
	sort.Slice(allSymbols, func(i, j int) bool { return symbol.Less(allSymbols[i], allSymbols[j]) })

	table := graph.NewTable(allSymbols)
	return graph.Build(table, allRaws), nil
}

// analyzeParallel runs one analyzer invocation per file, at most limit at a
// time (0 or less means runtime.NumCPU(); each file is analyzed
// independently with no shared state).
func analyzeParallel(ctx context.Context, factory *lang.Factory, files []workspace.File, limit int) ([]analyzedFile, error) {
	results := make([]analyzedFile, len(files))
	g, gctx := errgroup.WithContext(ctx)
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	g.SetLimit(limit)

	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			analyzer, ok := factory.For(f.Path)
			if !ok {
				return nil
			}
			syms, stats, err := analyzer.Symbols(f.Path, f.Content)
			if err != nil {
				return errkind.New(errkind.ParseRecovered, "analyzing "+f.Path, err)
			}
			raws, err := analyzer.References(f.Path, f.Content, syms)
			if err != nil {
				return errkind.New(errkind.ParseRecovered, "extracting references from "+f.Path, err)
			}
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = analyzedFile{path: f.Path, symbols: syms, raws: raws, stats: stats}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunDiff implements the diff-driven control-flow path: parse the unified
// diff, map it to a changed set against the freshly analyzed workspace
// graph, then propagate impact from that changed set.
func RunDiff(ctx context.Context, root string, diff []byte, opts Options) (*Report, error) {
	g, err := AnalyzeWorkspace(ctx, root, opts)
	if err != nil {
		return nil, err
	}

	changes, fileErrs := diffparser.Parse(diff)
	ranges := mapping.FromDiff(changes)

	byPath := map[string][]symbol.Symbol{}
	for _, s := range g.Table.All() {
		byPath[s.Path] = append(byPath[s.Path], s)
	}

	changed := mapping.ComputeChangedSet(ranges, byPath)
	seeds := make([]symbol.ID, len(changed))
	for i, s := range changed {
		seeds[i] = s.ID
	}

	report := &Report{Changed: changed, ParseErr: fileErrs}
	if err := runImpact(ctx, g, seeds, opts, report); err != nil {
		return nil, err
	}
	return report, nil
}

// RunSeeds implements the seed-driven control-flow path.
func RunSeeds(ctx context.Context, root string, seeds []symbol.ID, opts Options) (*Report, error) {
	g, err := AnalyzeWorkspace(ctx, root, opts)
	if err != nil {
		return nil, err
	}
	report := &Report{}
	if err := runImpact(ctx, g, seeds, opts, report); err != nil {
		return nil, err
	}
	return report, nil
}

func runImpact(ctx context.Context, g *graph.Graph, seeds []symbol.ID, opts Options, report *Report) error {
	maxDepth := opts.MaxDepth
	if opts.PerSeed {
		results, err := impact.RunPerSeed(ctx, g, seeds, opts.Direction, maxDepth)
		if err != nil {
			return err
		}
		report.PerSeed = results
		return nil
	}
	out, err := impact.Run(ctx, g, seeds, opts.Direction, maxDepth, opts.WithEdges)
	if err != nil {
		return err
	}
	report.Output = out
	return nil
}

// CachedWorkspace loads the workspace graph from db, recomputing only the
// files whose content has changed since the last run (§4.7 update_paths),
// then reassembles the graph from the cache's resolved edges (load_graph).
func CachedWorkspace(ctx context.Context, root string, db *cache.DB, opts Options) (*graph.Graph, error) {
	factory := NewAnalyzerFactory()
	w := workspace.New(workspace.Options{IgnoreDirs: opts.IgnoreDirs})

	var mu sync.Mutex
	var stale []workspace.File
	if err := w.Walk(ctx, root, func(f workspace.File) error {
		hash, err := cache.ContentHash(f.Content)
		if err != nil {
			return errkind.New(errkind.CacheIo, "hashing "+f.Path, err)
		}
		fresh, err := db.FreshnessOf(f.Path, hash, f.ModTime)
		if err != nil {
			return err
		}
		if fresh {
			return nil
		}
		mu.Lock()
		stale = append(stale, f)
		mu.Unlock()
		return nil
	}); err != nil {
		return nil, err
	}

	results, err := analyzeParallel(ctx, factory, stale, opts.Parallelism)
	if err != nil {
		return nil, err
	}

	// Resolve every stale file's raw references against the FULL workspace
	// symbol table (cached symbols from untouched files plus the freshly
	// analyzed stale ones), not just the one file being replaced — otherwise
	// cross-file edges can never resolve and silently vanish from the cache.
	cachedSyms, _, err := db.LoadGraph()
	if err != nil {
		return nil, err
	}
	stalePaths := map[string]bool{}
	for _, f := range stale {
		stalePaths[f.Path] = true
	}
	var fullSyms []symbol.Symbol
	for _, s := range cachedSyms {
		if !stalePaths[s.Path] {
			fullSyms = append(fullSyms, s)
		}
	}
	var allRaws []lang.RawReference
	for _, r := range results {
		fullSyms = append(fullSyms, r.symbols...)
		allRaws = append(allRaws, r.raws...)
	}
	fullTable := graph.NewTable(fullSyms)
	resolved := graph.Build(fullTable, allRaws)

	refsByPath := map[string][]symbol.Reference{}
	for _, e := range resolved.Edges {
		if stalePaths[e.From.Path] {
			refsByPath[e.From.Path] = append(refsByPath[e.From.Path], e)
		}
	}

	byPath := map[string]workspace.File{}
	for _, f := range stale {
		byPath[f.Path] = f
	}
	for _, r := range results {
		f := byPath[r.path]
		hash, err := cache.ContentHash(f.Content)
		if err != nil {
			return nil, errkind.New(errkind.CacheIo, "hashing "+r.path, err)
		}
		rec := cache.FileRecord{
			Path:          r.path,
			ContentHash:   hash,
			ModTime:       f.ModTime,
			Language:      f.Language,
			SchemaVersion: cache.SchemaVersion,
		}
		if err := db.ReplaceFile(ctx, rec, r.symbols, refsByPath[r.path]); err != nil {
			return nil, err
		}
	}

	syms, edges, err := db.LoadGraph()
	if err != nil {
		return nil, err
	}
	table := graph.NewTable(syms)
	return graph.FromEdges(table, edges), nil
}
