// Package workspace enumerates source files under a repository root and
// reads their contents, abstracted over the filesystem via afs so the same
// walker works against local paths or any afs-supported URL scheme.
package workspace

import (
	"context"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"

	"github.com/viant/changeimpact/errkind"
	"github.com/viant/changeimpact/symbol"
)

// defaultIgnoredDirs are excluded from every walk regardless of Options
// (§6: "version-control metadata, build artefact directories ... dotfile
// trees").
var defaultIgnoredDirs = []string{
	".git", ".hg", ".svn",
	"node_modules", "target", "dist", "build", "vendor", "tmp",
}

// extByLanguage maps recognized source extensions to their language, the
// include set referenced by §6 ("Include set is defined by extension
// mapping to language").
var extByLanguage = map[string]symbol.Language{
	".rs":  symbol.Rust,
	".rb":  symbol.Ruby,
	".js":  symbol.JavaScript,
	".jsx": symbol.JavaScript,
	".mjs": symbol.JavaScript,
	".cjs": symbol.JavaScript,
	".ts":  symbol.TypeScript,
	".tsx": symbol.TSX,
}

// LanguageForExt reports the language mapped to a file extension (including
// the leading dot), and whether the extension is recognized.
func LanguageForExt(ext string) (symbol.Language, bool) {
	l, ok := extByLanguage[ext]
	return l, ok
}

// Options configures one workspace walk.
type Options struct {
	// IgnoreDirs are additional directory names to exclude, layered on top
	// of defaultIgnoredDirs. A directory is skipped when its base name equals
	// an entry, at any depth; entries are not matched as path prefixes, so an
	// entry containing "/" excludes nothing.
	IgnoreDirs []string
}

// File is one discovered source file: its workspace-relative path, detected
// language, and content.
type File struct {
	Path     string
	Language symbol.Language
	Content  []byte
	ModTime  time.Time
}

// Walker enumerates and reads workspace source files via afs.
type Walker struct {
	fs   afs.Service
	opts Options
}

func New(opts Options) *Walker {
	return &Walker{fs: afs.New(), opts: opts}
}

// Walk enumerates every recognized source file under root and invokes fn
// with its contents. Walking stops and returns ctx.Err() wrapped in an
// errkind.Io error if ctx is cancelled between files.
func (w *Walker) Walk(ctx context.Context, root string, fn func(File) error) error {
	ignored := append(append([]string{}, defaultIgnoredDirs...), w.opts.IgnoreDirs...)

	var visitErr error
	visitor := func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, errkind.New(errkind.Io, "workspace walk cancelled", err)
		}
		name := info.Name()
		if info.IsDir() {
			if isIgnoredDir(name, ignored) {
				return false, nil
			}
			return true, nil
		}
		lang, ok := LanguageForExt(path.Ext(name))
		if !ok {
			return true, nil
		}

		fileURL := url.Join(baseURL, parent, name)
		content, err := w.fs.DownloadWithURL(ctx, fileURL)
		if err != nil {
			visitErr = errkind.New(errkind.Io, "reading "+fileURL, err)
			return false, visitErr
		}

		rel := relativePath(root, fileURL)
		if err := fn(File{Path: rel, Language: lang, Content: content, ModTime: info.ModTime()}); err != nil {
			visitErr = err
			return false, err
		}
		return true, nil
	}

	if err := w.fs.Walk(ctx, root, storage.OnVisit(visitor)); err != nil {
		if visitErr != nil {
			return visitErr
		}
		return errkind.New(errkind.Io, "walking workspace "+root, err)
	}
	return nil
}

func isIgnoredDir(name string, ignored []string) bool {
	if strings.HasPrefix(name, ".") && name != "." && name != ".." {
		return true
	}
	for _, ig := range ignored {
		if name == ig {
			return true
		}
	}
	return false
}

func relativePath(root, fileURL string) string {
	rootNorm := strings.TrimSuffix(root, "/")
	rel := strings.TrimPrefix(fileURL, rootNorm)
	return strings.TrimPrefix(rel, "/")
}
