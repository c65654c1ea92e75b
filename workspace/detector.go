package workspace

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/viant/changeimpact/symbol"
)

// marker pairs a root-marker filename with the language it indicates.
// Detector walks up from a starting path looking for the first match, the
// same shape as the teacher's project-root detector but retargeted from
// Go/Java/Python/PHP markers to the five supported languages.
type marker struct {
	file     string
	language symbol.Language
}

var markers = []marker{
	{"Cargo.toml", symbol.Rust},
	{"Gemfile", symbol.Ruby},
	{".gemspec", symbol.Ruby},
	{"tsconfig.json", symbol.TypeScript},
	{"package.json", symbol.JavaScript},
}

// Detector finds the nearest enclosing project root for a file or directory.
type Detector struct{}

func NewDetector() *Detector { return &Detector{} }

// Root identifies the root directory and dominant language for path by
// walking up the directory tree for the first marker file found. If no
// marker is found before the filesystem root, dir is "" and ok is false.
func (d *Detector) Root(path string) (dir string, language symbol.Language, ok bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", false
	}
	start := abs
	if info, statErr := os.Stat(abs); statErr == nil && !info.IsDir() {
		start = filepath.Dir(abs)
	}

	cur := start
	for {
		for _, m := range markers {
			if m.file == ".gemspec" {
				if hasGemspec(cur) {
					return cur, m.language, true
				}
				continue
			}
			if _, statErr := os.Stat(filepath.Join(cur, m.file)); statErr == nil {
				return cur, m.language, true
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", "", false
		}
		cur = parent
	}
}

var gemspecPattern = regexp.MustCompile(`\.gemspec$`)

func hasGemspec(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && gemspecPattern.MatchString(e.Name()) {
			return true
		}
	}
	return false
}
