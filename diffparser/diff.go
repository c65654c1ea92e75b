// Package diffparser decodes a unified diff byte stream into per-file
// hunks with added/removed line numbers, tolerating malformed hunks in
// individual files without aborting the whole stream.
package diffparser

import (
	"bytes"
	"fmt"
	"strings"

	gdiff "github.com/sourcegraph/go-diff/diff"
	"github.com/viant/changeimpact/errkind"
)

// LineOp classifies one line of a hunk body.
type LineOp int

const (
	Context LineOp = iota
	Added
	Removed
)

// Hunk is one `@@ -L,M +L',M' @@` block, decoded into per-line operations.
type Hunk struct {
	OldStart int
	OldLen   int
	NewStart int
	NewLen   int
	Lines    []LineOp
}

// FileChanges is the decoded diff for a single file. OldPath is empty for
// newly added files; NewPath is used for all downstream path resolution,
// including for renames (a rename is a rename-plus-edit whose NewPath is
// the file's identity in the new tree).
type FileChanges struct {
	OldPath string
	NewPath string
	Binary  bool
	Hunks   []Hunk
}

// FileError records a per-file failure that did not abort the rest of the
// stream (the DiffFormat category from the error-handling design).
type FileError struct {
	Path string
	Err  error
}

// Parse decodes a unified diff. Malformed hunks fail only the file they
// belong to; parsing continues with the remaining files. Binary patches are
// recorded with Binary=true and no hunks, never as an error.
func Parse(data []byte) ([]FileChanges, []FileError) {
	segments := splitFileSegments(data)

	var changes []FileChanges
	var errs []FileError
	for _, seg := range segments {
		fd, err := gdiff.ParseFileDiff(seg)
		if err != nil {
			errs = append(errs, FileError{Path: guessPath(seg), Err: errkind.New(errkind.DiffFormat, "malformed file diff", err)})
			continue
		}
		fc, err := fromFileDiff(fd)
		if err != nil {
			errs = append(errs, FileError{Path: fd.NewName, Err: err})
			continue
		}
		changes = append(changes, fc)
	}
	return changes, errs
}

// splitFileSegments breaks a multi-file unified diff into one byte slice
// per file entry. It recognizes `diff --git a/... b/...` boundaries; when
// none are present (a bare unified diff with only `--- `/`+++ ` headers)
// it falls back to splitting on `--- ` lines.
func splitFileSegments(data []byte) [][]byte {
	lines := bytes.Split(data, []byte("\n"))

	var boundaries []int
	for i, line := range lines {
		if bytes.HasPrefix(line, []byte("diff --git ")) {
			boundaries = append(boundaries, i)
		}
	}
	if len(boundaries) == 0 {
		for i, line := range lines {
			if bytes.HasPrefix(line, []byte("--- ")) {
				boundaries = append(boundaries, i)
			}
		}
	}
	if len(boundaries) == 0 {
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		return [][]byte{data}
	}

	var segments [][]byte
	for i, start := range boundaries {
		end := len(lines)
		if i+1 < len(boundaries) {
			end = boundaries[i+1]
		}
		segments = append(segments, bytes.Join(lines[start:end], []byte("\n")))
	}
	return segments
}

func guessPath(seg []byte) string {
	for _, line := range bytes.Split(seg, []byte("\n")) {
		if bytes.HasPrefix(line, []byte("+++ ")) {
			return stripGitPrefix(strings.TrimSpace(string(line[4:])))
		}
	}
	return "<unknown>"
}

func fromFileDiff(fd *gdiff.FileDiff) (FileChanges, error) {
	fc := FileChanges{
		OldPath: stripGitPrefix(fd.OrigName),
		NewPath: stripGitPrefix(fd.NewName),
	}
	if fc.OldPath == "/dev/null" {
		fc.OldPath = ""
	}

	for _, ext := range fd.Extended {
		if strings.HasPrefix(ext, "rename from ") {
			fc.OldPath = strings.TrimPrefix(ext, "rename from ")
		}
		if strings.HasPrefix(ext, "rename to ") {
			fc.NewPath = strings.TrimPrefix(ext, "rename to ")
		}
		if strings.Contains(ext, "Binary files") || strings.HasPrefix(ext, "Binary files") {
			fc.Binary = true
		}
	}
	if fc.Binary {
		return fc, nil
	}

	for _, h := range fd.Hunks {
		decoded, err := decodeHunk(h)
		if err != nil {
			return FileChanges{}, errkind.New(errkind.DiffFormat, fmt.Sprintf("hunk at %s", fc.NewPath), err)
		}
		fc.Hunks = append(fc.Hunks, decoded)
	}
	return fc, nil
}

func decodeHunk(h *gdiff.Hunk) (Hunk, error) {
	out := Hunk{
		OldStart: int(h.OrigStartLine),
		OldLen:   int(h.OrigLines),
		NewStart: int(h.NewStartLine),
		NewLen:   int(h.NewLines),
	}
	for _, raw := range bytes.Split(h.Body, []byte("\n")) {
		if len(raw) == 0 {
			continue
		}
		switch raw[0] {
		case '+':
			out.Lines = append(out.Lines, Added)
		case '-':
			out.Lines = append(out.Lines, Removed)
		case ' ':
			out.Lines = append(out.Lines, Context)
		case '\\':
			// "\ No newline at end of file" marker, not a line op.
		default:
			return Hunk{}, fmt.Errorf("unrecognized hunk body prefix %q", raw[0])
		}
	}
	return out, nil
}

func stripGitPrefix(path string) string {
	if strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/") {
		return path[2:]
	}
	return path
}

// AddedLines returns the new-tree line numbers touched by Added ops.
func (h Hunk) AddedLines() []int {
	var out []int
	newLine := h.NewStart
	for _, op := range h.Lines {
		switch op {
		case Added:
			out = append(out, newLine)
			newLine++
		case Context:
			newLine++
		}
	}
	return out
}

// RemovedLines returns the old-tree line numbers touched by Removed ops.
func (h Hunk) RemovedLines() []int {
	var out []int
	oldLine := h.OldStart
	for _, op := range h.Lines {
		switch op {
		case Removed:
			out = append(out, oldLine)
			oldLine++
		case Context:
			oldLine++
		}
	}
	return out
}
