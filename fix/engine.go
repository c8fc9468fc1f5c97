// Package fix applies the fixes suggested by diagnostics to source files.
// Fixes only ever insert text, so the fixes of different diagnostics never
// conflict: edits at the same location are inserted in the order of their
// diagnostics.
package fix

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"os"
	"sort"

	"github.com/jhump/equatable/diag"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// Options configures which fixes are applied and how.
type Options struct {
	// Codes restricts the diagnostics whose fixes are applied. If empty, the
	// fixes of all diagnostics are applied.
	Codes []diag.Code
	// DryRun computes the new contents of changed files without writing them.
	DryRun bool
	// ReadFile defaults to os.ReadFile.
	ReadFile func(path string) ([]byte, error)
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	Title     string
	Code      diag.Code
	Message   string
	Path      string
	EditCount int
}

// SkippedFix captures a fix that could not be applied, with a reason.
type SkippedFix struct {
	Title  string
	Code   diag.Code
	Reason string
}

// FileChange summarises modifications performed on a file. Content is the
// new content of the file.
type FileChange struct {
	Path      string
	EditCount int
	Content   []byte
}

// ApplyResult aggregates applied fixes, skipped ones, and file changes.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

type candidate struct {
	diag  diag.Diagnostic
	fix   diag.Fix
	order int
}

type insertion struct {
	offset int
	text   string
	order  int
}

// Apply applies the fixes of the given diagnostics. Only the first fix of each
// diagnostic is applied. ErrNoFixes is returned, along with a result that
// describes any skipped fixes, when nothing could be applied.
func Apply(diagnostics []diag.Diagnostic, opts Options) (*ApplyResult, error) {
	result := &ApplyResult{}
	readFile := opts.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}

	candidates := gatherCandidates(diagnostics, opts.Codes)
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}

	contents := map[string][]byte{}
	pending := map[string][]insertion{}
	editCounts := map[string]int{}
	for _, cand := range candidates {
		staged := map[string][]insertion{}
		var skipReason string
		for _, edit := range cand.fix.Edits {
			path := edit.Pos.Filename
			if path == "" {
				skipReason = "edit has no file"
				break
			}
			src, ok := contents[path]
			if !ok {
				var err error
				src, err = readFile(path)
				if err != nil {
					skipReason = fmt.Sprintf("could not read %s: %v", path, err)
					break
				}
				contents[path] = src
			}
			offset, err := offsetOf(src, edit.Pos)
			if err != nil {
				skipReason = err.Error()
				break
			}
			staged[path] = append(staged[path], insertion{offset: offset, text: edit.Text, order: cand.order})
		}
		if skipReason == "" && len(staged) == 0 {
			skipReason = "fix has no edits"
		}
		if skipReason != "" {
			result.Skipped = append(result.Skipped, SkippedFix{
				Title:  cand.fix.Title,
				Code:   cand.diag.Code,
				Reason: skipReason,
			})
			continue
		}
		count := 0
		for path, ins := range staged {
			pending[path] = append(pending[path], ins...)
			editCounts[path] += len(ins)
			count += len(ins)
		}
		result.Applied = append(result.Applied, AppliedFix{
			Title:     cand.fix.Title,
			Code:      cand.diag.Code,
			Message:   cand.diag.Message,
			Path:      cand.diag.Pos.Filename,
			EditCount: count,
		})
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}

	paths := make([]string, 0, len(pending))
	for path := range pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		buf := insert(contents[path], pending[path])
		if !opts.DryRun {
			mode := os.FileMode(0o644)
			if info, err := os.Stat(path); err == nil {
				mode = info.Mode()
			}
			if err := os.WriteFile(path, buf, mode); err != nil {
				return result, fmt.Errorf("write %s: %w", path, err)
			}
		}
		result.FileChanges = append(result.FileChanges, FileChange{
			Path:      path,
			EditCount: editCounts[path],
			Content:   buf,
		})
	}
	return result, nil
}

func gatherCandidates(diagnostics []diag.Diagnostic, codes []diag.Code) []candidate {
	allowed := map[diag.Code]bool{}
	for _, c := range codes {
		allowed[c] = true
	}
	var cands []candidate
	seen := map[string]bool{}
	for _, d := range diagnostics {
		if len(d.Fixes) == 0 {
			continue
		}
		if len(allowed) > 0 && !allowed[d.Code] {
			continue
		}
		f := d.Fixes[0]
		// the same declaration may be reported by more than one run
		key := fmt.Sprintf("%s|%v|%v", d.Code.ID(), d.Pos, f.Edits)
		if seen[key] {
			continue
		}
		seen[key] = true
		cands = append(cands, candidate{diag: d, fix: f, order: len(cands)})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		pi, pj := cands[i].diag.Pos, cands[j].diag.Pos
		if pi.Filename != pj.Filename {
			return pi.Filename < pj.Filename
		}
		if pi.Line != pj.Line {
			return pi.Line < pj.Line
		}
		return pi.Column < pj.Column
	})
	for i := range cands {
		cands[i].order = i
	}
	return cands
}

// offsetOf returns the byte offset in src of the given position. The line and
// column are used when present since they survive being written to model
// files by hand; otherwise the position's offset is used.
func offsetOf(src []byte, pos token.Position) (int, error) {
	if pos.Line <= 0 {
		if pos.Offset < 0 || pos.Offset > len(src) {
			return 0, fmt.Errorf("offset %d is out of range", pos.Offset)
		}
		return pos.Offset, nil
	}
	offset := 0
	for line := 1; line < pos.Line; line++ {
		nl := bytes.IndexByte(src[offset:], '\n')
		if nl < 0 {
			return 0, fmt.Errorf("line %d is out of range", pos.Line)
		}
		offset += nl + 1
	}
	col := pos.Column
	if col < 1 {
		col = 1
	}
	end := len(src)
	if nl := bytes.IndexByte(src[offset:], '\n'); nl >= 0 {
		end = offset + nl
	}
	if offset+col-1 > end {
		return 0, fmt.Errorf("column %d is out of range for line %d", pos.Column, pos.Line)
	}
	return offset + col - 1, nil
}

// insert applies the given insertions to a copy of src. Insertions at the same
// offset keep their relative order.
func insert(src []byte, ins []insertion) []byte {
	sorted := append([]insertion(nil), ins...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].offset != sorted[j].offset {
			return sorted[i].offset > sorted[j].offset
		}
		return sorted[i].order > sorted[j].order
	})
	buf := append([]byte(nil), src...)
	for _, in := range sorted {
		suffix := append([]byte(nil), buf[in.offset:]...)
		buf = append(append(buf[:in.offset], in.text...), suffix...)
	}
	return buf
}
