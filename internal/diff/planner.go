// Package diff decides how a content change is emitted: as one whole-range
// replacement, or as several small patches derived from a character-level
// diff between the old and new text.
package diff

import (
	"fmt"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Edit is one replace operation on a text. Start and End are byte offsets
// into the text as it is just before this edit is applied.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Delta returns the change in text length caused by the edit.
func (e Edit) Delta() int {
	return len(e.Text) - (e.End - e.Start)
}

// Apply performs the edit on s.
func (e Edit) Apply(s string) string {
	return s[:e.Start] + e.Text + s[e.End:]
}

func (e Edit) String() string {
	return fmt.Sprintf("[%d,%d)=%q", e.Start, e.End, e.Text)
}

// Plan computes the edits that turn old, located at offset start of a larger
// text, into next.
//
// Equal inputs produce no edits. When minimal is false, either side is empty,
// or either side is not valid UTF-8, the result is a single edit covering the
// whole old range. Otherwise
// the edits come from a diff-match-patch run: they are ordered by ascending
// position and each edit's offsets already account for the length changes
// of the edits before it, so applying them one after another reproduces next.
func Plan(old, next string, start int, minimal bool) []Edit {
	if old == next {
		return nil
	}
	// The matcher works on runes, so invalid bytes would not map back to
	// byte offsets.
	if !minimal || old == "" || next == "" || !utf8.ValidString(old) || !utf8.ValidString(next) {
		return []Edit{{Start: start, End: start + len(old), Text: next}}
	}

	dmp := getMatcher()
	diffs := dmp.DiffMain(old, next, false)
	if len(diffs) > 2 {
		diffs = dmp.DiffCleanupSemantic(diffs)
		diffs = dmp.DiffCleanupEfficiency(diffs)
	}
	return collect(diffs, start)
}

// collect merges every run of adjacent deletions and insertions into one
// edit. pos tracks the current position in the partially edited text.
func collect(diffs []diffmatchpatch.Diff, pos int) []Edit {
	var (
		edits   []Edit
		deleted int
		pending []byte
		dirty   bool
	)
	flush := func() {
		if !dirty {
			return
		}
		edits = append(edits, Edit{Start: pos, End: pos + deleted, Text: string(pending)})
		pos += len(pending)
		deleted = 0
		pending = pending[:0]
		dirty = false
	}

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			pos += len(d.Text)
		case diffmatchpatch.DiffDelete:
			deleted += len(d.Text)
			dirty = true
		case diffmatchpatch.DiffInsert:
			pending = append(pending, d.Text...)
			dirty = true
		}
	}
	flush()
	return edits
}
