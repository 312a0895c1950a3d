package diff

import (
	"sync"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

var (
	matcher *diffmatchpatch.DiffMatchPatch
	once    sync.Once
)

// getMatcher returns the shared diff-match-patch configuration (singleton)
func getMatcher() *diffmatchpatch.DiffMatchPatch {
	once.Do(func() {
		matcher = diffmatchpatch.New()
		// Large slices fall back to a coarser diff instead of stalling the
		// change that triggered them
		matcher.DiffTimeout = 250 * time.Millisecond
		matcher.DiffEditCost = 4
	})
	return matcher
}
