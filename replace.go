package livestring

import (
	"fmt"

	"github.com/livefir/livestring/rx"
)

// ReplaceHandler receives every change applied to a template's text.
// start and end index the text as it was before the change.
type ReplaceHandler interface {
	Replace(start, end int, text string) error
}

// ReplaceFunc adapts a function to ReplaceHandler.
type ReplaceFunc func(start, end int, text string) error

func (f ReplaceFunc) Replace(start, end int, text string) error {
	return f(start, end, text)
}

// Insert delivers an insertion of text at offset to h.
func Insert(h ReplaceHandler, at int, text string) error {
	return h.Replace(at, at, text)
}

// Delete delivers the removal of [start, end) to h.
func Delete(h ReplaceHandler, start, end int) error {
	return h.Replace(start, end, "")
}

// ReplaceEvent describes one change already applied to a text.
type ReplaceEvent struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// IsInsertion reports whether the event only adds text.
func (e ReplaceEvent) IsInsertion() bool {
	return e.Start == e.End && e.Text != ""
}

// IsDeletion reports whether the event only removes text.
func (e ReplaceEvent) IsDeletion() bool {
	return e.Start < e.End && e.Text == ""
}

// Apply performs the event on text, the value it was computed against.
func (e ReplaceEvent) Apply(text string) string {
	return text[:e.Start] + e.Text + text[e.End:]
}

func (e ReplaceEvent) String() string {
	return fmt.Sprintf("replace(%d, %d, %q)", e.Start, e.End, e.Text)
}

// handlerSet is the external handler registry of a template.
type handlerSet struct {
	entries []*handlerEntry
	nextID  int
}

type handlerEntry struct {
	id      int
	handler ReplaceHandler
}

func (s *handlerSet) add(h ReplaceHandler) (*handlerEntry, rx.Subscription) {
	s.nextID++
	e := &handlerEntry{id: s.nextID, handler: h}
	s.entries = append(s.entries, e)
	return e, rx.SubscriptionFunc(func() { s.remove(e) })
}

func (s *handlerSet) remove(e *handlerEntry) {
	for i, x := range s.entries {
		if x == e {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			return
		}
	}
}

func (s *handlerSet) snapshot() []*handlerEntry {
	return append([]*handlerEntry(nil), s.entries...)
}
