// Package offsets tracks where every live element of a composed text sits.
//
// A Table owns one outer offset per binding plus a sequence of markers per
// binding. A marker stores its offset relative to the start of its binding
// and its position inside the sequence. Content edits shift relative offsets
// of right siblings and the outer offsets of later bindings; structural edits
// shift positions only.
package offsets

import "fmt"

// ID identifies a marker inside a Table. IDs of deleted markers are reused.
type ID int

type marker struct {
	outer int
	pos   int
	rel   int
	live  bool
}

// Table is the offset index of one bound instance.
type Table struct {
	// outer[i] is the absolute start of binding i; outer[len-1] is the
	// total length.
	outer   []int
	seqs    [][]ID
	markers []marker
	free    []ID
	live    int
}

// NewTable creates an index for the given number of bindings, all empty.
func NewTable(bindings int) *Table {
	return &Table{
		outer: make([]int, bindings+1),
		seqs:  make([][]ID, bindings),
	}
}

// Bindings returns the number of bindings.
func (t *Table) Bindings() int { return len(t.seqs) }

// Len returns the total length covered by all bindings.
func (t *Table) Len() int { return t.outer[len(t.outer)-1] }

// Live returns the number of live markers.
func (t *Table) Live() int { return t.live }

// Start returns the absolute start offset of binding outer.
func (t *Table) Start(outer int) int { return t.outer[outer] }

// BindingLength returns the length contributed by binding outer.
func (t *Table) BindingLength(outer int) int {
	return t.outer[outer+1] - t.outer[outer]
}

// SeqLen returns the number of markers in binding outer.
func (t *Table) SeqLen(outer int) int { return len(t.seqs[outer]) }

// At returns the marker at position pos of binding outer.
func (t *Table) At(outer, pos int) ID { return t.seqs[outer][pos] }

// Grow adds delta to the length of binding outer without touching its
// markers. It is used for bindings that carry no markers.
func (t *Table) Grow(outer, delta int) {
	for j := outer + 1; j < len(t.outer); j++ {
		t.outer[j] += delta
	}
}

// Insert creates a zero-length marker at position pos of binding outer.
// Markers at pos and beyond move one position to the right.
func (t *Table) Insert(outer, pos int) ID {
	seq := t.seqs[outer]
	if pos < 0 || pos > len(seq) {
		panic(fmt.Sprintf("offsets: insert position %d out of range [0, %d]", pos, len(seq)))
	}

	rel := t.BindingLength(outer)
	if pos < len(seq) {
		rel = t.markers[seq[pos]].rel
	}

	m := marker{outer: outer, pos: pos, rel: rel, live: true}
	var id ID
	if n := len(t.free); n > 0 {
		id = t.free[n-1]
		t.free = t.free[:n-1]
		t.markers[id] = m
	} else {
		id = ID(len(t.markers))
		t.markers = append(t.markers, m)
	}

	seq = append(seq, 0)
	copy(seq[pos+1:], seq[pos:])
	seq[pos] = id
	t.seqs[outer] = seq
	t.shiftPosition(outer, pos+1, 1)
	t.live++
	return id
}

// Delete removes a zero-length marker. Right siblings move one position to
// the left. Deleting a marker that still covers text is an engine bug.
func (t *Table) Delete(id ID) {
	m := t.get(id)
	if n := t.Length(id); n != 0 {
		panic(fmt.Sprintf("offsets: deleting marker %d that still covers %d bytes", id, n))
	}
	seq := t.seqs[m.outer]
	t.seqs[m.outer] = append(seq[:m.pos], seq[m.pos+1:]...)
	t.shiftPosition(m.outer, m.pos, -1)

	t.markers[id] = marker{}
	t.free = append(t.free, id)
	t.live--
}

// Absolute returns the absolute offset of the marker.
func (t *Table) Absolute(id ID) int {
	m := t.get(id)
	return t.outer[m.outer] + m.rel
}

// Length returns the text length covered by the marker.
func (t *Table) Length(id ID) int {
	m := t.get(id)
	seq := t.seqs[m.outer]
	if m.pos+1 < len(seq) {
		return t.markers[seq[m.pos+1]].rel - m.rel
	}
	return t.BindingLength(m.outer) - m.rel
}

// Position returns the marker's index inside its sequence.
func (t *Table) Position(id ID) int { return t.get(id).pos }

// Outer returns the binding index the marker belongs to.
func (t *Table) Outer(id ID) int { return t.get(id).outer }

// ShiftContent records that the marker's content changed length by delta.
func (t *Table) ShiftContent(id ID, delta int) {
	if delta == 0 {
		return
	}
	m := t.get(id)
	seq := t.seqs[m.outer]
	for _, sib := range seq[m.pos+1:] {
		t.markers[sib].rel += delta
	}
	t.Grow(m.outer, delta)
}

func (t *Table) shiftPosition(outer, from, delta int) {
	for _, sib := range t.seqs[outer][from:] {
		t.markers[sib].pos += delta
	}
}

func (t *Table) get(id ID) *marker {
	if int(id) < 0 || int(id) >= len(t.markers) || !t.markers[id].live {
		panic(fmt.Sprintf("offsets: marker %d is not live", id))
	}
	return &t.markers[id]
}

// Verify checks the structural invariants of the index against the length
// of the text it describes.
func (t *Table) Verify(textLen int) error {
	if t.outer[0] != 0 {
		return fmt.Errorf("outer offset 0 is %d, want 0", t.outer[0])
	}
	for i := 1; i < len(t.outer); i++ {
		if t.outer[i] < t.outer[i-1] {
			return fmt.Errorf("outer offsets decrease at binding %d: %d < %d", i, t.outer[i], t.outer[i-1])
		}
	}
	if t.Len() != textLen {
		return fmt.Errorf("bindings cover %d bytes, text has %d", t.Len(), textLen)
	}

	live := 0
	for outer, seq := range t.seqs {
		prev := 0
		for pos, id := range seq {
			if int(id) >= len(t.markers) || !t.markers[id].live {
				return fmt.Errorf("binding %d position %d holds dead marker %d", outer, pos, id)
			}
			m := t.markers[id]
			if m.outer != outer || m.pos != pos {
				return fmt.Errorf("marker %d records (%d,%d), found at (%d,%d)", id, m.outer, m.pos, outer, pos)
			}
			if pos == 0 && m.rel != 0 {
				return fmt.Errorf("first marker of binding %d has relative offset %d", outer, m.rel)
			}
			if m.rel < prev {
				return fmt.Errorf("binding %d relative offsets decrease at position %d", outer, pos)
			}
			prev = m.rel
			live++
		}
		if prev > t.BindingLength(outer) {
			return fmt.Errorf("binding %d marker offset %d beyond binding length %d", outer, prev, t.BindingLength(outer))
		}
	}
	if live != t.live {
		return fmt.Errorf("live marker count %d, sequences hold %d", t.live, live)
	}
	return nil
}
