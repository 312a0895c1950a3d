package recombine

import (
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livefir/livestring/rx"
)

// recorder logs the lifecycle of every handle it creates.
type recorder struct {
	log     []string
	live    map[int]bool
	nextID  int
	created int
}

type handle struct {
	r     *recorder
	id    int
	value string
}

func newRecorder() *recorder {
	return &recorder{live: make(map[int]bool)}
}

func (r *recorder) factory(index int, v string) Handle[string] {
	r.nextID++
	r.created++
	r.live[r.nextID] = true
	r.log = append(r.log, fmt.Sprintf("new %d@%d=%s", r.nextID, index, v))
	return &handle{r: r, id: r.nextID, value: v}
}

func (h *handle) Rebind(v string) Handle[string] {
	h.r.log = append(h.r.log, fmt.Sprintf("rebind %d=%s", h.id, v))
	h.value = v
	return h
}

func (h *handle) Unsubscribe() {
	if !h.r.live[h.id] {
		panic("double unsubscribe")
	}
	delete(h.r.live, h.id)
	h.r.log = append(h.r.log, fmt.Sprintf("drop %d", h.id))
}

func values(h *ListHandle[string]) []string {
	var out []string
	for i := 0; i < h.Len(); i++ {
		out = append(out, h.At(i).(*handle).value)
	}
	return out
}

func TestMatchedSlotsAreRebound(t *testing.T) {
	r := newRecorder()
	list := rx.NewList("a", "b", "c")
	h := Recombine[string](list, r.factory)
	r.log = nil

	list.Set(1, "B")

	assert.Equal(t, []string{"rebind 2=B"}, r.log)
	assert.Equal(t, []string{"a", "B", "c"}, values(h))
	assert.Equal(t, 3, r.created)
}

func TestSurplusRemovalsAndAdditions(t *testing.T) {
	r := newRecorder()
	list := rx.NewList("a", "b", "c")
	h := Recombine[string](list, r.factory)
	r.log = nil

	list.Replace(0, 3, "x")
	assert.Equal(t, []string{"rebind 1=x", "drop 2", "drop 3"}, r.log)

	r.log = nil
	list.Replace(1, 1, "y", "z")
	assert.Equal(t, []string{"new 4@1=y", "new 5@2=z"}, r.log)
	assert.Equal(t, []string{"x", "y", "z"}, values(h))
}

func TestPermutationDefaultsToReordering(t *testing.T) {
	r := newRecorder()
	list := rx.NewList("a", "b", "c")
	h := Recombine[string](list, r.factory)
	r.log = nil

	list.Swap(0, 2)

	assert.Empty(t, r.log, "reordering emits no rebinds")
	assert.Equal(t, []string{"c", "b", "a"}, values(h))
}

func TestPermutationAsRebind(t *testing.T) {
	r := newRecorder()
	list := rx.NewList("a", "b", "c")
	h := Recombine[string](list, r.factory, WithPermutationRebind())
	r.log = nil

	list.Swap(0, 2)

	assert.Equal(t, []string{"rebind 1=c", "rebind 2=b", "rebind 3=a"}, r.log)
	assert.Equal(t, []string{"c", "b", "a"}, values(h))
}

func TestListRebind(t *testing.T) {
	r := newRecorder()
	first := rx.NewList("a", "b")
	h := Recombine[string](first, r.factory)
	r.log = nil

	second := rx.NewList("p", "q", "s")
	h.Rebind(second)
	assert.Equal(t, []string{"rebind 1=p", "rebind 2=q", "new 3@2=s"}, r.log)

	r.log = nil
	first.Add("ignored")
	assert.Empty(t, r.log, "old source is no longer tracked")

	h.Rebind(rx.ListOf("only"))
	assert.Equal(t, []string{"rebind 1=only", "drop 2", "drop 3"}, r.log)
}

func TestUnsubscribeReleasesEverything(t *testing.T) {
	r := newRecorder()
	list := rx.NewList("a", "b", "c")
	h := Recombine[string](list, r.factory)
	r.log = nil

	h.Unsubscribe()
	h.Unsubscribe()
	list.Add("d")

	assert.Equal(t, []string{"drop 3", "drop 2", "drop 1"}, r.log)
	assert.Empty(t, r.live)
	assert.Equal(t, 0, list.Observers())
}

func TestRandomChangesKeepOneHandlePerElement(t *testing.T) {
	faker := gofakeit.New(99)
	r := newRecorder()
	list := rx.NewList[string]()
	h := Recombine[string](list, r.factory)

	for step := 0; step < 300; step++ {
		n := list.Len()
		switch faker.IntRange(0, 3) {
		case 0:
			list.Insert(faker.IntRange(0, n), faker.Word())
		case 1:
			if n > 0 {
				list.RemoveAt(faker.IntRange(0, n-1))
			}
		case 2:
			if n > 0 {
				from := faker.IntRange(0, n-1)
				to := faker.IntRange(from, n)
				list.Replace(from, to, faker.Word(), faker.Word())
			}
		default:
			if n > 1 {
				list.Swap(faker.IntRange(0, n-1), faker.IntRange(0, n-1))
			}
		}

		require.Equal(t, list.Items(), values(h), "step %d", step)
		require.Len(t, r.live, list.Len(), "step %d", step)
	}
}
