package livestring

import (
	"testing"

	"github.com/livefir/livestring/rx"
)

func TestBuilderMergesConstants(t *testing.T) {
	b := NewBuilder[*person]().
		Append("a").
		Append("").
		Add(Text[*person]("b")).
		EndLine().
		AppendIndent(2).
		AppendIndentWith("-", 0).
		Add(nil, BindString(personName)).
		AppendLine("!")

	tmpl, err := b.ToBoundTemplate(newPerson("x"))
	if err != nil {
		t.Fatal(err)
	}

	if want := "ab\n        x!\n"; tmpl.Text() != want {
		t.Errorf("expected %q, got %q", want, tmpl.Text())
	}
	kinds := tmpl.Kinds()
	if len(kinds) != 3 || kinds[0] != KindConstant || kinds[1] != KindScalar || kinds[2] != KindConstant {
		t.Errorf("expected merged constants around the scalar, got %v", kinds)
	}
	if tmpl.MarkerCount() != 1 {
		t.Errorf("expected one marker, got %d", tmpl.MarkerCount())
	}
}

func TestBuilderKinds(t *testing.T) {
	tmpl := NewBuilder[*doc]().
		Add(Bind(func(d *doc) rx.Observable[string] { return d.Title }, Identity())).
		Add(BindTemplatedSeq(docRows, rowTemplate)).
		Add(BindSeq(docRows, ForItems(Mapped(func(r *row) int { return r.Num }, AsString[int]())))).
		Add(BindTemplate(func(d *doc) rx.Observable[*row] { return rx.Const(d.Rows.At(0)) }, rowTemplate)).
		ToTemplate()

	want := []Kind{KindScalar, KindSequence, KindSequence, KindNested}
	got := tmpl.Kinds()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("binding %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestBuilderCopyAndConfigure(t *testing.T) {
	b := NewBuilder[*person](WithDefaultIndent("\t")).Append("x")
	cp := b.Copy().Configure(WithDefaultIndent("  ")).Append("y")

	if b.DefaultIndent() != "\t" || cp.DefaultIndent() != "  " {
		t.Errorf("expected independent settings, got %q and %q", b.DefaultIndent(), cp.DefaultIndent())
	}
	if NewBuilder[*person]().DefaultIndent() != DefaultIndent {
		t.Error("expected the default indent")
	}

	orig, err := b.ToBoundTemplate(newPerson(""))
	if err != nil {
		t.Fatal(err)
	}
	copied, err := cp.ToBoundTemplate(newPerson(""))
	if err != nil {
		t.Fatal(err)
	}
	if orig.Text() != "x" || copied.Text() != "xy" {
		t.Errorf("expected independent bindings, got %q and %q", orig.Text(), copied.Text())
	}
}

func TestTemplatesShareDefinitionNotState(t *testing.T) {
	b := greeting()
	one, err := b.ToBoundTemplate(newPerson("one"))
	if err != nil {
		t.Fatal(err)
	}
	two, err := b.ToBoundTemplate(newPerson("two"))
	if err != nil {
		t.Fatal(err)
	}

	one.SetDiffMode(false)
	if !two.DiffMode() {
		t.Error("expected settings to be per template")
	}
	if one.Text() != "Hello, one" || two.Text() != "Hello, two" {
		t.Errorf("unexpected texts %q and %q", one.Text(), two.Text())
	}
}

func TestToTemplateSubscription(t *testing.T) {
	rec := &recorder{}
	p := newPerson("Bob")
	sub, err := greeting().ToTemplateSubscription(p, rec)
	if err != nil {
		t.Fatal(err)
	}

	p.Name.Set("Ann")
	if rec.mirror != "Hello, Ann" {
		t.Errorf("expected %q, got %q", "Hello, Ann", rec.mirror)
	}

	sub.Unsubscribe()
	if rec.mirror != "" {
		t.Errorf("expected the text to be deleted, got %q", rec.mirror)
	}
	if p.Name.Observers() != 0 {
		t.Error("expected subscriptions to be released")
	}

	if _, err := greeting().ToTemplateSubscription(nil, rec); err == nil {
		t.Error("expected an error for a nil context")
	}
}
