package livestring

import (
	"strings"
	"testing"

	"github.com/livefir/livestring/rx"
)

func strPtr(s string) *string { return &s }

func optional(v *rx.Var[*string]) rx.Observable[*string] { return v }

func topTemplate(r ItemRenderer[*string], opts ...Option) *Builder[*rx.Var[*string]] {
	return NewBuilder[*rx.Var[*string]](opts...).
		AppendLine("<top>").
		Add(Bind(optional, r)).
		Append("</top>")
}

func TestWrappedRenderer(t *testing.T) {
	rec := &recorder{}
	v := rx.NewVar(strPtr("top"))
	tmpl, err := topTemplate(Surrounded("|", "|\n", Wrapped(6, false, AsString[*string]()))).ToBoundTemplate(v, rec)
	if err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		value *string
		want  string
	}{
		{strPtr("top"), "<top>\n|top|\n</top>"},
		{nil, "<top>\n</top>"},
		{strPtr("ffffffffffff"), "<top>\n|ffffff\nffffff|\n</top>"},
		{strPtr("a\nb\n\nc"), "<top>\n|a b\nc|\n</top>"},
	}
	for _, step := range steps {
		v.Set(step.value)
		if tmpl.Text() != step.want {
			t.Errorf("expected %q, got %q", step.want, tmpl.Text())
		}
		assertConsistent(t, tmpl, rec)
	}
}

func TestWrapPreservingWords(t *testing.T) {
	in := "I am unable to see the contents of the Image AST Attribute and do regexp on it in XPath rules"
	want := strings.Join([]string{
		"I am unable",
		"to see the",
		"contents",
		"of the Image",
		"AST Attribute",
		"and do regexp",
		"on it in",
		"XPath rules",
	}, "\n")

	if got := wrapText(6, true, in); got != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestWrapCountsDisplayCells(t *testing.T) {
	if got := wrapText(4, false, "日本語です"); got != "日本\n語で\nす" {
		t.Errorf("unexpected wrap %q", got)
	}
	if got := wrapText(0, false, "unchanged"); got != "unchanged" {
		t.Errorf("expected no wrapping for width 0, got %q", got)
	}
}

func TestIndentedRenderer(t *testing.T) {
	v := rx.NewVar(strPtr("top"))
	r := Indented(2, Surrounded("<name>", "</name>\n", Raw(AsString[*string]())))
	tmpl, err := topTemplate(r, WithDefaultIndent("* ")).ToBoundTemplate(v)
	if err != nil {
		t.Fatal(err)
	}

	if want := "<top>\n* * <name>top</name>\n</top>"; tmpl.Text() != want {
		t.Errorf("expected %q, got %q", want, tmpl.Text())
	}

	v.Set(strPtr("a\n\nb"))
	if want := "<top>\n* * <name>a\n\n* * b</name>\n</top>"; tmpl.Text() != want {
		t.Errorf("expected blank lines to stay unindented, got %q", tmpl.Text())
	}

	if got := indentLines("> ", "x\ny"); got != "> x\n> y" {
		t.Errorf("unexpected indent %q", got)
	}
}

func TestEscaping(t *testing.T) {
	type page struct {
		Title *rx.Var[string]
		Rows  *rx.List[*row]
	}
	title := func(p *page) rx.Observable[string] { return p.Title }

	p := &page{
		Title: rx.NewVar("<b>&</b>"),
		Rows:  rx.NewList(&row{Name: rx.NewVar("x<y"), Num: 1}),
	}
	tmpl, err := NewBuilder[*page](WithDefaultEscape(HTMLEscape)).
		Add(BindString(title)).
		Append("|").
		Add(Bind(title, Raw(Identity()))).
		Append("|").
		Add(Bind(title, EscapedWith(strings.ToUpper, Identity()))).
		Append("|").
		Add(BindTemplatedSeq(func(p *page) rx.ObservableList[*row] { return p.Rows }, rowTemplate)).
		ToBoundTemplate(p)
	if err != nil {
		t.Fatal(err)
	}

	want := "&lt;b&gt;&amp;&lt;/b&gt;|<b>&</b>|<B>&</B>|<sub name='x&lt;y' num='1'/>\n"
	if tmpl.Text() != want {
		t.Errorf("expected %q, got %q", want, tmpl.Text())
	}
}

func TestTextTransforms(t *testing.T) {
	tests := []struct {
		name string
		r    ItemRenderer[string]
		in   string
		want string
	}{
		{"title cased", TitleCased(Identity()), "hello world", "Hello World"},
		{"normalized", Normalized(Identity()), "e\u0301t\u00e9", "\u00e9t\u00e9"},
		{"minified text", Minified(Identity()), "  a \n  b  ", "a b"},
		{"collapsed whitespace", CollapsedWhitespace(Identity()), "\ta  b\n", "a b"},
		{"surrounded", Surrounded("(", ")", Identity()), "x", "(x)"},
		{"mapped", Mapped(strings.ToUpper, Identity()), "abc", "ABC"},
		{"string func", AsStringFunc(func(s string) string { return s + s }), "ab", "abab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := rx.NewVar(tt.in)
			tmpl, err := NewBuilder[*rx.Var[string]]().
				Add(Bind(func(v *rx.Var[string]) rx.Observable[string] { return v }, tt.r)).
				ToBoundTemplate(v)
			if err != nil {
				t.Fatal(err)
			}
			if tmpl.Text() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, tmpl.Text())
			}
		})
	}
}

func TestMinifyHTML(t *testing.T) {
	got := MinifyHTML("<p>\n   hello   world\n</p>")
	if strings.Contains(got, "\n") || !strings.Contains(got, "hello world") {
		t.Errorf("expected minified markup, got %q", got)
	}
}

func TestAsString(t *testing.T) {
	n := 42
	var nilPtr *int
	tests := []struct {
		in   any
		want string
	}{
		{"s", "s"},
		{7, "7"},
		{&n, "42"},
		{nilPtr, ""},
		{nil, ""},
		{KindNested, "nested"},
	}
	for _, tt := range tests {
		if got := toString(tt.in); got != tt.want {
			t.Errorf("toString(%#v): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestDelimitedSequence(t *testing.T) {
	type nums struct{ List *rx.List[int] }
	rec := &recorder{}
	n := &nums{List: rx.NewList(10)}
	tmpl, err := NewBuilder[*nums]().
		Append("n=").
		Add(BindSeq(func(n *nums) rx.ObservableList[int] { return n.List },
			Delimited(AsString[int](), "[", "]", ", "))).
		Append(";").
		ToBoundTemplate(n, rec)
	if err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		name string
		op   func(l *rx.List[int])
		want string
	}{
		{"append", func(l *rx.List[int]) { l.Add(15) }, "n=[10, 15];"},
		{"prepend", func(l *rx.List[int]) { l.Insert(0, 5) }, "n=[5, 10, 15];"},
		{"remove middle", func(l *rx.List[int]) { l.RemoveAt(1) }, "n=[5, 15];"},
		{"set first", func(l *rx.List[int]) { l.Set(0, 7) }, "n=[7, 15];"},
		{"swap", func(l *rx.List[int]) { l.Swap(0, 1) }, "n=[15, 7];"},
		{"clear", func(l *rx.List[int]) { l.Clear() }, "n=[];"},
		{"fill", func(l *rx.List[int]) { l.SetAll(1, 2, 3) }, "n=[1, 2, 3];"},
		{"drop head", func(l *rx.List[int]) { l.RemoveRange(0, 2) }, "n=[3];"},
		{"replace all", func(l *rx.List[int]) { l.SetAll(8, 9) }, "n=[8, 9];"},
		{"remove tail", func(l *rx.List[int]) { l.RemoveAt(1) }, "n=[8];"},
	}

	if tmpl.Text() != "n=[10];" {
		t.Fatalf("unexpected initial text %q", tmpl.Text())
	}
	for _, step := range steps {
		step.op(n.List)
		if tmpl.Text() != step.want {
			t.Fatalf("%s: expected %q, got %q", step.name, step.want, tmpl.Text())
		}
		assertConsistent(t, tmpl, rec)
	}
}

func TestDelimitedAppendIsMinimal(t *testing.T) {
	rec := &recorder{}
	list := rx.NewList("a")
	tmpl, err := NewBuilder[*rx.List[string]]().
		Add(BindSeq(func(l *rx.List[string]) rx.ObservableList[string] { return l },
			Delimited(Identity(), "(", ")", "|"))).
		ToBoundTemplate(list, rec)
	if err != nil {
		t.Fatal(err)
	}

	rec.reset()
	list.Add("b")
	assertEvents(t, rec.events,
		ReplaceEvent{Start: 2, End: 2, Text: "|"},
		ReplaceEvent{Start: 3, End: 3, Text: "b"},
	)
	assertConsistent(t, tmpl, rec)
}

func TestMappingObservable(t *testing.T) {
	rec := &recorder{}
	a, b := &row{Name: rx.NewVar("a")}, &row{Name: rx.NewVar("b")}
	d := &doc{Rows: rx.NewList(a, b)}

	names := MappingObservable(func(r *row) rx.Observable[string] { return r.Name }, Identity())
	tmpl, err := NewBuilder[*doc]().
		Add(BindSeq(docRows, Delimited(names, "", ".", ", "))).
		ToBoundTemplate(d, rec)
	if err != nil {
		t.Fatal(err)
	}

	if tmpl.Text() != "a, b." {
		t.Fatalf("unexpected text %q", tmpl.Text())
	}

	b.Name.Set("bee")
	if tmpl.Text() != "a, bee." {
		t.Errorf("expected element to follow its observable, got %q", tmpl.Text())
	}

	d.Rows.RemoveAt(1)
	if b.Name.Observers() != 0 {
		t.Errorf("expected removed element to unsubscribe, got %d observers", b.Name.Observers())
	}
	b.Name.Set("gone")
	if tmpl.Text() != "a." {
		t.Errorf("unexpected text %q", tmpl.Text())
	}
	assertConsistent(t, tmpl, rec)
}

func TestNilObservableRendersEmpty(t *testing.T) {
	tmpl, err := NewBuilder[*person]().
		Append("[").
		Add(BindString(func(*person) rx.Observable[string] { return nil })).
		Add(BindStrings(func(*person) rx.ObservableList[string] { return nil })).
		Append("]").
		ToBoundTemplate(newPerson("x"))
	if err != nil {
		t.Fatal(err)
	}
	if tmpl.Text() != "[]" {
		t.Errorf("expected %q, got %q", "[]", tmpl.Text())
	}
	assertConsistent(t, tmpl, nil)
}
