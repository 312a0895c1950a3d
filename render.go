package livestring

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/livefir/livestring/rx"
)

// ItemRenderer turns a value into text, or into a nested template instance.
// Renderers are resolved against the builder settings when the template is
// compiled, so the default indent and escape apply at that point.
type ItemRenderer[T any] struct {
	build     func(cfg *settings) func(T) item
	templated bool
}

func (r ItemRenderer[T]) kind() Kind {
	if r.templated {
		return KindNested
	}
	return KindScalar
}

// AsString renders values with their string form: strings as-is, then
// fmt.Stringer, error, and fmt.Sprint. Nil renders as the empty string.
// The result is escaped with the default escape.
func AsString[T any]() ItemRenderer[T] {
	return AsStringFunc(func(v T) string { return toString(v) })
}

// AsStringFunc renders values with fn, escaped with the default escape.
// Nil values render as the empty string without calling fn.
func AsStringFunc[T any](fn func(T) string) ItemRenderer[T] {
	return ItemRenderer[T]{
		build: func(cfg *settings) func(T) item {
			return func(v T) item {
				if isNil(v) {
					return textItem("")
				}
				return textItem(cfg.escaped(fn(v)))
			}
		},
	}
}

// Identity renders strings as themselves, escaped with the default escape.
func Identity() ItemRenderer[string] {
	return AsStringFunc(func(s string) string { return s })
}

// Templated renders values through a sub-template declared by sub. Each
// rendered value gets its own nested instance, which is rebound in place
// when the value changes. The sub-template inherits the builder settings;
// its output is never escaped again.
func Templated[S any](sub func(*Builder[S])) ItemRenderer[S] {
	return ItemRenderer[S]{
		templated: true,
		build: func(cfg *settings) func(S) item {
			def := &lazyDefinition[S]{
				build: func() *definition[S] {
					b := newBuilderWith[S](cfg.clone())
					sub(b)
					return b.definition()
				},
			}
			return func(v S) item {
				return &nestedItem[S]{value: v, def: def}
			}
		},
	}
}

// MappingObservable renders the observable fn returns for each value,
// following it for as long as the value is bound.
func MappingObservable[T, R any](fn func(T) rx.Observable[R], r ItemRenderer[R]) ItemRenderer[T] {
	return ItemRenderer[T]{
		templated: r.templated,
		build: func(cfg *settings) func(T) item {
			inner := r.build(cfg)
			return func(v T) item {
				if isNil(v) {
					return textItem("")
				}
				src := fn(v)
				if isNil(src) {
					return textItem("")
				}
				return &observedItem[R]{src: src, render: inner}
			}
		},
	}
}

// Mapped renders fn(v) with r.
func Mapped[T, R any](fn func(T) R, r ItemRenderer[R]) ItemRenderer[T] {
	return ItemRenderer[T]{
		templated: r.templated,
		build: func(cfg *settings) func(T) item {
			inner := r.build(cfg)
			return func(v T) item { return inner(fn(v)) }
		},
	}
}

// EscapedWith renders with r using escape instead of the default escape.
// A nil escape disables escaping.
func EscapedWith[T any](escape func(string) string, r ItemRenderer[T]) ItemRenderer[T] {
	return ItemRenderer[T]{
		templated: r.templated,
		build: func(cfg *settings) func(T) item {
			c := cfg.clone()
			c.escape = escape
			return r.build(c)
		},
	}
}

// Raw renders with r without escaping.
func Raw[T any](r ItemRenderer[T]) ItemRenderer[T] {
	return EscapedWith(nil, r)
}

// transformed post-processes the text of r. Nil values render as the empty
// string, without the transformation.
func transformed[T any](r ItemRenderer[T], fn func(cfg *settings) func(string) string) ItemRenderer[T] {
	return ItemRenderer[T]{
		templated: r.templated,
		build: func(cfg *settings) func(T) item {
			inner := r.build(cfg)
			f := fn(cfg)
			return func(v T) item {
				if isNil(v) {
					return textItem("")
				}
				return inner(v).mapText(f)
			}
		},
	}
}

// Surrounded wraps the text of r between prefix and suffix.
func Surrounded[T any](prefix, suffix string, r ItemRenderer[T]) ItemRenderer[T] {
	return transformed(r, func(*settings) func(string) string {
		return func(s string) string { return prefix + s + suffix }
	})
}

// Indented prefixes every non-empty line of r's text with level repetitions
// of the default indent.
func Indented[T any](level int, r ItemRenderer[T]) ItemRenderer[T] {
	return transformed(r, func(cfg *settings) func(string) string {
		indent := strings.Repeat(cfg.indent, max(level, 0))
		return func(s string) string { return indentLines(indent, s) }
	})
}

// IndentedWith prefixes every non-empty line of r's text with indent.
func IndentedWith[T any](indent string, r ItemRenderer[T]) ItemRenderer[T] {
	return transformed(r, func(*settings) func(string) string {
		return func(s string) string { return indentLines(indent, s) }
	})
}

// Wrapped breaks r's text into lines of width display cells. Blank lines
// separate paragraphs, other line breaks are folded into spaces. With
// preserveWords, words are kept whole and a line takes words until it is
// wider than width.
func Wrapped[T any](width int, preserveWords bool, r ItemRenderer[T]) ItemRenderer[T] {
	return transformed(r, func(*settings) func(string) string {
		return func(s string) string { return wrapText(width, preserveWords, s) }
	})
}

// TitleCased title-cases r's text.
func TitleCased[T any](r ItemRenderer[T]) ItemRenderer[T] {
	return transformed(r, func(*settings) func(string) string {
		return func(s string) string { return cases.Title(language.Und).String(s) }
	})
}

// Normalized puts r's text in Unicode normalization form C.
func Normalized[T any](r ItemRenderer[T]) ItemRenderer[T] {
	return transformed(r, func(*settings) func(string) string {
		return norm.NFC.String
	})
}

// Minified minifies r's text as HTML.
func Minified[T any](r ItemRenderer[T]) ItemRenderer[T] {
	return transformed(r, func(*settings) func(string) string {
		return MinifyHTML
	})
}

// CollapsedWhitespace trims r's text and collapses whitespace runs into
// single spaces.
func CollapsedWhitespace[T any](r ItemRenderer[T]) ItemRenderer[T] {
	return transformed(r, func(*settings) func(string) string {
		return normalizeWhitespace
	})
}
