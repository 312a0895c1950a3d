package livestring

import (
	"strings"

	"github.com/livefir/livestring/rx"
)

// Binding is one declared slot of a template. Bindings are created with
// Bind, BindSeq, BindTemplate and their variants, and added to a Builder.
type Binding[D any] interface {
	compile(cfg *settings) compiled[D]
}

type constantBinding[D any] string

func (c constantBinding[D]) compile(*settings) compiled[D] {
	return compiled[D]{kind: KindConstant, text: string(c)}
}

// Builder declares the ordered bindings of a template over data contexts of
// type D.
type Builder[D any] struct {
	cfg   *settings
	parts []Binding[D]
}

// NewBuilder creates an empty builder.
func NewBuilder[D any](opts ...Option) *Builder[D] {
	return newBuilderWith[D](defaultSettings(), opts...)
}

func newBuilderWith[D any](cfg *settings, opts ...Option) *Builder[D] {
	b := &Builder[D]{cfg: cfg}
	for _, opt := range opts {
		opt(b.cfg)
	}
	return b
}

// Configure applies options to the builder.
func (b *Builder[D]) Configure(opts ...Option) *Builder[D] {
	for _, opt := range opts {
		opt(b.cfg)
	}
	return b
}

// DefaultIndent returns the indent unit of the builder.
func (b *Builder[D]) DefaultIndent() string {
	return b.cfg.indent
}

// Append adds constant text. Consecutive constants are merged into one
// binding and empty text is ignored.
func (b *Builder[D]) Append(text string) *Builder[D] {
	if text == "" {
		return b
	}
	if n := len(b.parts); n > 0 {
		if prev, ok := b.parts[n-1].(constantBinding[D]); ok {
			b.parts[n-1] = prev + constantBinding[D](text)
			return b
		}
	}
	b.parts = append(b.parts, constantBinding[D](text))
	return b
}

// AppendLine adds text followed by a newline.
func (b *Builder[D]) AppendLine(text string) *Builder[D] {
	return b.Append(text + "\n")
}

// EndLine adds a newline.
func (b *Builder[D]) EndLine() *Builder[D] {
	return b.Append("\n")
}

// AppendIndent adds level repetitions of the default indent.
func (b *Builder[D]) AppendIndent(level int) *Builder[D] {
	return b.AppendIndentWith(b.cfg.indent, level)
}

// AppendIndentWith adds level repetitions of indent.
func (b *Builder[D]) AppendIndentWith(indent string, level int) *Builder[D] {
	if level <= 0 {
		return b
	}
	return b.Append(strings.Repeat(indent, level))
}

// Add appends bindings in order. Nil bindings are skipped.
func (b *Builder[D]) Add(bindings ...Binding[D]) *Builder[D] {
	for _, binding := range bindings {
		if binding == nil {
			continue
		}
		if c, ok := binding.(constantBinding[D]); ok {
			b.Append(string(c))
			continue
		}
		b.parts = append(b.parts, binding)
	}
	return b
}

// Copy returns an independent builder with the same bindings and settings.
func (b *Builder[D]) Copy() *Builder[D] {
	return &Builder[D]{
		cfg:   b.cfg.clone(),
		parts: append([]Binding[D](nil), b.parts...),
	}
}

func (b *Builder[D]) definition() *definition[D] {
	bindings := make([]compiled[D], len(b.parts))
	for i, p := range b.parts {
		bindings[i] = p.compile(b.cfg)
	}
	return newDefinition(bindings)
}

// ToTemplate compiles the builder into an unbound template.
func (b *Builder[D]) ToTemplate() *Template[D] {
	def := b.definition()
	b.cfg.logger.Debug("template compiled", "bindings", len(def.bindings), "constants", def.static.count())
	return newTemplate(def, b.cfg.clone())
}

// ToBoundTemplate compiles the builder and attaches the template to ctx.
// The handlers are registered before attaching and receive the initial
// insertion.
func (b *Builder[D]) ToBoundTemplate(ctx D, handlers ...ReplaceHandler) (*Template[D], error) {
	t := b.ToTemplate()
	for _, h := range handlers {
		t.AddReplaceHandler(h)
	}
	if err := t.SetDataContext(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// ToTemplateSubscription binds a fresh template to ctx and returns a
// subscription that detaches it. The template itself is not exposed, so
// the handlers are the only way to observe the text.
func (b *Builder[D]) ToTemplateSubscription(ctx D, handlers ...ReplaceHandler) (rx.Subscription, error) {
	t, err := b.ToBoundTemplate(ctx, handlers...)
	if err != nil {
		return nil, err
	}
	return rx.SubscriptionFunc(t.Detach), nil
}
