package mustache

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// RenderFunc renders template text against the context of the section that
// received it.
type RenderFunc func(template string) (string, error)

// LambdaFunc is a higher-order section value. It receives the raw, unrendered
// text between the section tags and a RenderFunc bound to the current
// context. Its result is written without escaping.
type LambdaFunc func(text string, render RenderFunc) (string, error)

// Renderer compiles and renders templates. It owns a template cache and the
// default delimiters and escaper used when a call does not override them.
// All methods are safe for concurrent use; changing defaults while renders
// are in flight is allowed but racy by contract, so configure once.
type Renderer struct {
	mu       sync.RWMutex
	cache    Cache
	tags     Tags
	escape   EscapeFunc
	maxDepth int
	logger   *slog.Logger
}

// Option configures a Renderer in New.
type Option func(*Renderer)

// WithCache replaces the default MemoryCache. Pass NoCache{} to disable caching.
func WithCache(c Cache) Option {
	return func(r *Renderer) {
		if c != nil {
			r.cache = c
		}
	}
}

// WithLogger sets the logger. By default, all logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDefaultTags sets the delimiters used when a call does not pass WithTags.
func WithDefaultTags(t Tags) Option {
	return func(r *Renderer) { r.tags = t }
}

// WithDefaultEscape sets the escaper used when a call does not pass WithEscape.
// nil restores EscapeHTML.
func WithDefaultEscape(fn EscapeFunc) Option {
	return func(r *Renderer) { r.escape = fn }
}

// WithMaxPartialDepth limits how deeply partials may include each other.
// Zero, the default, means no limit: a partial that includes itself then
// recurses until the stack is exhausted.
func WithMaxPartialDepth(n int) Option {
	return func(r *Renderer) { r.maxDepth = n }
}

// New returns a Renderer with an empty MemoryCache, DefaultTags and HTML escaping.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		cache:  NewMemoryCache(),
		tags:   DefaultTags,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// RenderOption overrides renderer defaults for a single call.
type RenderOption func(*renderConfig)

type renderConfig struct {
	tags     Tags
	escape   EscapeFunc
	maxDepth int
}

// WithTags sets the delimiters for one call. They are part of the cache key.
func WithTags(t Tags) RenderOption {
	return func(c *renderConfig) { c.tags = t }
}

// WithEscape sets the escaper for one call. nil means EscapeHTML.
func WithEscape(fn EscapeFunc) RenderOption {
	return func(c *renderConfig) { c.escape = fn }
}

// WithPartialDepth sets the partial nesting limit for one call. Zero means
// no limit.
func WithPartialDepth(n int) RenderOption {
	return func(c *renderConfig) { c.maxDepth = n }
}

func (r *Renderer) config(opts []RenderOption) renderConfig {
	r.mu.RLock()
	cfg := renderConfig{tags: r.tags, escape: r.escape, maxDepth: r.maxDepth}
	r.mu.RUnlock()
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// SetLogger sets the logger for the Renderer. nil is ignored.
func (r *Renderer) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
}

// SetEscape replaces the default escaper. nil restores EscapeHTML.
func (r *Renderer) SetEscape(fn EscapeFunc) {
	r.mu.Lock()
	r.escape = fn
	r.mu.Unlock()
}

// SetTags replaces the default delimiters.
func (r *Renderer) SetTags(t Tags) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.tags = t
	r.mu.Unlock()
	return nil
}

// Tags returns the default delimiters.
func (r *Renderer) Tags() Tags {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tags
}

// ClearCache drops every compiled template.
func (r *Renderer) ClearCache() {
	n := r.cache.Len()
	r.cache.Clear()
	r.log().Debug("Template cache cleared", "entries", n)
}

// CacheLen returns the number of compiled templates held in the cache.
func (r *Renderer) CacheLen() int {
	return r.cache.Len()
}

func (r *Renderer) log() *slog.Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.logger
}

// Parse compiles template, or returns the cached tree for the same template
// and delimiters. The returned tokens are shared and must not be modified.
func (r *Renderer) Parse(template string, opts ...RenderOption) ([]Token, error) {
	return r.parse(template, r.config(opts).tags)
}

func (r *Renderer) parse(template string, tags Tags) ([]Token, error) {
	key := cacheKey(template, tags)
	if tokens, ok := r.cache.Get(key); ok {
		return tokens, nil
	}
	tokens, err := parseTemplate(template, tags)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, tokens)
	r.log().Debug("Template compiled", "bytes", len(template), "tokens", len(tokens), "tags", tags.String())
	return tokens, nil
}

// Render renders template with view. partials may be nil. view may be a
// *Context to continue an existing scope chain.
func (r *Renderer) Render(template string, view any, partials PartialLoader, opts ...RenderOption) (string, error) {
	cfg := r.config(opts)
	tokens, err := r.parse(template, cfg.tags)
	if err != nil {
		return "", err
	}
	st := &renderState{r: r, cfg: cfg, partials: partials}
	var sb strings.Builder
	if err = st.render(&sb, tokens, contextFor(view), source{text: template, ok: true}); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// RenderAny is Render for templates of unknown type, such as decoded JSON.
// A template that is not a string yields an *InvalidTemplateTypeError.
func (r *Renderer) RenderAny(template any, view any, partials PartialLoader, opts ...RenderOption) (string, error) {
	s, ok := template.(string)
	if !ok {
		return "", &InvalidTemplateTypeError{Got: typeName(template)}
	}
	return r.Render(s, view, partials, opts...)
}

// RenderTo renders template and writes the result to w.
func (r *Renderer) RenderTo(w io.Writer, template string, view any, partials PartialLoader, opts ...RenderOption) error {
	out, err := r.Render(template, view, partials, opts...)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// RenderTokens renders an already compiled tree. The source text is not
// known, so higher-order sections fail with *MissingOriginalTemplateError.
func (r *Renderer) RenderTokens(tokens []Token, view any, partials PartialLoader, opts ...RenderOption) (string, error) {
	st := &renderState{r: r, cfg: r.config(opts), partials: partials}
	var sb strings.Builder
	if err := st.render(&sb, tokens, contextFor(view), source{}); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func contextFor(view any) *Context {
	if c, ok := view.(*Context); ok && c != nil {
		return c
	}
	return NewContext(view)
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	if isSequence(v) {
		return "array"
	}
	return fmt.Sprintf("%T", v)
}

// source is the template text a token tree was compiled from.
type source struct {
	text string
	ok   bool
}

type renderState struct {
	r        *Renderer
	cfg      renderConfig
	partials PartialLoader
	depth    int
}

func (s *renderState) render(sb *strings.Builder, tokens []Token, ctx *Context, src source) error {
	for _, tok := range tokens {
		var err error
		switch t := tok.(type) {
		case *TextToken:
			sb.WriteString(t.Value)
		case *NameToken:
			s.escaped(sb, t.Name, ctx)
		case *UnescapedToken:
			if v := ctx.Lookup(t.Name); !isNil(v) {
				sb.WriteString(toString(v))
			}
		case *SectionToken:
			err = s.section(sb, t, ctx, src)
		case *InvertedToken:
			if IsFalsyForSection(ctx.Lookup(t.Name)) {
				err = s.render(sb, t.Children, ctx, src)
			}
		case *PartialToken:
			err = s.partial(sb, t, ctx)
		case *CommentToken, *DelimiterToken:
		default:
			err = fmt.Errorf("mustache: unexpected %s token", tok.Kind())
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *renderState) escaped(sb *strings.Builder, name string, ctx *Context) {
	v := ctx.Lookup(name)
	if isNil(v) {
		return
	}
	if s.cfg.escape == nil {
		if isNumber(v) {
			sb.WriteString(toString(v))
			return
		}
		sb.WriteString(EscapeHTML(toString(v)))
		return
	}
	sb.WriteString(s.cfg.escape(toString(v)))
}

func (s *renderState) section(sb *strings.Builder, t *SectionToken, ctx *Context, src source) error {
	value := ctx.Lookup(t.Name)
	if IsFalsyForSection(value) {
		return nil
	}

	if fn, ok := asLambda(value); ok {
		if !src.ok || t.CloseStart > len(src.text) || t.End > t.CloseStart {
			return &MissingOriginalTemplateError{Section: t.Name}
		}
		out, err := fn(src.text[t.End:t.CloseStart], s.subRender(ctx))
		if err != nil {
			return err
		}
		sb.WriteString(out)
		return nil
	}

	switch {
	case isSequence(value):
		return forEach(value, func(item any) error {
			return s.render(sb, t.Children, ctx.Push(item), src)
		})
	case isScope(value):
		return s.render(sb, t.Children, ctx.Push(value), src)
	default:
		return s.render(sb, t.Children, ctx, src)
	}
}

func (s *renderState) subRender(ctx *Context) RenderFunc {
	return func(template string) (string, error) {
		tokens, err := s.r.parse(template, s.cfg.tags)
		if err != nil {
			return "", err
		}
		var sb strings.Builder
		err = s.render(&sb, tokens, ctx, source{text: template, ok: true})
		return sb.String(), err
	}
}

func (s *renderState) partial(sb *strings.Builder, t *PartialToken, ctx *Context) error {
	if s.partials == nil {
		return nil
	}
	text, ok := s.partials.Partial(t.Name)
	if !ok {
		s.r.log().Debug("Partial not found", "partial", t.Name)
		return nil
	}
	if t.TagIndex == 0 && t.Indentation != "" {
		text = indentPartial(text, t.Indentation, t.LineHasNonSpace)
	}
	if s.cfg.maxDepth > 0 && s.depth >= s.cfg.maxDepth {
		return &PartialDepthError{Name: t.Name, Depth: s.cfg.maxDepth}
	}

	tokens, err := s.r.parse(text, s.cfg.tags)
	if err != nil {
		return fmt.Errorf("partial %q: %w", t.Name, err)
	}
	s.depth++
	defer func() { s.depth-- }()
	return s.render(sb, tokens, ctx, source{text: text, ok: true})
}

// indentPartial prefixes each non-empty line of partial with the spaces and
// tabs of indentation. The first line is skipped when text preceded the tag.
func indentPartial(partial, indentation string, lineHasNonSpace bool) string {
	indent := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' {
			return r
		}
		return -1
	}, indentation)
	lines := strings.Split(partial, "\n")
	for i, line := range lines {
		if line != "" && (i > 0 || !lineHasNonSpace) {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

func asLambda(v any) (LambdaFunc, bool) {
	switch f := v.(type) {
	case LambdaFunc:
		return f, f != nil
	case func(string, RenderFunc) (string, error):
		return f, f != nil
	case func(string, RenderFunc) string:
		if f == nil {
			return nil, false
		}
		return func(text string, render RenderFunc) (string, error) {
			return f(text, render), nil
		}, true
	}
	return nil, false
}
