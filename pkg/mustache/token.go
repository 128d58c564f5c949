package mustache

// Kind identifies the type of a Token.
type Kind int

const (
	KindText Kind = iota
	KindName
	KindUnescaped
	KindComment
	KindDelimiter
	KindSection
	KindInverted
	KindPartial
	kindClose
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindName:
		return "name"
	case KindUnescaped:
		return "&"
	case KindComment:
		return "!"
	case KindDelimiter:
		return "="
	case KindSection:
		return "#"
	case KindInverted:
		return "^"
	case KindPartial:
		return ">"
	case kindClose:
		return "/"
	}
	return "unknown"
}

// Token is one node of a compiled template. The concrete types are
// *TextToken, *NameToken, *UnescapedToken, *CommentToken, *DelimiterToken,
// *SectionToken, *InvertedToken and *PartialToken.
type Token interface {
	Kind() Kind
	// Span returns the byte offsets of the token in its source template.
	Span() (start, end int)
	token()
}

// Pos is the source span shared by all tokens.
type Pos struct {
	Start int
	End   int
}

func (p Pos) Span() (int, int) { return p.Start, p.End }
func (Pos) token()             {}

// TextToken is literal template text.
type TextToken struct {
	Pos
	Value string
}

func (*TextToken) Kind() Kind { return KindText }

// NameToken is an escaped interpolation, {{name}}.
type NameToken struct {
	Pos
	Name string
}

func (*NameToken) Kind() Kind { return KindName }

// UnescapedToken is a raw interpolation, {{&name}} or {{{name}}}.
type UnescapedToken struct {
	Pos
	Name   string
	Triple bool
}

func (*UnescapedToken) Kind() Kind { return KindUnescaped }

// CommentToken is {{! ... }}.
type CommentToken struct {
	Pos
	Value string
}

func (*CommentToken) Kind() Kind { return KindComment }

// DelimiterToken is a delimiter change, {{=<% %>=}}. Tags holds the new pair.
type DelimiterToken struct {
	Pos
	Tags Tags
}

func (*DelimiterToken) Kind() Kind { return KindDelimiter }

// Block is the part shared by sections and inverted sections. End is the
// offset just after the opening tag and CloseStart the offset of the closing
// tag, so src[End:CloseStart] is the raw section body.
type Block struct {
	Pos
	Name       string
	Children   []Token
	CloseStart int
}

// SectionToken is {{#name}}...{{/name}}.
type SectionToken struct {
	Block
}

func (*SectionToken) Kind() Kind { return KindSection }

// InvertedToken is {{^name}}...{{/name}}.
type InvertedToken struct {
	Block
}

func (*InvertedToken) Kind() Kind { return KindInverted }

// PartialToken is {{> name}}. Indentation is the whitespace in front of the
// tag on its line (non-space text counts as one space per rune), TagIndex the
// number of tags earlier on the same line and LineHasNonSpace whether text
// preceded the tag on that line.
type PartialToken struct {
	Pos
	Name            string
	Indentation     string
	TagIndex        int
	LineHasNonSpace bool
}

func (*PartialToken) Kind() Kind { return KindPartial }

// closeToken only exists between tokenizing and tree building.
type closeToken struct {
	Pos
	Name string
}

func (*closeToken) Kind() Kind { return kindClose }

// Walk calls fn for every token in depth-first document order. Returning
// false from fn skips the children of that token.
func Walk(tokens []Token, fn func(Token) bool) {
	for _, tok := range tokens {
		if !fn(tok) {
			continue
		}
		switch t := tok.(type) {
		case *SectionToken:
			Walk(t.Children, fn)
		case *InvertedToken:
			Walk(t.Children, fn)
		}
	}
}
