package mustache

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// lineState tracks the current output line while tokenizing. It drives the
// standalone-tag rule and the indentation recorded on partial tokens.
type lineState struct {
	spaces          []int
	tagCount        int
	nonSpace        bool
	lineHasNonSpace bool
	tagIndex        int
	indentation     strings.Builder
}

type tokenizer struct {
	tokens   []Token
	sections []*Block
	line     lineState
	patterns *tagPatterns
}

// parseTemplate compiles template into a token tree using tags as the initial
// delimiters.
func parseTemplate(template string, tags Tags) ([]Token, error) {
	patterns, err := compileTags(tags)
	if err != nil {
		return nil, err
	}
	if template == "" {
		return nil, nil
	}

	tz := &tokenizer{patterns: patterns}
	if err = tz.run(template); err != nil {
		return nil, err
	}
	return nestTokens(squashTokens(tz.tokens)), nil
}

func (tz *tokenizer) run(template string) error {
	scanner := NewScanner(template)

	for !scanner.EOS() {
		start := scanner.Pos()
		if text := scanner.ScanUntil(tz.patterns.opening); text != "" {
			tz.text(text, start)
		}

		start = scanner.Pos()
		if scanner.Scan(tz.patterns.openingAt) == "" {
			break
		}

		tz.line.tagCount++
		kind := scanner.Scan(tagTypeRe)
		scanner.Scan(whiteRe)

		var value string
		switch kind {
		case "=":
			value = scanner.ScanUntil(equalsRe)
			scanner.Scan(equalsAt)
			scanner.ScanUntil(tz.patterns.closing)
		case "{":
			value = scanner.ScanUntil(tz.patterns.closingCurly)
			scanner.Scan(curlyAt)
			scanner.ScanUntil(tz.patterns.closing)
		default:
			value = scanner.ScanUntil(tz.patterns.closing)
		}

		if scanner.Scan(tz.patterns.closingAt) == "" {
			return &UnclosedTagError{Pos: scanner.Pos()}
		}

		pos := Pos{Start: start, End: scanner.Pos()}
		if err := tz.tag(kind, value, pos); err != nil {
			return err
		}
		tz.line.tagIndex++
	}

	tz.stripSpace()

	if n := len(tz.sections); n > 0 {
		return &UnclosedSectionError{Name: tz.sections[n-1].Name, Pos: scanner.Pos()}
	}
	return nil
}

// text emits a run of literal text starting at offset start. Whitespace and
// non-whitespace pieces become separate tokens so that whitespace on a
// standalone line can be dropped later.
func (tz *tokenizer) text(text string, start int) {
	for i := 0; i < len(text); {
		if text[i] == '\n' {
			tz.line.spaces = append(tz.line.spaces, len(tz.tokens))
			tz.tokens = append(tz.tokens, &TextToken{Pos: Pos{start + i, start + i + 1}, Value: "\n"})
			i++
			tz.stripSpace()
			tz.line.indentation.Reset()
			tz.line.tagIndex = 0
			tz.line.lineHasNonSpace = false
			continue
		}

		j, space := i, isSpaceAt(text, i)
		for j < len(text) && text[j] != '\n' && isSpaceAt(text, j) == space {
			_, size := utf8.DecodeRuneInString(text[j:])
			j += size
		}
		piece := text[i:j]
		if space {
			tz.line.spaces = append(tz.line.spaces, len(tz.tokens))
			tz.line.indentation.WriteString(piece)
		} else {
			tz.line.nonSpace = true
			tz.line.lineHasNonSpace = true
			tz.line.indentation.WriteString(strings.Repeat(" ", utf8.RuneCountInString(piece)))
		}
		tz.tokens = append(tz.tokens, &TextToken{Pos: Pos{start + i, start + j}, Value: piece})
		i = j
	}
}

func isSpaceAt(s string, i int) bool {
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsSpace(r)
}

// stripSpace drops the whitespace tokens of a line holding a single
// non-interpolating tag and nothing else, then resets the line state.
func (tz *tokenizer) stripSpace() {
	if tz.line.tagCount == 1 && !tz.line.nonSpace {
		for _, i := range tz.line.spaces {
			tz.tokens[i] = nil
		}
	}
	tz.line.spaces = tz.line.spaces[:0]
	tz.line.tagCount = 0
	tz.line.nonSpace = false
}

func (tz *tokenizer) tag(kind, value string, pos Pos) error {
	switch kind {
	case "#":
		tok := &SectionToken{Block: Block{Pos: pos, Name: value}}
		tz.sections = append(tz.sections, &tok.Block)
		tz.tokens = append(tz.tokens, tok)
	case "^":
		tok := &InvertedToken{Block: Block{Pos: pos, Name: value}}
		tz.sections = append(tz.sections, &tok.Block)
		tz.tokens = append(tz.tokens, tok)
	case "/":
		n := len(tz.sections)
		if n == 0 {
			return &UnopenedSectionError{Name: value, Pos: pos.Start}
		}
		open := tz.sections[n-1]
		tz.sections = tz.sections[:n-1]
		if open.Name != value {
			return &SectionMismatchError{Open: open.Name, Close: value, Pos: pos.Start}
		}
		tz.tokens = append(tz.tokens, &closeToken{Pos: pos, Name: value})
	case ">":
		tz.tokens = append(tz.tokens, &PartialToken{
			Pos:             pos,
			Name:            value,
			Indentation:     tz.line.indentation.String(),
			TagIndex:        tz.line.tagIndex,
			LineHasNonSpace: tz.line.lineHasNonSpace,
		})
	case "!":
		tz.tokens = append(tz.tokens, &CommentToken{Pos: pos, Value: value})
	case "=":
		tags, err := ParseTags(value)
		if err != nil {
			return err
		}
		if tz.patterns, err = compileTags(tags); err != nil {
			return err
		}
		tz.tokens = append(tz.tokens, &DelimiterToken{Pos: pos, Tags: tags})
	case "{", "&":
		tz.line.nonSpace = true
		tz.tokens = append(tz.tokens, &UnescapedToken{Pos: pos, Name: value, Triple: kind == "{"})
	default:
		tz.line.nonSpace = true
		tz.tokens = append(tz.tokens, &NameToken{Pos: pos, Name: value})
	}
	return nil
}
