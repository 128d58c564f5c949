package mustache

// squashTokens merges runs of adjacent text tokens and drops the nil slots
// left behind by standalone-line stripping.
func squashTokens(tokens []Token) []Token {
	squashed := make([]Token, 0, len(tokens))
	var last *TextToken
	for _, tok := range tokens {
		if tok == nil {
			continue
		}
		text, ok := tok.(*TextToken)
		if !ok {
			squashed = append(squashed, tok)
			last = nil
			continue
		}
		if last != nil {
			last.Value += text.Value
			last.End = text.End
			continue
		}
		last = &TextToken{Pos: text.Pos, Value: text.Value}
		squashed = append(squashed, last)
	}
	return squashed
}

// nestTokens folds a balanced flat token list into a tree. Each section
// collects the tokens up to its close tag, and the close tag's start offset
// becomes the section's CloseStart.
func nestTokens(tokens []Token) []Token {
	var root []Token
	collector := &root
	var sections []*Block

	for _, tok := range tokens {
		switch t := tok.(type) {
		case *SectionToken:
			*collector = append(*collector, t)
			sections = append(sections, &t.Block)
			collector = &t.Children
		case *InvertedToken:
			*collector = append(*collector, t)
			sections = append(sections, &t.Block)
			collector = &t.Children
		case *closeToken:
			n := len(sections)
			sections[n-1].CloseStart = t.Start
			sections = sections[:n-1]
			if n > 1 {
				collector = &sections[n-2].Children
			} else {
				collector = &root
			}
		default:
			*collector = append(*collector, tok)
		}
	}
	return root
}
