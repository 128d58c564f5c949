package mustache

import (
	"regexp"
	"strings"
)

// Tags is an opening and closing delimiter pair.
type Tags [2]string

// DefaultTags are the standard mustache delimiters.
var DefaultTags = Tags{"{{", "}}"}

// Open returns the opening delimiter.
func (t Tags) Open() string { return t[0] }

// Close returns the closing delimiter.
func (t Tags) Close() string { return t[1] }

func (t Tags) String() string { return t[0] + " " + t[1] }

// Validate reports an *InvalidDelimiterError if either delimiter is empty.
func (t Tags) Validate() error {
	if t[0] == "" || t[1] == "" {
		return &InvalidDelimiterError{Tags: t[:]}
	}
	return nil
}

// TagsFrom builds a delimiter pair from a slice that must hold exactly two
// non-empty strings.
func TagsFrom(parts []string) (Tags, error) {
	if len(parts) != 2 {
		return Tags{}, &InvalidDelimiterError{Tags: parts}
	}
	t := Tags{parts[0], parts[1]}
	return t, t.Validate()
}

// ParseTags splits a whitespace separated pair such as "<% %>".
func ParseTags(s string) (Tags, error) {
	return TagsFrom(strings.Fields(s))
}

var (
	tagTypeRe = regexp.MustCompile(`\A[#^/>{&=!]`)
	whiteRe   = regexp.MustCompile(`\A\s*`)
	equalsRe  = regexp.MustCompile(`\s*=`)
	equalsAt  = regexp.MustCompile(`\A\s*=`)
	curlyAt   = regexp.MustCompile(`\A\s*\}`)
)

// tagPatterns holds the delimiter patterns for one delimiter pair. The *At
// variants are anchored at the cursor for Scanner.Scan.
type tagPatterns struct {
	tags         Tags
	opening      *regexp.Regexp
	openingAt    *regexp.Regexp
	closing      *regexp.Regexp
	closingAt    *regexp.Regexp
	closingCurly *regexp.Regexp
}

func compileTags(t Tags) (*tagPatterns, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	open := regexp.QuoteMeta(t[0]) + `\s*`
	closing := `\s*` + regexp.QuoteMeta(t[1])
	curly := `\s*` + regexp.QuoteMeta("}"+t[1])
	return &tagPatterns{
		tags:         t,
		opening:      regexp.MustCompile(open),
		openingAt:    regexp.MustCompile(`\A` + open),
		closing:      regexp.MustCompile(closing),
		closingAt:    regexp.MustCompile(`\A` + closing),
		closingCurly: regexp.MustCompile(curly),
	}, nil
}
