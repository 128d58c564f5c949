package mustache

import "fmt"

// InvalidDelimiterError is returned when a delimiter pair is not exactly two
// non-empty strings.
type InvalidDelimiterError struct {
	Tags []string
}

func (e *InvalidDelimiterError) Error() string {
	return fmt.Sprintf("mustache: invalid tags: %q", e.Tags)
}

// UnclosedTagError is returned when the input ends, or the closing delimiter is
// missing, inside a tag.
type UnclosedTagError struct {
	Pos int
}

func (e *UnclosedTagError) Error() string {
	return fmt.Sprintf("mustache: unclosed tag at %d", e.Pos)
}

// UnopenedSectionError is returned for a closing tag with no open section.
type UnopenedSectionError struct {
	Name string
	Pos  int
}

func (e *UnopenedSectionError) Error() string {
	return fmt.Sprintf("mustache: unopened section %q at %d", e.Name, e.Pos)
}

// SectionMismatchError is returned when a closing tag does not match the
// innermost open section.
type SectionMismatchError struct {
	Open  string
	Close string
	Pos   int
}

func (e *SectionMismatchError) Error() string {
	return fmt.Sprintf("mustache: unclosed section %q at %d (found close of %q)", e.Open, e.Pos, e.Close)
}

// UnclosedSectionError is returned when the template ends with sections still open.
type UnclosedSectionError struct {
	Name string
	Pos  int
}

func (e *UnclosedSectionError) Error() string {
	return fmt.Sprintf("mustache: unclosed section %q at %d", e.Name, e.Pos)
}

// MissingOriginalTemplateError is returned when a lambda section is rendered
// from a token tree whose source text is not available.
type MissingOriginalTemplateError struct {
	Section string
}

func (e *MissingOriginalTemplateError) Error() string {
	return fmt.Sprintf("mustache: cannot use higher-order section %q without the original template", e.Section)
}

// InvalidTemplateTypeError is returned by RenderAny when the template is not a string.
type InvalidTemplateTypeError struct {
	Got string
}

func (e *InvalidTemplateTypeError) Error() string {
	return fmt.Sprintf("mustache: invalid template, expected a string but got %s", e.Got)
}

// PartialDepthError is returned when partial nesting exceeds the renderer's limit.
type PartialDepthError struct {
	Name  string
	Depth int
}

func (e *PartialDepthError) Error() string {
	return fmt.Sprintf("mustache: partial %q exceeds maximum nesting depth %d", e.Name, e.Depth)
}
