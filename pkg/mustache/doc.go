/*
Package mustache implements logic-less {{mustache}} templates.

A template is compiled once into a token tree (see Parse) and rendered against a view,
which may be any Go value: maps with string keys, structs, pointers, slices and funcs are
all understood. Compiled trees are cached per Renderer, keyed by the template text and the
delimiters in effect, so repeated renders of the same template skip the tokenizer.

Basic usage:

	out, err := mustache.Render("Hello {{name}}!", map[string]any{"name": "Chris"}, nil)

Partials are supplied by the caller through a PartialLoader, either a PartialMap or a
PartialFunc. Sections whose value is a LambdaFunc receive the raw inner template text and a
helper that renders text against the current context.

The package-level functions use a shared default Renderer. Configure it once at startup
(SetEscape, SetTags) and do not change it while renders are in flight. Programs that need
isolated caches or settings should construct their own Renderer with New.
*/
package mustache
