package mustache

// defaultRenderer backs the package-level functions.
var defaultRenderer = New()

// Default returns the shared Renderer used by the package-level functions.
func Default() *Renderer { return defaultRenderer }

// Render renders template with view using the default Renderer.
func Render(template string, view any, partials PartialLoader, opts ...RenderOption) (string, error) {
	return defaultRenderer.Render(template, view, partials, opts...)
}

// RenderAny renders a template of unknown type using the default Renderer.
func RenderAny(template any, view any, partials PartialLoader, opts ...RenderOption) (string, error) {
	return defaultRenderer.RenderAny(template, view, partials, opts...)
}

// Parse compiles and caches template in the default Renderer.
func Parse(template string, opts ...RenderOption) ([]Token, error) {
	return defaultRenderer.Parse(template, opts...)
}

// ClearCache drops every template cached by the default Renderer.
func ClearCache() { defaultRenderer.ClearCache() }

// SetEscape replaces the default Renderer's escaper. nil restores EscapeHTML.
func SetEscape(fn EscapeFunc) { defaultRenderer.SetEscape(fn) }

// SetTags replaces the default Renderer's delimiters.
func SetTags(t Tags) error { return defaultRenderer.SetTags(t) }
