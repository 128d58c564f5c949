package templating

import (
	"errors"
	"fmt"
	"strings"

	"github.com/CTAG07/Stache/pkg/mustache"
)

// TemplateConfig holds all configuration options for the templating engine.
type TemplateConfig struct {
	// Tags are the default opening and closing delimiters, e.g. ["{{", "}}"].
	// Templates may still switch delimiters inline with {{=<% %>=}}.
	Tags []string `json:"tags"`

	// EscapeHTML controls whether {{name}} output is HTML-escaped. When false,
	// values are written verbatim, as if every tag were {{{name}}}.
	EscapeHTML bool `json:"escape_html"`

	// CacheEnabled keeps compiled templates in memory between renders.
	CacheEnabled bool `json:"cache_enabled"`

	// MaxPartialDepth caps how deeply partials may include each other.
	// 0 disables the limit.
	MaxPartialDepth int `json:"max_partial_depth"`

	// TemplateExt is the file suffix of full templates in the template directory.
	TemplateExt string `json:"template_ext"`

	// PartialExt is the file suffix of partials in the template directory.
	// A file "header.part.mustache" is available as {{> header}}.
	PartialExt string `json:"partial_ext"`
}

// DefaultConfig returns a TemplateConfig with safe default values.
func DefaultConfig() *TemplateConfig {
	return &TemplateConfig{
		Tags:            []string{"{{", "}}"},
		EscapeHTML:      true,
		CacheEnabled:    true,
		MaxPartialDepth: 64,
		TemplateExt:     ".tmpl.mustache",
		PartialExt:      ".part.mustache",
	}
}

// Validate checks the config for values the engine cannot work with.
func (c *TemplateConfig) Validate() error {
	if _, err := c.tags(); err != nil {
		return err
	}
	if c.MaxPartialDepth < 0 {
		return errors.New("max_partial_depth must not be negative")
	}
	for _, ext := range []string{c.TemplateExt, c.PartialExt} {
		if len(ext) < 2 || !strings.HasPrefix(ext, ".") || strings.ContainsAny(ext, `/\`) {
			return fmt.Errorf("invalid file extension %q", ext)
		}
	}
	if c.TemplateExt == c.PartialExt {
		return errors.New("template_ext and partial_ext must differ")
	}
	return nil
}

func (c *TemplateConfig) tags() (mustache.Tags, error) {
	if len(c.Tags) == 0 {
		return mustache.DefaultTags, nil
	}
	return mustache.TagsFrom(c.Tags)
}

func (c *TemplateConfig) clone() *TemplateConfig {
	cp := *c
	cp.Tags = append([]string(nil), c.Tags...)
	return &cp
}
