package scraper

import (
	"fmt"
	"regexp"
)

// Supported page formats.
const (
	FormatAuto = "auto"
	FormatHTML = "html"
	FormatFeed = "feed"
)

const (
	// DefaultOrigin is prefixed to relative listing links.
	DefaultOrigin = "https://re.kufar.by"

	// DefaultLinkPattern matches listing detail paths in the primary
	// category and in the dacha sub-category. The first capture group is the
	// listing ID.
	DefaultLinkPattern = `/dom(?:/dacha)?/(\d+)`

	// DefaultUserAgent is a browser-like user agent; the site serves a
	// reduced page to obvious bots.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
)

// ExtractConfig defines how listings are pulled out of a fetched page.
type ExtractConfig struct {
	Origin      string `yaml:"origin"`
	Format      string `yaml:"format"` // "auto", "html" or "feed"
	LinkPattern string `yaml:"link_pattern"`
}

// DefaultExtractConfig returns the configuration for the Kufar house listing
// pages.
func DefaultExtractConfig() ExtractConfig {
	return ExtractConfig{
		Origin:      DefaultOrigin,
		Format:      FormatAuto,
		LinkPattern: DefaultLinkPattern,
	}
}

// compile returns the link pattern as a regexp. An empty pattern falls back
// to DefaultLinkPattern.
func (c ExtractConfig) compile() (*regexp.Regexp, error) {
	pattern := c.LinkPattern
	if pattern == "" {
		pattern = DefaultLinkPattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid link pattern: %w", err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("invalid link pattern %q: needs a capture group for the listing ID", pattern)
	}

	return re, nil
}

// Validate checks the format and link pattern.
func (c ExtractConfig) Validate() error {
	switch c.Format {
	case "", FormatAuto, FormatHTML, FormatFeed:
	default:
		return fmt.Errorf("format must be auto, html or feed (got %q)", c.Format)
	}

	_, err := c.compile()
	return err
}
