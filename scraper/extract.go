package scraper

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/pevans/kufarwatch/listing"
)

// Extract turns a page body into a listing set, choosing between the HTML and
// feed extractors according to cfg.Format. In auto mode, XML content types
// are treated as feeds and everything else as HTML.
func Extract(body []byte, contentType string, cfg ExtractConfig) (listing.Set, error) {
	format := cfg.Format
	if format == "" || format == FormatAuto {
		format = detectFormat(contentType)
	}

	switch format {
	case FormatFeed:
		return ExtractFeedListings(body, cfg)
	case FormatHTML:
		return ExtractListings(body, cfg)
	default:
		return nil, &ExtractionError{Value: format, Err: fmt.Errorf("unknown format")}
	}
}

// detectFormat picks the feed parser for RSS, Atom and generic XML media
// types. Everything else, including application/xhtml+xml, is HTML.
func detectFormat(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	switch {
	case strings.Contains(mediaType, "rss"), strings.Contains(mediaType, "atom"):
		return FormatFeed
	case mediaType == "application/xml", mediaType == "text/xml":
		return FormatFeed
	default:
		return FormatHTML
	}
}

// ExtractListings finds every link in an HTML page whose href matches the
// listing pattern. The link text becomes the title and the href, stripped of
// its query string and made absolute, becomes the URL. When several links
// point at the same ID the last one in document order wins.
func ExtractListings(body []byte, cfg ExtractConfig) (listing.Set, error) {
	re, err := cfg.compile()
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ExtractionError{Err: fmt.Errorf("failed to parse HTML: %w", err)}
	}

	listings := listing.Set{}
	var extractErr error
	doc.Find("a[href]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		l, ok, err := matchListing(re, href, s.Text(), cfg.Origin)
		if err != nil {
			extractErr = err
			return false
		}
		if ok {
			listings.Add(l)
		}
		return true
	})
	if extractErr != nil {
		return nil, extractErr
	}

	return listings, nil
}

// ExtractFeedListings applies the same matching rules as ExtractListings to
// the items of an RSS or Atom feed.
func ExtractFeedListings(body []byte, cfg ExtractConfig) (listing.Set, error) {
	re, err := cfg.compile()
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &ExtractionError{Err: fmt.Errorf("failed to parse feed: %w", err)}
	}

	listings := listing.Set{}
	for _, item := range feed.Items {
		l, ok, err := matchListing(re, item.Link, item.Title, cfg.Origin)
		if err != nil {
			return nil, err
		}
		if ok {
			listings.Add(l)
		}
	}

	return listings, nil
}

// matchListing builds a listing from a link if its href matches re.
func matchListing(re *regexp.Regexp, href, text, origin string) (listing.Listing, bool, error) {
	match := re.FindStringSubmatch(href)
	if match == nil {
		return listing.Listing{}, false, nil
	}

	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return listing.Listing{}, false, &ExtractionError{Value: match[1], Err: err}
	}

	return listing.Listing{
		ID:    id,
		Title: strings.Join(strings.Fields(text), " "),
		URL:   CanonicalURL(href, origin),
	}, true, nil
}

// CanonicalURL strips the query string from href and prefixes origin when
// href is relative.
func CanonicalURL(href, origin string) string {
	if i := strings.Index(href, "?"); i >= 0 {
		href = href[:i]
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	if origin == "" {
		origin = DefaultOrigin
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return strings.TrimSuffix(origin, "/") + href
}
