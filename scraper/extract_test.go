package scraper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingPage = `
<html>
	<body>
		<nav><a href="/l/r~minsk/kupit/dom">All houses</a></nav>
		<section>
			<a href="/vi/minsk/kupit/dom/100?rank=1&searchId=abc">
				House in   Minsk
			</a>
			<a href="https://re.kufar.by/vi/brest/kupit/dom/dacha/101?rank=2">Dacha near Brest</a>
			<a href="/vi/gomel/kupit/dom/102"></a>
			<a href="/vi/minsk/kupit/kvartiru/999">Flat</a>
			<a>No href</a>
		</section>
	</body>
</html>
`

// TestExtractListings_BothPathShapes verifies primary and dacha links
func TestExtractListings_BothPathShapes(t *testing.T) {
	listings, err := ExtractListings([]byte(listingPage), DefaultExtractConfig())
	require.NoError(t, err)

	assert.Equal(t, []int64{102, 101, 100}, listings.IDsDescending())

	assert.Equal(t, "House in Minsk", listings[100].Title, "should normalize whitespace")
	assert.Equal(t, "https://re.kufar.by/vi/minsk/kupit/dom/100", listings[100].URL)

	assert.Equal(t, "Dacha near Brest", listings[101].Title)
	assert.Equal(t, "https://re.kufar.by/vi/brest/kupit/dom/dacha/101", listings[101].URL)

	assert.Equal(t, "", listings[102].Title, "empty link text is allowed")
}

// TestExtractListings_LastWins verifies duplicate IDs keep the last link
func TestExtractListings_LastWins(t *testing.T) {
	html := `
	<div>
		<a href="/dom/7">Photo</a>
		<a href="/dom/7?x=1">Full title</a>
	</div>
	`

	listings, err := ExtractListings([]byte(html), DefaultExtractConfig())
	require.NoError(t, err)

	require.Len(t, listings, 1)
	assert.Equal(t, "Full title", listings[7].Title)
	assert.Equal(t, "https://re.kufar.by/dom/7", listings[7].URL)
}

// TestExtractListings_Deterministic verifies repeated extraction is stable
func TestExtractListings_Deterministic(t *testing.T) {
	first, err := ExtractListings([]byte(listingPage), DefaultExtractConfig())
	require.NoError(t, err)
	second, err := ExtractListings([]byte(listingPage), DefaultExtractConfig())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// TestExtractListings_NoMatches verifies an empty set for unrelated pages
func TestExtractListings_NoMatches(t *testing.T) {
	listings, err := ExtractListings([]byte(`<p>nothing here</p>`), DefaultExtractConfig())
	require.NoError(t, err)
	assert.Empty(t, listings)
}

// TestExtractListings_CustomOrigin verifies the origin prefix
func TestExtractListings_CustomOrigin(t *testing.T) {
	cfg := DefaultExtractConfig()
	cfg.Origin = "http://localhost:8080/"

	listings, err := ExtractListings([]byte(`<a href="/dom/3">x</a>`), cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/dom/3", listings[3].URL)
}

// TestExtractListings_Overflow verifies unparseable IDs fail extraction
func TestExtractListings_Overflow(t *testing.T) {
	html := `<a href="/dom/99999999999999999999999">too big</a>`

	_, err := ExtractListings([]byte(html), DefaultExtractConfig())
	require.Error(t, err)

	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, "99999999999999999999999", extractErr.Value)
}

// TestExtractListings_InvalidPattern verifies pattern validation
func TestExtractListings_InvalidPattern(t *testing.T) {
	cfg := DefaultExtractConfig()
	cfg.LinkPattern = `/dom/\d+`

	_, err := ExtractListings([]byte(listingPage), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capture group")
}

const listingFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
	<channel>
		<title>Kufar houses</title>
		<item>
			<title>House 200</title>
			<link>https://re.kufar.by/vi/minsk/kupit/dom/200?utm=rss</link>
		</item>
		<item>
			<title>Dacha 201</title>
			<link>/vi/minsk/kupit/dom/dacha/201</link>
		</item>
		<item>
			<title>Flat</title>
			<link>https://re.kufar.by/vi/minsk/kupit/kvartiru/5</link>
		</item>
	</channel>
</rss>
`

// TestExtractFeedListings verifies RSS items are matched like links
func TestExtractFeedListings(t *testing.T) {
	listings, err := ExtractFeedListings([]byte(listingFeed), DefaultExtractConfig())
	require.NoError(t, err)

	assert.Equal(t, []int64{201, 200}, listings.IDsDescending())
	assert.Equal(t, "House 200", listings[200].Title)
	assert.Equal(t, "https://re.kufar.by/vi/minsk/kupit/dom/200", listings[200].URL)
	assert.Equal(t, "https://re.kufar.by/vi/minsk/kupit/dom/dacha/201", listings[201].URL)
}

// TestExtractFeedListings_Invalid verifies unparseable feeds fail
func TestExtractFeedListings_Invalid(t *testing.T) {
	_, err := ExtractFeedListings([]byte("not a feed"), DefaultExtractConfig())

	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
}

// TestExtract_FormatDetection verifies auto format selection
func TestExtract_FormatDetection(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		want        []int64
	}{
		{"html", listingPage, "text/html; charset=utf-8", []int64{102, 101, 100}},
		{"rss", listingFeed, "application/rss+xml", []int64{201, 200}},
		{"xml", listingFeed, "text/xml", []int64{201, 200}},
		{"application xml with charset", listingFeed, "Application/XML; charset=utf-8", []int64{201, 200}},
		{"atom", listingFeed, "application/atom+xml", []int64{201, 200}},
		{"xhtml", listingPage, "application/xhtml+xml; charset=utf-8", []int64{102, 101, 100}},
		{"no content type", listingPage, "", []int64{102, 101, 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listings, err := Extract([]byte(tt.body), tt.contentType, DefaultExtractConfig())
			require.NoError(t, err)
			assert.Equal(t, tt.want, listings.IDsDescending())
		})
	}
}

// TestExtract_ForcedFormat verifies an explicit format overrides detection
func TestExtract_ForcedFormat(t *testing.T) {
	cfg := DefaultExtractConfig()
	cfg.Format = FormatFeed

	listings, err := Extract([]byte(listingFeed), "text/html", cfg)
	require.NoError(t, err)
	assert.Len(t, listings, 2)
}

// TestCanonicalURL verifies query stripping and origin prefixing
func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"/dom/1?a=b", "https://re.kufar.by/dom/1"},
		{"dom/1", "https://re.kufar.by/dom/1"},
		{"https://re.kufar.by/dom/1?a=b&c=d", "https://re.kufar.by/dom/1"},
		{"http://other.example/dom/1", "http://other.example/dom/1"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalURL(tt.href, DefaultOrigin), tt.href)
	}
}

// TestExtractConfig_Validate verifies format validation
func TestExtractConfig_Validate(t *testing.T) {
	cfg := DefaultExtractConfig()
	require.NoError(t, cfg.Validate())

	cfg.Format = "json"
	assert.Error(t, cfg.Validate())

	cfg = DefaultExtractConfig()
	cfg.LinkPattern = "("
	assert.Error(t, cfg.Validate())
}
