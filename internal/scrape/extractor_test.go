package scrape

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDetailSession(dom map[string][]fakeElement) *fakeSession {
	f := newFakeSession()
	f.detailDOM = []map[string][]fakeElement{dom}
	f.current = 0
	return f
}

func TestExtractPlacePrimaryPass(t *testing.T) {
	f := newDetailSession(detailFor(
		"Green Acres Sod Farm",
		"1 Farm Rd, Anytown",
		"+1 555 0100",
		"4.6",
		"(1,234)",
		"https://greenacres.example.com",
		"https://lh3.googleusercontent.com/p/XYZ=s100-k-no",
	))

	place := NewExtractor(f, ZeroDelayPolicy{}).ExtractPlace(context.Background())

	assert.Equal(t, "Green Acres Sod Farm", place.Name)
	assert.Equal(t, "1 Farm Rd, Anytown", place.Address)
	assert.Equal(t, "+1 555 0100", place.Phone)
	require.True(t, place.HasRating())
	assert.Equal(t, 4.6, place.Rating)
	assert.Equal(t, 1234, place.ReviewsCount)
	assert.Equal(t, "https://greenacres.example.com", place.Website)
	assert.Equal(t, "https://lh3.googleusercontent.com/p/XYZ=s800", place.ImageURL)
}

func TestNameDefaultsToSentinel(t *testing.T) {
	f := newDetailSession(map[string][]fakeElement{})
	name := NewExtractor(f, ZeroDelayPolicy{}).Name(context.Background())
	assert.Equal(t, NameUnknown, name)
}

func TestNameProbeOrderShortCircuits(t *testing.T) {
	// Both the primary probe and the generic h1 fallback match; the primary
	// must win and the fallback never be consulted.
	f := newDetailSession(map[string][]fakeElement{
		nameProbes[0].Selector: {{text: "Primary Name"}},
		"h1":                   {{text: "Fallback Name"}},
	})
	name := NewExtractor(f, ZeroDelayPolicy{}).Name(context.Background())
	assert.Equal(t, "Primary Name", name)
}

func TestNameFallsThroughEmptyProbes(t *testing.T) {
	f := newDetailSession(map[string][]fakeElement{
		nameProbes[0].Selector: {{text: "   "}}, // whitespace only, fails validation
		"h1":                   {{text: "Real Name"}},
	})
	name := NewExtractor(f, ZeroDelayPolicy{}).Name(context.Background())
	assert.Equal(t, "Real Name", name)
}

func TestRatingOutOfRangeDiscarded(t *testing.T) {
	// First probe yields an out-of-range number; extraction must continue to
	// the next probe instead of erroring.
	f := newDetailSession(map[string][]fakeElement{
		ratingProbes[0].Selector: {{text: "9.9"}},
		ratingProbes[1].Selector: {{text: "4.2 stars"}},
	})
	rating, ok := NewExtractor(f, ZeroDelayPolicy{}).Rating(context.Background())
	require.True(t, ok)
	assert.Equal(t, 4.2, rating)
}

func TestRatingStarIconFallback(t *testing.T) {
	f := newDetailSession(map[string][]fakeElement{
		starIconSelector: {{}, {}, {}, {}},
	})
	rating, ok := NewExtractor(f, ZeroDelayPolicy{}).Rating(context.Background())
	require.True(t, ok)
	assert.Equal(t, 4.0, rating)
}

func TestRatingAbsent(t *testing.T) {
	f := newDetailSession(map[string][]fakeElement{})
	_, ok := NewExtractor(f, ZeroDelayPolicy{}).Rating(context.Background())
	assert.False(t, ok)
}

func TestReviewsCountStripsCommas(t *testing.T) {
	f := newDetailSession(map[string][]fakeElement{
		reviewsCountProbes[0].Selector: {{text: "(12,345 reviews)"}},
	})
	count, ok := NewExtractor(f, ZeroDelayPolicy{}).ReviewsCount(context.Background())
	require.True(t, ok)
	assert.Equal(t, 12345, count)
}

func TestWebsiteDenylistedHrefSkipped(t *testing.T) {
	// A probe hit pointing back at the platform must not become the website;
	// later probes still get their chance.
	f := newDetailSession(map[string][]fakeElement{
		websiteProbes[0].Selector: {{attrs: map[string]string{"href": "https://maps.google.com/elsewhere"}}},
		websiteProbes[2].Selector: {{attrs: map[string]string{"href": "https://example.com"}}},
	})
	place := NewExtractor(f, ZeroDelayPolicy{}).ExtractPlace(context.Background())
	assert.Equal(t, "https://example.com", place.Website)
}

func TestImageDataSrcPreferredOverSrc(t *testing.T) {
	f := newDetailSession(map[string][]fakeElement{
		imageProbes[0].Selector: {{attrs: map[string]string{
			"data-src": "https://lh3.googleusercontent.com/p/lazy",
			"src":      "https://lh3.googleusercontent.com/p/eager",
		}}},
	})
	place := NewExtractor(f, ZeroDelayPolicy{}).ExtractPlace(context.Background())
	assert.Equal(t, "https://lh3.googleusercontent.com/p/lazy=s800", place.ImageURL)
}

func TestWebsiteAdvancedFromDocumentSource(t *testing.T) {
	f := newDetailSession(map[string][]fakeElement{})
	f.detailHTML = []string{`<div>visit us at https://hidden-site.example.com/about today</div>`}

	site, ok := NewExtractor(f, ZeroDelayPolicy{}).WebsiteAdvanced(context.Background())
	require.True(t, ok)
	assert.Equal(t, "https://hidden-site.example.com/about", site)
}

func TestWebsiteAdvancedIgnoresPlatformURLsInSource(t *testing.T) {
	f := newDetailSession(map[string][]fakeElement{})
	f.detailHTML = []string{`<script src="https://maps.gstatic.com/app.js"></script>`}

	_, ok := NewExtractor(f, ZeroDelayPolicy{}).WebsiteAdvanced(context.Background())
	assert.False(t, ok)
}

func TestImageAdvancedScansGenericImages(t *testing.T) {
	f := newDetailSession(map[string][]fakeElement{
		imageFallbackSelectors[0]: {
			{attrs: map[string]string{"src": "https://lh3.googleusercontent.com/a/avatar1"}},
			{attrs: map[string]string{"src": "https://lh3.googleusercontent.com/p/business=s200-k"}},
		},
	})
	img, ok := NewExtractor(f, ZeroDelayPolicy{}).ImageAdvanced(context.Background())
	require.True(t, ok)
	assert.Equal(t, "https://lh3.googleusercontent.com/p/business=s800", img)
}
