package scrape

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/map-harvest/harvest/internal/browser"
	"github.com/map-harvest/harvest/pkg/models"
)

// Selectors shared with the orchestrator and pager.
const (
	searchBoxSelector    = "input#searchboxinput"
	resultLinkSelector   = `a[href*="/maps/place/"]`
	resultsPanelSelector = `div[role="main"]`
	starIconSelector     = `span.hCCjke`
)

// Sentinel values a name extraction can produce; the orchestrator rejects
// records carrying them.
const (
	NameUnknown = "Unknown"
	NameFailed  = "Failed to extract"
)

var (
	decimalRe = regexp.MustCompile(`(\d+\.?\d*)`)
	integerRe = regexp.MustCompile(`(\d+)`)
)

// The selector lists below are ordered by observed reliability; the first
// probe that yields a validated value wins.
var nameProbes = []Probe{
	{Selector: `h1[data-attrid="title"]`},
	{Selector: "h1.DUwDvf"},
	{Selector: `[data-attrid="title"] h1`},
	{Selector: "h1.x3AX1-LfntMc-header-title-title"},
	{Selector: ".x3AX1-LfntMc-header-title h1"},
	{Selector: "h1"},
	{Selector: ".qrShPb h1"},
	{Selector: ".SPZz6b h1"},
}

var addressProbes = []Probe{
	{Selector: `[data-item-id="address"] .Io6YTe`},
	{Selector: `.Io6YTe[data-value="Address"]`},
	{Selector: `button[data-item-id="address"]`},
	{Selector: `[data-attrid="kc:/location/location:address"]`},
	{Selector: ".rogA2c .Io6YTe"},
	{Selector: `[data-item-id="address"] span`},
}

var phoneProbes = []Probe{
	{Selector: `[data-item-id^="phone"] .Io6YTe`},
	{Selector: `button[data-item-id^="phone"]`},
	{Selector: `a[href^="tel:"]`},
	{Selector: `[data-item-id*="phone"] span`},
	{Selector: `.rogA2c a[href^="tel:"]`},
}

var ratingProbes = []Probe{
	{Selector: ".MW4etd"},
	{Selector: ".ceNzKf"},
	{Selector: ".fontDisplayLarge"},
	{Selector: `span.ceNzKf[aria-hidden="true"]`},
}

var reviewsCountProbes = []Probe{
	{Selector: ".UY7F9"},
	{Selector: `button[aria-label*="reviews"]`},
	{Selector: ".fontTitleSmall .UY7F9"},
	{Selector: "span.UY7F9"},
}

var websiteProbes = []Probe{
	{Selector: `a[data-item-id="authority"]`, Attrs: []string{"href"}},
	{Selector: `a[aria-label*="Website"]`, Attrs: []string{"href"}},
	{Selector: `a[data-value="Website"]`, Attrs: []string{"href"}},
	{Selector: `[data-item-id="authority"] a[href]`, Attrs: []string{"href"}},
	{Selector: `.rogA2c a[href^="http"]`, Attrs: []string{"href"}},
	{Selector: `.CsEnBe a[href^="http"]`, Attrs: []string{"href"}},
}

var imageProbes = []Probe{
	{Selector: `img[data-src*="googleusercontent.com"]`, Attrs: []string{"data-src", "src"}},
	{Selector: `img[src*="googleusercontent.com"]`, Attrs: []string{"src"}},
	{Selector: `button img[src*="googleusercontent.com"]`, Attrs: []string{"src"}},
	{Selector: ".ZKCDEc img", Attrs: []string{"data-src", "src"}},
	{Selector: ".UCw5gc img", Attrs: []string{"data-src", "src"}},
	{Selector: `[data-photo-index="0"] img`, Attrs: []string{"data-src", "src"}},
	{Selector: `img[alt*="Photo"]`, Attrs: []string{"data-src", "src"}},
	{Selector: `img[src*="streetviewpixels"]`, Attrs: []string{"src"}},
	{Selector: `img[src*="places"]`, Attrs: []string{"src"}},
}

// Broader, more permissive sets used by the advanced second pass. The
// advanced pass only runs when the primary pass left the field empty and
// never overrides a primary value.
var websiteAdvancedProbes = []Probe{
	{Selector: `button[data-item-id="authority"]`, Attrs: []string{"href"}},
	{Selector: `[data-item-id="authority"] a`, Attrs: []string{"href"}},
	{Selector: `a[jsaction*="website"]`, Attrs: []string{"href"}},
	{Selector: `.RcCsl a[href^="http"]`, Attrs: []string{"href"}},
}

var websiteRevealButtons = []string{
	`button[data-value*="Website"]`,
	`[aria-label*="website"]`,
}

var imageAdvancedProbes = []Probe{
	{Selector: ".section-image img", Attrs: []string{"data-src", "src"}},
	{Selector: ".photo-container img", Attrs: []string{"data-src", "src"}},
	{Selector: `[data-value*="photo"] img`, Attrs: []string{"data-src", "src"}},
	{Selector: ".RZ66Rb img", Attrs: []string{"data-src", "src"}},
}

var imageFallbackSelectors = []string{
	`img[src*="http"]`,
	`img[data-src*="http"]`,
}

// websiteContentRe finds candidate site URLs in the rendered document source,
// used only by the advanced website pass.
var websiteContentRe = regexp.MustCompile(`https?://(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}(?:/[^\s"'<>]*)?`)

// Extractor pulls per-field values from the currently loaded detail view.
type Extractor struct {
	session browser.Session
	delays  DelayPolicy
}

// NewExtractor returns an Extractor bound to one session.
func NewExtractor(s browser.Session, delays DelayPolicy) *Extractor {
	return &Extractor{session: s, delays: delays}
}

// ExtractPlace runs the primary pass for every field. Missing fields are not
// errors; they simply stay unset. Coordinates are resolved separately.
func (e *Extractor) ExtractPlace(ctx context.Context) models.Place {
	var place models.Place

	place.Name = e.Name(ctx)
	if addr, ok := firstProbe(ctx, e.session, addressProbes, acceptTrimmed); ok {
		place.Address = addr
	}
	if phone, ok := firstProbe(ctx, e.session, phoneProbes, acceptTrimmed); ok {
		place.Phone = phone
	}
	if rating, ok := e.Rating(ctx); ok {
		place.SetRating(rating)
	}
	if count, ok := e.ReviewsCount(ctx); ok {
		place.ReviewsCount = count
	}
	if site, ok := firstProbe(ctx, e.session, websiteProbes, acceptWebsite); ok {
		place.Website = site
	}
	if img, ok := firstProbe(ctx, e.session, imageProbes, acceptImage); ok {
		place.ImageURL = img
	}

	log.Debug().
		Str("name", place.Name).
		Str("website", place.Website).
		Str("image", place.ImageURL).
		Msg("primary extraction pass done")
	return place
}

// Name returns the place name, or the Unknown sentinel when no probe hits.
func (e *Extractor) Name(ctx context.Context) string {
	if name, ok := firstProbe(ctx, e.session, nameProbes, acceptTrimmed); ok {
		return name
	}
	return NameUnknown
}

// Rating scans probe text for the first decimal number in [0,5]. When no
// labeled rating is found it falls back to counting rendered star icons,
// a low-confidence heuristic kept as the last resort.
func (e *Extractor) Rating(ctx context.Context) (float64, bool) {
	raw, ok := firstProbe(ctx, e.session, ratingProbes, acceptRatingText)
	if ok {
		r, err := strconv.ParseFloat(raw, 64)
		if err == nil {
			return r, true
		}
	}

	stars, err := e.session.Count(ctx, starIconSelector)
	if err == nil && stars >= 1 && stars <= 5 {
		log.Debug().Int("stars", stars).Msg("rating from star icon count")
		return float64(stars), true
	}
	return 0, false
}

// ReviewsCount scans probe text for the first integer, commas stripped.
func (e *Extractor) ReviewsCount(ctx context.Context) (int, bool) {
	raw, ok := firstProbe(ctx, e.session, reviewsCountProbes, acceptIntegerText)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// WebsiteAdvanced is the permissive second pass for the website field: extra
// selectors, click-to-reveal buttons, then a document-source scan.
func (e *Extractor) WebsiteAdvanced(ctx context.Context) (string, bool) {
	if site, ok := firstProbe(ctx, e.session, websiteAdvancedProbes, acceptWebsite); ok {
		return site, true
	}

	for _, sel := range websiteRevealButtons {
		n, err := e.session.Count(ctx, sel)
		if err != nil || n == 0 {
			continue
		}
		if err := e.session.Click(ctx, sel, 0); err != nil {
			log.Debug().Err(err).Str("selector", sel).Msg("reveal click failed")
			continue
		}
		e.delays.Wait(ctx, WaitReveal)
		if site, ok := firstProbe(ctx, e.session, []Probe{{Selector: `a[href^="http"]`, Attrs: []string{"href"}}}, acceptWebsite); ok {
			return site, true
		}
		break
	}

	html, err := e.session.HTML(ctx)
	if err != nil {
		return "", false
	}
	for _, match := range websiteContentRe.FindAllString(html, 50) {
		if site, ok := NormalizeWebsiteURL(match); ok {
			return site, true
		}
	}
	return "", false
}

// ImageAdvanced is the permissive second pass for the image field: gallery
// containers, then the first few generic img elements.
func (e *Extractor) ImageAdvanced(ctx context.Context) (string, bool) {
	if img, ok := firstProbe(ctx, e.session, imageAdvancedProbes, acceptImage); ok {
		return img, true
	}

	for _, sel := range imageFallbackSelectors {
		n, err := e.session.Count(ctx, sel)
		if err != nil {
			continue
		}
		if n > 5 {
			n = 5
		}
		for i := 0; i < n; i++ {
			for _, attr := range []string{"data-src", "src"} {
				raw, found, err := e.session.Attribute(ctx, sel, i, attr)
				if err != nil || !found {
					continue
				}
				if img, ok := NormalizeImageURL(raw); ok {
					return img, true
				}
			}
		}
	}
	return "", false
}

func acceptTrimmed(raw string) (string, bool) {
	val := strings.TrimSpace(raw)
	return val, val != ""
}

func acceptRatingText(raw string) (string, bool) {
	m := decimalRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", false
	}
	r, err := strconv.ParseFloat(m[1], 64)
	if err != nil || r < 0 || r > 5 {
		return "", false
	}
	return m[1], true
}

func acceptIntegerText(raw string) (string, bool) {
	m := integerRe.FindStringSubmatch(strings.ReplaceAll(raw, ",", ""))
	if m == nil {
		return "", false
	}
	return m[1], true
}

func acceptWebsite(raw string) (string, bool) {
	return NormalizeWebsiteURL(raw)
}

func acceptImage(raw string) (string, bool) {
	return NormalizeImageURL(raw)
}
