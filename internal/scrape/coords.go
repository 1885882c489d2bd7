package scrape

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
	"github.com/rs/zerolog/log"

	"github.com/map-harvest/harvest/internal/browser"
	"github.com/map-harvest/harvest/pkg/models"
)

// originEpsilon guards the embedded-data tier against the common (0,0) decoy:
// both axes must clear it.
const originEpsilon = 0.001

// URL grammars, ordered by reliability. Group 1 is latitude, group 2
// longitude.
var urlCoordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/@(-?\d+\.?\d*),(-?\d+\.?\d*),`),
	regexp.MustCompile(`/place/[^/]+/@(-?\d+\.?\d*),(-?\d+\.?\d*)`),
	regexp.MustCompile(`!3d(-?\d+\.?\d*)!4d(-?\d+\.?\d*)`),
	regexp.MustCompile(`center=(-?\d+\.?\d*),(-?\d+\.?\d*)`),
}

// Embedded-data grammars matching coordinate pairs inside inline scripts and
// JSON-like blobs. Every match of every grammar is considered: early matches
// are frequently decoys (map tiles, unrelated markers).
var contentCoordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`null,\[null,null,(-?\d+\.?\d*),(-?\d+\.?\d*)\]`),
	regexp.MustCompile(`\[(-?\d+\.\d+),(-?\d+\.\d+)\]`),
	regexp.MustCompile(`"lat":(-?\d+\.?\d*),"lng":(-?\d+\.?\d*)`),
	regexp.MustCompile(`"latitude":(-?\d+\.?\d*),"longitude":(-?\d+\.?\d*)`),
	regexp.MustCompile(`center[^\[\]]*\[(-?\d+\.?\d*),(-?\d+\.?\d*)\]`),
	regexp.MustCompile(`position[^\[\]]*\[(-?\d+\.?\d*),(-?\d+\.?\d*)\]`),
	regexp.MustCompile(`coordinates[^\[\]]*\[(-?\d+\.?\d*),(-?\d+\.?\d*)\]`),
}

// initStateRe captures the leading numeric triple of the page's
// initialization-state array: [zoom, longitude, latitude]. The blob is a JS
// literal, not strict JSON, so it is evaluated with goja rather than parsed.
var initStateRe = regexp.MustCompile(`window\.APP_INITIALIZATION_STATE\s*=\s*\[\[\[([^\]]+)\]\]`)

// Attribute tier: elements exposing explicit geodata through labeled data
// attributes.
var attrCoordPairs = [][2]string{
	{"data-lat", "data-lng"},
	{"data-latitude", "data-longitude"},
}

const combinedCoordAttr = "data-coords"

// CoordsFromURL matches the page address against the URL grammars and
// returns the first in-range pair.
func CoordsFromURL(rawURL string) (float64, float64, bool) {
	for _, re := range urlCoordPatterns {
		m := re.FindStringSubmatch(rawURL)
		if m == nil {
			continue
		}
		lat, err1 := strconv.ParseFloat(m[1], 64)
		lng, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		if models.ValidCoordinates(lat, lng) {
			return lat, lng, true
		}
	}
	return 0, 0, false
}

// CoordsFromContent scans the rendered document source. The initialization
// state is the most trustworthy embedded source and is tried first; the
// regex grammars follow, iterating all matches per grammar and rejecting
// anything within the origin epsilon.
func CoordsFromContent(html string) (float64, float64, bool) {
	if lat, lng, ok := coordsFromInitState(html); ok {
		return lat, lng, true
	}

	for _, re := range contentCoordPatterns {
		for _, m := range re.FindAllStringSubmatch(html, -1) {
			lat, err1 := strconv.ParseFloat(m[1], 64)
			lng, err2 := strconv.ParseFloat(m[2], 64)
			if err1 != nil || err2 != nil {
				continue
			}
			if !models.ValidCoordinates(lat, lng) {
				continue
			}
			if math.Abs(lat) <= originEpsilon || math.Abs(lng) <= originEpsilon {
				continue
			}
			return lat, lng, true
		}
	}
	return 0, 0, false
}

func coordsFromInitState(html string) (float64, float64, bool) {
	m := initStateRe.FindStringSubmatch(html)
	if m == nil {
		return 0, 0, false
	}

	vm := goja.New()
	val, err := vm.RunString("[" + m[1] + "]")
	if err != nil {
		log.Debug().Err(err).Msg("init state evaluation failed")
		return 0, 0, false
	}

	arr, ok := val.Export().([]interface{})
	if !ok || len(arr) < 3 {
		return 0, 0, false
	}
	lng, ok1 := toFloat(arr[1])
	lat, ok2 := toFloat(arr[2])
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	if !models.ValidCoordinates(lat, lng) ||
		math.Abs(lat) <= originEpsilon || math.Abs(lng) <= originEpsilon {
		return 0, 0, false
	}
	return lat, lng, true
}

// toFloat normalizes the number types goja exports.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

// CoordsFromAttributes parses the document source and looks for elements
// carrying labeled geodata attributes.
func CoordsFromAttributes(html string) (float64, float64, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, 0, false
	}

	var lat, lng float64
	var found bool

	for _, pair := range attrCoordPairs {
		doc.Find("[" + pair[0] + "][" + pair[1] + "]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			rawLat, _ := sel.Attr(pair[0])
			rawLng, _ := sel.Attr(pair[1])
			la, err1 := strconv.ParseFloat(strings.TrimSpace(rawLat), 64)
			ln, err2 := strconv.ParseFloat(strings.TrimSpace(rawLng), 64)
			if err1 != nil || err2 != nil || !models.ValidCoordinates(la, ln) {
				return true
			}
			lat, lng, found = la, ln, true
			return false
		})
		if found {
			return lat, lng, true
		}
	}

	doc.Find("[" + combinedCoordAttr + "]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		raw, _ := sel.Attr(combinedCoordAttr)
		parts := strings.SplitN(raw, ",", 2)
		if len(parts) != 2 {
			return true
		}
		la, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		ln, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err1 != nil || err2 != nil || !models.ValidCoordinates(la, ln) {
			return true
		}
		lat, lng, found = la, ln, true
		return false
	})

	return lat, lng, found
}

// CoordinateResolver produces an optional coordinate pair for the loaded
// detail view, trying the URL, embedded-data, and attribute tiers in strict
// priority order.
type CoordinateResolver struct {
	session browser.Session
}

// NewCoordinateResolver returns a resolver bound to one session.
func NewCoordinateResolver(s browser.Session) *CoordinateResolver {
	return &CoordinateResolver{session: s}
}

// Resolve returns the first validated pair across the tiers, or ok=false when
// every tier comes up empty. No coordinates is an expected, common outcome.
func (r *CoordinateResolver) Resolve(ctx context.Context) (float64, float64, bool) {
	if loc, err := r.session.Location(ctx); err == nil {
		if lat, lng, ok := CoordsFromURL(loc); ok {
			log.Debug().Float64("lat", lat).Float64("lng", lng).Msg("coordinates from URL")
			return lat, lng, true
		}
	} else {
		log.Debug().Err(err).Msg("could not read page address")
	}

	html, err := r.session.HTML(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("could not read document source")
		return 0, 0, false
	}

	if lat, lng, ok := CoordsFromContent(html); ok {
		log.Debug().Float64("lat", lat).Float64("lng", lng).Msg("coordinates from document source")
		return lat, lng, true
	}
	if lat, lng, ok := CoordsFromAttributes(html); ok {
		log.Debug().Float64("lat", lat).Float64("lng", lng).Msg("coordinates from data attributes")
		return lat, lng, true
	}

	log.Debug().Msg("no coordinates resolved from any tier")
	return 0, 0, false
}
