package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/map-harvest/harvest/pkg/models"
)

const sampleSize = 3

// PrintSummary writes a human-readable run summary: per-field coverage
// percentages and a short sample of records.
func PrintSummary(w io.Writer, places []models.Place) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\nSCRAPING SUMMARY\n%s\n", rule, rule)
	fmt.Fprintf(w, "Total places scraped: %d\n", len(places))

	if len(places) == 0 {
		fmt.Fprintf(w, "%s\n", rule)
		return
	}

	var withPhone, withWebsite, withImage, withCoords, withRating int
	for i := range places {
		p := &places[i]
		if p.Phone != "" {
			withPhone++
		}
		if p.Website != "" {
			withWebsite++
		}
		if p.ImageURL != "" {
			withImage++
		}
		if p.HasCoordinates() {
			withCoords++
		}
		if p.HasRating() {
			withRating++
		}
	}

	total := len(places)
	coverage := func(label string, n int) {
		fmt.Fprintf(w, "Places with %s: %d/%d (%.1f%%)\n", label, n, total, float64(n)/float64(total)*100)
	}
	coverage("phone", withPhone)
	coverage("website", withWebsite)
	coverage("image", withImage)
	coverage("coordinates", withCoords)
	coverage("rating", withRating)

	fmt.Fprintf(w, "\nSAMPLE PLACES:\n%s\n", strings.Repeat("-", 60))
	for i := range places {
		if i >= sampleSize {
			fmt.Fprintf(w, "   ... and %d more places\n", len(places)-sampleSize)
			break
		}
		p := &places[i]
		fmt.Fprintf(w, "%d. %s\n", i+1, p.Name)
		fmt.Fprintf(w, "   Address: %s\n", orNA(p.Address))
		fmt.Fprintf(w, "   Phone:   %s\n", orNA(p.Phone))
		fmt.Fprintf(w, "   Website: %s\n", orNA(p.Website))
		if p.HasRating() {
			fmt.Fprintf(w, "   Rating:  %v (%d reviews)\n", p.Rating, p.ReviewsCount)
		} else {
			fmt.Fprintf(w, "   Rating:  N/A\n")
		}
		if p.HasCoordinates() {
			fmt.Fprintf(w, "   Map:     %s\n", p.MapsURL())
		}
	}
	fmt.Fprintf(w, "%s\n", rule)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
