package models

import (
	"encoding/json"
	"fmt"
)

// MapsBaseURL is the base used when deriving a map link from coordinates.
const MapsBaseURL = "https://www.google.com/maps"

// Place represents one extracted place record. Every field except Name is
// optional; zero values mean "not found". A Place appended to a run's output
// is final and never mutated afterwards.
type Place struct {
	Name         string   `json:"name"`
	Address      string   `json:"address,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Website      string   `json:"website,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	Rating       float64  `json:"rating,omitempty"`
	ReviewsCount int      `json:"reviews_count,omitempty"`
	Latitude     float64  `json:"latitude,omitempty"`
	Longitude    float64  `json:"longitude,omitempty"`
	Reviews      []Review `json:"reviews,omitempty"`

	hasRating bool
	hasCoords bool
}

// Review is one user review attached to a place. Populated only when review
// extraction is enabled for the run.
type Review struct {
	Author string `json:"author,omitempty"`
	Rating int    `json:"rating,omitempty"`
	Text   string `json:"text,omitempty"`
	When   string `json:"when,omitempty"`
}

// MarshalJSON emits rating and coordinates only when they were actually
// extracted. omitempty cannot express that: it would drop a genuine 0.0
// rating and a genuine zero axis, leaving a half-set coordinate pair.
func (p Place) MarshalJSON() ([]byte, error) {
	type export struct {
		Name         string   `json:"name"`
		Address      string   `json:"address,omitempty"`
		Phone        string   `json:"phone,omitempty"`
		Website      string   `json:"website,omitempty"`
		ImageURL     string   `json:"image_url,omitempty"`
		Rating       *float64 `json:"rating,omitempty"`
		ReviewsCount int      `json:"reviews_count,omitempty"`
		Latitude     *float64 `json:"latitude,omitempty"`
		Longitude    *float64 `json:"longitude,omitempty"`
		Reviews      []Review `json:"reviews,omitempty"`
	}

	e := export{
		Name:         p.Name,
		Address:      p.Address,
		Phone:        p.Phone,
		Website:      p.Website,
		ImageURL:     p.ImageURL,
		ReviewsCount: p.ReviewsCount,
		Reviews:      p.Reviews,
	}
	if p.hasRating {
		e.Rating = &p.Rating
	}
	if p.hasCoords {
		e.Latitude = &p.Latitude
		e.Longitude = &p.Longitude
	}
	return json.Marshal(e)
}

// SetRating records a rating. Out-of-range values are ignored so the
// [0,5] invariant holds for every stored rating.
func (p *Place) SetRating(r float64) bool {
	if r < 0 || r > 5 {
		return false
	}
	p.Rating = r
	p.hasRating = true
	return true
}

// HasRating reports whether a rating was extracted. A stored rating of 0.0 is
// distinguishable from "no rating found".
func (p *Place) HasRating() bool { return p.hasRating }

// SetCoordinates records a coordinate pair. Pairs outside the valid ranges or
// exactly at the origin are rejected; (0,0) is the sentinel the map surface
// emits for unresolved locations.
func (p *Place) SetCoordinates(lat, lng float64) bool {
	if !ValidCoordinates(lat, lng) {
		return false
	}
	p.Latitude = lat
	p.Longitude = lng
	p.hasCoords = true
	return true
}

// HasCoordinates reports whether both latitude and longitude are set, in
// range, and not the (0,0) sentinel. A record with only one axis set counts
// as having no coordinates.
func (p *Place) HasCoordinates() bool { return p.hasCoords }

// ValidCoordinates reports whether a pair is within [-90,90]x[-180,180] and
// not exactly the origin.
func ValidCoordinates(lat, lng float64) bool {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return false
	}
	if lat == 0 && lng == 0 {
		return false
	}
	return true
}

// MapsURL derives a map-view link from the place coordinates, or "" when the
// place has none.
func (p *Place) MapsURL() string {
	if !p.HasCoordinates() {
		return ""
	}
	return fmt.Sprintf("%s?q=%v,%v", MapsBaseURL, p.Latitude, p.Longitude)
}

// Validate reports whether the record is acceptable and lists any issues.
func (p *Place) Validate() (bool, []string) {
	var issues []string
	if p.Name == "" {
		issues = append(issues, "missing or empty name")
	}
	// Checks the exported field, not hasRating: a record built without
	// SetRating can still carry an out-of-range value.
	if p.Rating < 0 || p.Rating > 5 {
		issues = append(issues, "rating out of range")
	}
	if (p.Latitude != 0 || p.Longitude != 0) && !p.hasCoords {
		issues = append(issues, "invalid coordinates")
	}
	return len(issues) == 0, issues
}

// FilterValid returns only the places that pass Validate, preserving order.
func FilterValid(places []Place) []Place {
	valid := make([]Place, 0, len(places))
	for _, p := range places {
		if ok, _ := p.Validate(); ok {
			valid = append(valid, p)
		}
	}
	return valid
}

// CSVHeaders returns the stable serialization field order.
func CSVHeaders() []string {
	return []string{
		"name", "address", "phone", "website", "image_url",
		"rating", "reviews_count", "latitude", "longitude",
	}
}

// CSVRow renders the place in CSVHeaders order. Unset optional fields render
// as empty cells.
func (p *Place) CSVRow() []string {
	rating := ""
	if p.hasRating {
		rating = fmt.Sprintf("%v", p.Rating)
	}
	reviews := ""
	if p.ReviewsCount > 0 {
		reviews = fmt.Sprintf("%d", p.ReviewsCount)
	}
	lat, lng := "", ""
	if p.hasCoords {
		lat = fmt.Sprintf("%v", p.Latitude)
		lng = fmt.Sprintf("%v", p.Longitude)
	}
	return []string{
		p.Name, p.Address, p.Phone, p.Website, p.ImageURL,
		rating, reviews, lat, lng,
	}
}
