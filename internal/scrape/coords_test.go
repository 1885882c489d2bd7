package scrape

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordsFromURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		lat, lng float64
		ok       bool
	}{
		{
			name: "at-sign grammar",
			url:  "https://www.google.com/maps/place/Sod+Farm/@37.422,-122.084,15z/data=!3m1",
			lat:  37.422, lng: -122.084, ok: true,
		},
		{
			name: "bang grammar",
			url:  "https://www.google.com/maps/place/X/data=!3d40.7128!4d-74.006",
			lat:  40.7128, lng: -74.006, ok: true,
		},
		{
			name: "center parameter grammar",
			url:  "https://www.google.com/maps?center=51.5074,-0.1278&zoom=14",
			lat:  51.5074, lng: -0.1278, ok: true,
		},
		{name: "no coordinates", url: "https://www.google.com/maps/search/sod+farms", ok: false},
		{name: "out of range rejected", url: "https://www.google.com/maps/place/X/@99.0,-200.0,15z", ok: false},
		{name: "origin rejected", url: "https://www.google.com/maps/place/X/@0,0,15z", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lng, ok := CoordsFromURL(tt.url)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.lat, lat)
				assert.Equal(t, tt.lng, lng)
			}
		})
	}
}

func TestCoordsFromContent(t *testing.T) {
	t.Run("lat lng key pair", func(t *testing.T) {
		html := `<script>var m = {"lat":48.8566,"lng":2.3522};</script>`
		lat, lng, ok := CoordsFromContent(html)
		require.True(t, ok)
		assert.Equal(t, 48.8566, lat)
		assert.Equal(t, 2.3522, lng)
	})

	t.Run("origin decoy skipped for later real match", func(t *testing.T) {
		// The first bracketed pair is the common (0,0) decoy; extraction must
		// iterate past it to the genuine pair.
		html := `<script>tiles=[0.0,0.0];marker=[35.6762,139.6503];</script>`
		lat, lng, ok := CoordsFromContent(html)
		require.True(t, ok)
		assert.Equal(t, 35.6762, lat)
		assert.Equal(t, 139.6503, lng)
	})

	t.Run("near-origin epsilon rejected", func(t *testing.T) {
		html := `<script>m=[0.0005,0.0009];</script>`
		_, _, ok := CoordsFromContent(html)
		assert.False(t, ok)
	})

	t.Run("latitude longitude key pair", func(t *testing.T) {
		html := `{"latitude":-33.8688,"longitude":151.2093}`
		lat, lng, ok := CoordsFromContent(html)
		require.True(t, ok)
		assert.Equal(t, -33.8688, lat)
		assert.Equal(t, 151.2093, lng)
	})

	t.Run("init state array wins over later decoys", func(t *testing.T) {
		html := `<script>window.APP_INITIALIZATION_STATE=[[[15.0,-122.084,37.422]],null];decoy=[11.11,22.22];</script>`
		lat, lng, ok := CoordsFromContent(html)
		require.True(t, ok)
		assert.Equal(t, 37.422, lat)
		assert.Equal(t, -122.084, lng)
	})

	t.Run("nothing found", func(t *testing.T) {
		_, _, ok := CoordsFromContent("<html><body>no geodata here</body></html>")
		assert.False(t, ok)
	})
}

func TestCoordsFromAttributes(t *testing.T) {
	t.Run("lat lng attribute pair", func(t *testing.T) {
		html := `<div data-lat="52.52" data-lng="13.405"></div>`
		lat, lng, ok := CoordsFromAttributes(html)
		require.True(t, ok)
		assert.Equal(t, 52.52, lat)
		assert.Equal(t, 13.405, lng)
	})

	t.Run("latitude longitude attribute pair", func(t *testing.T) {
		html := `<span data-latitude="-23.5505" data-longitude="-46.6333"></span>`
		lat, lng, ok := CoordsFromAttributes(html)
		require.True(t, ok)
		assert.Equal(t, -23.5505, lat)
		assert.Equal(t, -46.6333, lng)
	})

	t.Run("combined attribute", func(t *testing.T) {
		html := `<div data-coords="59.3293, 18.0686"></div>`
		lat, lng, ok := CoordsFromAttributes(html)
		require.True(t, ok)
		assert.Equal(t, 59.3293, lat)
		assert.Equal(t, 18.0686, lng)
	})

	t.Run("out of range skipped", func(t *testing.T) {
		html := `<div data-lat="120.0" data-lng="10.0"></div>`
		_, _, ok := CoordsFromAttributes(html)
		assert.False(t, ok)
	})
}

func TestResolverTierOrder(t *testing.T) {
	// URL tier must win even when the document source carries a different
	// pair.
	f := newFakeSession()
	f.detailURL = []string{"https://www.google.com/maps/place/X/@37.422,-122.084,15z"}
	f.detailHTML = []string{`<script>{"lat":1.0,"lng":1.0}</script>`}
	f.current = 0

	lat, lng, ok := NewCoordinateResolver(f).Resolve(context.Background())
	require.True(t, ok)
	assert.Equal(t, 37.422, lat)
	assert.Equal(t, -122.084, lng)
}

func TestResolverEscalatesToContent(t *testing.T) {
	f := newFakeSession()
	f.detailURL = []string{"https://www.google.com/maps/place/X"}
	f.detailHTML = []string{`<script>{"lat":48.8566,"lng":2.3522}</script>`}
	f.current = 0

	lat, lng, ok := NewCoordinateResolver(f).Resolve(context.Background())
	require.True(t, ok)
	assert.Equal(t, 48.8566, lat)
	assert.Equal(t, 2.3522, lng)
}

func TestResolverEscalatesToAttributes(t *testing.T) {
	f := newFakeSession()
	f.detailURL = []string{"https://www.google.com/maps/place/X"}
	f.detailHTML = []string{`<div data-lat="52.52" data-lng="13.405"></div>`}
	f.current = 0

	lat, lng, ok := NewCoordinateResolver(f).Resolve(context.Background())
	require.True(t, ok)
	assert.Equal(t, 52.52, lat)
	assert.Equal(t, 13.405, lng)
}

func TestResolverNoCoordinatesIsNotAnError(t *testing.T) {
	f := newFakeSession()
	f.detailURL = []string{"https://www.google.com/maps/place/X"}
	f.detailHTML = []string{"<html></html>"}
	f.current = 0

	_, _, ok := NewCoordinateResolver(f).Resolve(context.Background())
	assert.False(t, ok)
}
