// Package scrape implements the extraction core: ordered-fallback field
// probes, multi-tier coordinate resolution, URL normalization, the listing
// pager, and the run orchestrator. Everything talks to the page through
// browser.Session so the core can be exercised against a fake DOM.
package scrape

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/map-harvest/harvest/internal/browser"
)

// Probe is one lookup strategy for a field: a selector plus the attributes to
// read from the first matching element, in order. An empty Attrs list means
// the element's text content.
type Probe struct {
	Selector string
	Attrs    []string
}

// probeOutcome distinguishes "nothing matched" from "the lookup itself
// failed", so expected absence and probe errors stay separable.
type probeOutcome int

const (
	probeHit probeOutcome = iota
	probeMiss
	probeErr
)

// lookup runs a single probe against the first element matching its selector.
func (p Probe) lookup(ctx context.Context, s browser.Session) (string, probeOutcome) {
	if len(p.Attrs) == 0 {
		text, found, err := s.Text(ctx, p.Selector, 0)
		if err != nil {
			return "", probeErr
		}
		if !found || text == "" {
			return "", probeMiss
		}
		return text, probeHit
	}

	for _, attr := range p.Attrs {
		val, found, err := s.Attribute(ctx, p.Selector, 0, attr)
		if err != nil {
			return "", probeErr
		}
		if found && val != "" {
			return val, probeHit
		}
	}
	return "", probeMiss
}

// firstProbe tries probes in priority order and returns the first value the
// accept func validates. Probe errors are logged at debug and skipped; they
// never abort the field.
func firstProbe(ctx context.Context, s browser.Session, probes []Probe, accept func(string) (string, bool)) (string, bool) {
	for _, p := range probes {
		raw, outcome := p.lookup(ctx, s)
		switch outcome {
		case probeErr:
			log.Debug().Str("selector", p.Selector).Msg("probe failed, trying next")
			continue
		case probeMiss:
			continue
		}
		if val, ok := accept(raw); ok {
			return val, true
		}
	}
	return "", false
}
