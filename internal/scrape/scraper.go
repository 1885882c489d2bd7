package scrape

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/map-harvest/harvest/internal/browser"
	"github.com/map-harvest/harvest/internal/retry"
	"github.com/map-harvest/harvest/pkg/models"
)

const (
	defaultResultsWait = 20 * time.Second
	clickMaxAttempts   = 3
	clickRetryPause    = 1 * time.Second
	clickTimeout       = 5 * time.Second
)

// SessionFactory opens a fresh browser session for one run. The Scraper owns
// the session for the whole run and closes it on every exit path.
type SessionFactory func(ctx context.Context) (browser.Session, error)

// Scraper sequences a run: navigate, search, paginate, then visit each
// candidate, extract its fields, and accept or reject the record.
type Scraper struct {
	newSession  SessionFactory
	delays      DelayPolicy
	resultsWait time.Duration
	clickRetry  retry.Config
	onAccept    func(accepted, target int)
	withReviews bool
	maxReviews  int
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithDelayPolicy replaces the pacing policy; tests inject ZeroDelayPolicy.
func WithDelayPolicy(d DelayPolicy) Option {
	return func(s *Scraper) { s.delays = d }
}

// WithResultsWait bounds the wait for the results surface to appear.
func WithResultsWait(d time.Duration) Option {
	return func(s *Scraper) { s.resultsWait = d }
}

// WithProgress registers a callback invoked after every accepted record.
func WithProgress(fn func(accepted, target int)) Option {
	return func(s *Scraper) { s.onAccept = fn }
}

// WithReviews enables per-place review extraction, capped at max reviews per
// place.
func WithReviews(max int) Option {
	return func(s *Scraper) {
		s.withReviews = true
		s.maxReviews = max
	}
}

// New returns a Scraper that acquires its session from factory at run start.
func New(factory SessionFactory, opts ...Option) *Scraper {
	s := &Scraper{
		newSession:  factory,
		delays:      NewHumanDelayPolicy(),
		resultsWait: defaultResultsWait,
		clickRetry:  retry.Config{MaxAttempts: clickMaxAttempts, Pause: clickRetryPause},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape runs one search and returns the accepted records in the order their
// candidates were revealed. It never panics past this boundary; an empty
// slice is the caller-visible signal of total failure. Per-candidate failures
// are skipped, only a results surface that never loads (or a navigation
// failure) ends the run early with whatever was collected.
func (s *Scraper) Scrape(ctx context.Context, query string, target int) []models.Place {
	places := []models.Place{}
	if target <= 0 {
		return places
	}

	session, err := s.newSession(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to open browser session")
		return places
	}
	defer session.Close()

	log.Info().Str("query", query).Int("target", target).Msg("starting run")

	if err := session.Navigate(ctx, models.MapsBaseURL); err != nil {
		log.Error().Err(err).Msg("navigation failed, ending run")
		return places
	}
	s.delays.Wait(ctx, WaitNavigate)

	if err := session.SubmitText(ctx, searchBoxSelector, query); err != nil {
		log.Error().Err(err).Msg("search submission failed, ending run")
		return places
	}
	s.delays.Wait(ctx, WaitSearch)

	if err := session.WaitVisible(ctx, resultLinkSelector, s.resultsWait); err != nil {
		log.Error().Err(err).Msg("results surface never appeared, ending run")
		return places
	}

	pager := NewPager(session, s.delays)
	candidates, err := pager.LoadCandidates(ctx, target)
	if err != nil {
		log.Error().Err(err).Msg("pagination failed, ending run")
		return places
	}

	extractor := NewExtractor(session, s.delays)
	resolver := NewCoordinateResolver(session)

	for idx := 0; idx < candidates && len(places) < target; idx++ {
		if ctx.Err() != nil {
			log.Warn().Msg("run cancelled")
			break
		}

		log.Info().
			Int("candidate", idx+1).
			Int("of", candidates).
			Int("accepted", len(places)).
			Msg("visiting candidate")

		s.delays.Wait(ctx, WaitPreClick)

		err := retry.Do(ctx, s.clickRetry, func() error {
			clickCtx, cancel := context.WithTimeout(ctx, clickTimeout)
			defer cancel()
			return session.Click(clickCtx, resultLinkSelector, idx)
		})
		if err != nil {
			log.Warn().Err(err).Int("candidate", idx+1).Msg("click attempts exhausted, skipping")
			s.delays.Wait(ctx, WaitSkip)
			continue
		}

		s.delays.Wait(ctx, WaitDetailSettle)

		place := extractor.ExtractPlace(ctx)

		if lat, lng, ok := resolver.Resolve(ctx); ok {
			place.SetCoordinates(lat, lng)
		}

		// Advanced second pass: only fills fields the primary pass left
		// empty, never overrides.
		if place.Website == "" {
			if site, ok := extractor.WebsiteAdvanced(ctx); ok {
				place.Website = site
			}
		}
		if place.ImageURL == "" {
			if img, ok := extractor.ImageAdvanced(ctx); ok {
				place.ImageURL = img
			}
		}

		if !acceptableName(place.Name) {
			log.Warn().Str("name", place.Name).Int("candidate", idx+1).Msg("rejecting candidate, invalid name")
			continue
		}

		if s.withReviews {
			place.Reviews = ExtractReviews(ctx, session, s.delays, s.maxReviews)
		}

		places = append(places, place)
		log.Info().
			Str("name", place.Name).
			Str("website", place.Website).
			Bool("coordinates", place.HasCoordinates()).
			Int("accepted", len(places)).
			Int("target", target).
			Msg("record accepted")

		if s.onAccept != nil {
			s.onAccept(len(places), target)
		}
		s.delays.Wait(ctx, WaitRead)
	}

	log.Info().Int("records", len(places)).Int("target", target).Msg("run finished")
	return places
}

func acceptableName(name string) bool {
	return name != "" && name != NameUnknown && name != NameFailed
}
