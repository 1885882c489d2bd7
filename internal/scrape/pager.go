package scrape

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/map-harvest/harvest/internal/browser"
)

// Pager defaults, bounds against infinite scrolling on short result sets.
const (
	defaultMaxScrollAttempts = 30
	defaultStagnationLimit   = 5
	defaultCorrectiveAt      = 2
	defaultWheelDelta        = 15000
	correctiveWheelDelta     = 10000
	candidateBufferRatio     = 1.5
)

// Pager reveals entries in the virtualized result list until enough
// candidates are rendered or the list stagnates.
type Pager struct {
	session browser.Session
	delays  DelayPolicy

	// Tunables, exposed for tests; zero values fall back to the defaults.
	MaxScrollAttempts int
	StagnationLimit   int
	CorrectiveAt      int
	WheelDelta        int
}

// NewPager returns a pager bound to one session.
func NewPager(s browser.Session, delays DelayPolicy) *Pager {
	return &Pager{
		session:           s,
		delays:            delays,
		MaxScrollAttempts: defaultMaxScrollAttempts,
		StagnationLimit:   defaultStagnationLimit,
		CorrectiveAt:      defaultCorrectiveAt,
		WheelDelta:        defaultWheelDelta,
	}
}

// LoadCandidates scrolls until at least target entries are rendered, the list
// stagnates, or the attempt cap is hit. It returns the number of candidates
// to hand to the orchestrator: min(target x 1.5, rendered). The buffer covers
// expected attrition from name-validation and click failures.
func (p *Pager) LoadCandidates(ctx context.Context, target int) (int, error) {
	previous := 0
	stagnant := 0

	for attempt := 0; attempt < p.MaxScrollAttempts; attempt++ {
		if ctx.Err() != nil {
			break
		}
		if err := p.session.ScrollWheel(ctx, p.WheelDelta); err != nil {
			log.Debug().Err(err).Msg("scroll gesture failed")
		}
		p.delays.Wait(ctx, WaitScroll)

		found, err := p.session.Count(ctx, resultLinkSelector)
		if err != nil {
			return 0, err
		}
		log.Info().Int("found", found).Int("attempt", attempt+1).Msg("entries rendered")

		if found >= target {
			log.Info().Int("target", target).Msg("reached target entry count")
			break
		}

		if found == previous {
			stagnant++
			log.Info().Int("stagnant", stagnant).Int("limit", p.StagnationLimit).Msg("no new entries")

			if stagnant == p.CorrectiveAt {
				// Known idle-viewport failure mode: the list stops receiving
				// wheel events until brought back into view.
				if err := p.session.ScrollIntoView(ctx, resultsPanelSelector); err == nil {
					if err := p.session.ScrollWheel(ctx, correctiveWheelDelta); err != nil {
						log.Debug().Err(err).Msg("corrective scroll failed")
					}
					log.Info().Msg("corrective panel scroll applied")
				}
			}
			if stagnant >= p.StagnationLimit {
				log.Info().Msg("list stagnated, stopping pagination")
				break
			}
		} else {
			stagnant = 0
		}
		previous = found
	}

	rendered, err := p.session.Count(ctx, resultLinkSelector)
	if err != nil {
		return 0, err
	}

	candidates := int(float64(target) * candidateBufferRatio)
	if rendered < candidates {
		candidates = rendered
	}
	log.Info().Int("rendered", rendered).Int("candidates", candidates).Msg("pagination done")
	return candidates, nil
}
