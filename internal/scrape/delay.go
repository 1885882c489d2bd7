package scrape

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Wait identifies the interaction a delay follows. Each kind has its own
// randomized range so the run's timing never looks uniform.
type Wait int

const (
	WaitNavigate Wait = iota
	WaitSearch
	WaitScroll
	WaitPreClick
	WaitDetailSettle
	WaitRead
	WaitSkip
	WaitReveal
)

// DelayPolicy produces the pause after each interaction kind. It is injected
// so tests can substitute a zero-delay policy.
type DelayPolicy interface {
	Wait(ctx context.Context, kind Wait)
}

type span struct {
	min, max time.Duration
}

// humanDelays is the production policy: a randomized pause per interaction
// kind, with a rate limiter underneath as a hard floor on interaction
// frequency.
type humanDelays struct {
	rng     *rand.Rand
	limiter *rate.Limiter
	spans   map[Wait]span
}

// NewHumanDelayPolicy returns the default pacing used for live runs.
func NewHumanDelayPolicy() DelayPolicy {
	return &humanDelays{
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		spans: map[Wait]span{
			WaitNavigate:     {2 * time.Second, 4 * time.Second},
			WaitSearch:       {2500 * time.Millisecond, 2500 * time.Millisecond},
			WaitScroll:       {2 * time.Second, 4 * time.Second},
			WaitPreClick:     {1500 * time.Millisecond, 3500 * time.Millisecond},
			WaitDetailSettle: {5 * time.Second, 6 * time.Second},
			WaitRead:         {2500 * time.Millisecond, 6 * time.Second},
			WaitSkip:         {1 * time.Second, 3 * time.Second},
			WaitReveal:       {1 * time.Second, 1 * time.Second},
		},
	}
}

func (d *humanDelays) Wait(ctx context.Context, kind Wait) {
	_ = d.limiter.Wait(ctx)

	sp, ok := d.spans[kind]
	if !ok {
		return
	}
	dur := sp.min
	if sp.max > sp.min {
		dur += time.Duration(d.rng.Int63n(int64(sp.max - sp.min)))
	}

	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// ZeroDelayPolicy waits for nothing. Test use only.
type ZeroDelayPolicy struct{}

func (ZeroDelayPolicy) Wait(context.Context, Wait) {}
