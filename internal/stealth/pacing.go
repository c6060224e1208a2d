package stealth

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Sleeper blocks for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration)

// Pacer produces bounded randomized waits between UI actions.
// Samples are independent and uniform over the closed interval [min, max].
type Pacer struct {
	mu    sync.Mutex
	rng   *rand.Rand
	sleep Sleeper
}

// Option configures a Pacer
type Option func(*Pacer)

// WithSleeper replaces the real clock, e.g. with a recorder in tests
func WithSleeper(s Sleeper) Option {
	return func(p *Pacer) {
		p.sleep = s
	}
}

// WithSeed makes the sample sequence reproducible
func WithSeed(seed int64) Option {
	return func(p *Pacer) {
		p.rng = rand.New(rand.NewSource(seed))
	}
}

// NewPacer creates a Pacer that sleeps on the wall clock
func NewPacer(opts ...Option) *Pacer {
	p := &Pacer{
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Sample draws a duration from [min, max], both ends inclusive.
// Reversed bounds are swapped; negative bounds are clamped to zero.
func (p *Pacer) Sample(min, max time.Duration) time.Duration {
	if min < 0 {
		min = 0
	}
	if max < 0 {
		max = 0
	}
	if min > max {
		min, max = max, min
	}
	if min == max {
		return min
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return min + time.Duration(p.rng.Int63n(int64(max-min)+1))
}

// Delay blocks for a sampled duration and returns it. It never fails; a
// cancelled ctx only cuts the wait short.
func (p *Pacer) Delay(ctx context.Context, min, max time.Duration) time.Duration {
	d := p.Sample(min, max)
	p.sleep(ctx, d)
	return d
}

// Pause blocks for exactly d
func (p *Pacer) Pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	p.sleep(ctx, d)
}

// chance reports true with probability prob
func (p *Pacer) chance(prob float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64() < prob
}

// jitter returns a factor in [1-variation, 1+variation]
func (p *Pacer) jitter(variation float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return 1.0 + (p.rng.Float64()*2-1)*variation
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

var defaultPacer = NewPacer()

// RandomDelay returns a random duration between min and max, inclusive
func RandomDelay(min, max time.Duration) time.Duration {
	return defaultPacer.Sample(min, max)
}

// ShortDelay returns a short random delay
func ShortDelay() time.Duration {
	return RandomDelay(100*time.Millisecond, 500*time.Millisecond)
}
