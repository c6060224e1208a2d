package stealth

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/community-manager/internal/ui"
)

// TypeText types text into el one rune at a time with human-like gaps.
// No typos are simulated: search fields act on every keystroke, and a
// corrected typo would still trigger an intermediate lookup.
func (p *Pacer) TypeText(ctx context.Context, el ui.Element, text string) error {
	i := 0
	for _, char := range text {
		if err := el.Type(string(char)); err != nil {
			return fmt.Errorf("failed to type character %d: %w", i, err)
		}
		p.Pause(ctx, p.keystrokeDelay(i))
		i++
	}
	return nil
}

// keystrokeDelay calculates realistic delay between keystrokes
func (p *Pacer) keystrokeDelay(position int) time.Duration {
	baseDelay := 150 * time.Millisecond

	// Slower at the beginning
	if position < 3 {
		baseDelay = 200 * time.Millisecond
	}

	// Occasional longer pauses
	if p.chance(0.1) {
		baseDelay = p.Sample(300*time.Millisecond, 800*time.Millisecond)
	}

	return time.Duration(float64(baseDelay) * p.jitter(0.4))
}
