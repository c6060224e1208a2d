package stealth

import (
	"context"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/community-manager/internal/ui/uitest"
)

type sleepRecorder struct {
	slept []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) {
	r.slept = append(r.slept, d)
}

func TestSampleStaysInClosedInterval(t *testing.T) {
	p := NewPacer(WithSeed(42))
	min, max := 5*time.Second, 10*time.Second

	for i := 0; i < 10000; i++ {
		d := p.Sample(min, max)
		require.GreaterOrEqual(t, d, min)
		require.LessOrEqual(t, d, max)
	}
}

func TestSampleReachesBothEndsOnNarrowRange(t *testing.T) {
	p := NewPacer(WithSeed(7))
	seen := map[time.Duration]bool{}
	for i := 0; i < 1000; i++ {
		seen[p.Sample(5, 6)] = true
	}
	assert.True(t, seen[5])
	assert.True(t, seen[6])
}

func TestSampleEdgeBounds(t *testing.T) {
	p := NewPacer(WithSeed(1))

	assert.Equal(t, 15*time.Second, p.Sample(15*time.Second, 15*time.Second))
	assert.Equal(t, time.Duration(0), p.Sample(-time.Second, 0))

	d := p.Sample(10*time.Second, 5*time.Second)
	assert.GreaterOrEqual(t, d, 5*time.Second)
	assert.LessOrEqual(t, d, 10*time.Second)
}

func TestDelaySleepsTheSampledDuration(t *testing.T) {
	rec := &sleepRecorder{}
	p := NewPacer(WithSeed(3), WithSleeper(rec.sleep))

	got := p.Delay(context.Background(), 2*time.Second, 3*time.Second)

	require.Len(t, rec.slept, 1)
	assert.Equal(t, got, rec.slept[0])
}

func TestPauseSkipsNonPositive(t *testing.T) {
	rec := &sleepRecorder{}
	p := NewPacer(WithSleeper(rec.sleep))

	p.Pause(context.Background(), 0)
	p.Pause(context.Background(), 500*time.Millisecond)

	assert.Equal(t, []time.Duration{500 * time.Millisecond}, rec.slept)
}

func TestRealSleepReturnsOnCancel(t *testing.T) {
	p := NewPacer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	p.Pause(ctx, time.Hour)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTypeTextSendsEveryRune(t *testing.T) {
	rec := &sleepRecorder{}
	p := NewPacer(WithSeed(9), WithSleeper(rec.sleep))
	el := uitest.NewPage().Element("//div[@contenteditable='true']")

	require.NoError(t, p.TypeText(context.Background(), el, "+573001112222"))

	assert.Equal(t, "+573001112222", el.Typed)
	assert.Len(t, rec.slept, len("+573001112222"))
	for _, d := range rec.slept {
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 1200*time.Millisecond)
	}
}

func TestTypeTextHandlesMultibyte(t *testing.T) {
	p := NewPacer(WithSleeper(func(context.Context, time.Duration) {}))
	el := uitest.NewPage().Element("search")

	require.NoError(t, p.TypeText(context.Background(), el, "Añadir"))
	assert.Equal(t, "Añadir", el.Typed)
	assert.Equal(t, 6, utf8.RuneCountInString(el.Typed))
}

func TestCubicBezierEndpoints(t *testing.T) {
	start := Point{X: 0, Y: 0}
	end := Point{X: 100, Y: 50}

	pts := CubicBezierCurve(start, end, Point{X: 30, Y: 80}, Point{X: 70, Y: -20}, 25)

	require.Len(t, pts, 25)
	assert.InDelta(t, start.X, pts[0].X, 1e-9)
	assert.InDelta(t, start.Y, pts[0].Y, 1e-9)
	assert.InDelta(t, end.X, pts[24].X, 1e-9)
	assert.InDelta(t, end.Y, pts[24].Y, 1e-9)
}

func TestCubicBezierDegenerateSteps(t *testing.T) {
	end := Point{X: 5, Y: 5}
	assert.Equal(t, []Point{end}, CubicBezierCurve(Point{}, end, Point{}, Point{}, 1))
}
