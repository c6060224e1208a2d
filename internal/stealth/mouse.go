package stealth

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Point represents a 2D coordinate
type Point struct {
	X float64
	Y float64
}

// Cursor remembers where the pointer was last sent so consecutive moves
// start from the real position instead of a random corner.
type Cursor struct {
	mu  sync.Mutex
	pos Point
	rng *rand.Rand
}

// NewCursor creates a cursor parked near the top-left of the viewport
func NewCursor() *Cursor {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Cursor{
		pos: Point{X: rng.Float64() * 100, Y: rng.Float64() * 100},
		rng: rng,
	}
}

// MoveTo glides the pointer to target along a cubic Bézier path,
// slower at both ends, with an occasional overshoot and correction.
func (c *Cursor) MoveTo(page *rod.Page, target Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c1, c2 := c.controlPoints(c.pos, target)
	path := CubicBezierCurve(c.pos, target, c1, c2, 40)

	for i, pt := range path {
		err := proto.InputDispatchMouseEvent{
			Type: proto.InputDispatchMouseEventTypeMouseMoved,
			X:    pt.X,
			Y:    pt.Y,
		}.Call(page)
		if err != nil {
			return err
		}
		time.Sleep(mouseStepDelay(float64(i) / float64(len(path))))
	}

	if c.rng.Float64() < 0.3 {
		over := Point{
			X: target.X + (c.rng.Float64()-0.5)*5,
			Y: target.Y + (c.rng.Float64()-0.5)*5,
		}
		_ = proto.InputDispatchMouseEvent{
			Type: proto.InputDispatchMouseEventTypeMouseMoved,
			X:    over.X,
			Y:    over.Y,
		}.Call(page)
		time.Sleep(RandomDelay(10*time.Millisecond, 30*time.Millisecond))
		_ = proto.InputDispatchMouseEvent{
			Type: proto.InputDispatchMouseEventTypeMouseMoved,
			X:    target.X,
			Y:    target.Y,
		}.Call(page)
	}

	c.pos = target
	return nil
}

// CubicBezierCurve generates points along a cubic Bézier curve
func CubicBezierCurve(start, end, control1, control2 Point, steps int) []Point {
	if steps < 2 {
		return []Point{end}
	}
	points := make([]Point, steps)

	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps-1)

		// B(t) = (1-t)³P₀ + 3(1-t)²tP₁ + 3(1-t)t²P₂ + t³P₃
		u := 1 - t
		points[i] = Point{
			X: math.Pow(u, 3)*start.X +
				3*math.Pow(u, 2)*t*control1.X +
				3*u*math.Pow(t, 2)*control2.X +
				math.Pow(t, 3)*end.X,
			Y: math.Pow(u, 3)*start.Y +
				3*math.Pow(u, 2)*t*control1.Y +
				3*u*math.Pow(t, 2)*control2.Y +
				math.Pow(t, 3)*end.Y,
		}
	}

	return points
}

// controlPoints places control points at 1/3 and 2/3 of the segment with
// a random perpendicular offset
func (c *Cursor) controlPoints(start, end Point) (Point, Point) {
	dx := end.X - start.X
	dy := end.Y - start.Y
	distance := math.Sqrt(dx*dx + dy*dy)
	perp := math.Atan2(dy, dx) + math.Pi/2

	off1 := (c.rng.Float64() - 0.5) * distance * 0.3
	off2 := (c.rng.Float64() - 0.5) * distance * 0.3

	return Point{
			X: start.X + dx/3 + math.Cos(perp)*off1,
			Y: start.Y + dy/3 + math.Sin(perp)*off1,
		}, Point{
			X: start.X + 2*dx/3 + math.Cos(perp)*off2,
			Y: start.Y + 2*dy/3 + math.Sin(perp)*off2,
		}
}

// mouseStepDelay is an ease-in-ease-out delay for one path step
func mouseStepDelay(progress float64) time.Duration {
	speed := 1 - math.Abs(2*progress-1)
	return time.Duration(float64(8*time.Millisecond) / (speed + 0.5))
}
