package physics

import "math"

// Ball tuning constants, in court units.
const (
	SpeedUp    = 1.05  // +5% ball speed on each paddle hit
	MaxSpeed   = 120.0 // hard cap on speed magnitude in units/s
	SpinFactor = 0.25  // fraction of paddle velocity transferred as spin
)

// maxBounceAngle is the steepest reflection off a paddle edge.
// 60 degrees keeps rallies trackable; the falloff toward it is
// sine-shaped rather than linear so center hits stay flat longer.
const maxBounceAngle = 60 * math.Pi / 180

// Position is a point on the court.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Ball is the match ball. Velocity components are in units/s;
// positive SpeedX moves right, positive SpeedY moves down.
type Ball struct {
	X      float64
	Y      float64
	Radius float64
	SpeedX float64
	SpeedY float64
}

// NewBall creates a ball at (x, y) moving down-right at speed on both axes.
func NewBall(x, y, radius, speed float64) *Ball {
	return &Ball{X: x, Y: y, Radius: radius, SpeedX: speed, SpeedY: speed}
}

// Move integrates the ball position over dt seconds and reflects the
// vertical velocity on the top/bottom walls. The reflection only fires
// when the velocity points outward, so a ball that spawned overlapping
// a wall cannot get stuck sign-flipping every tick.
func (b *Ball) Move(dt float64) {
	b.X += b.SpeedX * dt
	b.Y += b.SpeedY * dt

	if (b.Y-b.Radius <= 0 && b.SpeedY < 0) ||
		(b.Y+b.Radius >= CourtHeight && b.SpeedY > 0) {
		b.SpeedY = -b.SpeedY
	}
}

// ResolveCollision tests the ball against a paddle rectangle and, on
// contact, pushes the ball out along the contact normal and computes
// the new velocity from the impact point. A clear miss is a strict
// no-op. Each hit speeds the ball up by SpeedUp until MaxSpeed.
func (b *Ball) ResolveCollision(paddle *Paddle) {
	// Closest point on the paddle rectangle to the ball center.
	closestX := math.Max(paddle.X, math.Min(b.X, paddle.X+paddle.Width))
	closestY := math.Max(paddle.Y, math.Min(b.Y, paddle.Y+paddle.Height))
	dx := b.X - closestX
	dy := b.Y - closestY

	dist2 := dx*dx + dy*dy
	if dist2 > b.Radius*b.Radius {
		return // no hit
	}

	// Push out so the ball never sinks into the paddle.
	dist := math.Sqrt(dist2)
	if dist == 0 {
		dist = 1e-6
	}
	overlap := b.Radius - dist
	b.X += dx / dist * overlap
	b.Y += dy / dist * overlap

	// New speed magnitude: +5% per hit, hard capped.
	speed := math.Hypot(b.SpeedX, b.SpeedY) * SpeedUp
	if speed > MaxSpeed {
		speed = MaxSpeed
	}

	// Reflection angle from the normalized impact offset along the
	// paddle face: center hit serves flat, edge hits approach the cap.
	relY := -((b.Y - (paddle.Y + paddle.Height/2)) / (paddle.Height / 2))
	angle := math.Sin(relY*math.Pi/2) * maxBounceAngle

	// Left paddle sends the ball right, right paddle sends it left.
	dir := 1.0
	if paddle.X >= CourtWidth/2 {
		dir = -1.0
	}

	b.SpeedX = speed * math.Cos(angle) * dir
	b.SpeedY = speed * -math.Sin(angle) // minus: canvas Y grows downward

	// Paddle motion adds spin, then renormalize so spin never changes
	// the overall energy.
	b.SpeedY += paddle.DY * SpinFactor
	mag := math.Hypot(b.SpeedX, b.SpeedY)
	b.SpeedX *= speed / mag
	b.SpeedY *= speed / mag
}

// Speed returns the current velocity magnitude in units/s.
func (b *Ball) Speed() float64 {
	return math.Hypot(b.SpeedX, b.SpeedY)
}

// Position returns the ball center.
func (b *Ball) Position() Position {
	return Position{X: b.X, Y: b.Y}
}
