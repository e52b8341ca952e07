// Package physics implements the deterministic pong court simulation.
// It is pure state + math: no timers, no I/O, no randomness. Given the
// same state and the same dt, every call produces the same result,
// which is what makes the match engine replayable and testable.
//
// Coordinate system: X 0-200, Y 0-100 (percent of canvas height),
// Y grows downward like the canvas the client draws on.
package physics

// Court dimensions in simulation units.
const (
	CourtWidth  = 200.0
	CourtHeight = 100.0
)

// Command is a paddle input command. The wire protocol carries these as
// small integers (1-4); ParseCommand converts back and forth so the
// rest of the code never touches magic numbers.
type Command int

const (
	CmdUnknown Command = iota
	CmdMoveUpBegin
	CmdMoveUpEnd
	CmdMoveDownBegin
	CmdMoveDownEnd
)

// ParseCommand maps a wire command code to a Command.
// Returns false for codes outside the protocol range.
func ParseCommand(code int) (Command, bool) {
	switch code {
	case 1:
		return CmdMoveUpBegin, true
	case 2:
		return CmdMoveUpEnd, true
	case 3:
		return CmdMoveDownBegin, true
	case 4:
		return CmdMoveDownEnd, true
	default:
		return CmdUnknown, false
	}
}

// WireCode returns the protocol integer for a Command (0 for unknown).
func (c Command) WireCode() int {
	switch c {
	case CmdMoveUpBegin:
		return 1
	case CmdMoveUpEnd:
		return 2
	case CmdMoveDownBegin:
		return 3
	case CmdMoveDownEnd:
		return 4
	default:
		return 0
	}
}

// Side identifies one of the two paddles.
type Side int

const (
	SideUnknown Side = iota
	SideLeft
	SideRight
)

// Paddle is one player's paddle. X, Width, Height and Speed are fixed
// for the lifetime of a match; Y and DY change with input and ticks.
type Paddle struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	Speed  float64
	DY     float64 // current vertical velocity in units/s
}

// NewPaddle creates a paddle at the given column.
func NewPaddle(x, y, width, height, speed float64) *Paddle {
	return &Paddle{X: x, Y: y, Width: width, Height: height, Speed: speed}
}

// Move integrates the paddle position over dt seconds and clamps it to
// the court. Invariant afterwards: 0 <= Y <= CourtHeight - Height.
func (p *Paddle) Move(dt float64) {
	p.Y += p.DY * dt
	if p.Y < 0 {
		p.Y = 0
	} else if p.Y+p.Height > CourtHeight {
		p.Y = CourtHeight - p.Height
	}
}

// HandleInput applies a movement command. Begin commands set the
// velocity; end commands only clear it when the paddle is still moving
// in that direction, so an up-end arriving after a down-begin does not
// cancel the newer input.
func (p *Paddle) HandleInput(cmd Command) {
	switch cmd {
	case CmdMoveUpBegin:
		p.DY = -p.Speed
	case CmdMoveUpEnd:
		if p.DY < 0 {
			p.DY = 0
		}
	case CmdMoveDownBegin:
		p.DY = p.Speed
	case CmdMoveDownEnd:
		if p.DY > 0 {
			p.DY = 0
		}
	}
}
