package model

// Arena geometry. Positions are in pixels, quantized to Step, matching the
// client's canvas coordinates.
const (
	ArenaWidth  = 400
	ArenaHeight = 400
	Step        = 20
)

// Point is a grid-aligned arena position.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// InBounds reports whether p lies inside the arena.
func (p Point) InBounds() bool {
	return p.X >= 0 && p.X < ArenaWidth && p.Y >= 0 && p.Y < ArenaHeight
}

// ManhattanDist returns the grid walking distance between two points.
func ManhattanDist(a, b Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Direction is a single-step movement intent.
type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
)

// ParseDirection maps a wire direction string to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "up":
		return DirUp, true
	case "down":
		return DirDown, true
	case "left":
		return DirLeft, true
	case "right":
		return DirRight, true
	default:
		return DirNone, false
	}
}

// Velocity returns the per-tick displacement for the direction.
func (d Direction) Velocity() Velocity {
	switch d {
	case DirUp:
		return Velocity{0, -Step}
	case DirDown:
		return Velocity{0, Step}
	case DirLeft:
		return Velocity{-Step, 0}
	case DirRight:
		return Velocity{Step, 0}
	default:
		return Velocity{}
	}
}

// Velocity is a per-tick displacement vector.
type Velocity struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// Snake is the single shared arena snake. It exists for the lifetime of the
// process and is owned exclusively by the simulation engine.
type Snake struct {
	Head     Point
	Velocity Velocity
	// Body holds trailing cells, most recent first. It never exceeds Length
	// by more than one element mid-update.
	Body   []Point
	Length int
}

// NewSnake returns a snake in its initial pose: centered, heading right,
// length one.
func NewSnake() *Snake {
	s := &Snake{}
	s.Reset()
	return s
}

// Reset restores the initial pose after a terminating collision.
func (s *Snake) Reset() {
	s.Head = Point{X: 200, Y: 200}
	s.Velocity = Velocity{DX: Step, DY: 0}
	s.Body = nil
	s.Length = 1
}

// Advance pushes the head into the body, trims the body to the target
// length, then moves the head by the current velocity.
func (s *Snake) Advance() {
	s.Body = append([]Point{s.Head}, s.Body...)
	for len(s.Body) > s.Length {
		s.Body = s.Body[:len(s.Body)-1]
	}
	s.Head.X += s.Velocity.DX
	s.Head.Y += s.Velocity.DY
}

// HitsWall reports whether the head has left the arena.
func (s *Snake) HitsWall() bool {
	return !s.Head.InBounds()
}

// HitsSelf reports whether the head coincides with any body cell.
func (s *Snake) HitsSelf() bool {
	for _, seg := range s.Body {
		if seg == s.Head {
			return true
		}
	}
	return false
}

// Occupies reports whether the head or any body cell sits on p.
func (s *Snake) Occupies(p Point) bool {
	if s.Head == p {
		return true
	}
	for _, seg := range s.Body {
		if seg == p {
			return true
		}
	}
	return false
}
