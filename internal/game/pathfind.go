package game

import (
	"snakearena/internal/model"
)

// neighborOffsets is the fixed expansion order for the search: right, left,
// down, up. Ties between equally short paths always resolve the same way,
// which keeps the snake's motion deterministic.
var neighborOffsets = [4]struct {
	dx, dy int
}{
	{model.Step, 0},
	{-model.Step, 0},
	{0, model.Step},
	{0, -model.Step},
}

// NextStep returns the first cell of a shortest path from start to goal
// that avoids the given obstacle cells, walking the arena grid. The goal
// itself is never treated as blocked. When no path exists the result falls
// back to the first free in-bounds neighbor in expansion order; when start
// equals goal, or every neighbor is blocked, ok is false and the caller
// keeps its current heading.
func NextStep(start, goal model.Point, obstacles []model.Point) (model.Point, bool) {
	if start == goal {
		return model.Point{}, false
	}

	blocked := make(map[model.Point]struct{}, len(obstacles))
	for _, cell := range obstacles {
		blocked[cell] = struct{}{}
	}
	delete(blocked, goal)

	prev := map[model.Point]model.Point{start: start}
	queue := []model.Point{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == goal {
			return firstStep(prev, start, goal), true
		}

		for _, off := range neighborOffsets {
			next := model.Point{X: current.X + off.dx, Y: current.Y + off.dy}
			if !next.InBounds() {
				continue
			}
			if _, bad := blocked[next]; bad {
				continue
			}
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = current
			queue = append(queue, next)
		}
	}

	return fallbackStep(start, blocked)
}

// firstStep walks the predecessor chain back from goal to the cell adjacent
// to start.
func firstStep(prev map[model.Point]model.Point, start, goal model.Point) model.Point {
	step := goal
	for prev[step] != start {
		step = prev[step]
	}
	return step
}

// fallbackStep picks the first free in-bounds neighbor in expansion order.
// Used when the goal is fully walled off so the snake still keeps moving.
func fallbackStep(start model.Point, blocked map[model.Point]struct{}) (model.Point, bool) {
	for _, off := range neighborOffsets {
		next := model.Point{X: start.X + off.dx, Y: start.Y + off.dy}
		if !next.InBounds() {
			continue
		}
		if _, bad := blocked[next]; bad {
			continue
		}
		return next, true
	}
	return model.Point{}, false
}
