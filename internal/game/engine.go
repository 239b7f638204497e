package game

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"snakearena/internal/model"
	"snakearena/internal/protocol"
	"snakearena/internal/services/economy"
	"snakearena/internal/services/leaderboard"
	"snakearena/internal/services/session"
)

const (
	// TickInterval is the fixed simulation cadence.
	TickInterval = 150 * time.Millisecond

	// CaptureReward is the score added when the snake catches an avatar.
	CaptureReward = 10
)

// Publisher delivers engine output to connected clients.
type Publisher interface {
	// PublishState fans a world snapshot out to every client.
	PublishState(state protocol.State)
	// SendCreditsUpdate delivers a balance change to one client.
	SendCreditsUpdate(connID string, update protocol.CreditsUpdate)
}

// Engine runs the shared arena: one snake, one accumulating score, all
// connected avatars as prey. A tick advances the snake one cell along a
// shortest path to the nearest avatar.
type Engine struct {
	sessions *session.Manager
	economy  *economy.Service
	board    *leaderboard.Service
	pub      Publisher
	logger   *slog.Logger

	mu    sync.Mutex
	snake *model.Snake
	score int

	settleWG sync.WaitGroup
}

// NewEngine creates an Engine with the snake in its initial pose.
func NewEngine(sessions *session.Manager, eco *economy.Service, board *leaderboard.Service, pub Publisher, logger *slog.Logger) *Engine {
	return &Engine{
		sessions: sessions,
		economy:  eco,
		board:    board,
		pub:      pub,
		logger:   logger,
		snake:    model.NewSnake(),
	}
}

// Run ticks the simulation until ctx is cancelled, then waits for any
// in-flight round settlement.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	e.logger.Info("simulation started", slog.Duration("tick", TickInterval))
	for {
		select {
		case <-ctx.Done():
			e.settleWG.Wait()
			e.logger.Info("simulation stopped")
			return
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Tick advances the world one step and broadcasts the resulting snapshot.
// A panic in tick logic is contained to that tick; the arena keeps running.
func (e *Engine) Tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tick panicked", slog.Any("panic", r))
		}
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	views := e.sessions.Ordered()
	if len(views) == 0 {
		// Nobody to chase. Keep spectators fed but leave the world alone.
		e.pub.PublishState(e.snapshotLocked(views))
		return
	}
	if target, ok := e.nearestTarget(views); ok {
		e.steerToward(target.Pos)
	}
	e.snake.Advance()

	if e.snake.HitsWall() || e.snake.HitsSelf() {
		final := e.score
		e.snake.Reset()
		e.score = 0
		e.logger.Info("round ended", slog.Int("score", final), slog.Int("participants", len(views)))
		if len(views) > 0 {
			e.settleRound(final, views)
		}
		e.pub.PublishState(e.snapshotLocked(e.sessions.Ordered()))
		return
	}

	for _, v := range views {
		if v.Pos == e.snake.Head {
			e.score += CaptureReward
			e.snake.Length++
			e.sessions.Respawn(v.ConnID, e.snakeCellsLocked())
			e.logger.Debug("avatar captured",
				slog.String("account_id", string(v.AccountID)),
				slog.Int("score", e.score),
			)
		}
	}

	e.pub.PublishState(e.snapshotLocked(e.sessions.Ordered()))
}

// nearestTarget picks the avatar with the smallest walking distance to the
// head. Ties go to the earliest joiner.
func (e *Engine) nearestTarget(views []session.View) (session.View, bool) {
	var best session.View
	bestDist := -1
	for _, v := range views {
		if d := model.ManhattanDist(e.snake.Head, v.Pos); bestDist < 0 || d < bestDist {
			best = v
			bestDist = d
		}
	}
	return best, bestDist >= 0
}

// steerToward points the snake's velocity along a shortest path to the
// target. The tail tip vacates its cell this tick, so it is not an
// obstacle. With no usable step the current heading stands.
func (e *Engine) steerToward(target model.Point) {
	obstacles := e.snake.Body
	if len(obstacles) > 0 && e.snake.Length <= len(obstacles) {
		obstacles = obstacles[:len(obstacles)-1]
	}
	step, ok := NextStep(e.snake.Head, target, obstacles)
	if !ok {
		return
	}
	e.snake.Velocity = model.Velocity{
		DX: step.X - e.snake.Head.X,
		DY: step.Y - e.snake.Head.Y,
	}
}

// settleRound charges the round's participants off the tick path. Credit
// updates and drops land a beat after the reset broadcast, which mirrors
// how clients experience the round ending.
func (e *Engine) settleRound(score int, views []session.View) {
	tokens := make([]model.Token, len(views))
	ids := make([]model.AccountID, len(views))
	names := make([]string, len(views))
	for i, v := range views {
		tokens[i] = v.Token
		ids[i] = v.AccountID
		names[i] = v.Name
	}

	e.settleWG.Add(1)
	go func() {
		defer e.settleWG.Done()
		ctx := context.Background()

		settlements, err := e.economy.SettleRound(ctx, tokens)
		if err != nil {
			e.logger.Error("round settlement failed", slog.Any("error", err))
			return
		}
		for _, st := range settlements {
			if connID, ok := e.sessions.ConnForToken(st.Token); ok {
				e.pub.SendCreditsUpdate(connID, NewCreditsUpdate(st))
			}
			if st.Dropped {
				e.sessions.Drop(st.Token)
			}
		}

		if err := e.board.RecordRound(ctx, ids, names, score); err != nil {
			e.logger.Error("round record failed", slog.Any("error", err))
		}
	}()
}

// Flush blocks until any in-flight settlement has finished.
func (e *Engine) Flush() {
	e.settleWG.Wait()
}

// OccupiedCells reports every cell the snake currently covers. Implements
// the session manager's spawn obstacle source.
func (e *Engine) OccupiedCells() []model.Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snakeCellsLocked()
}

// Snapshot returns the current world state, for clients that need one
// outside the tick cadence.
func (e *Engine) Snapshot() protocol.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(e.sessions.Ordered())
}

func (e *Engine) snakeCellsLocked() []model.Point {
	cells := make([]model.Point, 0, len(e.snake.Body)+1)
	cells = append(cells, e.snake.Head)
	cells = append(cells, e.snake.Body...)
	return cells
}

func (e *Engine) snapshotLocked(views []session.View) protocol.State {
	tail := make([]model.Point, len(e.snake.Body))
	copy(tail, e.snake.Body)

	sessions := make([]protocol.SessionState, len(views))
	for i, v := range views {
		sessions[i] = protocol.SessionState{
			ID:    v.AccountID,
			X:     v.Pos.X,
			Y:     v.Pos.Y,
			Emoji: v.Emoji,
			Name:  v.Name,
		}
	}

	return protocol.State{
		Type: protocol.TypeState,
		Snake: protocol.SnakeState{
			X:      e.snake.Head.X,
			Y:      e.snake.Head.Y,
			Tail:   tail,
			Length: e.snake.Length,
		},
		Sessions: sessions,
		Score:    e.score,
	}
}

// NewCreditsUpdate converts a settlement into its wire message.
func NewCreditsUpdate(st economy.Settlement) protocol.CreditsUpdate {
	update := protocol.CreditsUpdate{
		Type:        protocol.TypeCreditsUpdate,
		Credits:     st.Credits,
		WaitMinutes: st.WaitMinutes,
	}
	if !st.CooldownUntil.IsZero() {
		update.Cooldown = st.CooldownUntil.UnixMilli()
	}
	return update
}
