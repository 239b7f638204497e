package game_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"snakearena/internal/dependencies/mocks"
	"snakearena/internal/game"
	"snakearena/internal/model"
	"snakearena/internal/protocol"
	"snakearena/internal/services/economy"
	"snakearena/internal/services/identity"
	"snakearena/internal/services/leaderboard"
	"snakearena/internal/services/session"
	"snakearena/internal/storage/memory"
	"snakearena/internal/testutil"
)

type capturePublisher struct {
	mu      sync.Mutex
	states  []protocol.State
	credits map[string][]protocol.CreditsUpdate
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{credits: make(map[string][]protocol.CreditsUpdate)}
}

func (p *capturePublisher) PublishState(state protocol.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, state)
}

func (p *capturePublisher) SendCreditsUpdate(connID string, update protocol.CreditsUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.credits[connID] = append(p.credits[connID], update)
}

func (p *capturePublisher) lastState() protocol.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.states[len(p.states)-1]
}

func (p *capturePublisher) creditsFor(connID string) []protocol.CreditsUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.credits[connID]
}

type EngineTestSuite struct {
	suite.Suite

	store    *memory.Storage
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	sessions *session.Manager
	board    *leaderboard.Service
	pub      *capturePublisher
	engine   *game.Engine
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (s *EngineTestSuite) SetupTest() {
	s.store = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.pub = newCapturePublisher()

	logger := testutil.NopLogger()
	id := identity.New(s.store, s.random, "bot-token", logger)
	eco := economy.New(s.store, s.clock, logger)
	s.sessions = session.NewManager(id, eco, s.random, logger)
	s.board = leaderboard.New(s.store, s.clock, logger)
	s.engine = game.NewEngine(s.sessions, eco, s.board, s.pub, logger)
	s.sessions.SetObstacleSource(s.engine)
}

// join spawns an avatar at the given grid cell.
func (s *EngineTestSuite) join(connID string, token model.Token, credits, col, row int) {
	s.Require().NoError(s.store.CreateAccount(context.Background(), &model.Account{
		Token:   token,
		ID:      model.AccountID("acc_" + string(token)),
		Name:    "player " + string(token),
		Emoji:   "🐍",
		Credits: credits,
	}))
	s.sessions.ConnOpened(connID)
	s.random.QueueIntn(col, row)
	result, err := s.sessions.Join(context.Background(), connID, identity.Request{Token: string(token)})
	s.Require().NoError(err)
	s.Require().Equal(session.JoinAdmitted, result.Outcome)
}

func (s *EngineTestSuite) TestTick_NoSessionsIdles() {
	s.engine.Tick(context.Background())
	s.engine.Tick(context.Background())

	state := s.pub.lastState()
	s.Equal(200, state.Snake.X)
	s.Equal(200, state.Snake.Y)
	s.Equal(1, state.Snake.Length)
	s.Zero(state.Score)
	s.Empty(state.Sessions)
}

func (s *EngineTestSuite) TestTick_SteersTowardNearestNotFirstJoined() {
	s.join("conn1", "tok_far", 5, 0, 0)    // (0, 0), far away
	s.join("conn2", "tok_near", 5, 11, 10) // (220, 200), adjacent right

	s.random.QueueIntn(3, 3) // respawn draw after the capture
	s.engine.Tick(context.Background())

	state := s.pub.lastState()
	s.Equal(220, state.Snake.X)
	s.Equal(200, state.Snake.Y)
	s.Equal(game.CaptureReward, state.Score)
	s.Equal(2, state.Snake.Length)

	// The captured avatar was relocated to the queued cell.
	s.Require().Len(state.Sessions, 2)
	for _, sess := range state.Sessions {
		if sess.ID == "acc_tok_near" {
			s.Equal(60, sess.X)
			s.Equal(60, sess.Y)
		}
	}
}

func (s *EngineTestSuite) TestTick_EquidistantTieGoesToEarlierJoiner() {
	s.join("conn1", "tok_first", 5, 11, 10)  // (220, 200), one step right
	s.join("conn2", "tok_second", 5, 9, 10)  // (180, 200), one step left

	s.random.QueueIntn(3, 3)
	s.engine.Tick(context.Background())

	state := s.pub.lastState()
	s.Equal(220, state.Snake.X)
	s.Equal(game.CaptureReward, state.Score)
	for _, sess := range state.Sessions {
		if sess.ID == "acc_tok_first" {
			s.Equal(60, sess.X)
		}
		if sess.ID == "acc_tok_second" {
			s.Equal(180, sess.X)
		}
	}
}

// A full round: one capture, then the player parks the avatar on the head
// each tick so the snake never steers and runs into the wall. The round
// settles the player's last credit, starts a cooldown and drops the
// session, and the score lands on the durable board.
func (s *EngineTestSuite) TestRound_WallCollisionSettles() {
	ctx := context.Background()
	s.join("conn1", "tok_a", 1, 11, 10) // (220, 200)

	s.random.QueueIntn(12, 10) // respawn to (240, 200)
	s.engine.Tick(ctx)
	s.Equal(game.CaptureReward, s.pub.lastState().Score)

	// Track the head from one cell behind: step onto it, tick, repeat.
	s.sessions.MoveAvatar("conn1", model.DirLeft) // back onto the head
	for s.pub.lastState().Snake.X < model.ArenaWidth-model.Step {
		s.engine.Tick(ctx)
		s.sessions.MoveAvatar("conn1", model.DirRight)
	}

	// Head is at the right edge with the avatar on it; one more tick walks
	// out of bounds.
	s.engine.Tick(ctx)
	s.engine.Flush()

	state := s.pub.lastState()
	s.Equal(200, state.Snake.X)
	s.Equal(200, state.Snake.Y)
	s.Equal(1, state.Snake.Length)
	s.Zero(state.Score)

	updates := s.pub.creditsFor("conn1")
	s.Require().Len(updates, 1)
	s.Zero(updates[0].Credits)
	s.Equal(60, updates[0].WaitMinutes)
	s.Equal(s.clock.Now().Add(economy.CooldownDuration).UnixMilli(), updates[0].Cooldown)

	s.Zero(s.sessions.Count())

	entries, err := s.board.TopMultiplayer(ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(game.CaptureReward, entries[0].Score)
	s.Equal([]string{"player tok_a"}, entries[0].Names)
}

func (s *EngineTestSuite) TestRound_CreditsRemainingNotDropped() {
	ctx := context.Background()
	s.join("conn1", "tok_rich", 3, 11, 10)

	s.random.QueueIntn(12, 10)
	s.engine.Tick(ctx)
	s.sessions.MoveAvatar("conn1", model.DirLeft)
	for s.pub.lastState().Snake.X < model.ArenaWidth-model.Step {
		s.engine.Tick(ctx)
		s.sessions.MoveAvatar("conn1", model.DirRight)
	}
	s.engine.Tick(ctx)
	s.engine.Flush()

	updates := s.pub.creditsFor("conn1")
	s.Require().Len(updates, 1)
	s.Equal(2, updates[0].Credits)
	s.Zero(updates[0].WaitMinutes)

	// Still in the arena.
	s.Equal(1, s.sessions.Count())
}

func (s *EngineTestSuite) TestTick_RecoversFromPanic() {
	panicking := &panickingPublisher{}
	logger := testutil.NopLogger()
	eco := economy.New(s.store, s.clock, logger)
	engine := game.NewEngine(s.sessions, eco, s.board, panicking, logger)

	s.NotPanics(func() {
		engine.Tick(context.Background())
	})
}

func (s *EngineTestSuite) TestOccupiedCells() {
	cells := s.engine.OccupiedCells()
	s.Equal([]model.Point{{X: 200, Y: 200}}, cells)
}

func (s *EngineTestSuite) TestRun_StopsOnCancel() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.engine.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		s.Fail("engine did not stop")
	}
}

type panickingPublisher struct{}

func (p *panickingPublisher) PublishState(protocol.State) { panic("publish failed") }

func (p *panickingPublisher) SendCreditsUpdate(string, protocol.CreditsUpdate) {}
