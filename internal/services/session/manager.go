package session

import (
	"context"
	"log/slog"
	"sync"

	"snakearena/internal/dependencies/random"
	"snakearena/internal/model"
	"snakearena/internal/services/economy"
	"snakearena/internal/services/identity"
)

// maxSpawnAttempts bounds the search for a free spawn cell on a crowded
// board.
const maxSpawnAttempts = 64

// ObstacleSource reports cells an avatar must not spawn on.
type ObstacleSource interface {
	OccupiedCells() []model.Point
}

// Outcome classifies the result of a join attempt.
type Outcome int

const (
	// JoinAdmitted means the connection now holds a live session.
	JoinAdmitted Outcome = iota
	// JoinDenied means the account is on cooldown.
	JoinDenied
	// JoinIgnored means the join was discarded: the connection closed
	// mid-resolution, or it already holds a session.
	JoinIgnored
)

// JoinResult is the outcome of a join attempt.
type JoinResult struct {
	Outcome     Outcome
	Account     *model.Account
	WaitMinutes int
}

// View is a read-only snapshot of one live session.
type View struct {
	ConnID    string
	AccountID model.AccountID
	Token     model.Token
	Name      string
	Emoji     string
	Pos       model.Point
}

type session struct {
	connID  string
	account *model.Account
	pos     model.Point
}

// Manager owns the connection-to-session lifecycle. All state behind the
// mutex; identity and economy calls happen outside it, with the connection
// revalidated afterwards.
type Manager struct {
	identity *identity.Service
	economy  *economy.Service
	random   random.Random
	logger   *slog.Logger

	mu        sync.RWMutex
	obstacles ObstacleSource
	conns     map[string]struct{}
	// remembered maps a connection to the last account it resolved, so
	// chat-borne credit codes work after a denied or ended session.
	remembered map[string]model.Token
	sessions   map[string]*session
	byAccount  map[model.AccountID]string
	order      []string
}

// NewManager creates a session Manager. The obstacle source is attached
// later via SetObstacleSource to break the construction cycle with the
// simulation engine.
func NewManager(id *identity.Service, eco *economy.Service, rnd random.Random, logger *slog.Logger) *Manager {
	return &Manager{
		identity:   id,
		economy:    eco,
		random:     rnd,
		logger:     logger,
		conns:      make(map[string]struct{}),
		remembered: make(map[string]model.Token),
		sessions:   make(map[string]*session),
		byAccount:  make(map[model.AccountID]string),
	}
}

// SetObstacleSource attaches the spawn obstacle source.
func (m *Manager) SetObstacleSource(src ObstacleSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obstacles = src
}

// ConnOpened registers a live connection.
func (m *Manager) ConnOpened(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[connID] = struct{}{}
}

// ConnClosed forgets a connection and any session or remembered account it
// held. Returns the session view that was removed, if any.
func (m *Manager) ConnClosed(connID string) (View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, connID)
	delete(m.remembered, connID)
	return m.removeLocked(connID)
}

// Join resolves the request to an account, checks admission and, if all is
// well, spawns a session for the connection.
func (m *Manager) Join(ctx context.Context, connID string, req identity.Request) (JoinResult, error) {
	m.mu.RLock()
	_, open := m.conns[connID]
	_, active := m.sessions[connID]
	m.mu.RUnlock()
	if !open || active {
		return JoinResult{Outcome: JoinIgnored}, nil
	}

	account, err := m.identity.Resolve(ctx, req)
	if err != nil {
		return JoinResult{}, err
	}
	admission := m.economy.CheckAdmission(account)
	obstacles := m.obstacleCells()

	m.mu.Lock()
	defer m.mu.Unlock()

	// The connection may have closed while we were talking to storage.
	if _, open := m.conns[connID]; !open {
		return JoinResult{Outcome: JoinIgnored}, nil
	}
	m.remembered[connID] = account.Token

	if !admission.Admitted {
		m.logger.Info("join denied",
			slog.String("conn_id", connID),
			slog.String("account_id", string(account.ID)),
			slog.Int("wait_minutes", admission.WaitMinutes),
		)
		return JoinResult{
			Outcome:     JoinDenied,
			Account:     account,
			WaitMinutes: admission.WaitMinutes,
		}, nil
	}

	if existing, ok := m.byAccount[account.ID]; ok && existing != connID {
		return JoinResult{}, model.ErrAccountActive
	}

	sess := &session{
		connID:  connID,
		account: account,
		pos:     m.spawnFreeLocked(obstacles),
	}
	m.sessions[connID] = sess
	m.byAccount[account.ID] = connID
	m.order = append(m.order, connID)

	m.logger.Info("session joined",
		slog.String("conn_id", connID),
		slog.String("account_id", string(account.ID)),
		slog.Int("x", sess.pos.X),
		slog.Int("y", sess.pos.Y),
	)

	return JoinResult{Outcome: JoinAdmitted, Account: account}, nil
}

// MoveAvatar shifts a session's avatar one cell in the given direction.
// Moves that would leave the arena are dropped.
func (m *Manager) MoveAvatar(connID string, dir model.Direction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[connID]
	if !ok {
		return
	}
	v := dir.Velocity()
	next := model.Point{X: sess.pos.X + v.DX, Y: sess.pos.Y + v.DY}
	if next.InBounds() {
		sess.pos = next
	}
}

// Leave ends a session voluntarily. The remembered account stays until the
// connection itself closes, so codes and payments still reach it.
func (m *Manager) Leave(connID string) (View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(connID)
}

// Drop ends the session holding the given account token, keeping the
// remembered account so the connection can still redeem codes and rejoin.
func (m *Manager) Drop(token model.Token) (View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for connID, sess := range m.sessions {
		if sess.account.Token == token {
			return m.removeLocked(connID)
		}
	}
	return View{}, false
}

// Respawn relocates a session's avatar to a fresh free cell, returning the
// new view. The caller supplies the cells to avoid; the manager adds the
// other avatars itself.
func (m *Manager) Respawn(connID string, obstacles []model.Point) (View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[connID]
	if !ok {
		return View{}, false
	}
	sess.pos = m.spawnFreeLocked(obstacles)
	return viewOf(sess), true
}

// RememberedToken returns the account token last resolved on a connection.
func (m *Manager) RememberedToken(connID string) (model.Token, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	token, ok := m.remembered[connID]
	return token, ok
}

// RememberingConns returns every connection whose last resolved account is
// the given token, live session or not.
func (m *Manager) RememberingConns(token model.Token) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var conns []string
	for connID, t := range m.remembered {
		if t == token {
			conns = append(conns, connID)
		}
	}
	return conns
}

// ConnForToken returns the connection currently holding a session for the
// given account token.
func (m *Manager) ConnForToken(token model.Token) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for connID, sess := range m.sessions {
		if sess.account.Token == token {
			return connID, true
		}
	}
	return "", false
}

// Ordered returns views of all live sessions in join order.
func (m *Manager) Ordered() []View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	views := make([]View, 0, len(m.order))
	for _, connID := range m.order {
		if sess, ok := m.sessions[connID]; ok {
			views = append(views, viewOf(sess))
		}
	}
	return views
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) removeLocked(connID string) (View, bool) {
	sess, ok := m.sessions[connID]
	if !ok {
		return View{}, false
	}
	delete(m.sessions, connID)
	delete(m.byAccount, sess.account.ID)
	for i, id := range m.order {
		if id == connID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.logger.Info("session ended",
		slog.String("conn_id", connID),
		slog.String("account_id", string(sess.account.ID)),
	)
	return viewOf(sess), true
}

// obstacleCells snapshots the spawn obstacles. Called without m.mu held:
// the source is the simulation engine, which takes its own lock and may
// call back into the manager.
func (m *Manager) obstacleCells() []model.Point {
	m.mu.RLock()
	src := m.obstacles
	m.mu.RUnlock()
	if src == nil {
		return nil
	}
	return src.OccupiedCells()
}

// spawnFreeLocked picks a random grid cell avoiding the given obstacles and
// the other avatars. Gives up after a bounded number of attempts and
// accepts the last candidate.
func (m *Manager) spawnFreeLocked(obstacles []model.Point) model.Point {
	cols := model.ArenaWidth / model.Step
	rows := model.ArenaHeight / model.Step

	var candidate model.Point
	for attempt := 0; attempt < maxSpawnAttempts; attempt++ {
		candidate = model.Point{
			X: m.random.Intn(cols) * model.Step,
			Y: m.random.Intn(rows) * model.Step,
		}
		if m.cellFreeLocked(candidate, obstacles) {
			return candidate
		}
	}
	return candidate
}

func (m *Manager) cellFreeLocked(p model.Point, obstacles []model.Point) bool {
	for _, cell := range obstacles {
		if cell == p {
			return false
		}
	}
	for _, sess := range m.sessions {
		if sess.pos == p {
			return false
		}
	}
	return true
}

func viewOf(sess *session) View {
	return View{
		ConnID:    sess.connID,
		AccountID: sess.account.ID,
		Token:     sess.account.Token,
		Name:      sess.account.Name,
		Emoji:     sess.account.Emoji,
		Pos:       sess.pos,
	}
}
