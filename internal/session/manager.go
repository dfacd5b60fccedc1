package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/tile2048/internal/games/t2048"
	"github.com/vovakirdan/tile2048/internal/games/t2048/engine"
	"github.com/vovakirdan/tile2048/internal/reward"
	"github.com/vovakirdan/tile2048/internal/wallet"
)

// Config holds the manager settings.
type Config struct {
	IdleTimeout    time.Duration // zero disables idle expiry
	CleanupPeriod  time.Duration // how often idle sessions are swept
	EventBuffer    int           // per-subscriber buffer
	RewardMinScore int           // claims below this score are not submitted
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:   30 * time.Minute,
		CleanupPeriod: time.Minute,
		EventBuffer:   32,
	}
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithResultSaver persists every finished game.
func WithResultSaver(s ResultSaver) Option {
	return func(m *Manager) { m.saver = s }
}

// WithRewards opens a reward client for each session with an account.
func WithRewards(f reward.Factory) Option {
	return func(m *Manager) { m.rewards = f }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithRules replaces the per-mode rules lookup.
func WithRules(fn func(t2048.Mode) engine.Rules) Option {
	return func(m *Manager) { m.rulesFor = fn }
}

// Manager owns all remote game sessions.
type Manager struct {
	cfg      Config
	logger   *log.Logger
	saver    ResultSaver     // optional
	rewards  reward.Factory  // optional
	now      func() time.Time
	rulesFor func(t2048.Mode) engine.Rules

	mu       sync.RWMutex
	sessions map[ID]*session
	stopped  bool

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewManager creates a manager. Call Start to run idle cleanup.
func NewManager(cfg Config, opts ...Option) *Manager {
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = DefaultConfig().CleanupPeriod
	}
	m := &Manager{
		cfg:      cfg,
		logger:   log.Default(),
		now:      time.Now,
		rulesFor: t2048.RulesFor,
		sessions: make(map[ID]*session),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins background cleanup of idle sessions.
func (m *Manager) Start() {
	if m.cfg.IdleTimeout <= 0 {
		return
	}
	m.wg.Add(1)
	go m.cleanupLoop()
}

// Stop ends the cleanup loop and abandons every open game.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.wg.Wait()

		m.mu.Lock()
		m.stopped = true
		open := make([]*session, 0, len(m.sessions))
		for id, s := range m.sessions {
			open = append(open, s)
			delete(m.sessions, id)
		}
		m.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, s := range open {
			s.mu.Lock()
			if !s.ended {
				m.finish(ctx, s, EndAbandoned)
			}
			s.closeSubscribers()
			s.mu.Unlock()
		}
	})
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Create starts a new game.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	mode := t2048.ModeClassic
	if req.Mode != "" {
		var err error
		if mode, err = t2048.ParseMode(req.Mode); err != nil {
			return Snapshot{}, err
		}
	}
	if mode == t2048.ModeCampaign {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrUnsupportedMode, mode)
	}

	account := ""
	if req.Account != "" {
		sum, err := wallet.Checksum(req.Account)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: %q", ErrInvalidAccount, req.Account)
		}
		account = sum
	}

	opts := []engine.Option{engine.WithClock(m.now)}
	if req.Seed != 0 {
		opts = append(opts, engine.WithSeed(req.Seed))
	}
	eng, err := engine.New(m.rulesFor(mode), opts...)
	if err != nil {
		return Snapshot{}, fmt.Errorf("session: cannot start game: %w", err)
	}

	s := &session{
		id:         ID(uuid.NewString()),
		mode:       mode,
		account:    account,
		verified:   account != "" && req.Verified,
		engine:     eng,
		subs:       make(map[uint64]*Subscription),
		lastActive: m.now(),
	}
	s.reward = m.openReward(s)

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		s.closeReward(m.logger)
		return Snapshot{}, ErrStopped
	}
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.logger.Info("game started",
		"session", s.id,
		"mode", mode,
		"account", wallet.Short(account),
		"seed", eng.Seed(),
	)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// Move applies one move. A move that changes nothing is not an error.
func (m *Manager) Move(ctx context.Context, id ID, dir engine.Direction) (MoveReply, error) {
	s, err := m.get(id)
	if err != nil {
		return MoveReply{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return MoveReply{}, ErrGameOver
	}
	res, err := s.engine.ApplyMove(dir)
	if err != nil {
		return MoveReply{}, err
	}
	if res.Outcome == engine.MoveNotApplicable {
		return MoveReply{}, ErrGameOver
	}
	s.lastActive = m.now()

	reply := MoveReply{
		Outcome:     res.Outcome,
		Direction:   res.Direction,
		ScoreGained: res.ScoreGained,
		Merges:      len(res.Merges),
		Spawned:     res.Spawned,
	}

	if res.Changed() {
		s.publish(StateEvent{Snapshot: s.snapshot()})
	}
	if res.Status.Terminal() {
		end := m.finish(ctx, s, EndCompleted)
		reply.Ended = &end
	}
	reply.Snapshot = s.snapshot()
	return reply, nil
}

// State returns the current snapshot.
func (m *Manager) State(id ID) (Snapshot, error) {
	s, err := m.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// Restart starts a fresh board in the same session. An unfinished game
// with at least one move is recorded as abandoned first.
func (m *Manager) Restart(ctx context.Context, id ID) (Snapshot, error) {
	s, err := m.get(id)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ended && s.engine.Moves() > 0 {
		m.finish(ctx, s, EndAbandoned)
	}
	if s.reward == nil {
		s.reward = m.openReward(s)
	}

	s.engine.Reset()
	s.ended = false
	s.end = nil
	s.lastActive = m.now()

	snap := s.snapshot()
	s.publish(StateEvent{Snapshot: snap})
	m.logger.Debug("game restarted", "session", s.id)
	return snap, nil
}

// End closes the session. An unfinished game is recorded as abandoned;
// a finished one returns its stored result.
func (m *Manager) End(ctx context.Context, id ID) (EndReply, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return EndReply{}, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var reply EndReply
	if s.ended && s.end != nil {
		reply = *s.end
	} else {
		reply = m.finish(ctx, s, EndAbandoned)
	}
	s.closeReward(m.logger)
	s.closeSubscribers()
	return reply, nil
}

// Subscribe returns a subscription that first receives the current state.
func (m *Manager) Subscribe(id ID) (*Subscription, error) {
	s, err := m.get(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	subID := s.nextSub
	sub := newSubscription(subID, m.cfg.EventBuffer, func() {
		s.mu.Lock()
		delete(s.subs, subID)
		s.mu.Unlock()
	})
	s.subs[subID] = sub
	sub.send(StateEvent{Snapshot: s.snapshot()})
	return sub, nil
}

func (m *Manager) get(id ID) (*session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// openReward opens the session's reward client. Unverified accounts get
// none: anyone can type an address.
func (m *Manager) openReward(s *session) reward.Client {
	if !s.verified || m.rewards == nil {
		return nil
	}
	client, err := m.rewards(s.account)
	if err != nil {
		m.logger.Warn("reward client unavailable", "account", wallet.Short(s.account), "err", err)
		return nil
	}
	return client
}

// finish records the game, submits a reward claim and notifies
// subscribers. The caller holds s.mu.
func (m *Manager) finish(ctx context.Context, s *session, reason EndReason) EndReply {
	rec := ResultRecord{
		SessionID: string(s.id),
		GameID:    s.mode.GameID(),
		Account:   s.account,
		Score:     s.engine.Score(),
		MaxTile:   s.engine.Board().MaxTile(),
		Moves:     s.engine.Moves(),
		Status:    StatusAbandoned,
		Seed:      s.engine.Seed(),
		EndedAt:   m.now(),
	}
	if res, ok := s.engine.Result(); ok {
		rec.Status = res.Status.String()
		rec.EndedAt = res.EndedAt
	}

	if m.saver != nil && rec.Moves > 0 {
		if err := m.saver.SaveResult(ctx, rec); err != nil {
			m.logger.Error("cannot save game result", "session", s.id, "err", err)
		}
	}

	reply := EndReply{Reason: reason, Result: resultOf(rec)}
	if s.reward != nil && rec.Score >= m.cfg.RewardMinScore && rec.Moves > 0 {
		receipt, err := s.reward.Submit(ctx, reward.Claim{
			SessionID: rec.SessionID,
			GameID:    rec.GameID,
			Account:   rec.Account,
			Score:     rec.Score,
			MaxTile:   rec.MaxTile,
			EndedAt:   rec.EndedAt.Unix(),
		})
		if err != nil {
			m.logger.Error("reward claim failed", "session", s.id, "err", err)
		} else {
			reply.Receipt = &receipt
		}
	}
	s.closeReward(m.logger)

	s.ended = true
	s.end = &reply
	s.publish(GameEndedEvent{SessionID: s.id, End: reply})

	m.logger.Info("game ended",
		"session", s.id,
		"reason", reason,
		"status", rec.Status,
		"score", rec.Score,
		"max_tile", rec.MaxTile,
		"moves", rec.Moves,
	)
	return reply
}

func (m *Manager) cleanupLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.cfg.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanupIdle()
		case <-m.done:
			return
		}
	}
}

func (m *Manager) cleanupIdle() {
	now := m.now()

	m.mu.Lock()
	var idle []*session
	for id, s := range m.sessions {
		s.mu.Lock()
		expired := now.Sub(s.lastActive) > m.cfg.IdleTimeout
		s.mu.Unlock()
		if expired {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.mu.Lock()
		if !s.ended {
			m.finish(context.Background(), s, EndIdle)
		}
		s.closeReward(m.logger)
		s.closeSubscribers()
		s.mu.Unlock()
		m.logger.Debug("idle session removed", "session", s.id)
	}
}
