package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tile2048/internal/games/t2048"
	"github.com/vovakirdan/tile2048/internal/games/t2048/engine"
	"github.com/vovakirdan/tile2048/internal/reward"
)

const testAccount = "0x52908400098527886e0f7030069857d2e4169ee7"

type memSaver struct {
	mu      sync.Mutex
	records []ResultRecord
}

func (s *memSaver) SaveResult(_ context.Context, r ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *memSaver) all() []ResultRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ResultRecord(nil), s.records...)
}

type fakeReward struct {
	mu       sync.Mutex
	claims   []reward.Claim
	closed   int
	closeErr error
}

func (f *fakeReward) factory() reward.Factory {
	return func(string) (reward.Client, error) { return &fakeClient{parent: f}, nil }
}

type fakeClient struct {
	parent *fakeReward
	closed bool
}

func (c *fakeClient) Submit(_ context.Context, claim reward.Claim) (reward.Receipt, error) {
	if c.closed {
		return reward.Receipt{}, reward.ErrClosed
	}
	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()
	c.parent.claims = append(c.parent.claims, claim)
	return reward.Receipt{ClaimID: int64(len(c.parent.claims)), Status: reward.StatusPending}, nil
}

func (c *fakeClient) Close() error {
	if !c.closed {
		c.closed = true
		c.parent.mu.Lock()
		c.parent.closed++
		c.parent.mu.Unlock()
	}
	return c.parent.closeErr
}

// tinyRules make a 2x2 game that can only end in a win: the first 4 wins.
func tinyRules(t2048.Mode) engine.Rules {
	return engine.Rules{Size: 2, Target: 4, Spawn4Probability: 0, InitialTiles: 2}
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestManager(t *testing.T, cfg Config, opts ...Option) *Manager {
	t.Helper()
	base := []Option{WithLogger(log.New(io.Discard))}
	m := NewManager(cfg, append(base, opts...)...)
	t.Cleanup(m.Stop)
	return m
}

// playUntilEnd cycles directions until the game ends.
func playUntilEnd(t *testing.T, m *Manager, id ID) MoveReply {
	t.Helper()
	for i := 0; i < 100; i++ {
		reply, err := m.Move(context.Background(), id, engine.Directions()[i%4])
		require.NoError(t, err)
		if reply.Ended != nil {
			return reply
		}
	}
	t.Fatal("game did not end")
	return MoveReply{}
}

// applyOne makes the first move that changes the board.
func applyOne(t *testing.T, m *Manager, id ID) MoveReply {
	t.Helper()
	for _, d := range engine.Directions() {
		reply, err := m.Move(context.Background(), id, d)
		require.NoError(t, err)
		if reply.Outcome == engine.MoveApplied {
			return reply
		}
	}
	t.Fatal("no direction changed the board")
	return MoveReply{}
}

func TestCreate(t *testing.T) {
	m := newTestManager(t, DefaultConfig())

	snap, err := m.Create(context.Background(), CreateRequest{Mode: "classic", Account: testAccount, Seed: 7})
	require.NoError(t, err)

	assert.NotEmpty(t, snap.SessionID)
	assert.Equal(t, "classic", snap.Mode)
	assert.Equal(t, "0x52908400098527886E0F7030069857D2E4169EE7", snap.Account, "account is checksummed")
	assert.Equal(t, 4, snap.Size)
	assert.Len(t, snap.Tiles, 2)
	assert.Equal(t, engine.StatusOngoing, snap.Status)
	assert.False(t, snap.Ended)
	assert.Equal(t, 1, m.Count())

	again, err := m.Create(context.Background(), CreateRequest{Seed: 7})
	require.NoError(t, err)
	assert.NotEqual(t, snap.SessionID, again.SessionID)
	assert.Equal(t, "classic", again.Mode, "empty mode defaults to classic")
	assert.Equal(t, snap.Cells, again.Cells, "same seed, same opening")
}

func TestCreateRejects(t *testing.T) {
	m := newTestManager(t, DefaultConfig())
	ctx := context.Background()

	_, err := m.Create(ctx, CreateRequest{Mode: "campaign"})
	assert.ErrorIs(t, err, ErrUnsupportedMode)

	_, err = m.Create(ctx, CreateRequest{Mode: "blitz"})
	assert.ErrorIs(t, err, t2048.ErrUnknownMode)

	_, err = m.Create(ctx, CreateRequest{Account: "0xnothex"})
	assert.ErrorIs(t, err, ErrInvalidAccount)

	assert.Zero(t, m.Count())
}

func TestMoveUnknownSession(t *testing.T) {
	m := newTestManager(t, DefaultConfig())

	_, err := m.Move(context.Background(), "missing", engine.DirLeft)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.State("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.End(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoveInvalidDirection(t *testing.T) {
	m := newTestManager(t, DefaultConfig())
	snap, err := m.Create(context.Background(), CreateRequest{Seed: 1})
	require.NoError(t, err)

	_, err = m.Move(context.Background(), snap.SessionID, engine.Direction(9))
	assert.ErrorIs(t, err, engine.ErrInvalidDirection)
}

func TestMoveUpdatesState(t *testing.T) {
	m := newTestManager(t, DefaultConfig())
	snap, err := m.Create(context.Background(), CreateRequest{Seed: 3})
	require.NoError(t, err)

	reply := applyOne(t, m, snap.SessionID)
	require.NotNil(t, reply.Spawned)
	assert.Equal(t, 1, reply.Snapshot.Moves)

	state, err := m.State(snap.SessionID)
	require.NoError(t, err)
	assert.Equal(t, reply.Snapshot.Cells, state.Cells)
}

func TestGameCompletesAndPaysOut(t *testing.T) {
	saver := &memSaver{}
	rewards := &fakeReward{}
	cfg := DefaultConfig()
	cfg.RewardMinScore = 4
	m := newTestManager(t, cfg,
		WithRules(tinyRules),
		WithResultSaver(saver),
		WithRewards(rewards.factory()),
	)

	snap, err := m.Create(context.Background(), CreateRequest{Account: testAccount, Seed: 11, Verified: true})
	require.NoError(t, err)

	reply := playUntilEnd(t, m, snap.SessionID)
	require.NotNil(t, reply.Ended)
	assert.Equal(t, EndCompleted, reply.Ended.Reason)
	assert.Equal(t, "won", reply.Ended.Result.Status)
	assert.Equal(t, 4, reply.Ended.Result.MaxTile)
	assert.True(t, reply.Snapshot.Ended)
	require.NotNil(t, reply.Ended.Receipt)
	assert.Equal(t, reward.StatusPending, reply.Ended.Receipt.Status)

	records := saver.all()
	require.Len(t, records, 1)
	assert.Equal(t, "2048_classic", records[0].GameID)
	assert.Equal(t, "won", records[0].Status)
	assert.Equal(t, int64(11), records[0].Seed)

	require.Len(t, rewards.claims, 1)
	assert.Equal(t, string(snap.SessionID), rewards.claims[0].SessionID)
	assert.Equal(t, 1, rewards.closed, "client is closed when the game ends")

	_, err = m.Move(context.Background(), snap.SessionID, engine.DirLeft)
	assert.ErrorIs(t, err, ErrGameOver)

	end, err := m.End(context.Background(), snap.SessionID)
	require.NoError(t, err)
	assert.Equal(t, EndCompleted, end.Reason, "End returns the stored result")
	assert.Len(t, saver.all(), 1, "no second record")
	assert.Zero(t, m.Count())
}

func TestRewardCloseErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	rewards := &fakeReward{closeErr: errors.New("rpc gone")}
	m := newTestManager(t, DefaultConfig(),
		WithLogger(log.New(&buf)),
		WithRules(tinyRules),
		WithRewards(rewards.factory()),
	)

	snap, err := m.Create(context.Background(), CreateRequest{Account: testAccount, Seed: 11, Verified: true})
	require.NoError(t, err)
	reply := playUntilEnd(t, m, snap.SessionID)

	require.NotNil(t, reply.Ended.Receipt, "the claim is filed before the client closes")
	assert.Equal(t, 1, rewards.closed)
	assert.Contains(t, buf.String(), "cannot close reward client")
	assert.Contains(t, buf.String(), "rpc gone")
}

func TestRewardBelowThreshold(t *testing.T) {
	rewards := &fakeReward{}
	cfg := DefaultConfig()
	cfg.RewardMinScore = 1_000_000
	m := newTestManager(t, cfg, WithRules(tinyRules), WithRewards(rewards.factory()))

	snap, err := m.Create(context.Background(), CreateRequest{Account: testAccount, Seed: 5, Verified: true})
	require.NoError(t, err)
	reply := playUntilEnd(t, m, snap.SessionID)

	assert.Nil(t, reply.Ended.Receipt)
	assert.Empty(t, rewards.claims)
	assert.Equal(t, 1, rewards.closed)
}

func TestNoRewardWithoutAccount(t *testing.T) {
	rewards := &fakeReward{}
	m := newTestManager(t, DefaultConfig(), WithRules(tinyRules), WithRewards(rewards.factory()))

	snap, err := m.Create(context.Background(), CreateRequest{Seed: 5})
	require.NoError(t, err)
	playUntilEnd(t, m, snap.SessionID)

	assert.Empty(t, rewards.claims)
	assert.Zero(t, rewards.closed, "no client was opened")
}

func TestNoRewardForUnverifiedAccount(t *testing.T) {
	saver := &memSaver{}
	rewards := &fakeReward{}
	m := newTestManager(t, DefaultConfig(),
		WithRules(tinyRules),
		WithResultSaver(saver),
		WithRewards(rewards.factory()),
	)

	snap, err := m.Create(context.Background(), CreateRequest{Account: testAccount, Seed: 5})
	require.NoError(t, err)
	reply := playUntilEnd(t, m, snap.SessionID)
	assert.Nil(t, reply.Ended.Receipt)

	_, err = m.Restart(context.Background(), snap.SessionID)
	require.NoError(t, err)
	playUntilEnd(t, m, snap.SessionID)

	assert.Empty(t, rewards.claims)
	assert.Zero(t, rewards.closed, "no client was opened")
	assert.Len(t, saver.all(), 2, "games are still recorded")
}

func TestEndAbandons(t *testing.T) {
	saver := &memSaver{}
	m := newTestManager(t, DefaultConfig(), WithResultSaver(saver))

	snap, err := m.Create(context.Background(), CreateRequest{Seed: 9})
	require.NoError(t, err)
	applyOne(t, m, snap.SessionID)

	end, err := m.End(context.Background(), snap.SessionID)
	require.NoError(t, err)
	assert.Equal(t, EndAbandoned, end.Reason)
	assert.Equal(t, StatusAbandoned, end.Result.Status)
	assert.Equal(t, 1, end.Result.Moves)

	records := saver.all()
	require.Len(t, records, 1)
	assert.Equal(t, StatusAbandoned, records[0].Status)

	_, err = m.State(snap.SessionID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEndWithoutMovesIsNotSaved(t *testing.T) {
	saver := &memSaver{}
	m := newTestManager(t, DefaultConfig(), WithResultSaver(saver))

	snap, err := m.Create(context.Background(), CreateRequest{})
	require.NoError(t, err)
	_, err = m.End(context.Background(), snap.SessionID)
	require.NoError(t, err)
	assert.Empty(t, saver.all())
}

func TestRestart(t *testing.T) {
	saver := &memSaver{}
	rewards := &fakeReward{}
	m := newTestManager(t, DefaultConfig(),
		WithRules(tinyRules),
		WithResultSaver(saver),
		WithRewards(rewards.factory()),
	)

	snap, err := m.Create(context.Background(), CreateRequest{Account: testAccount, Seed: 2, Verified: true})
	require.NoError(t, err)
	playUntilEnd(t, m, snap.SessionID)

	fresh, err := m.Restart(context.Background(), snap.SessionID)
	require.NoError(t, err)
	assert.False(t, fresh.Ended)
	assert.Zero(t, fresh.Moves)
	assert.Zero(t, fresh.Score)
	assert.Equal(t, engine.StatusOngoing, fresh.Status)
	assert.Len(t, saver.all(), 1, "finished game is not recorded twice")

	// the restarted game gets a new reward client
	reply := playUntilEnd(t, m, snap.SessionID)
	require.NotNil(t, reply.Ended.Receipt)
	assert.Len(t, rewards.claims, 2)

	records := saver.all()
	require.Len(t, records, 2)
	assert.Equal(t, int64(2), records[0].Seed)
	assert.NotZero(t, records[1].Seed)
	assert.NotEqual(t, records[0].Seed, records[1].Seed, "each game records its own seed")
}

func TestRestartAbandonsGameInProgress(t *testing.T) {
	saver := &memSaver{}
	m := newTestManager(t, DefaultConfig(), WithResultSaver(saver))

	snap, err := m.Create(context.Background(), CreateRequest{Seed: 4})
	require.NoError(t, err)
	applyOne(t, m, snap.SessionID)

	_, err = m.Restart(context.Background(), snap.SessionID)
	require.NoError(t, err)

	records := saver.all()
	require.Len(t, records, 1)
	assert.Equal(t, StatusAbandoned, records[0].Status)
}

func TestSubscribe(t *testing.T) {
	m := newTestManager(t, DefaultConfig(), WithRules(tinyRules))

	snap, err := m.Create(context.Background(), CreateRequest{Seed: 8})
	require.NoError(t, err)
	sub, err := m.Subscribe(snap.SessionID)
	require.NoError(t, err)

	first := <-sub.Events()
	require.IsType(t, StateEvent{}, first)
	assert.Equal(t, snap.Cells, first.(StateEvent).Snapshot.Cells)

	playUntilEnd(t, m, snap.SessionID)

	var ended *GameEndedEvent
	for ended == nil {
		select {
		case evt := <-sub.Events():
			if e, ok := evt.(GameEndedEvent); ok {
				ended = &e
			}
		case <-time.After(time.Second):
			t.Fatal("no game_ended event")
		}
	}
	assert.Equal(t, snap.SessionID, ended.SessionID)
	assert.Equal(t, "game_ended", ended.Kind())

	_, err = m.End(context.Background(), snap.SessionID)
	require.NoError(t, err)
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after End")
	}
	sub.Close()
}

func TestSubscriptionDropsOldest(t *testing.T) {
	sub := newSubscription(1, 2, nil)
	for i := 1; i <= 3; i++ {
		sub.send(GameEndedEvent{SessionID: ID(strconv.Itoa(i))})
	}
	assert.Equal(t, ID("2"), (<-sub.Events()).(GameEndedEvent).SessionID)
	assert.Equal(t, ID("3"), (<-sub.Events()).(GameEndedEvent).SessionID)

	sub.Close()
	sub.send(StateEvent{})
	assert.Len(t, sub.Events(), 0, "closed subscriptions drop events")
}

func TestSubscriptionCloseDetaches(t *testing.T) {
	m := newTestManager(t, DefaultConfig())
	snap, err := m.Create(context.Background(), CreateRequest{})
	require.NoError(t, err)

	sub, err := m.Subscribe(snap.SessionID)
	require.NoError(t, err)
	sub.Close()

	s, err := m.get(snap.SessionID)
	require.NoError(t, err)
	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(t, s.subs)
}

func TestIdleCleanup(t *testing.T) {
	saver := &memSaver{}
	clk := &clock{t: time.Unix(1700000000, 0)}
	cfg := DefaultConfig()
	cfg.IdleTimeout = 10 * time.Minute
	m := newTestManager(t, cfg, WithClock(clk.now), WithResultSaver(saver))

	idle, err := m.Create(context.Background(), CreateRequest{Seed: 1})
	require.NoError(t, err)
	applyOne(t, m, idle.SessionID)

	clk.advance(6 * time.Minute)
	busy, err := m.Create(context.Background(), CreateRequest{Seed: 2})
	require.NoError(t, err)

	clk.advance(5 * time.Minute)
	m.cleanupIdle()

	_, err = m.State(idle.SessionID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.State(busy.SessionID)
	assert.NoError(t, err)

	records := saver.all()
	require.Len(t, records, 1)
	assert.Equal(t, StatusAbandoned, records[0].Status)
	assert.Equal(t, clk.now(), records[0].EndedAt)
}

func TestStopAbandonsOpenGames(t *testing.T) {
	saver := &memSaver{}
	m := NewManager(DefaultConfig(), WithLogger(log.New(io.Discard)), WithResultSaver(saver))
	m.Start()

	snap, err := m.Create(context.Background(), CreateRequest{Seed: 3})
	require.NoError(t, err)
	applyOne(t, m, snap.SessionID)

	m.Stop()
	m.Stop()

	assert.Zero(t, m.Count())
	assert.Len(t, saver.all(), 1)
	_, err = m.Create(context.Background(), CreateRequest{})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestConcurrentSessions(t *testing.T) {
	m := newTestManager(t, DefaultConfig())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			snap, err := m.Create(context.Background(), CreateRequest{Seed: seed})
			if !assert.NoError(t, err) {
				return
			}
			for j := 0; j < 20; j++ {
				_, err := m.Move(context.Background(), snap.SessionID, engine.Directions()[j%4])
				if err != nil {
					assert.ErrorIs(t, err, ErrGameOver)
					return
				}
			}
		}(int64(i + 1))
	}
	wg.Wait()
	assert.Equal(t, 8, m.Count())
}
