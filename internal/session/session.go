package session

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tile2048/internal/games/t2048"
	"github.com/vovakirdan/tile2048/internal/games/t2048/engine"
	"github.com/vovakirdan/tile2048/internal/reward"
)

// session is one remote game. All fields below mu are guarded by it.
type session struct {
	id       ID
	mode     t2048.Mode
	account  string
	verified bool

	mu         sync.Mutex
	engine     *engine.Engine
	reward     reward.Client
	subs       map[uint64]*Subscription
	nextSub    uint64
	lastActive time.Time
	ended      bool
	end        *EndReply
}

func (s *session) snapshot() Snapshot {
	return Snapshot{
		SessionID: s.id,
		Mode:      string(s.mode),
		Account:   s.account,
		Snapshot:  s.engine.Snapshot(),
		Ended:     s.ended,
	}
}

func (s *session) publish(evt Event) {
	for _, sub := range s.subs {
		sub.send(evt)
	}
}

func (s *session) closeSubscribers() {
	for id, sub := range s.subs {
		sub.end()
		delete(s.subs, id)
	}
}

func (s *session) closeReward(logger *log.Logger) {
	if s.reward == nil {
		return
	}
	if err := s.reward.Close(); err != nil {
		logger.Warn("cannot close reward client", "session", s.id, "err", err)
	}
	s.reward = nil
}
