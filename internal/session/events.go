package session

import "sync"

// Event is pushed to subscribers of a session.
type Event interface {
	Kind() string
}

// StateEvent carries the session state after a change.
type StateEvent struct {
	Snapshot Snapshot
}

func (StateEvent) Kind() string { return "state" }

// GameEndedEvent is sent once when a game ends.
type GameEndedEvent struct {
	SessionID ID
	End       EndReply
}

func (GameEndedEvent) Kind() string { return "game_ended" }

// Subscription receives a session's events.
type Subscription struct {
	id     uint64
	events chan Event
	done   chan struct{}
	once   sync.Once
	detach func()
}

func newSubscription(id uint64, buffer int, detach func()) *Subscription {
	if buffer < 1 {
		buffer = 32
	}
	return &Subscription{
		id:     id,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
		detach: detach,
	}
}

// Events returns the event channel. It is never closed; watch Done and
// drain what is left once it fires.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Done closes when the subscription or its session ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close detaches the subscription. Safe to call multiple times.
func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.done)
		if s.detach != nil {
			s.detach()
		}
	})
}

// end closes without detaching; the owner is already removing it.
func (s *Subscription) end() {
	s.once.Do(func() { close(s.done) })
}

// send never blocks. When the buffer is full the oldest event is dropped.
func (s *Subscription) send(evt Event) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.events <- evt:
	default:
		select {
		case <-s.events:
		default:
		}
		select {
		case s.events <- evt:
		default:
		}
	}
}
