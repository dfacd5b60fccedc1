// Package session runs 2048 games on behalf of remote clients. Each session
// owns one engine; commands on a session are serialized while different
// sessions proceed in parallel.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/vovakirdan/tile2048/internal/games/t2048/engine"
	"github.com/vovakirdan/tile2048/internal/reward"
)

// ID uniquely identifies a game session.
type ID string

var (
	ErrNotFound        = errors.New("session: not found")
	ErrGameOver        = errors.New("session: game is over")
	ErrUnsupportedMode = errors.New("session: mode not available for remote play")
	ErrInvalidAccount  = errors.New("session: invalid account address")
	ErrStopped         = errors.New("session: manager stopped")
)

// EndReason describes why a game ended.
type EndReason string

const (
	EndCompleted EndReason = "completed" // won or lost on the board
	EndAbandoned EndReason = "abandoned" // ended or restarted by the player
	EndIdle      EndReason = "idle"      // no command within the idle timeout
)

// StatusAbandoned is recorded for games that ended before a win or loss.
const StatusAbandoned = "abandoned"

// ResultRecord is the persisted outcome of one game.
type ResultRecord struct {
	SessionID string
	GameID    string
	Account   string
	Score     int
	MaxTile   int
	Moves     int
	Status    string
	Seed      int64
	EndedAt   time.Time
}

// ResultSaver persists finished games.
// This lets the manager record results without depending on the storage package.
type ResultSaver interface {
	SaveResult(ctx context.Context, r ResultRecord) error
}

// CreateRequest starts a session.
type CreateRequest struct {
	Mode    string // mode name or game id; empty means classic
	Account string // optional wallet address
	Seed    int64  // zero picks a random seed

	// Verified is set when the caller proved control of Account. Only
	// verified sessions earn reward claims.
	Verified bool
}

// Snapshot is the client view of a session.
type Snapshot struct {
	SessionID ID     `json:"session_id"`
	Mode      string `json:"mode"`
	Account   string `json:"account,omitempty"`
	engine.Snapshot
	Ended bool `json:"ended"`
}

// MoveReply reports the effect of one move.
type MoveReply struct {
	Outcome     engine.MoveOutcome `json:"outcome"`
	Direction   engine.Direction   `json:"direction"`
	ScoreGained int                `json:"score_gained"`
	Merges      int                `json:"merges"`
	Spawned     *engine.Tile       `json:"spawned,omitempty"`
	Snapshot    Snapshot           `json:"snapshot"`
	Ended       *EndReply          `json:"ended,omitempty"`
}

// EndReply is the final word on a game.
type EndReply struct {
	Reason  EndReason       `json:"reason"`
	Result  Result          `json:"result"`
	Receipt *reward.Receipt `json:"reward,omitempty"`
}

// Result is the JSON form of a ResultRecord.
type Result struct {
	GameID  string `json:"game_id"`
	Score   int    `json:"score"`
	MaxTile int    `json:"max_tile"`
	Moves   int    `json:"moves"`
	Status  string `json:"status"`
	Seed    int64  `json:"seed"`
	EndedAt int64  `json:"ended_at"`
}

func resultOf(r ResultRecord) Result {
	return Result{
		GameID:  r.GameID,
		Score:   r.Score,
		MaxTile: r.MaxTile,
		Moves:   r.Moves,
		Status:  r.Status,
		Seed:    r.Seed,
		EndedAt: r.EndedAt.Unix(),
	}
}
