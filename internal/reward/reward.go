// Package reward is the boundary between finished games and whatever pays
// out for them. A Client receives one Claim per qualifying game.
package reward

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/tile2048/internal/wallet"
)

var (
	ErrClosed       = errors.New("reward: client closed")
	ErrInvalidClaim = errors.New("reward: invalid claim")
)

// Claim describes a finished game eligible for a reward.
type Claim struct {
	SessionID string `json:"session_id"`
	GameID    string `json:"game_id"`
	Account   string `json:"account"`
	Score     int    `json:"score"`
	MaxTile   int    `json:"max_tile"`
	EndedAt   int64  `json:"ended_at"` // unix seconds
}

// Validate checks that the claim can be recorded.
func (c Claim) Validate() error {
	switch {
	case c.SessionID == "":
		return fmt.Errorf("%w: missing session id", ErrInvalidClaim)
	case !wallet.IsAddress(c.Account):
		return fmt.Errorf("%w: bad account %q", ErrInvalidClaim, c.Account)
	case c.Score < 0 || c.MaxTile < 0:
		return fmt.Errorf("%w: negative score", ErrInvalidClaim)
	case c.EndedAt <= 0:
		return fmt.Errorf("%w: missing end time", ErrInvalidClaim)
	}
	return nil
}

// Status of a submitted claim.
type Status string

const (
	StatusPending Status = "pending"
	StatusSkipped Status = "skipped"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

// Receipt acknowledges a submitted claim.
type Receipt struct {
	ClaimID     int64     `json:"claim_id,omitempty"`
	Status      Status    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Client submits claims for one account. A session owns its client and
// closes it when the game ends.
type Client interface {
	Submit(ctx context.Context, c Claim) (Receipt, error)
	Close() error
}

// Factory opens a client for account.
type Factory func(account string) (Client, error)

// ClaimStore persists claims.
type ClaimStore interface {
	RecordClaim(ctx context.Context, c Claim) (int64, error)
}
