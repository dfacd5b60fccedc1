package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/vovakirdan/tile2048/internal/reward"
)

// ClaimRecord is a stored reward claim.
type ClaimRecord struct {
	ID        int64
	SessionID string
	GameID    string
	Account   string
	Score     int
	MaxTile   int
	EndedAt   time.Time
	Status    reward.Status
	CreatedAt time.Time
}

// RecordClaim stores a claim as pending. Implements reward.ClaimStore.
func (s *Store) RecordClaim(ctx context.Context, c reward.Claim) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reward_claims (session_id, game_id, account, score, max_tile, ended_at, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.SessionID,
		c.GameID,
		accountKey(c.Account),
		c.Score,
		c.MaxTile,
		c.EndedAt,
		string(reward.StatusPending),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save reward claim: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

// Ensure Store implements ClaimStore
var _ reward.ClaimStore = (*Store)(nil)

// PendingClaims returns the oldest pending claims first.
func (s *Store) PendingClaims(ctx context.Context, limit int) ([]ClaimRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, game_id, account, score, max_tile, ended_at, status, created_at
		 FROM reward_claims
		 WHERE status = ?
		 ORDER BY id ASC
		 LIMIT ?`,
		string(reward.StatusPending), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query reward claims: %w", err)
	}
	defer rows.Close()

	var claims []ClaimRecord
	for rows.Next() {
		var c ClaimRecord
		var endedAt int64
		var status string
		var createdAt any
		if err := rows.Scan(&c.ID, &c.SessionID, &c.GameID, &c.Account, &c.Score, &c.MaxTile, &endedAt, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		c.EndedAt = time.Unix(endedAt, 0)
		c.Status = reward.Status(status)
		c.CreatedAt = parseTime(createdAt)
		claims = append(claims, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return claims, nil
}

// MarkClaim updates the status of a claim.
func (s *Store) MarkClaim(ctx context.Context, id int64, status reward.Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reward_claims SET status = ? WHERE id = ?`,
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot update reward claim: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: cannot update reward claim: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: claim %d", ErrNotFound, id)
	}
	return nil
}
