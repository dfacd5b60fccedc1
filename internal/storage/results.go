package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/tile2048/internal/session"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("storage: not found")

// GameResult is one finished game. A session that restarts records one
// row per game.
type GameResult struct {
	ID        int64
	SessionID string
	GameID    string
	Account   string
	Score     int
	MaxTile   int
	Moves     int
	Status    string // won, lost or abandoned
	Seed      int64
	EndedAt   time.Time
	CreatedAt time.Time
}

// SaveGameResult records a finished game and returns its row id.
func (s *Store) SaveGameResult(ctx context.Context, r GameResult) (int64, error) {
	if r.EndedAt.IsZero() {
		r.EndedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO game_results
		 (session_id, game_id, account, score, max_tile, moves, status, seed, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID,
		r.GameID,
		accountKey(r.Account),
		r.Score,
		r.MaxTile,
		r.Moves,
		r.Status,
		r.Seed,
		r.EndedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save game result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

// SaveResult implements session.ResultSaver.
func (s *Store) SaveResult(ctx context.Context, rec session.ResultRecord) error {
	_, err := s.SaveGameResult(ctx, GameResult{
		SessionID: rec.SessionID,
		GameID:    rec.GameID,
		Account:   rec.Account,
		Score:     rec.Score,
		MaxTile:   rec.MaxTile,
		Moves:     rec.Moves,
		Status:    rec.Status,
		Seed:      rec.Seed,
		EndedAt:   rec.EndedAt,
	})
	return err
}

// Ensure Store implements ResultSaver
var _ session.ResultSaver = (*Store)(nil)

const resultColumns = `id, session_id, game_id, account, score, max_tile, moves, status, seed, ended_at, created_at`

func (s *Store) queryResults(ctx context.Context, query string, args ...any) ([]GameResult, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query game results: %w", err)
	}
	defer rows.Close()

	var results []GameResult
	for rows.Next() {
		var r GameResult
		var endedAt int64
		var createdAt any
		if err := rows.Scan(
			&r.ID,
			&r.SessionID,
			&r.GameID,
			&r.Account,
			&r.Score,
			&r.MaxTile,
			&r.Moves,
			&r.Status,
			&r.Seed,
			&endedAt,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.EndedAt = time.Unix(endedAt, 0)
		r.CreatedAt = parseTime(createdAt)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return results, nil
}

// LeaderboardEntry is one ranked game.
type LeaderboardEntry struct {
	Rank int
	GameResult
}

// Leaderboard returns the best games of gameID, or of every mode when
// gameID is empty. Ties go to the earlier game.
func (s *Store) Leaderboard(ctx context.Context, gameID string, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	var (
		results []GameResult
		err     error
	)
	if gameID == "" {
		results, err = s.queryResults(ctx,
			`SELECT `+resultColumns+` FROM game_results
			 ORDER BY score DESC, ended_at ASC, id ASC
			 LIMIT ?`,
			limit,
		)
	} else {
		results, err = s.queryResults(ctx,
			`SELECT `+resultColumns+` FROM game_results
			 WHERE game_id = ?
			 ORDER BY score DESC, ended_at ASC, id ASC
			 LIMIT ?`,
			gameID, limit,
		)
	}
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(results))
	for i, r := range results {
		entries[i] = LeaderboardEntry{Rank: i + 1, GameResult: r}
	}
	return entries, nil
}

// AccountHistory returns an account's games, newest first, and the total
// number of games the account has played.
func (s *Store) AccountHistory(ctx context.Context, account string, limit, offset int) ([]GameResult, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	key := accountKey(account)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM game_results WHERE account = ?`, key,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("storage: cannot count account games: %w", err)
	}

	results, err := s.queryResults(ctx,
		`SELECT `+resultColumns+` FROM game_results
		 WHERE account = ?
		 ORDER BY ended_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		key, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// Profile aggregates an account's games and claims.
type Profile struct {
	Account       string
	TotalGames    int
	Wins          int
	HighScore     int
	BestTile      int
	TotalScore    int64
	Claims        int
	PendingClaims int
	FirstPlayed   time.Time
	LastPlayed    time.Time
}

// AccountProfile returns the profile of account. An account with no games
// yields a zero profile.
func (s *Store) AccountProfile(ctx context.Context, account string) (Profile, error) {
	key := accountKey(account)
	p := Profile{Account: key}

	var first, last int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN status = 'won' THEN 1 ELSE 0 END), 0),
		        COALESCE(MAX(score), 0),
		        COALESCE(MAX(max_tile), 0),
		        COALESCE(SUM(score), 0),
		        COALESCE(MIN(ended_at), 0),
		        COALESCE(MAX(ended_at), 0)
		 FROM game_results WHERE account = ?`,
		key,
	).Scan(&p.TotalGames, &p.Wins, &p.HighScore, &p.BestTile, &p.TotalScore, &first, &last)
	if err != nil {
		return p, fmt.Errorf("storage: cannot get account profile: %w", err)
	}
	if p.TotalGames > 0 {
		p.FirstPlayed = time.Unix(first, 0)
		p.LastPlayed = time.Unix(last, 0)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0)
		 FROM reward_claims WHERE account = ?`,
		key,
	).Scan(&p.Claims, &p.PendingClaims)
	if err != nil {
		return p, fmt.Errorf("storage: cannot count account claims: %w", err)
	}
	return p, nil
}
