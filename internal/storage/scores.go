package storage

import (
	"fmt"
	"time"
)

// ScoreEntry is one locally recorded final score.
type ScoreEntry struct {
	ID        int64
	GameID    string
	Score     int
	CreatedAt time.Time
}

// GameStats aggregates the local scores of one mode.
type GameStats struct {
	GameID     string
	GamesCount int
	HighScore  int
	AvgScore   float64
	TotalScore int64
	LastPlayed time.Time
}

const defaultScoreLimit = 10

// SaveScore records the final score of a local game and returns its row id.
func (s *Store) SaveScore(gameID string, score int) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO scores (game_id, score) VALUES (?, ?)`, gameID, score)
	if err != nil {
		return 0, fmt.Errorf("storage: save score: %w", err)
	}
	return res.LastInsertId()
}

// TopScores returns the best scores of a mode, highest first.
func (s *Store) TopScores(gameID string, limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = defaultScoreLimit
	}
	return s.queryScores(`
		SELECT id, game_id, score, created_at FROM scores
		WHERE game_id = ?
		ORDER BY score DESC, id
		LIMIT ?`, gameID, limit)
}

// HighScore is the best local score of a mode, 0 before the first game.
func (s *Store) HighScore(gameID string) (int, error) {
	top, err := s.TopScores(gameID, 1)
	if err != nil || len(top) == 0 {
		return 0, err
	}
	return top[0].Score, nil
}

// ClearScores forgets every local score of a mode.
func (s *Store) ClearScores(gameID string) error {
	if _, err := s.db.Exec(`DELETE FROM scores WHERE game_id = ?`, gameID); err != nil {
		return fmt.Errorf("storage: clear scores: %w", err)
	}
	return nil
}

// GetGameStats aggregates one mode. A mode with no scores yields zero stats.
func (s *Store) GetGameStats(gameID string) (*GameStats, error) {
	stats, err := s.queryStats(`WHERE game_id = ?`, gameID)
	if err != nil {
		return nil, err
	}
	if st, ok := stats[gameID]; ok {
		return st, nil
	}
	return &GameStats{GameID: gameID}, nil
}

// GetAllGamesStats aggregates every mode that has at least one score.
func (s *Store) GetAllGamesStats() (map[string]*GameStats, error) {
	return s.queryStats(``)
}

func (s *Store) queryScores(query string, args ...any) ([]ScoreEntry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: query scores: %w", err)
	}
	defer rows.Close()

	var out []ScoreEntry
	for rows.Next() {
		var (
			e       ScoreEntry
			created any
		)
		if err := rows.Scan(&e.ID, &e.GameID, &e.Score, &created); err != nil {
			return nil, fmt.Errorf("storage: scan score: %w", err)
		}
		e.CreatedAt = parseTime(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// queryStats groups scores by mode. where is an optional filter clause.
func (s *Store) queryStats(where string, args ...any) (map[string]*GameStats, error) {
	rows, err := s.db.Query(`
		SELECT game_id, COUNT(*), MAX(score), AVG(score), SUM(score), MAX(created_at)
		FROM scores `+where+`
		GROUP BY game_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: query stats: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*GameStats)
	for rows.Next() {
		var (
			st   GameStats
			last any
		)
		if err := rows.Scan(&st.GameID, &st.GamesCount, &st.HighScore, &st.AvgScore, &st.TotalScore, &last); err != nil {
			return nil, fmt.Errorf("storage: scan stats: %w", err)
		}
		st.LastPlayed = parseTime(last)
		out[st.GameID] = &st
	}
	return out, rows.Err()
}
