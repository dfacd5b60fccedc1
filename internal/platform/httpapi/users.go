package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/tile2048/internal/wallet"
)

type profileResponse struct {
	Address       string `json:"address"`
	TotalGames    int    `json:"total_games"`
	Wins          int    `json:"wins"`
	HighScore     int    `json:"high_score"`
	BestTile      int    `json:"best_tile"`
	TotalScore    int64  `json:"total_score"`
	Claims        int    `json:"claims"`
	PendingClaims int    `json:"pending_claims"`
	FirstPlayed   int64  `json:"first_played,omitempty"`
	LastPlayed    int64  `json:"last_played,omitempty"`
}

type historyGame struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
	Score     int    `json:"score"`
	MaxTile   int    `json:"max_tile"`
	Moves     int    `json:"moves"`
	Status    string `json:"status"`
	Seed      int64  `json:"seed"`
	EndedAt   int64  `json:"ended_at"`
}

type pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type historyResponse struct {
	Address    string        `json:"address"`
	Games      []historyGame `json:"games"`
	TotalCount int           `json:"total_count"`
	Pagination pagination    `json:"pagination"`
}

func (s *Server) address(c *gin.Context) (string, bool) {
	addr, err := wallet.Checksum(c.Param("address"))
	if err != nil {
		s.fail(c, errBadAddress)
		return "", false
	}
	return addr, true
}

func (s *Server) handleProfile(c *gin.Context) {
	addr, ok := s.address(c)
	if !ok {
		return
	}
	p, err := s.records.AccountProfile(c.Request.Context(), addr)
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := profileResponse{
		Address:       addr,
		TotalGames:    p.TotalGames,
		Wins:          p.Wins,
		HighScore:     p.HighScore,
		BestTile:      p.BestTile,
		TotalScore:    p.TotalScore,
		Claims:        p.Claims,
		PendingClaims: p.PendingClaims,
	}
	if p.TotalGames > 0 {
		resp.FirstPlayed = p.FirstPlayed.Unix()
		resp.LastPlayed = p.LastPlayed.Unix()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHistory(c *gin.Context) {
	addr, ok := s.address(c)
	if !ok {
		return
	}
	limit := queryInt(c, "limit", 20, 1, 100)
	offset := queryInt(c, "offset", 0, 0, 1<<30)

	results, total, err := s.records.AccountHistory(c.Request.Context(), addr, limit, offset)
	if err != nil {
		s.fail(c, err)
		return
	}

	games := make([]historyGame, 0, len(results))
	for _, r := range results {
		games = append(games, historyGame{
			SessionID: r.SessionID,
			Mode:      modeName(r.GameID),
			Score:     r.Score,
			MaxTile:   r.MaxTile,
			Moves:     r.Moves,
			Status:    r.Status,
			Seed:      r.Seed,
			EndedAt:   r.EndedAt.Unix(),
		})
	}
	c.JSON(http.StatusOK, historyResponse{
		Address:    addr,
		Games:      games,
		TotalCount: total,
		Pagination: pagination{Limit: limit, Offset: offset},
	})
}
