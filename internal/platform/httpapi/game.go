package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/tile2048/internal/games/t2048"
	"github.com/vovakirdan/tile2048/internal/games/t2048/engine"
	"github.com/vovakirdan/tile2048/internal/session"
	"github.com/vovakirdan/tile2048/internal/wallet"
)

type startRequest struct {
	Mode      string `json:"mode"`
	Address   string `json:"address"`
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
}

type sessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

type moveRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Direction string `json:"direction" binding:"required"`
}

type startResponse struct {
	SessionID session.ID       `json:"session_id"`
	Snapshot  session.Snapshot `json:"snapshot"`
}

func (s *Server) handleStart(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := s.checkSignature("start", req.Address, req.Signature, req.Timestamp); err != nil {
		s.fail(c, err)
		return
	}

	// Clients never pick the seed: a known seed reveals every spawn.
	snap, err := s.sessions.Create(c.Request.Context(), session.CreateRequest{
		Mode:     req.Mode,
		Account:  req.Address,
		Verified: req.Signature != "",
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, startResponse{SessionID: snap.SessionID, Snapshot: snap})
}

// checkSignature verifies a signed action. Unsigned requests pass unless
// signatures are required; they play without rewards.
func (s *Server) checkSignature(action, address, signature string, ts int64) error {
	if signature == "" {
		if s.cfg.RequireSignature {
			return errUnauthorized
		}
		return nil
	}
	if !wallet.IsAddress(address) {
		return errBadAddress
	}
	if !wallet.IsRecentTimestamp(ts, s.now(), s.cfg.SignatureWindow) {
		return fmt.Errorf("%w: timestamp outside the accepted window", errUnauthorized)
	}
	return wallet.VerifySignature(wallet.SignatureMessage(action, address, ts), signature, address)
}

func (s *Server) handleMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	dir, err := engine.ParseDirection(req.Direction)
	if err != nil {
		s.fail(c, err)
		return
	}

	reply, err := s.move(c, session.ID(req.SessionID), dir)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (s *Server) move(c *gin.Context, id session.ID, dir engine.Direction) (session.MoveReply, error) {
	reply, err := s.sessions.Move(c.Request.Context(), id, dir)
	if err != nil {
		return reply, err
	}
	s.metrics.observeMove(reply.Outcome.String())
	if reply.Ended != nil {
		s.metrics.observeEnd(reply.Ended.Result.Status)
	}
	return reply, nil
}

func (s *Server) handleState(c *gin.Context) {
	snap, err := s.sessions.State(session.ID(c.Param("id")))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleRestart(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	snap, err := s.sessions.Restart(c.Request.Context(), session.ID(req.SessionID))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleEnd(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	reply, err := s.sessions.End(c.Request.Context(), session.ID(req.SessionID))
	if err != nil {
		s.fail(c, err)
		return
	}
	if reply.Reason != session.EndCompleted {
		s.metrics.observeEnd(reply.Result.Status)
	}
	c.JSON(http.StatusOK, reply)
}

type leaderboardEntry struct {
	Rank    int    `json:"rank"`
	Account string `json:"account,omitempty"`
	Mode    string `json:"mode"`
	Score   int    `json:"score"`
	MaxTile int    `json:"max_tile"`
	Moves   int    `json:"moves"`
	Status  string `json:"status"`
	EndedAt int64  `json:"ended_at"`
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	gameID := ""
	if m := c.Query("mode"); m != "" {
		mode, err := t2048.ParseMode(m)
		if err != nil {
			s.fail(c, err)
			return
		}
		gameID = mode.GameID()
	}
	limit := queryInt(c, "limit", 10, 1, 100)

	entries, err := s.records.Leaderboard(c.Request.Context(), gameID, limit)
	if err != nil {
		s.fail(c, err)
		return
	}

	out := make([]leaderboardEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, leaderboardEntry{
			Rank:    e.Rank,
			Account: displayAccount(e.Account),
			Mode:    modeName(e.GameID),
			Score:   e.Score,
			MaxTile: e.MaxTile,
			Moves:   e.Moves,
			Status:  e.Status,
			EndedAt: e.EndedAt.Unix(),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"leaderboard":  out,
		"last_updated": s.now().UTC().Format(time.RFC3339),
	})
}

// queryInt reads an integer query parameter clamped to [lo, hi].
func queryInt(c *gin.Context, key string, def, lo, hi int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return max(lo, min(v, hi))
}

func displayAccount(account string) string {
	if account == "" {
		return ""
	}
	if sum, err := wallet.Checksum(account); err == nil {
		return sum
	}
	return account
}

func modeName(gameID string) string {
	if m, err := t2048.ParseMode(gameID); err == nil {
		return string(m)
	}
	return gameID
}
