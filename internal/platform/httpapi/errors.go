package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/tile2048/internal/games/t2048"
	"github.com/vovakirdan/tile2048/internal/games/t2048/engine"
	"github.com/vovakirdan/tile2048/internal/session"
	"github.com/vovakirdan/tile2048/internal/wallet"
)

var (
	errBadRequest   = errors.New("invalid request body")
	errBadAddress   = errors.New("invalid Ethereum address")
	errUnauthorized = errors.New("signature required")
)

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrGameOver):
		return http.StatusConflict
	case errors.Is(err, session.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, errUnauthorized),
		errors.Is(err, wallet.ErrInvalidSignature),
		errors.Is(err, wallet.ErrSignerMismatch):
		return http.StatusUnauthorized
	case errors.Is(err, errBadRequest),
		errors.Is(err, errBadAddress),
		errors.Is(err, engine.ErrInvalidDirection),
		errors.Is(err, t2048.ErrUnknownMode),
		errors.Is(err, session.ErrUnsupportedMode),
		errors.Is(err, session.ErrInvalidAccount),
		errors.Is(err, wallet.ErrInvalidAddress):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	code := statusOf(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Request.URL.Path, "err", err)
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}
