package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sowri347/bot-interview/internal/interview"
	"github.com/sowri347/bot-interview/internal/stt"
)

// writeError maps domain errors onto status codes and the {"error": ...}
// body.
func (s *Server) writeError(c *gin.Context, err error) {
	var (
		nf     *interview.NotFoundError
		verr   *interview.ValidationError
		uerr   *interview.UnauthorizedError
		terr   *stt.TranscriptionError
		tooBig *http.MaxBytesError
	)
	switch {
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
	case errors.As(err, &uerr):
		c.JSON(http.StatusUnauthorized, gin.H{"error": uerr.Error()})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.As(err, &tooBig):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Upload too large"})
	case errors.As(err, &terr):
		cause := "unknown error"
		if terr.Cause != nil {
			cause = terr.Cause.Error()
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transcription failed: " + cause})
	default:
		s.logger.Error("request error",
			slog.String("route", c.FullPath()),
			slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
