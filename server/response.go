package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/caffeineduck/codecollab/editor"
	"github.com/caffeineduck/codecollab/internal/apperr"
	"github.com/caffeineduck/codecollab/internal/logging"
	"github.com/caffeineduck/codecollab/room"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// envelope is the body of every JSON response.
type envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func respond(c *gin.Context, code int, message string, data any) {
	c.JSON(code, envelope{Message: message, Data: data})
}

// bind decodes the JSON body into v. An empty body leaves v untouched.
func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		respond(c, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}
	return true
}

// fail maps err to a status code and writes it.
func (s *Server) fail(c *gin.Context, err error) {
	if msg, ok := apperr.ClientMessage(err); ok {
		respond(c, http.StatusBadRequest, msg, nil)
		return
	}

	switch {
	case errors.Is(err, room.ErrNotFound):
		respond(c, http.StatusNotFound, "Room not found", nil)
	case errors.Is(err, room.ErrForbidden):
		respond(c, http.StatusForbidden, "Incorrect room password", nil)
	case errors.Is(err, editor.ErrBusy):
		respond(c, http.StatusConflict, "Code is already running", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond(c, http.StatusRequestTimeout, "Request cancelled", nil)
	default:
		s.logger.Error("request failed",
			zap.String("request_id", logging.RequestID(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		_ = c.Error(err)
		respond(c, http.StatusInternalServerError, "Something went wrong", nil)
	}
}
