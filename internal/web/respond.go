package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sandeepkv93/contravault/internal/commands"
	"github.com/sandeepkv93/contravault/internal/tasks"
)

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

func badRequest(c *gin.Context, err error) {
	fail(c, http.StatusBadRequest, err.Error())
}

// statusFor maps engine errors onto HTTP statuses. Store failures get an
// opaque message.
func statusFor(err error) (int, string) {
	var ce *commands.CommandError
	switch {
	case errors.Is(err, tasks.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &ce):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, tasks.ErrDeadlineConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, tasks.ErrNotFound):
		return http.StatusNotFound, "task not found"
	case errors.Is(err, tasks.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	fail(c, status, msg)
}
