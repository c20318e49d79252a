package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gravitational/trace"
)

// apiError is the JSON body for failed requests.
type apiError struct {
	Error string `json:"error"`
}

// replyError maps domain errors to transport-level outcomes:
// BadParameter (invalid slug or body) is 400, NotFound is 404,
// AlreadyExists is 409. Anything else is an unexpected failure: logged
// and reported as 500 without leaking internals.
func replyError(c *gin.Context, log *slog.Logger, err error) {
	switch {
	case trace.IsBadParameter(err):
		c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Error: trace.UserMessage(err)})
	case trace.IsNotFound(err):
		c.AbortWithStatusJSON(http.StatusNotFound, apiError{Error: trace.UserMessage(err)})
	case trace.IsAlreadyExists(err):
		c.AbortWithStatusJSON(http.StatusConflict, apiError{Error: trace.UserMessage(err)})
	default:
		log.Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, apiError{Error: "internal server error"})
	}
}
