package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/harentsoaR/neocare-api/internal/apperr"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// WriteError renders err with the status of its kind. Internal causes are logged,
// never sent.
func WriteError(c *gin.Context, log zerolog.Logger, err error) {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Wrap(err, "unexpected error")
	}

	status := apperr.Status(e)
	resp := ErrorResponse{Error: e.Message, Code: e.Code()}
	if e.Kind == apperr.KindInternal {
		log.Error().Err(e).Str("request_id", RequestID(c)).Str("path", c.Request.URL.Path).Msg("request failed")
		resp.Error = "internal server error"
	} else if len(e.Fields) > 0 {
		resp.Details = gin.H{"fields": e.Fields}
	}
	c.AbortWithStatusJSON(status, resp)
}

func abort(c *gin.Context, status int, e *apperr.Error) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: e.Message, Code: e.Code()})
}

func unauthorized(c *gin.Context, msg string) {
	abort(c, http.StatusUnauthorized, apperr.Auth(msg))
}

func forbidden(c *gin.Context, msg string) {
	abort(c, http.StatusForbidden, apperr.Forbidden(msg))
}
