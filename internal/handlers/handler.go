package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/harentsoaR/neocare-api/internal/apperr"
	"github.com/harentsoaR/neocare-api/internal/middleware"
	"github.com/harentsoaR/neocare-api/internal/services"
)

// Services are the domain services the HTTP layer calls into.
type Services struct {
	Auth        *services.AuthService
	Hospitals   *services.HospitalService
	Affiliation *services.AffiliationService
	Profiles    *services.ProfileService
	Timeline    *services.TimelineService
	Messaging   *services.MessagingService
}

type Handler struct {
	Services
	log zerolog.Logger
}

func NewHandler(svc Services, log zerolog.Logger) *Handler {
	return &Handler{Services: svc, log: log.With().Str("component", "http").Logger()}
}

func (h *Handler) fail(c *gin.Context, err error) {
	middleware.WriteError(c, h.log, err)
}

// bind decodes the JSON body into req and answers 400 itself when that fails.
func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if errors.Is(err, io.EOF) {
			h.fail(c, apperr.Validation("request body is required"))
			return false
		}
		h.fail(c, apperr.Validation("invalid request body: "+err.Error()))
		return false
	}
	return true
}

// tenantID is the hospital an admin token acts for.
func tenantID(c *gin.Context) string {
	return middleware.UserID(c)
}
