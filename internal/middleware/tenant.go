package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/harentsoaR/neocare-api/internal/apperr"
	"github.com/harentsoaR/neocare-api/internal/models"
	"github.com/harentsoaR/neocare-api/internal/services"
)

// TenantGate loads the hospital behind an admin token. Hospitals that are not
// verified keep read access but every mutating request is refused.
func TenantGate(hospitals *services.HospitalService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil || claims.Role != models.RoleAdmin {
			forbidden(c, "Hospital administrator access required")
			return
		}

		h, err := hospitals.Tenant(c.Request.Context(), claims.UserID)
		if apperr.Is(err, apperr.KindNotFound) {
			forbidden(c, "Hospital account not found")
			return
		}
		if err != nil {
			WriteError(c, log, err)
			return
		}
		c.Set(ctxHospital, h)

		if !isReadOnly(c.Request.Method) && h.Status != models.HospitalVerified {
			WriteError(c, log, services.HospitalLocked(h.Status))
			return
		}
		c.Next()
	}
}

func isReadOnly(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Hospital returns the tenant loaded by TenantGate.
func Hospital(c *gin.Context) *models.Hospital {
	v, ok := c.Get(ctxHospital)
	if !ok {
		return nil
	}
	h, _ := v.(*models.Hospital)
	return h
}
