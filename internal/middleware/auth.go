package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/neocare-api/internal/models"
	"github.com/harentsoaR/neocare-api/internal/services"
	"github.com/harentsoaR/neocare-api/internal/utils"
)

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
	ctxClaims   = "claims"
	ctxHospital = "hospital"
)

// AuthMiddleware verifies the bearer token on every request and stores its claims in
// the context. Missing, malformed and expired tokens all end in 401.
func AuthMiddleware(tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authorization header required")
			return
		}

		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		tokenString = strings.TrimSpace(tokenString)
		if !ok || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
			unauthorized(c, "Authorization header must be: Bearer <token>")
			return
		}

		claims, err := tokens.ValidateJWT(tokenString)
		if err != nil {
			unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(ctxClaims, claims)
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserRole, claims.Role)

		c.Next()
	}
}

// RequireRole lets the request through only for the listed roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			unauthorized(c, "Authentication required")
			return
		}
		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		forbidden(c, "You do not have permission to access this resource")
	}
}

// Claims returns the verified token claims, or nil outside AuthMiddleware.
func Claims(c *gin.Context) *utils.Claims {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*utils.Claims)
	return claims
}

func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// Principal describes the caller for services. An admin's hospital is its own id.
func Principal(c *gin.Context) services.Principal {
	claims := Claims(c)
	if claims == nil {
		return services.Principal{}
	}
	p := services.Principal{ID: claims.UserID, Role: claims.Role, HospitalID: claims.HospitalID}
	if claims.Role == models.RoleAdmin {
		p.HospitalID = claims.UserID
	}
	return p
}
