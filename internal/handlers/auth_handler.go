package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/neocare-api/internal/apperr"
	"github.com/harentsoaR/neocare-api/internal/middleware"
	"github.com/harentsoaR/neocare-api/internal/models"
	"github.com/harentsoaR/neocare-api/internal/services"
)

type RegisterRequest struct {
	services.NewUser
	Role string `json:"role"`
}

// Register creates a Parent, Doctor or hospital account.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !h.bind(c, &req) {
		return
	}

	role, ok := models.ParseRole(req.Role)
	if !ok {
		h.fail(c, apperr.Validation("role must be Parent, Doctor or Admin", "role"))
		return
	}
	if role == models.RoleSuperadmin {
		h.fail(c, apperr.Validation("superadmin accounts cannot be registered", "role"))
		return
	}

	in := req.NewUser
	in.Role = role
	user, err := h.Auth.Register(c.Request.Context(), &in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

type RegisterHospitalRequest struct {
	OwnerName    string `json:"ownerName"`
	HospitalName string `json:"hospitalName"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Address      string `json:"address"`
	Mobile       string `json:"mobile"`
}

func (h *Handler) RegisterHospital(c *gin.Context) {
	var req RegisterHospitalRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.Auth.Register(c.Request.Context(), &services.NewUser{
		Role:         models.RoleAdmin,
		OwnerName:    req.OwnerName,
		HospitalName: req.HospitalName,
		Email:        req.Email,
		Password:     req.Password,
		Address:      req.Address,
		Mobile:       req.Mobile,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user":    user,
		"message": "Hospital registered. Your account is pending verification.",
	})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bind(c, &req) {
		return
	}

	role, ok := models.ParseRole(req.Role)
	if !ok {
		h.fail(c, apperr.Validation("role must be Parent, Doctor, Admin or Superadmin", "role"))
		return
	}

	res, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password, role)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// forgotPasswordMessage is returned whether or not the email exists.
const forgotPasswordMessage = "If an account exists for this email, a reset link has been sent."

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if !h.bind(c, &req) {
		return
	}
	h.Auth.ForgotPassword(c.Request.Context(), req.Email)
	c.JSON(http.StatusOK, gin.H{"message": forgotPasswordMessage})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !h.bind(c, &req) {
		return
	}
	if err := h.Auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

// Me returns the account behind the bearer token.
func (h *Handler) Me(c *gin.Context) {
	claims := middleware.Claims(c)
	user, err := h.Auth.Me(c.Request.Context(), claims.Role, claims.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// ChangePassword serves PUT /api/{role}/password for every role.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !h.bind(c, &req) {
		return
	}
	claims := middleware.Claims(c)
	err := h.Auth.ChangePassword(c.Request.Context(), claims.Role, claims.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
