package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/neocare-api/internal/middleware"
	"github.com/harentsoaR/neocare-api/internal/models"
	"github.com/harentsoaR/neocare-api/internal/services"
)

func (h *Handler) DoctorProfile(c *gin.Context) {
	doctor, err := h.Profiles.Doctor(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctor": doctor})
}

// UpdateDoctorProfile saves the doctor's edits. An incomplete profile goes to review.
func (h *Handler) UpdateDoctorProfile(c *gin.Context) {
	var req services.DoctorProfileInput
	if !h.bind(c, &req) {
		return
	}
	doctor, err := h.Profiles.UpdateDoctor(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctor": doctor})
}

// DoctorHospital returns the doctor's hospital, or null when unaffiliated.
func (h *Handler) DoctorHospital(c *gin.Context) {
	hospital, err := h.Affiliation.GetHospitalByDoctorID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hospital": hospital})
}

func (h *Handler) DoctorParents(c *gin.Context) {
	parents, err := h.Affiliation.ParentsInCare(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parents": parents})
}

type ReferParentRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	BabyName string `json:"babyName"`
	BabyDob  string `json:"babyDob"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// ReferParent registers a parent on the doctor's referral. The parent joins the
// doctor's hospital with the doctor assigned.
func (h *Handler) ReferParent(c *gin.Context) {
	var req ReferParentRequest
	if !h.bind(c, &req) {
		return
	}
	user, err := h.Auth.Register(c.Request.Context(), &services.NewUser{
		Role:         models.RoleParent,
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		BabyName:     req.BabyName,
		BabyDob:      req.BabyDob,
		Phone:        req.Phone,
		Address:      req.Address,
		RegisteredBy: models.RoleDoctor,
		ReferrerID:   middleware.UserID(c),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}
