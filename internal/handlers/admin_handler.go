package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/neocare-api/internal/middleware"
	"github.com/harentsoaR/neocare-api/internal/models"
	"github.com/harentsoaR/neocare-api/internal/services"
)

// Every handler in this file runs behind TenantGate, so tenantID(c) is a hospital
// that exists and, for writes, is verified.

func (h *Handler) AdminProfile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"hospital": middleware.Hospital(c)})
}

func (h *Handler) UpdateAdminProfile(c *gin.Context) {
	var req services.HospitalProfileInput
	if !h.bind(c, &req) {
		return
	}
	hospital, err := h.Hospitals.UpdateProfile(c.Request.Context(), tenantID(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hospital": hospital})
}

// --- Doctors ---

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.Affiliation.GetDoctorsByHospital(c.Request.Context(), tenantID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctors": doctors})
}

func (h *Handler) GetDoctor(c *gin.Context) {
	doctor, err := h.Affiliation.GetDoctor(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctor": doctor})
}

type CreateDoctorRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Specialty string `json:"specialty"`
	Phone     string `json:"phone"`
	Bio       string `json:"bio"`
}

// CreateDoctor registers a doctor directly into the admin's hospital.
func (h *Handler) CreateDoctor(c *gin.Context) {
	var req CreateDoctorRequest
	if !h.bind(c, &req) {
		return
	}
	user, err := h.Auth.Register(c.Request.Context(), &services.NewUser{
		Role:         models.RoleDoctor,
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Specialty:    req.Specialty,
		Phone:        req.Phone,
		Bio:          req.Bio,
		RegisteredBy: models.RoleAdmin,
		HospitalID:   tenantID(c),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (h *Handler) SetDoctorStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if !h.bind(c, &req) {
		return
	}
	doctor, err := h.Affiliation.SetDoctorStatus(c.Request.Context(), tenantID(c), c.Param("id"), req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctor": doctor})
}

func (h *Handler) ReviewDoctor(c *gin.Context) {
	var req struct {
		ProfileStatus string `json:"profileStatus" binding:"required"`
	}
	if !h.bind(c, &req) {
		return
	}
	doctor, err := h.Affiliation.ReviewDoctorProfile(c.Request.Context(), tenantID(c), c.Param("id"), req.ProfileStatus)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctor": doctor})
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	if err := h.Affiliation.DeleteDoctor(c.Request.Context(), tenantID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Doctor deleted"})
}

// --- Parents ---

func (h *Handler) ListParents(c *gin.Context) {
	parents, err := h.Affiliation.GetParentsByHospital(c.Request.Context(), tenantID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parents": parents})
}

func (h *Handler) GetParent(c *gin.Context) {
	parent, err := h.Affiliation.GetParent(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parent": parent})
}

type CreateParentRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	BabyName string `json:"babyName"`
	BabyDob  string `json:"babyDob"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

func (h *Handler) CreateParent(c *gin.Context) {
	var req CreateParentRequest
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
		RegisteredBy: models.RoleAdmin,
		HospitalID:   tenantID(c),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (h *Handler) DeleteParent(c *gin.Context) {
	if err := h.Affiliation.DeleteParent(c.Request.Context(), tenantID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Parent deleted"})
}

func (h *Handler) AssignParentTeam(c *gin.Context) {
	var req struct {
		TeamID string `json:"teamId" binding:"required"`
	}
	if !h.bind(c, &req) {
		return
	}
	if err := h.Affiliation.AssignParentToTeam(c.Request.Context(), tenantID(c), c.Param("id"), req.TeamID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Parent assigned to team"})
}

func (h *Handler) AssignParentDoctor(c *gin.Context) {
	var req struct {
		DoctorID string `json:"doctorId" binding:"required"`
	}
	if !h.bind(c, &req) {
		return
	}
	if err := h.Affiliation.AssignParentToDoctor(c.Request.Context(), tenantID(c), c.Param("id"), req.DoctorID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Parent assigned to doctor"})
}

// --- Teams ---

func (h *Handler) ListTeams(c *gin.Context) {
	teams, err := h.Affiliation.ListTeams(c.Request.Context(), tenantID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teams": teams})
}

func (h *Handler) CreateTeam(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if !h.bind(c, &req) {
		return
	}
	team, err := h.Affiliation.CreateTeam(c.Request.Context(), tenantID(c), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"team": team})
}

func (h *Handler) AddTeamMember(c *gin.Context) {
	var req struct {
		DoctorID string `json:"doctorId" binding:"required"`
		Role     string `json:"role"`
	}
	if !h.bind(c, &req) {
		return
	}
	team, err := h.Affiliation.AddTeamMember(c.Request.Context(), tenantID(c), c.Param("id"), req.DoctorID, req.Role)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"team": team})
}

func (h *Handler) RemoveTeamMember(c *gin.Context) {
	team, err := h.Affiliation.RemoveTeamMember(c.Request.Context(), tenantID(c), c.Param("id"), c.Param("doctorId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"team": team})
}

func (h *Handler) DeleteTeam(c *gin.Context) {
	if err := h.Affiliation.DeleteTeam(c.Request.Context(), tenantID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Team deleted"})
}
