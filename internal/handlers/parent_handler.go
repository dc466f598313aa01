package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/neocare-api/internal/middleware"
	"github.com/harentsoaR/neocare-api/internal/services"
)

func (h *Handler) ParentProfile(c *gin.Context) {
	parent, err := h.Profiles.Parent(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parent": parent})
}

func (h *Handler) UpdateParentProfile(c *gin.Context) {
	var req services.ParentProfileInput
	if !h.bind(c, &req) {
		return
	}
	parent, err := h.Profiles.UpdateParent(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parent": parent})
}

// JoinHospital affiliates an independent parent through a hospital code.
func (h *Handler) JoinHospital(c *gin.Context) {
	var req struct {
		HospitalCode string `json:"hospitalCode" binding:"required"`
	}
	if !h.bind(c, &req) {
		return
	}
	hospital, err := h.Affiliation.JoinHospital(c.Request.Context(), middleware.UserID(c), req.HospitalCode)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Joined " + hospital.HospitalName,
		"hospital": gin.H{"id": hospital.ID, "hospitalName": hospital.HospitalName, "hospitalCode": hospital.HospitalCode},
	})
}

func (h *Handler) CareTeam(c *gin.Context) {
	team, err := h.Affiliation.ParentCareTeam(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}
