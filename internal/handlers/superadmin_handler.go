package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/neocare-api/internal/middleware"
)

func (h *Handler) SuperadminProfile(c *gin.Context) {
	sa, err := h.Profiles.Superadmin(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"superadmin": sa})
}

// ListHospitals supports an optional ?status= filter.
func (h *Handler) ListHospitals(c *gin.Context) {
	hospitals, err := h.Hospitals.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hospitals": hospitals})
}

func (h *Handler) GetHospital(c *gin.Context) {
	hospital, err := h.Hospitals.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hospital": hospital})
}

func (h *Handler) SetHospitalStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if !h.bind(c, &req) {
		return
	}
	hospital, err := h.Hospitals.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hospital": hospital})
}
