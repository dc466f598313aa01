package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/neocare-api/internal/middleware"
	"github.com/harentsoaR/neocare-api/internal/models"
)

// GetTimeline returns the calling parent's checklist. A parent without one gets an
// empty list.
func (h *Handler) GetTimeline(c *gin.Context) {
	tl, err := h.Timeline.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tl)
}

type ReplaceTimelineRequest struct {
	Tasks []models.TimelineTask `json:"tasks"`
}

// ReplaceTimeline upserts the whole checklist. Tasks without an id get one.
func (h *Handler) ReplaceTimeline(c *gin.Context) {
	var req ReplaceTimelineRequest
	if !h.bind(c, &req) {
		return
	}
	tl, err := h.Timeline.Replace(c.Request.Context(), middleware.UserID(c), req.Tasks)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tl)
}

func (h *Handler) SetTaskCompleted(c *gin.Context) {
	var req struct {
		Completed *bool `json:"completed" binding:"required"`
	}
	if !h.bind(c, &req) {
		return
	}
	tl, err := h.Timeline.SetTaskCompleted(c.Request.Context(), middleware.UserID(c), c.Param("taskId"), *req.Completed)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tl)
}

// DoctorParentTimeline lets a doctor read the timeline of a parent in their care.
func (h *Handler) DoctorParentTimeline(c *gin.Context) {
	tl, err := h.Timeline.GetForDoctor(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tl)
}
