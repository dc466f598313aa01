package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/neocare-api/internal/middleware"
)

type SendMessageRequest struct {
	ReceiverID string `json:"receiverId" binding:"required"`
	Content    string `json:"content"`
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if !h.bind(c, &req) {
		return
	}
	msg, err := h.Messaging.Send(c.Request.Context(), middleware.Principal(c), req.ReceiverID, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// GetConversation returns the caller's messages with :otherId, oldest first.
func (h *Handler) GetConversation(c *gin.Context) {
	msgs, err := h.Messaging.Conversation(c.Request.Context(), middleware.Principal(c), c.Param("otherId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *Handler) MarkConversationRead(c *gin.Context) {
	n, err := h.Messaging.MarkRead(c.Request.Context(), middleware.Principal(c), c.Param("otherId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

func (h *Handler) UnreadCount(c *gin.Context) {
	n, err := h.Messaging.UnreadCount(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}
