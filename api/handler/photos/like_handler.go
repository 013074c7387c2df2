package photos

import (
	"net/http"

	"github.com/anoixa/photo-share/api/common"
	"github.com/anoixa/photo-share/api/middleware"
	"github.com/gin-gonic/gin"
)

// LikeHandler POST /photos/like/:id
func (h *Handler) LikeHandler(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	likes, err := h.svc.Like(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo_id": c.Param("id"), "likes": likes})
}

// UnlikeHandler POST /photos/unlike/:id
func (h *Handler) UnlikeHandler(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	likes, err := h.svc.Unlike(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo_id": c.Param("id"), "likes": likes})
}
