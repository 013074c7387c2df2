package photos

import (
	"net/http"

	"github.com/anoixa/photo-share/api/common"
	"github.com/anoixa/photo-share/api/middleware"
	"github.com/gin-gonic/gin"
)

type addCommentRequest struct {
	Comment string `json:"comment"`
}

// AddCommentHandler POST /commentsOfPhoto/:photo_id
func (h *Handler) AddCommentHandler(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Comment cannot be empty")
		return
	}

	comment, err := h.svc.AddComment(c.Request.Context(), c.Param("photo_id"), user.ID, req.Comment)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DeleteCommentHandler 删除自己的评论 DELETE /comments/:id/:comment_id，:id 为照片 ID
func (h *Handler) DeleteCommentHandler(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	err := h.svc.DeleteComment(c.Request.Context(), c.Param("id"), c.Param("comment_id"), user.ID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "Comment deleted")
}

// CommentsOfUserHandler GET /comments/:id
func (h *Handler) CommentsOfUserHandler(c *gin.Context) {
	comments, err := h.svc.CommentsOfUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}
