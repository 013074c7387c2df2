package photos

import (
	"github.com/anoixa/photo-share/api/common"
	"github.com/anoixa/photo-share/api/middleware"
	"github.com/gin-gonic/gin"
)

// DeletePhotoHandler 删除自己的照片 DELETE /photos/:id
func (h *Handler) DeletePhotoHandler(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	if err := h.svc.DeletePhoto(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "Photo deleted")
}
