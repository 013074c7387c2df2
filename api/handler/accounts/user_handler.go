package accounts

import (
	"net/http"

	"github.com/anoixa/photo-share/api/common"
	"github.com/anoixa/photo-share/api/middleware"
	"github.com/gin-gonic/gin"
)

// ListUsersHandler GET /user/list
func (h *Handler) ListUsersHandler(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// ListUserCountsHandler GET /user/list/counts
func (h *Handler) ListUserCountsHandler(c *gin.Context) {
	users, err := h.svc.ListUsersWithCounts(c.Request.Context())
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUserHandler GET /user/:id
func (h *Handler) GetUserHandler(c *gin.Context) {
	user, err := h.svc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteAccountHandler 删除当前账号 DELETE /user
func (h *Handler) DeleteAccountHandler(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	if err := h.svc.DeleteAccount(c.Request.Context(), user.ID, middleware.SessionID(c)); err != nil {
		common.RespondServiceError(c, err)
		return
	}

	h.cookie.Clear(c)
	common.RespondSuccessMessage(c, "User account deleted")
}
