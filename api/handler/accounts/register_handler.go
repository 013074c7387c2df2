package accounts

import (
	"net/http"

	"github.com/anoixa/photo-share/api/common"
	svcAccounts "github.com/anoixa/photo-share/internal/services/accounts"
	"github.com/gin-gonic/gin"
)

// RegisterHandler 注册新用户 POST /user
func (h *Handler) RegisterHandler(c *gin.Context) {
	var req svcAccounts.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"login_name": user.LoginName,
	})
}
