package accounts

import (
	"net/http"

	"github.com/anoixa/photo-share/api/common"
	"github.com/anoixa/photo-share/api/middleware"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	LoginName string `json:"login_name" binding:"required"`
	Password  string `json:"password"`
}

// LoginHandler 登录 POST /admin/login
func (h *Handler) LoginHandler(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid login information")
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.LoginName, req.Password)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	h.cookie.Set(c, result.Token, result.Expiry)
	c.JSON(http.StatusOK, result.User)
}

// LogoutHandler 注销 POST /admin/logout
func (h *Handler) LogoutHandler(c *gin.Context) {
	if _, ok := middleware.CurrentUser(c); !ok {
		common.RespondError(c, http.StatusBadRequest, "Not logged in")
		return
	}

	if err := h.svc.Logout(c.Request.Context(), middleware.SessionID(c)); err != nil {
		common.RespondServiceError(c, err)
		return
	}

	h.cookie.Clear(c)
	common.RespondSuccessMessage(c, "Logged out")
}

// CurrentHandler 返回当前会话用户 GET /admin/current
func (h *Handler) CurrentHandler(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		common.RespondError(c, http.StatusUnauthorized, "Not logged in")
		return
	}
	c.JSON(http.StatusOK, user)
}
