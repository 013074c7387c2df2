package favorites

import (
	"net/http"

	"github.com/anoixa/photo-share/api/common"
	"github.com/anoixa/photo-share/api/middleware"
	svcFavorites "github.com/anoixa/photo-share/internal/services/favorites"
	"github.com/gin-gonic/gin"
)

// Handler 收藏处理器，只操作会话用户自己的收藏
type Handler struct {
	svc *svcFavorites.Service
}

// NewHandler 创建收藏处理器
func NewHandler(svc *svcFavorites.Service) *Handler {
	return &Handler{svc: svc}
}

type addFavoriteRequest struct {
	PhotoID string `json:"photo_id"`
}

// AddFavoriteHandler POST /favorites
func (h *Handler) AddFavoriteHandler(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req addFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid photo ID")
		return
	}

	if err := h.svc.Add(c.Request.Context(), user.ID, req.PhotoID); err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "Photo added to favorites")
}

// ListFavoritesHandler GET /favorites
func (h *Handler) ListFavoritesHandler(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	photos, err := h.svc.List(c.Request.Context(), user.ID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, photos)
}

// RemoveFavoriteHandler DELETE /favorites/:photo_id
func (h *Handler) RemoveFavoriteHandler(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	if err := h.svc.Remove(c.Request.Context(), user.ID, c.Param("photo_id")); err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "Photo removed from favorites")
}
