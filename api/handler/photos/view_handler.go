package photos

import (
	"io"
	"net/http"
	"time"

	"github.com/anoixa/photo-share/api/common"
	"github.com/anoixa/photo-share/storage"
	"github.com/gin-gonic/gin"
)

// PhotosOfUserHandler GET /photosOfUser/:id
func (h *Handler) PhotosOfUserHandler(c *gin.Context) {
	photos, err := h.svc.PhotosOfUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, photos)
}

// HighlightsHandler GET /user/:id/photo-highlights
func (h *Handler) HighlightsHandler(c *gin.Context) {
	highlights, err := h.svc.Highlights(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, highlights)
}

// ImageHandler 输出照片文件 GET /images/:file_name
func (h *Handler) ImageHandler(c *gin.Context) {
	fileName := c.Param("file_name")

	reader, err := h.svc.OpenBlob(c.Request.Context(), fileName)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	// 文件名包含唯一 ID，内容不会变化
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Header("Content-Type", storage.ContentType(fileName))
	http.ServeContent(c.Writer, c.Request, fileName, time.Time{}, reader)
}
