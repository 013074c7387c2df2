package photos

import (
	"errors"
	"log"
	"net/http"

	"github.com/anoixa/photo-share/api/common"
	"github.com/anoixa/photo-share/api/middleware"
	svcPhotos "github.com/anoixa/photo-share/internal/services/photos"
	"github.com/gin-gonic/gin"
)

const uploadField = "uploadedphoto"

// multipart 头部的额外开销
const multipartOverhead = 1 << 20

// UploadHandler 上传照片 POST /photos/new
func (h *Handler) UploadHandler(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+multipartOverhead)

	fileHeader, err := c.FormFile(uploadField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			common.RespondError(c, http.StatusRequestEntityTooLarge, "File is too large")
			return
		}
		common.RespondError(c, http.StatusBadRequest, "No file uploaded or upload error. File may be empty.")
		return
	}
	if fileHeader.Size > h.maxUploadSize {
		common.RespondError(c, http.StatusRequestEntityTooLarge, "File is too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("[Photos] Failed to open uploaded file: %v", err)
		common.RespondError(c, http.StatusBadRequest, "No file uploaded or upload error. File may be empty.")
		return
	}
	defer file.Close()

	photo, err := h.svc.Upload(c.Request.Context(), user.ID, svcPhotos.Blob{
		Name: fileHeader.Filename,
		Size: fileHeader.Size,
		Body: file,
	})
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, photo)
}
