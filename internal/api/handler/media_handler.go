package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/socialgraph/pkg/apperr"
	"github.com/d60-Lab/socialgraph/pkg/media"
	"github.com/d60-Lab/socialgraph/pkg/response"
)

const maxUploadBytes = 20 << 20

var errMediaDisabled = apperr.Unavailable("media_disabled", "Media storage is not configured")

type storageKeyRequest struct {
	Filename string `json:"filename" binding:"required,max=255"`
}

// Upload 上传图片/视频
// @Summary 上传媒体文件，返回可用于 status 的 url
// @Tags 媒体
// @Accept multipart/form-data
// @Param file formData file true "文件"
// @Success 200 {object} map[string]string
// @Router /api/upload [post]
func (h *Handler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		response.BadRequest(c, err)
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	url, err := h.media.Upload(c.Request.Context(), callerUID(c), fh.Filename, contentType, data)
	if err != nil {
		response.Error(c, mediaError("upload", err))
		return
	}
	response.Success(c, gin.H{"url": url})
}

// RequestStorageKey hands out a presigned PUT target for direct uploads.
func (h *Handler) RequestStorageKey(c *gin.Context) {
	var req storageKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	desc, err := h.media.PresignUpload(c.Request.Context(), callerUID(c), req.Filename)
	if err != nil {
		response.Error(c, mediaError("presign upload", err))
		return
	}
	response.Success(c, desc)
}

func mediaError(op string, err error) error {
	if errors.Is(err, media.ErrDisabled) {
		return errMediaDisabled
	}
	return apperr.Internal(op, err)
}
