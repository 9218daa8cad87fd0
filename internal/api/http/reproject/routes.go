package reproject

import (
	"github.com/gin-gonic/gin"

	"github.com/openterra/reproject-backend/internal/api/http/middleware"
)

// Options tune the public endpoints.
type Options struct {
	RatePerMinute  int
	MaxUploadBytes int64
}

// Register attaches the upload form, the reprojection endpoint and the
// download endpoint to the router.
func (h *Handler) Register(r gin.IRouter, opts Options) {
	r.GET("/", h.Form)
	r.POST("/reproject_shapefile",
		middleware.RateLimit(opts.RatePerMinute),
		middleware.MaxBodySize(opts.MaxUploadBytes),
		h.Upload,
	)
	r.GET("/download_file/:file_id", h.Download)
}
