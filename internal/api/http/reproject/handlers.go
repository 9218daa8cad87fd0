// Package reproject exposes the HTTP surface of the reprojection service:
// the upload form, the reprojection endpoint, and single-use downloads.
package reproject

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openterra/reproject-backend/internal/logger"
	"github.com/openterra/reproject-backend/internal/reproject/domain"
	"github.com/openterra/reproject-backend/internal/reproject/service"
	"github.com/openterra/reproject-backend/internal/scratch"
	transferdomain "github.com/openterra/reproject-backend/internal/transfer/domain"
)

// Reprojector is the engine surface the handlers need.
type Reprojector interface {
	ValidateCRS(def string) error
	Reproject(ctx context.Context, archivePath, targetCRS string) (service.Result, error)
}

// Transfers is the registry surface the handlers need.
type Transfers interface {
	Register(ctx context.Context, rec transferdomain.Record) error
	Resolve(ctx context.Context, fileID string) (transferdomain.Record, error)
	Consume(ctx context.Context, fileID string) error
}

type Handler struct {
	engine      Reprojector
	transfers   Transfers
	scratchRoot string
	log         *logger.Logger
}

func NewHandler(engine Reprojector, transfers Transfers, scratchRoot string, log *logger.Logger) *Handler {
	return &Handler{
		engine:      engine,
		transfers:   transfers,
		scratchRoot: scratchRoot,
		log:         log,
	}
}

// Upload handles POST /reproject_shapefile: multipart field "file" (a .zip
// archive) plus form field "target_crs". The target CRS is validated before
// any byte of the upload is written to disk.
func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "uploaded file is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no file part in the request"})
		return
	}

	name := filepath.Base(file.Filename)
	if name == "" || name == "." || !strings.EqualFold(filepath.Ext(name), ".zip") {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no selected file or invalid file type, please upload a .zip file"})
		return
	}

	targetCRS := strings.TrimSpace(c.PostForm("target_crs"))
	if targetCRS == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing 'target_crs' parameter"})
		return
	}
	if err := h.engine.ValidateCRS(targetCRS); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	uploadDir, err := scratch.New(h.scratchRoot)
	if err != nil {
		h.log.Error().Err(err).Msg("creating upload scratch dir")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fmt.Sprintf("an unexpected error occurred: %v", err)})
		return
	}

	saved := filepath.Join(uploadDir, secureFilename(name))
	if err := c.SaveUploadedFile(file, saved); err != nil {
		h.removeDirs(uploadDir)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fmt.Sprintf("an unexpected error occurred: %v", err)})
		return
	}

	res, err := h.engine.Reproject(c.Request.Context(), saved, targetCRS)
	if err != nil {
		h.removeDirs(uploadDir)
		if domain.IsClientError(err) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		h.log.Error().Err(err).Str("target_crs", targetCRS).Msg("reprojection failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fmt.Sprintf("an unexpected error occurred: %v", err)})
		return
	}

	fileID := filepath.Base(res.OutputPath)
	rec := transferdomain.Record{
		FileID:      fileID,
		Path:        res.OutputPath,
		ScratchDirs: []string{uploadDir, res.InputDir, res.OutputDir},
		CreatedAt:   time.Now(),
	}
	if err := h.transfers.Register(c.Request.Context(), rec); err != nil {
		h.removeDirs(uploadDir, res.InputDir, res.OutputDir)
		h.log.Error().Err(err).Str("file_id", fileID).Msg("registering transfer record")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fmt.Sprintf("an unexpected error occurred: %v", err)})
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		Message:      "shapefile re-projected successfully",
		DownloadLink: downloadURL(c.Request, fileID),
	})
}

// Download handles GET /download_file/:file_id. The record is consumed
// after the response body has been written, so the archive is never deleted
// mid-transfer; a second request for the same identifier gets 404.
func (h *Handler) Download(c *gin.Context) {
	fileID := c.Param("file_id")

	rec, err := h.transfers.Resolve(c.Request.Context(), fileID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "file not found or has expired"})
		return
	}
	if _, err := os.Stat(rec.Path); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "file not found or has expired"})
		return
	}

	c.FileAttachment(rec.Path, filepath.Base(rec.Path))

	// FileAttachment has written the full response by the time it returns.
	if err := h.transfers.Consume(c.Request.Context(), fileID); err != nil {
		h.log.Error().Err(err).Str("file_id", fileID).Msg("post-download cleanup failed")
	}
}

func (h *Handler) removeDirs(dirs ...string) {
	if err := scratch.RemoveAll(dirs...); err != nil {
		h.log.Error().Err(err).Msg("scratch cleanup failed")
	}
}

func downloadURL(r *http.Request, fileID string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if v := r.Header.Get("X-Forwarded-Proto"); v != "" {
		scheme = v
	}
	return fmt.Sprintf("%s://%s/download_file/%s", scheme, r.Host, fileID)
}
