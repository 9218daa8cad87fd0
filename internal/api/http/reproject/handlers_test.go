package reproject

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openterra/reproject-backend/internal/logger"
	"github.com/openterra/reproject-backend/internal/reproject/domain"
	"github.com/openterra/reproject-backend/internal/reproject/service"
	"github.com/openterra/reproject-backend/internal/scratch"
	transferservice "github.com/openterra/reproject-backend/internal/transfer/service"
	"github.com/openterra/reproject-backend/internal/transfer/store"
)

// stubEngine lets handler tests script the engine's behavior without PROJ.
type stubEngine struct {
	validateErr  error
	reprojectErr error

	// scratchRoot is where the stub materializes its fake result.
	scratchRoot string
}

func (s *stubEngine) ValidateCRS(def string) error { return s.validateErr }

func (s *stubEngine) Reproject(ctx context.Context, archivePath, targetCRS string) (service.Result, error) {
	if s.reprojectErr != nil {
		return service.Result{}, s.reprojectErr
	}
	inDir, err := scratch.New(s.scratchRoot)
	if err != nil {
		return service.Result{}, err
	}
	outDir, err := scratch.New(s.scratchRoot)
	if err != nil {
		return service.Result{}, err
	}
	out := filepath.Join(outDir, service.OutputName(targetCRS))
	if err := os.WriteFile(out, []byte("zip bytes"), 0o644); err != nil {
		return service.Result{}, err
	}
	return service.Result{OutputPath: out, InputDir: inDir, OutputDir: outDir}, nil
}

type env struct {
	router      *gin.Engine
	engine      *stubEngine
	scratchRoot string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	eng := &stubEngine{scratchRoot: root}
	transfers := transferservice.New(store.NewMemory(), logger.Nop())

	h := NewHandler(eng, transfers, root, logger.Nop())
	r := gin.New()
	h.Register(r, Options{RatePerMinute: 100, MaxUploadBytes: 1 << 20})

	return &env{router: r, engine: eng, scratchRoot: root}
}

// multipartUpload builds a multipart body with an optional file part and an
// optional target_crs field.
func multipartUpload(t *testing.T, filename, targetCRS string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("pretend zip content"))
		require.NoError(t, err)
	}
	if targetCRS != "" {
		require.NoError(t, mw.WriteField("target_crs", targetCRS))
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func (e *env) post(t *testing.T, filename, targetCRS string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartUpload(t, filename, targetCRS)
	req := httptest.NewRequest(http.MethodPost, "/reproject_shapefile", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestUpload_MissingFilePart(t *testing.T) {
	e := newEnv(t)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("target_crs", "EPSG:3857"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/reproject_shapefile", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no file part in the request", decodeError(t, w))
}

func TestUpload_RejectsNonZipFilename(t *testing.T) {
	e := newEnv(t)
	w := e.post(t, "parcels.rar", "EPSG:3857")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w), ".zip")
}

func TestUpload_MissingTargetCRS(t *testing.T) {
	e := newEnv(t)
	w := e.post(t, "parcels.zip", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing 'target_crs' parameter", decodeError(t, w))
}

func TestUpload_InvalidTargetCRS(t *testing.T) {
	e := newEnv(t)
	e.engine.validateErr = fmt.Errorf("%w: invalid target CRS %q (example of valid syntax: EPSG:4326)", domain.ErrInvalidInput, "EPSG:nope")

	w := e.post(t, "parcels.zip", "EPSG:nope")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w), "EPSG:nope")
}

func TestUpload_EngineClientError(t *testing.T) {
	e := newEnv(t)
	e.engine.reprojectErr = domain.ErrIncompleteShapefile

	w := e.post(t, "parcels.zip", "EPSG:3857")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assertNoScratchLeak(t, e.scratchRoot)
}

func TestUpload_EngineInternalError(t *testing.T) {
	e := newEnv(t)
	e.engine.reprojectErr = os.ErrPermission

	w := e.post(t, "parcels.zip", "EPSG:3857")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decodeError(t, w), "an unexpected error occurred")
	assertNoScratchLeak(t, e.scratchRoot)
}

func TestUploadThenDownload_SingleUse(t *testing.T) {
	e := newEnv(t)

	w := e.post(t, "parcels.zip", "EPSG:3857")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "shapefile re-projected successfully", resp.Message)
	assert.Contains(t, resp.DownloadLink, "/download_file/reprojected_EPSG3857.zip")

	// first download succeeds and streams the archive
	dl := httptest.NewRequest(http.MethodGet, "/download_file/reprojected_EPSG3857.zip", nil)
	dw := httptest.NewRecorder()
	e.router.ServeHTTP(dw, dl)

	require.Equal(t, http.StatusOK, dw.Code)
	assert.Equal(t, "zip bytes", dw.Body.String())
	assert.Contains(t, dw.Header().Get("Content-Disposition"), "reprojected_EPSG3857.zip")

	// the link is single-use
	dl2 := httptest.NewRequest(http.MethodGet, "/download_file/reprojected_EPSG3857.zip", nil)
	dw2 := httptest.NewRecorder()
	e.router.ServeHTTP(dw2, dl2)

	assert.Equal(t, http.StatusNotFound, dw2.Code)
	assertNoScratchLeak(t, e.scratchRoot)
}

func TestDownload_UnknownID(t *testing.T) {
	e := newEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/download_file/nope.zip", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "file not found or has expired", decodeError(t, w))
}

func TestDownloadURL_HonorsForwardedProto(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://api.example.com/reproject_shapefile", nil)
	req.Header.Set("X-Forwarded-Proto", "https")

	assert.Equal(t,
		"https://api.example.com/download_file/out.zip",
		downloadURL(req, "out.zip"))
}

func assertNoScratchLeak(t *testing.T, root string) {
	t.Helper()
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directories leaked under %s", root)
}
