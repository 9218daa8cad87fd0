// Package service implements the reprojection engine: it takes a validated
// shapefile bundle, rewrites its coordinates in a target CRS, and packages
// the result for download.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	shp "github.com/jonas-p/go-shp"

	"github.com/openterra/reproject-backend/internal/geo/proj"
	"github.com/openterra/reproject-backend/internal/logger"
	"github.com/openterra/reproject-backend/internal/reproject/domain"
	"github.com/openterra/reproject-backend/internal/reproject/shapefile"
	"github.com/openterra/reproject-backend/internal/scratch"
)

// Result carries the packaged archive plus the scratch directories the
// caller must eventually release: the input side still holds the extracted
// bundle, the output side holds only the final archive.
type Result struct {
	OutputPath string
	InputDir   string
	OutputDir  string
}

type Engine struct {
	scratchRoot string
	log         *logger.Logger
}

func NewEngine(scratchRoot string, log *logger.Logger) *Engine {
	return &Engine{scratchRoot: scratchRoot, log: log}
}

// ValidateCRS checks that PROJ can parse def as a coordinate reference
// system. Handlers call this before any file is saved or extracted.
func (e *Engine) ValidateCRS(def string) error {
	pctx := proj.NewContext()
	defer pctx.Close()

	if _, err := pctx.Create(def); err != nil {
		return fmt.Errorf("%w: invalid target CRS %q (example of valid syntax: EPSG:4326)", domain.ErrInvalidInput, def)
	}
	return nil
}

// Reproject validates the zipped bundle at archivePath, transforms its
// geometries to targetCRS, and packages the result into a new zip archive.
// On failure every scratch directory created along the way has been removed
// before the error returns.
func (e *Engine) Reproject(ctx context.Context, archivePath, targetCRS string) (Result, error) {
	shpPath, inputDir, err := shapefile.Validate(archivePath, e.scratchRoot)
	if err != nil {
		return Result{}, err
	}

	res, err := e.transform(shpPath, inputDir, targetCRS)
	if err != nil {
		if rmErr := scratch.RemoveAll(inputDir, res.OutputDir); rmErr != nil {
			e.log.Error().Err(rmErr).Msg("scratch cleanup after failed reprojection")
		}
		return Result{}, err
	}

	e.log.Info().
		Str("archive", filepath.Base(archivePath)).
		Str("target_crs", targetCRS).
		Str("output", filepath.Base(res.OutputPath)).
		Msg("reprojection completed")
	return res, nil
}

func (e *Engine) transform(shpPath, inputDir, targetCRS string) (Result, error) {
	var res Result

	srcWKT, err := readProjection(shpPath)
	if err != nil {
		return res, err
	}

	pctx := proj.NewContext()
	defer pctx.Close()

	if _, err := pctx.Create(srcWKT); err != nil {
		return res, fmt.Errorf("%w: cannot parse the .prj sidecar: %v", domain.ErrMissingSourceCRS, err)
	}

	target, err := pctx.Create(targetCRS)
	if err != nil {
		return res, fmt.Errorf("%w: invalid target CRS %q (example of valid syntax: EPSG:4326)", domain.ErrInvalidInput, targetCRS)
	}
	targetWKT, err := target.WKT()
	if err != nil {
		return res, fmt.Errorf("export target CRS as WKT: %w", err)
	}

	tr, err := pctx.CreateCRSToCRS(srcWKT, targetCRS)
	if err != nil {
		return res, fmt.Errorf("%w: no transformation to %q: %v", domain.ErrInvalidInput, targetCRS, err)
	}

	outDir := filepath.Join(inputDir, "reprojected")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return res, fmt.Errorf("create output directory: %w", err)
	}

	outShp := filepath.Join(outDir, filepath.Base(shpPath))
	if err := reprojectLayer(shpPath, outShp, tr); err != nil {
		return res, err
	}

	prjPath := strings.TrimSuffix(outShp, filepath.Ext(outShp)) + ".prj"
	if err := os.WriteFile(prjPath, []byte(targetWKT), 0o644); err != nil {
		return res, fmt.Errorf("write .prj sidecar: %w", err)
	}

	outputDir, err := scratch.New(e.scratchRoot)
	if err != nil {
		return res, err
	}
	res.OutputDir = outputDir

	zipPath := filepath.Join(outputDir, OutputName(targetCRS))
	if err := shapefile.Create(zipPath, outDir); err != nil {
		return res, fmt.Errorf("package reprojected bundle: %w", err)
	}

	res.OutputPath = zipPath
	res.InputDir = inputDir
	return res, nil
}

// OutputName derives the packaged archive's file name from the target CRS:
// "EPSG:3857" becomes "reprojected_EPSG3857.zip".
func OutputName(targetCRS string) string {
	return "reprojected_" + strings.ReplaceAll(targetCRS, ":", "") + ".zip"
}

// readProjection loads the source CRS from the bundle's .prj sidecar.
func readProjection(shpPath string) (string, error) {
	prjPath := strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".prj"
	raw, err := os.ReadFile(prjPath)
	if err != nil {
		return "", fmt.Errorf("read .prj sidecar: %w", err)
	}
	wkt := strings.TrimSpace(string(raw))
	if wkt == "" {
		return "", domain.ErrMissingSourceCRS
	}
	return wkt, nil
}

// reprojectLayer copies the layer at srcPath to dstPath, transforming every
// geometry with tr. Attribute records pass through unchanged.
func reprojectLayer(srcPath, dstPath string, tr *proj.Proj) error {
	r, err := shp.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open shapefile: %w", err)
	}
	defer r.Close()

	fields := r.Fields()

	w, err := shp.Create(dstPath, r.GeometryType)
	if err != nil {
		return fmt.Errorf("create output shapefile: %w", err)
	}
	defer w.Close()
	w.SetFields(fields)

	row := 0
	for r.Next() {
		n, s := r.Shape()
		if err := transformShape(s, tr); err != nil {
			return fmt.Errorf("record %d: %w", n, err)
		}
		w.Write(s)
		for i := range fields {
			if err := w.WriteAttribute(row, i, r.ReadAttribute(n, i)); err != nil {
				return fmt.Errorf("copy attribute %d of record %d: %w", i, n, err)
			}
		}
		row++
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("read shapefile: %w", err)
	}
	return nil
}

func transformShape(s shp.Shape, tr *proj.Proj) error {
	switch v := s.(type) {
	case *shp.Null:
		return nil
	case *shp.Point:
		return transformPoint(&v.X, &v.Y, tr)
	case *shp.PointM:
		return transformPoint(&v.X, &v.Y, tr)
	case *shp.PointZ:
		return transformPoint(&v.X, &v.Y, tr)
	case *shp.MultiPoint:
		return transformPoints(v.Points, &v.Box, tr)
	case *shp.MultiPointM:
		return transformPoints(v.Points, &v.Box, tr)
	case *shp.MultiPointZ:
		return transformPoints(v.Points, &v.Box, tr)
	case *shp.PolyLine:
		return transformPoints(v.Points, &v.Box, tr)
	case *shp.PolyLineM:
		return transformPoints(v.Points, &v.Box, tr)
	case *shp.PolyLineZ:
		return transformPoints(v.Points, &v.Box, tr)
	case *shp.Polygon:
		return transformPoints(v.Points, &v.Box, tr)
	case *shp.PolygonM:
		return transformPoints(v.Points, &v.Box, tr)
	case *shp.PolygonZ:
		return transformPoints(v.Points, &v.Box, tr)
	default:
		return fmt.Errorf("unsupported shape type %T", s)
	}
}

func transformPoint(x, y *float64, tr *proj.Proj) error {
	u, v, err := tr.Trans(*x, *y)
	if err != nil {
		return fmt.Errorf("transform coordinate: %w", err)
	}
	*x, *y = u, v
	return nil
}

func transformPoints(pts []shp.Point, box *shp.Box, tr *proj.Proj) error {
	for i := range pts {
		if err := transformPoint(&pts[i].X, &pts[i].Y, tr); err != nil {
			return err
		}
	}
	*box = shp.BBoxFromPoints(pts)
	return nil
}
