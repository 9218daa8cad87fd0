package reproject

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const formPage = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Shapefile Reprojection</title>
  <style>
    body { font-family: sans-serif; max-width: 40rem; margin: 4rem auto; }
    label { display: block; margin-top: 1rem; }
    button { margin-top: 1.5rem; }
  </style>
</head>
<body>
  <h1>Shapefile Reprojection</h1>
  <p>Upload a zipped shapefile bundle (.shp, .shx, .dbf, .prj) and pick a
  target coordinate reference system, e.g. <code>EPSG:3857</code>.</p>
  <form action="/reproject_shapefile" method="post" enctype="multipart/form-data">
    <label>Zipped shapefile
      <input type="file" name="file" accept=".zip" required>
    </label>
    <label>Target CRS
      <input type="text" name="target_crs" placeholder="EPSG:4326" required>
    </label>
    <button type="submit">Reproject</button>
  </form>
</body>
</html>
`

// Form serves the upload page.
func (h *Handler) Form(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(formPage))
}
