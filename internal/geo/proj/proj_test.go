package proj

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	ctx := NewContext()
	defer ctx.Close()

	for _, def := range []string{
		"EPSG:4326",
		"EPSG:3857",
		"+proj=merc +ellps=WGS84",
	} {
		p, err := ctx.Create(def)
		require.NoError(t, err, def)
		p.Close()
	}
}

func TestCreate_InvalidDefinition(t *testing.T) {
	ctx := NewContext()
	defer ctx.Close()

	_, err := ctx.Create("EPSG:not-a-code")
	assert.Error(t, err)
}

func TestCreateCRSToCRS_WebMercator(t *testing.T) {
	ctx := NewContext()
	defer ctx.Close()

	tr, err := ctx.CreateCRSToCRS("EPSG:4326", "EPSG:3857")
	require.NoError(t, err)

	// Greenwich observatory, lon/lat in degrees; the transformation is
	// normalized so input stays in x/y order.
	x, y, err := tr.Trans(-0.0014, 51.4778)
	require.NoError(t, err)

	wantX := -0.0014 * 20037508.342789244 / 180
	wantY := 6378137 * math.Log(math.Tan(math.Pi/4+51.4778*math.Pi/360))
	assert.InDelta(t, wantX, x, 1e-4)
	assert.InDelta(t, wantY, y, 1e-4)
}

func TestCreateCRSToCRS_UnknownTarget(t *testing.T) {
	ctx := NewContext()
	defer ctx.Close()

	_, err := ctx.CreateCRSToCRS("EPSG:4326", "EPSG:999999")
	assert.Error(t, err)
}

func TestWKT(t *testing.T) {
	ctx := NewContext()
	defer ctx.Close()

	crs, err := ctx.Create("EPSG:3857")
	require.NoError(t, err)

	wkt, err := crs.WKT()
	require.NoError(t, err)
	assert.Contains(t, wkt, "PROJCS")
	assert.Contains(t, wkt, "WGS_1984")
}

func TestClosedHandles(t *testing.T) {
	ctx := NewContext()
	crs, err := ctx.Create("EPSG:4326")
	require.NoError(t, err)

	ctx.Close()

	_, _, err = crs.Trans(0, 0)
	assert.Error(t, err)
	_, err = ctx.Create("EPSG:4326")
	assert.Error(t, err)
}
