/*
Package proj provides a thin interface to the PROJ coordinate transformation
library (https://proj.org/), covering the three operations the service
needs: parsing CRS definitions, building CRS-to-CRS transformations with
easting/northing axis order, and exporting a CRS as the ESRI WKT dialect
written to shapefile .prj sidecars.

Requires PROJ 6 or later. A Context and the handles created from it must
not be shared across goroutines; create one Context per operation.
*/
package proj
