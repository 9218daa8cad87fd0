package proj

/*
#cgo darwin pkg-config: proj
#cgo !darwin LDFLAGS: -lproj
#include "proj_go.h"
*/
import "C"

import (
	"errors"
	"runtime"
	"unsafe"
)

// Context owns a PROJ threading context and every Proj handle created from
// it. Closing the context closes all of its handles.
type Context struct {
	pj_context  *C.PJ_CONTEXT
	opened      bool
	counter     uint64
	projections map[uint64]*Proj
}

// Proj is a handle to a PROJ object: a CRS parsed from a definition, or a
// transformation built by CreateCRSToCRS.
type Proj struct {
	pj      *C.PJ
	context *Context
	index   uint64
	opened  bool
}

var (
	errContextClosed    = errors.New("context is closed")
	errProjectionClosed = errors.New("projection is closed")
)

func NewContext() *Context {
	ctx := Context{
		pj_context:  C.proj_context_create(),
		counter:     0,
		projections: make(map[uint64]*Proj),
		opened:      true,
	}
	runtime.SetFinalizer(&ctx, (*Context).Close)
	return &ctx
}

func (ctx *Context) Close() {
	if ctx.opened {
		indexen := make([]uint64, 0, len(ctx.projections))
		for i := range ctx.projections {
			indexen = append(indexen, i)
		}
		for _, i := range indexen {
			p := ctx.projections[i]
			if p.opened {
				C.proj_destroy(p.pj)
				p.context = nil
				p.opened = false
			}
			delete(ctx.projections, i)
		}

		C.proj_context_destroy(ctx.pj_context)
		ctx.pj_context = nil
		ctx.opened = false
	}
}

// Create instantiates a PROJ object from a definition such as "EPSG:4326",
// a WKT string, or a proj-string. An error means PROJ cannot make sense of
// the definition, which is how caller-supplied CRS identifiers are
// validated before any file work starts.
func (ctx *Context) Create(definition string) (*Proj, error) {
	if !ctx.opened {
		return nil, errContextClosed
	}

	cs := C.CString(definition)
	defer C.free(unsafe.Pointer(cs))
	pj := C.proj_create(ctx.pj_context, cs)
	if C.pjnull(pj) != 0 {
		return nil, ctx.lastError()
	}

	return ctx.register(pj), nil
}

// CreateCRSToCRS builds a transformation between two CRS definitions,
// normalized so input and output are in easting/northing (x/y) order
// regardless of the authority's axis convention. Shapefile coordinates can
// therefore be fed to Trans as stored.
func (ctx *Context) CreateCRSToCRS(source, target string) (*Proj, error) {
	if !ctx.opened {
		return nil, errContextClosed
	}

	src := C.CString(source)
	defer C.free(unsafe.Pointer(src))
	dst := C.CString(target)
	defer C.free(unsafe.Pointer(dst))

	pj := C.proj_create_crs_to_crs(ctx.pj_context, src, dst, nil)
	if C.pjnull(pj) != 0 {
		return nil, ctx.lastError()
	}

	norm := C.proj_normalize_for_visualization(ctx.pj_context, pj)
	C.proj_destroy(pj)
	if C.pjnull(norm) != 0 {
		return nil, ctx.lastError()
	}

	return ctx.register(norm), nil
}

func (ctx *Context) register(pj *C.PJ) *Proj {
	p := Proj{
		opened:  true,
		context: ctx,
		index:   ctx.counter,
		pj:      pj,
	}
	ctx.projections[ctx.counter] = &p
	ctx.counter++

	runtime.SetFinalizer(&p, (*Proj).Close)
	return &p
}

func (ctx *Context) lastError() error {
	errno := C.proj_context_errno(ctx.pj_context)
	return errors.New(C.GoString(C.proj_errno_string(errno)))
}

func (p *Proj) Close() {
	if p.opened {
		C.proj_destroy(p.pj)
		if p.context.opened {
			delete(p.context.projections, p.index)
		}
		p.context = nil
		p.opened = false
	}
}

// Trans transforms one coordinate pair in the forward direction of the
// operation p was created with.
func (p *Proj) Trans(x, y float64) (float64, float64, error) {
	if !p.opened {
		return 0, 0, errProjectionClosed
	}

	var u, v, w, t C.double
	C.trans(p.pj, C.PJ_FWD, C.double(x), C.double(y), 0, 0, &u, &v, &w, &t)

	if e := C.proj_errno(p.pj); e != 0 {
		C.proj_errno_reset(p.pj)
		return 0, 0, errors.New(C.GoString(C.proj_errno_string(e)))
	}

	return float64(u), float64(v), nil
}

// WKT exports the object in the ESRI flavor of WKT 1, the dialect expected
// in shapefile .prj sidecars.
func (p *Proj) WKT() (string, error) {
	if !p.opened {
		return "", errProjectionClosed
	}

	s := C.proj_as_wkt(p.context.pj_context, p.pj, C.PJ_WKT1_ESRI, nil)
	if s == nil {
		return "", p.context.lastError()
	}
	return C.GoString(s), nil
}
