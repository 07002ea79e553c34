package tilecomp

import (
	"errors"
	"fmt"
	"image"
	"slices"
	"sync"

	"github.com/gogpu/tilecomp/colorspace"
	"github.com/gogpu/tilecomp/composite"
	"github.com/gogpu/tilecomp/internal/parallel"
	"github.com/gogpu/tilecomp/render"
	"github.com/gogpu/tilecomp/tiles"
)

// Image is a stack of layers over a shared color strategy, plus the
// projection: the plane holding the composite of all visible layers.
//
// Layers are stored bottom to top. Painting into a layer marks its tiles
// dirty; Flatten recomposites exactly those tiles into the projection, in
// parallel, one job per tile.
//
// Thread safety: Image and Layer methods are safe for concurrent use.
// Flatten and MergeDown must not overlap with writes to the same layers
// if the result is expected to include them.
type Image[Q colorspace.Quantum] struct {
	width, height int
	strategy      colorspace.Strategy[Q]
	engine        *composite.Engine[Q]
	opts          options
	workers       *parallel.WorkerPool
	buffers       *tiles.Pool[Q]

	projection *tiles.Manager[Q]
	background colorspace.Pixel[Q]

	// pending holds tiles to recomposite for reasons other than layer
	// writes: property changes, removed layers.
	pending *parallel.DirtyRegion

	mu     sync.RWMutex
	layers []*Layer[Q]
	closed bool
}

// NewImage creates an empty image of width x height pixels.
func NewImage[Q colorspace.Quantum](width, height int, s colorspace.Strategy[Q], opts ...Option) (*Image[Q], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	img := &Image[Q]{
		width:    width,
		height:   height,
		strategy: s,
		engine:   composite.NewEngine(s),
		opts:     o,
		buffers:  tiles.NewPool[Q](),
	}

	proj, err := img.newPlane()
	if err != nil {
		return nil, fmt.Errorf("tilecomp: new image: %w", err)
	}
	img.projection = proj

	tx, ty := proj.Grid()
	img.pending = parallel.NewDirtyRegion(tx, ty)
	img.pending.MarkAll()

	if o.background != nil {
		img.background = make(colorspace.Pixel[Q], s.Channels())
		s.NativeColorOpacity(o.background, colorspace.Max[Q](), img.background)
	}
	img.workers = parallel.NewWorkerPool(o.workers)
	return img, nil
}

func (img *Image[Q]) newPlane() (*tiles.Manager[Q], error) {
	return tiles.NewManager(img.width, img.height, img.strategy.Channels(),
		tiles.WithTileSize[Q](img.opts.tileW, img.opts.tileH),
		tiles.WithMaxTiles[Q](img.opts.maxTiles))
}

// Bounds returns the image rectangle.
func (img *Image[Q]) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.width, img.height)
}

// Strategy returns the color strategy shared by all planes of the image.
func (img *Image[Q]) Strategy() colorspace.Strategy[Q] {
	return img.strategy
}

// Engine returns the composite engine used to flatten and merge layers.
func (img *Image[Q]) Engine() *composite.Engine[Q] {
	return img.engine
}

// Projection returns the plane holding the flattened image. It is updated
// by Flatten and is the source to render from.
func (img *Image[Q]) Projection() *tiles.Manager[Q] {
	return img.projection
}

// AddLayer creates an empty layer on top of the stack.
func (img *Image[Q]) AddLayer(name string, op colorspace.CompositeOp, opacity Q) (*Layer[Q], error) {
	if !op.IsValid() {
		return nil, fmt.Errorf("tilecomp: add layer %q: invalid op %v", name, op)
	}

	img.mu.Lock()
	defer img.mu.Unlock()
	if img.closed {
		return nil, ErrClosed
	}
	if img.layerIndex(name) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateLayer, name)
	}

	plane, err := img.newPlane()
	if err != nil {
		return nil, fmt.Errorf("tilecomp: add layer %q: %w", name, err)
	}
	l := &Layer[Q]{
		img:     img,
		name:    name,
		plane:   plane,
		op:      op,
		opacity: opacity,
		visible: true,
	}
	img.layers = append(img.layers, l)
	return l, nil
}

// Layers returns the layers bottom to top.
func (img *Image[Q]) Layers() []*Layer[Q] {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return slices.Clone(img.layers)
}

// Layer returns the layer with the given name, or nil.
func (img *Image[Q]) Layer(name string) *Layer[Q] {
	img.mu.RLock()
	defer img.mu.RUnlock()
	if i := img.layerIndex(name); i >= 0 {
		return img.layers[i]
	}
	return nil
}

func (img *Image[Q]) layerIndex(name string) int {
	return slices.IndexFunc(img.layers, func(l *Layer[Q]) bool { return l.name == name })
}

// RemoveLayer removes l from the image and releases its tiles.
func (img *Image[Q]) RemoveLayer(l *Layer[Q]) error {
	img.mu.Lock()
	defer img.mu.Unlock()
	i := slices.Index(img.layers, l)
	if i < 0 {
		return ErrLayerNotFound
	}
	img.removeAt(i)
	return nil
}

// removeAt drops layer i and schedules the tiles it covered. The caller
// holds img.mu.
func (img *Image[Q]) removeAt(i int) {
	l := img.layers[i]
	img.layers = slices.Delete(img.layers, i, i+1)
	img.markTiles(l.plane)
	_ = l.plane.Close()
}

// markTiles schedules every allocated tile of plane for recompositing.
func (img *Image[Q]) markTiles(plane *tiles.Manager[Q]) {
	_ = plane.ForEachTile(func(tx, ty int, _ []Q) {
		img.pending.Mark(tx, ty)
	})
}

// invalidate schedules the whole image for recompositing.
func (img *Image[Q]) invalidate() {
	img.pending.MarkAll()
}

// Flatten recomposites every tile changed since the last Flatten into the
// projection and returns the number of tiles recomposited.
//
// Each tile starts from the background (or transparent) and composites
// the visible layers bottom to top with their op and opacity.
func (img *Image[Q]) Flatten() (int, error) {
	img.mu.RLock()
	defer img.mu.RUnlock()
	if img.closed {
		return 0, ErrClosed
	}

	tw, th := img.projection.TileSize()
	tx, ty := img.projection.Grid()
	dirty := parallel.NewDirtyRegion(tx, ty)
	for _, p := range img.pending.Take() {
		dirty.Mark(p.X, p.Y)
	}
	for _, l := range img.layers {
		for _, r := range l.plane.TakeDirty() {
			dirty.Mark(r.Min.X/tw, r.Min.Y/th)
		}
	}
	pts := dirty.Take()
	if len(pts) == 0 {
		return 0, nil
	}

	stack := make([]layerState[Q], 0, len(img.layers))
	for _, l := range img.layers {
		if l.visible {
			stack = append(stack, layerState[Q]{plane: l.plane, op: l.op, opacity: l.opacity})
		}
	}

	var (
		errMu sync.Mutex
		errs  []error
	)
	jobs := make([]func(), len(pts))
	for i, p := range pts {
		jobs[i] = func() {
			if err := img.flattenTile(p.X, p.Y, stack); err != nil {
				img.pending.Mark(p.X, p.Y)
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
			}
		}
	}
	img.workers.Run(jobs)

	Logger().Debug("tilecomp: flatten",
		"tiles", len(pts), "layers", len(stack), "errors", len(errs))
	if len(errs) > 0 {
		return len(pts) - len(errs), errors.Join(errs...)
	}
	return len(pts), nil
}

type layerState[Q colorspace.Quantum] struct {
	plane   *tiles.Manager[Q]
	op      colorspace.CompositeOp
	opacity Q
}

func (img *Image[Q]) flattenTile(tx, ty int, stack []layerState[Q]) error {
	rect := img.projection.TileRect(tx, ty)

	// A cell no layer has written stays unallocated in a transparent
	// projection.
	if img.background == nil && !slices.ContainsFunc(stack, func(l layerState[Q]) bool {
		return l.plane.TileAt(tx, ty) != nil
	}) {
		if err := img.projection.ClearTile(tx, ty); err != nil {
			return fmt.Errorf("tilecomp: flatten %v: %w", rect, err)
		}
		img.projection.MarkDirty(rect)
		return nil
	}

	ch := img.strategy.Channels()
	n := rect.Dx() * rect.Dy()

	acc := img.buffers.Get(n * ch)
	defer img.buffers.Put(acc)
	if img.background != nil {
		for i := 0; i < len(acc); i += ch {
			copy(acc[i:i+ch], img.background)
		}
	}

	if len(stack) > 0 {
		src := img.buffers.Get(n * ch)
		defer img.buffers.Put(src)
		for _, l := range stack {
			if err := l.plane.ReadPixels(rect, src); err != nil {
				return fmt.Errorf("tilecomp: flatten %v: %w", rect, err)
			}
			img.engine.CompositeRun(acc, src, n, l.opacity, l.op)
		}
	}

	if err := img.projection.WritePixels(rect, acc); err != nil {
		return fmt.Errorf("tilecomp: flatten %v: %w", rect, err)
	}
	return nil
}

// MergeDown composites l onto the layer directly below it with l's op and
// opacity, then removes l. A hidden l is removed without compositing.
func (img *Image[Q]) MergeDown(l *Layer[Q]) error {
	img.mu.Lock()
	defer img.mu.Unlock()
	if img.closed {
		return ErrClosed
	}
	i := slices.Index(img.layers, l)
	if i < 0 {
		return ErrLayerNotFound
	}
	if i == 0 {
		return ErrNoLayerBelow
	}
	below := img.layers[i-1]

	if l.visible {
		var rects []image.Rectangle
		_ = l.plane.ForEachTile(func(tx, ty int, _ []Q) {
			rects = append(rects, l.plane.TileRect(tx, ty))
		})

		var (
			errMu sync.Mutex
			errs  []error
		)
		jobs := make([]func(), len(rects))
		for j, r := range rects {
			jobs[j] = func() {
				if err := img.mergeTile(r, l, below); err != nil {
					errMu.Lock()
					errs = append(errs, err)
					errMu.Unlock()
				}
			}
		}
		img.workers.Run(jobs)
		if len(errs) > 0 {
			return errors.Join(errs...)
		}
	}

	img.removeAt(i)
	return nil
}

func (img *Image[Q]) mergeTile(rect image.Rectangle, top, below *Layer[Q]) error {
	ch := img.strategy.Channels()
	n := rect.Dx() * rect.Dy()

	src := img.buffers.Get(n * ch)
	defer img.buffers.Put(src)
	dst := img.buffers.Get(n * ch)
	defer img.buffers.Put(dst)

	if err := top.plane.ReadPixels(rect, src); err != nil {
		return fmt.Errorf("tilecomp: merge %q down %v: %w", top.name, rect, err)
	}
	if err := below.plane.ReadPixels(rect, dst); err != nil {
		return fmt.Errorf("tilecomp: merge %q down %v: %w", top.name, rect, err)
	}
	img.engine.CompositeRun(dst, src, n, top.opacity, top.op)
	if err := below.plane.WritePixels(rect, dst); err != nil {
		return fmt.Errorf("tilecomp: merge %q down %v: %w", top.name, rect, err)
	}
	return nil
}

// Update flattens the image and paints the changed projection tiles.
func (img *Image[Q]) Update(r *render.Renderer[Q], scratch *render.Scratch[Q], p render.Painter) (int, error) {
	if _, err := img.Flatten(); err != nil {
		return 0, err
	}
	return r.Update(img.projection, scratch, p)
}

// Close releases every plane and stops the worker pool. Close is
// idempotent.
func (img *Image[Q]) Close() error {
	img.mu.Lock()
	defer img.mu.Unlock()
	if img.closed {
		return nil
	}
	img.closed = true
	for _, l := range img.layers {
		_ = l.plane.Close()
	}
	img.layers = nil
	img.workers.Close()
	return img.projection.Close()
}
