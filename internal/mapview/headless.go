package mapview

import (
	"sync"

	"github.com/mwantia/trainmap/pkg/geo"
)

// Headless is an in-memory surface. The bridge reports user moves through
// UserMove and animations complete on FinishAnimation or StopAnimation.
type Headless struct {
	events Evented

	mutex     sync.Mutex
	center    geo.LatLng
	zoom      float64
	width     float64
	height    float64
	animating bool
	layers    []Layer
	controls  []*Control
	removed   bool
}

func NewHeadless(center geo.LatLng, zoom, width, height float64) *Headless {
	return &Headless{
		center: center,
		zoom:   zoom,
		width:  width,
		height: height,
	}
}

// HeadlessFactory returns a SurfaceFactory creating headless surfaces of a fixed size.
func HeadlessFactory(width, height float64) SurfaceFactory {
	return func(center geo.LatLng, zoom float64) (Surface, error) {
		return NewHeadless(center, zoom, width, height), nil
	}
}

func (h *Headless) Events() *Evented {
	return &h.events
}

func (h *Headless) SetView(center geo.LatLng, zoom float64, animate bool) {
	h.mutex.Lock()
	if h.removed {
		h.mutex.Unlock()
		return
	}
	h.center = center
	h.zoom = zoom
	h.animating = animate
	h.mutex.Unlock()

	if !animate {
		h.events.Emit(EventMoveEnd, MoveEvent{Center: center, Zoom: zoom})
	}
}

// UserMove applies a pan or zoom performed by the user.
func (h *Headless) UserMove(center geo.LatLng, zoom float64) {
	h.mutex.Lock()
	if h.removed {
		h.mutex.Unlock()
		return
	}
	h.mutex.Unlock()

	h.events.Emit(EventUserMove, nil)

	h.mutex.Lock()
	h.center = center
	h.zoom = zoom
	h.animating = false
	h.mutex.Unlock()

	h.events.Emit(EventMoveEnd, MoveEvent{Center: center, Zoom: zoom, User: true})
}

func (h *Headless) FinishAnimation() {
	h.finish()
}

func (h *Headless) StopAnimation() {
	h.finish()
}

func (h *Headless) finish() {
	h.mutex.Lock()
	if !h.animating || h.removed {
		h.mutex.Unlock()
		return
	}
	h.animating = false
	ev := MoveEvent{Center: h.center, Zoom: h.zoom}
	h.mutex.Unlock()

	h.events.Emit(EventMoveEnd, ev)
}

func (h *Headless) Animating() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	return h.animating
}

func (h *Headless) View() (geo.LatLng, float64) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	return h.center, h.zoom
}

func (h *Headless) Size() (float64, float64) {
	return h.width, h.height
}

func (h *Headless) AddLayer(l Layer) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.removed {
		return ErrSurfaceRemoved
	}
	for _, existing := range h.layers {
		if existing == l {
			return nil
		}
	}
	h.layers = append(h.layers, l)
	return nil
}

func (h *Headless) RemoveLayer(l Layer) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for i, existing := range h.layers {
		if existing == l {
			h.layers = append(h.layers[:i], h.layers[i+1:]...)
			return
		}
	}
}

func (h *Headless) HasLayer(l Layer) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for _, existing := range h.layers {
		if existing == l {
			return true
		}
	}
	return false
}

// Layers returns the layers currently on the surface.
func (h *Headless) Layers() []Layer {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	return append([]Layer(nil), h.layers...)
}

func (h *Headless) AddControl(c *Control) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if !h.removed {
		h.controls = append(h.controls, c)
	}
}

func (h *Headless) RemoveControl(c *Control) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for i, existing := range h.controls {
		if existing == c {
			h.controls = append(h.controls[:i], h.controls[i+1:]...)
			return
		}
	}
}

func (h *Headless) Controls() []*Control {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	return append([]*Control(nil), h.controls...)
}

func (h *Headless) Remove() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.removed = true
	h.animating = false
	h.layers = nil
	h.controls = nil
}

func (h *Headless) Removed() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	return h.removed
}
