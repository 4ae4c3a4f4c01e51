package mapview

import (
	"sync"

	"github.com/mwantia/trainmap/internal/markers"
)

// guard holds the map reference of an adapter. Once cleared, every callback
// routed through do becomes a no-op.
type guard struct {
	mutex   sync.Mutex
	surface Surface
}

func (g *guard) do(fn func(s Surface)) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.surface == nil {
		return false
	}
	fn(g.surface)
	return true
}

func (g *guard) clear() {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.surface = nil
}

func (g *guard) attached() bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	return g.surface != nil
}

type GuardedPopup struct {
	guard
	content string
	open    bool
}

func (p *GuardedPopup) Open() bool {
	return p.do(func(Surface) { p.open = true })
}

func (p *GuardedPopup) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.open = false
}

func (p *GuardedPopup) IsOpen() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.open
}

type GuardedTooltip struct {
	guard
	text string
	open bool
}

func (t *GuardedTooltip) Open() bool {
	return t.do(func(Surface) { t.open = true })
}

func (t *GuardedTooltip) Close() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.open = false
}

// GuardedMarker wraps one location marker together with its popup and tooltip.
type GuardedMarker struct {
	guard
	events Evented

	spec    markers.Spec
	zoom    float64
	popup   *GuardedPopup
	tooltip *GuardedTooltip
}

func newGuardedMarker(s Surface, spec markers.Spec) *GuardedMarker {
	m := &GuardedMarker{
		spec:    spec,
		popup:   &GuardedPopup{content: string(spec.Popup)},
		tooltip: &GuardedTooltip{text: spec.Tooltip},
	}
	m.surface = s
	m.popup.surface = s
	m.tooltip.surface = s
	return m
}

func (m *GuardedMarker) Spec() markers.Spec {
	return m.spec
}

func (m *GuardedMarker) Events() *Evented {
	return &m.events
}

func (m *GuardedMarker) Attached() bool {
	return m.attached()
}

func (m *GuardedMarker) Popup() *GuardedPopup {
	return m.popup
}

func (m *GuardedMarker) Tooltip() *GuardedTooltip {
	return m.tooltip
}

// AnimateZoom is the per-frame zoom animation step. It reports false when the
// marker is no longer on a map.
func (m *GuardedMarker) AnimateZoom(zoom float64) bool {
	return m.do(func(Surface) { m.zoom = zoom })
}

// Detach removes every listener and clears the map reference of the marker,
// its popup and its tooltip.
func (m *GuardedMarker) Detach() {
	m.events.OffAll()
	m.popup.Close()
	m.tooltip.Close()
	m.popup.clear()
	m.tooltip.clear()
	m.clear()
}
