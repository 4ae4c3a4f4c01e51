package mapview

import (
	"sort"
	"sync"

	"github.com/mwantia/trainmap/pkg/geo"
)

type Event string

const (
	// EventMoveEnd fires after every completed pan or zoom.
	EventMoveEnd Event = "moveend"
	// EventUserMove fires when the user starts dragging or zooming.
	EventUserMove Event = "usermove"
	EventClick    Event = "click"
)

// MoveEvent is the payload of EventMoveEnd.
type MoveEvent struct {
	Center geo.LatLng
	Zoom   float64
	User   bool
}

type Handler func(payload any)

// Evented keeps the listeners of a map object.
type Evented struct {
	mutex    sync.Mutex
	next     int
	handlers map[int]registration
}

type registration struct {
	event   Event
	handler Handler
}

func (e *Evented) On(event Event, handler Handler) int {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.handlers == nil {
		e.handlers = make(map[int]registration)
	}
	e.next++
	e.handlers[e.next] = registration{event: event, handler: handler}
	return e.next
}

func (e *Evented) Off(id int) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	delete(e.handlers, id)
}

// OffAll detaches every listener.
func (e *Evented) OffAll() {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.handlers = nil
}

func (e *Evented) ListenerCount() int {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	return len(e.handlers)
}

// Emit calls the handlers of event in registration order, outside the lock.
func (e *Evented) Emit(event Event, payload any) {
	e.mutex.Lock()
	ids := make([]int, 0, len(e.handlers))
	for id, r := range e.handlers {
		if r.event == event {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, e.handlers[id].handler)
	}
	e.mutex.Unlock()

	for _, h := range handlers {
		h(payload)
	}
}
