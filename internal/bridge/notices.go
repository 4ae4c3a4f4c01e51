package bridge

import (
	"sync"
	"time"

	"github.com/mwantia/trainmap/internal/location"
)

const maxNotices = 20

type Notice struct {
	Kind    location.NoticeKind `json:"kind"`
	Message string              `json:"message"`
	Time    time.Time           `json:"time"`
}

// Notices buffers transient messages until the renderer picks them up.
type Notices struct {
	mutex sync.Mutex
	items []Notice
	now   func() time.Time
}

func NewNotices() *Notices {
	return &Notices{now: time.Now}
}

func (n *Notices) Notify(kind location.NoticeKind, message string) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	n.items = append(n.items, Notice{Kind: kind, Message: message, Time: n.now()})
	if len(n.items) > maxNotices {
		n.items = n.items[len(n.items)-maxNotices:]
	}
}

// Drain returns and forgets every buffered notice.
func (n *Notices) Drain() []Notice {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	items := n.items
	n.items = nil
	if items == nil {
		items = []Notice{}
	}
	return items
}
