package notify

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/huddlehq/huddle/go/internal/models"
)

// DefaultToastTTL is how long a toast stays up without manual dismissal.
const DefaultToastTTL = 4500 * time.Millisecond

// Toaster holds the ephemeral operator notices. Ids are monotonic; each
// toast auto-expires after the TTL unless dismissed first.
type Toaster struct {
	clock clockwork.Clock
	ttl   time.Duration

	mu     sync.Mutex
	nextID int64
	toasts []models.ToastMessage
	timers map[int64]clockwork.Timer
	closed bool
}

// NewToaster creates a toaster expiring toasts after DefaultToastTTL.
func NewToaster(clock clockwork.Clock) *Toaster {
	return &Toaster{
		clock:  clock,
		ttl:    DefaultToastTTL,
		timers: make(map[int64]clockwork.Timer),
	}
}

// Push appends a toast and schedules its auto-removal.
func (t *Toaster) Push(message string, variant models.ToastVariant) models.ToastMessage {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	toast := models.ToastMessage{ID: t.nextID, Message: message, Variant: variant}
	if t.closed {
		return toast
	}
	t.toasts = append(t.toasts, toast)

	id := toast.ID
	t.timers[id] = t.clock.AfterFunc(t.ttl, func() {
		t.expire(id)
	})
	return toast
}

// Dismiss removes a toast early and cancels its expiry timer.
func (t *Toaster) Dismiss(id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, ok := t.timers[id]; ok {
		timer.Stop()
		delete(t.timers, id)
	}
	t.removeLocked(id)
}

// Active returns the toasts currently displayed, oldest first.
func (t *Toaster) Active() []models.ToastMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.ToastMessage(nil), t.toasts...)
}

// Close cancels all pending expiry timers. Further pushes are dropped.
func (t *Toaster) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
	t.toasts = nil
}

func (t *Toaster) expire(id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.timers, id)
	t.removeLocked(id)
}

func (t *Toaster) removeLocked(id int64) {
	for i, toast := range t.toasts {
		if toast.ID == id {
			t.toasts = append(t.toasts[:i], t.toasts[i+1:]...)
			return
		}
	}
}
