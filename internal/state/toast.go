package state

import (
	"sync"

	"github.com/google/uuid"
)

type ToastVariant string

const (
	ToastInfo        ToastVariant = "info"
	ToastDestructive ToastVariant = "destructive"
)

type Toast struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Variant     ToastVariant `json:"variant"`
}

// pushToast and dismissToast are the pure transitions over the queue.

func pushToast(queue []Toast, t Toast) []Toast {
	out := make([]Toast, len(queue), len(queue)+1)
	copy(out, queue)
	return append(out, t)
}

func dismissToast(queue []Toast, id string) []Toast {
	out := make([]Toast, 0, len(queue))
	for _, t := range queue {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// Toasts is the transient-notification container. Anything user-facing
// that is not an API response body goes through here; the view drains
// the queue and renders.
type Toasts struct {
	mu    sync.Mutex
	queue []Toast
}

func NewToasts() *Toasts {
	return &Toasts{}
}

func (t *Toasts) Push(title, description string, variant ToastVariant) Toast {
	toast := Toast{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Variant:     variant,
	}
	t.mu.Lock()
	t.queue = pushToast(t.queue, toast)
	t.mu.Unlock()
	return toast
}

// Notify satisfies the seatmap.Notifier interface.
func (t *Toasts) Notify(title, description string) {
	t.Push(title, description, ToastDestructive)
}

func (t *Toasts) Dismiss(id string) {
	t.mu.Lock()
	t.queue = dismissToast(t.queue, id)
	t.mu.Unlock()
}

// Drain returns all pending toasts and empties the queue.
func (t *Toasts) Drain() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.queue
	t.queue = nil
	return out
}

// Pending returns a copy of the queue without clearing it.
func (t *Toasts) Pending() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Toast, len(t.queue))
	copy(out, t.queue)
	return out
}
