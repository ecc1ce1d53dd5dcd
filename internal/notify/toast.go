package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ToastVariant selects the visual treatment of an in-app notice.
type ToastVariant string

const (
	ToastDefault     ToastVariant = "default"
	ToastDestructive ToastVariant = "destructive"
)

// Toast is a transient in-app notice.
type Toast struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Body      string       `json:"body"`
	Variant   ToastVariant `json:"variant"`
	CreatedAt time.Time    `json:"createdAt"`
}

// ToastCenter fans transient notices out to connected UI clients. Slow
// subscribers drop toasts rather than block the publisher.
type ToastCenter struct {
	mu     sync.Mutex
	subs   map[int]chan Toast
	nextID int
}

// NewToastCenter creates an empty toast center.
func NewToastCenter() *ToastCenter {
	return &ToastCenter{subs: make(map[int]chan Toast)}
}

// Subscribe registers a listener. The returned cancel func releases it.
func (c *ToastCenter) Subscribe() (<-chan Toast, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	ch := make(chan Toast, 16)
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

// Push delivers a toast to every subscriber, stamping id and timestamp.
func (c *ToastCenter) Push(t Toast) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Variant == "" {
		t.Variant = ToastDefault
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sub := range c.subs {
		select {
		case sub <- t:
		default:
		}
	}
}
