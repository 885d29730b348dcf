package attachment

import (
	"context"
	"sync"
)

// Committed is published once an artifact has reached its final path.
type Committed struct {
	Attribute    string
	Image        bool
	Path         string // absolute
	RelativePath string
	PriorPath    string
	MimeType     string
	Size         int64
}

// Listener consumes committed artifacts.
type Listener interface {
	ArtifactCommitted(ctx context.Context, ev Committed) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, ev Committed) error

func (f ListenerFunc) ArtifactCommitted(ctx context.Context, ev Committed) error {
	return f(ctx, ev)
}

// Notifier fans committed events out to listeners subscribed per attribute.
// Delivery is synchronous and in subscription order.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
}

func NewNotifier() *Notifier {
	return &Notifier{listeners: make(map[string][]Listener)}
}

// Subscribe registers l for events of attribute.
func (n *Notifier) Subscribe(attribute string, l Listener) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners[attribute] = append(n.listeners[attribute], l)
}

// Publish delivers ev and returns how many listeners ran along with their errors.
func (n *Notifier) Publish(ctx context.Context, ev Committed) (int, []error) {
	n.mu.RLock()
	listeners := append([]Listener(nil), n.listeners[ev.Attribute]...)
	n.mu.RUnlock()

	var errs []error
	for _, l := range listeners {
		if err := l.ArtifactCommitted(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return len(listeners), errs
}
