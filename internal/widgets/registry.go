// Package widgets runs the independent page widgets (search box, outline,
// repo cards, code embeds, theme switch) so that one failing widget never
// stops the others from coming up.
package widgets

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

// ErrNotConfigured is returned by an init function whose widget has no
// configuration. The widget is skipped without a warning.
var ErrNotConfigured = errors.New("widget not configured")

// InitFunc brings a widget up
type InitFunc func(ctx context.Context) error

// Status is the outcome of a widget's initialisation
type Status string

const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

type widget struct {
	name string
	init InitFunc
	once sync.Once

	mu     sync.Mutex
	status Status
	err    error
}

// Registry holds widgets in registration order
type Registry struct {
	mu      sync.RWMutex
	widgets []*widget
	byName  map[string]*widget
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*widget)}
}

// Register adds a widget. Registering a name twice is an error.
func (r *Registry) Register(name string, fn InitFunc) error {
	if name == "" || fn == nil {
		return fmt.Errorf("widget needs a name and an init function")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("widget %q already registered", name)
	}
	w := &widget{name: name, init: fn, status: StatusPending}
	r.widgets = append(r.widgets, w)
	r.byName[name] = w
	return nil
}

// EnsureInitialized runs the named widget's init function at most once and
// returns its outcome. Later calls return the recorded outcome.
func (r *Registry) EnsureInitialized(ctx context.Context, name string) error {
	r.mu.RLock()
	w, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown widget %q", name)
	}
	return w.ensure(ctx)
}

func (w *widget) ensure(ctx context.Context) error {
	w.once.Do(func() {
		err := safeInit(ctx, w.name, w.init)

		w.mu.Lock()
		defer w.mu.Unlock()
		switch {
		case err == nil:
			w.status = StatusReady
		case errors.Is(err, ErrNotConfigured):
			w.status = StatusSkipped
		default:
			w.status = StatusFailed
		}
		w.err = err
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// safeInit turns a panicking init function into an error
func safeInit(ctx context.Context, name string, fn InitFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("widget %s panicked: %v", name, r)
		}
	}()
	return fn(ctx)
}

// SetupAll initialises every widget in registration order. Failures are
// logged and do not stop the remaining widgets. It returns the number of
// widgets that came up.
func (r *Registry) SetupAll(ctx context.Context) int {
	r.mu.RLock()
	list := make([]*widget, len(r.widgets))
	copy(list, r.widgets)
	r.mu.RUnlock()

	ready := 0
	for _, w := range list {
		err := w.ensure(ctx)
		switch {
		case err == nil:
			ready++
		case errors.Is(err, ErrNotConfigured):
			log.Printf("Skipping widget %s: not configured", w.name)
		default:
			log.Printf("Warning: widget %s failed to initialize: %v", w.name, err)
		}
	}

	log.Printf("✓ Widgets ready: %d of %d", ready, len(list))
	return ready
}

// Status reports the state of the named widget
func (r *Registry) Status(name string) Status {
	r.mu.RLock()
	w, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return ""
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Names lists the registered widgets in order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.widgets))
	for _, w := range r.widgets {
		names = append(names, w.name)
	}
	return names
}
