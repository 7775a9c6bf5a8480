package monitoring

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/puzpuzpuz/xsync/v2"
)

// FilterFunc returns the ids an observer may attach to. A nil or empty
// result means no restriction.
type FilterFunc func() []string

// Registry reconciles the publishers an observer knows about against its
// filter. Known publishers are never forgotten: RemoveObservable only
// detaches, and a later reconciliation pass may attach the same id again.
type Registry struct {
	observer Observer
	filter   FilterFunc
	logger   *slog.Logger

	// All publishers ever registered, by id. First registration wins.
	known *xsync.MapOf[string, Observable]

	// Publishers the observer is currently attached to. Always a subset of known.
	active *xsync.MapOf[string, Observable]

	// attachMu serializes subscribe/unsubscribe together with the matching
	// active update, so active always reflects real subscriptions.
	attachMu sync.Mutex
}

// NewRegistry creates a registry that attaches observer to publishers.
// filter may be nil.
func NewRegistry(observer Observer, filter FilterFunc, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if filter == nil {
		filter = func() []string { return nil }
	}

	return &Registry{
		observer: observer,
		filter:   filter,
		logger:   logger,
		known:    xsync.NewMapOf[Observable](),
		active:   xsync.NewMapOf[Observable](),
	}
}

// StaticFilter returns a FilterFunc for a fixed id list.
func StaticFilter(ids ...string) FilterFunc {
	cp := append([]string(nil), ids...)
	return func() []string { return cp }
}

// AddObservable registers a publisher and reconciles. A second publisher
// with an id that is already known is ignored.
func (r *Registry) AddObservable(o Observable) {
	id := o.ObserverID()
	if _, loaded := r.known.LoadOrStore(id, o); loaded {
		r.logger.Warn("observable already registered", "observable", id)
	}

	r.UpdateObservables()
}

// RemoveObservable detaches from the publisher if currently attached to it.
// The publisher stays known.
func (r *Registry) RemoveObservable(o Observable) {
	r.detach(o.ObserverID(), o)
}

// UpdateObservables attaches to every known publisher the filter allows and
// detaches from every active publisher it excludes.
func (r *Registry) UpdateObservables() {
	allowed := r.allowed()

	r.known.Range(func(id string, o Observable) bool {
		if allowed != nil {
			if _, ok := allowed[id]; !ok {
				r.detach(id, nil)
				return true
			}
		}

		r.attach(id, o)
		return true
	})
}

func (r *Registry) attach(id string, o Observable) {
	r.attachMu.Lock()
	defer r.attachMu.Unlock()

	if _, ok := r.active.Load(id); ok {
		return
	}
	o.AddObserver(r.observer)
	r.active.Store(id, o)
	r.logger.Info("attached to observable", "observable", id)
}

// detach unsubscribes from id. A non-nil o must be the attached publisher.
func (r *Registry) detach(id string, o Observable) {
	r.attachMu.Lock()
	defer r.attachMu.Unlock()

	current, ok := r.active.Load(id)
	if !ok || (o != nil && current != o) {
		return
	}
	current.RemoveObserver(r.observer)
	r.active.Delete(id)
	r.logger.Info("detached from observable", "observable", id)
}

// Known returns the sorted ids of all registered publishers.
func (r *Registry) Known() []string {
	return sortedKeys(r.known)
}

// Active returns the sorted ids of the publishers currently attached to.
func (r *Registry) Active() []string {
	return sortedKeys(r.active)
}

// IsActive reports whether the observer is attached to the given id.
func (r *Registry) IsActive(id string) bool {
	_, ok := r.active.Load(id)
	return ok
}

// allowed returns the filter as a set, or nil when unrestricted.
func (r *Registry) allowed() map[string]struct{} {
	ids := r.filter()
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sortedKeys(m *xsync.MapOf[string, Observable]) []string {
	keys := make([]string, 0, m.Size())
	m.Range(func(k string, _ Observable) bool {
		keys = append(keys, k)
		return true
	})
	sort.Strings(keys)
	return keys
}
