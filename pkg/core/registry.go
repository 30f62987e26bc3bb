package core

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// KindConflict records a write that declared a different kind than the one
// already registered for the attribute name.
type KindConflict struct {
	Name       string
	Registered Kind
	Declared   Kind
}

// Registry maps attribute names to the kind recorded on their first write.
//
// Registration is first-write-wins and permanent: a later write declaring a
// different kind keeps the original registration. Such writes are tolerated,
// because heterogeneous sources routinely disagree on int/long/double, but
// each distinct conflict is logged once and kept for inspection.
//
// A Registry is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	kinds     map[string]Kind
	conflicts []KindConflict
	seen      map[KindConflict]struct{}
	log       *zap.SugaredLogger
}

// NewRegistry creates an empty registry. A nil logger disables warnings.
func NewRegistry(log *zap.SugaredLogger) *Registry {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Registry{
		kinds: make(map[string]Kind),
		seen:  make(map[KindConflict]struct{}),
		log:   log,
	}
}

// Register records kind for name unless name is already registered.
// It returns the kind in effect after the call.
func (r *Registry) Register(name string, kind Kind) Kind {
	r.mu.RLock()
	existing, ok := r.kinds[name]
	r.mu.RUnlock()
	if ok && existing == kind {
		return existing
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok = r.kinds[name]
	if !ok {
		r.kinds[name] = kind
		return kind
	}
	if existing != kind {
		c := KindConflict{Name: name, Registered: existing, Declared: kind}
		if _, dup := r.seen[c]; !dup {
			r.seen[c] = struct{}{}
			r.conflicts = append(r.conflicts, c)
			r.log.Warnw("Attribute kind conflict ignored, keeping first registration",
				"attribute", name, "registered", existing, "declared", kind)
		}
	}
	return existing
}

// Kind returns the registered kind of name.
func (r *Registry) Kind(name string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[name]
	return k, ok
}

// NumericNames returns every registered numeric attribute name in
// lexicographic order.
func (r *Registry) NumericNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.kinds))
	for name, k := range r.kinds {
		if k.IsNumeric() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Conflicts returns the distinct kind conflicts observed so far, in the order
// they were first seen.
func (r *Registry) Conflicts() []KindConflict {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]KindConflict, len(r.conflicts))
	copy(out, r.conflicts)
	return out
}

// Len returns the number of registered names.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.kinds)
}
