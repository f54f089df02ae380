package di

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/xraph/beans/internal/descriptor"
	"github.com/xraph/beans/internal/errors"
)

// ThreadFactory builds the instance of one execution context. It is shared
// by every context and may run concurrently for distinct contexts.
type ThreadFactory func(ctx context.Context) (any, *Holder, error)

// Holder records the prototype instances handed to an instance, directly
// or through one of its providers, so they can be destroyed with it.
type Holder struct {
	mu   sync.Mutex
	held []Held
}

// Held is one prototype instance recorded by a Holder.
type Held struct {
	Name     string
	Instance any
	Holder   *Holder
}

// NewHolder creates an empty holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Add records a prototype instance and the holder of its own prototypes.
func (h *Holder) Add(name string, instance any, nested *Holder) {
	h.mu.Lock()
	h.held = append(h.held, Held{Name: name, Instance: instance, Holder: nested})
	h.mu.Unlock()
}

// Held returns the recorded instances in the order they were handed out.
func (h *Holder) Held() []Held {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.held)
}

// Len returns the number of recorded instances.
func (h *Holder) Len() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.held)
}

// Live is an instance owned by the registry.
type Live struct {
	Name      string
	ContextID string
	Instance  any
	Holder    *Holder
}

// slot holds one registry-owned instance. The mutex doubles as the creation
// lock, so concurrent first callers wait for a single winner.
type slot struct {
	mu       sync.RWMutex
	instance any
	holder   *Holder
	ready    bool
	seq      uint64
}

func (s *slot) get() (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.instance, s.ready
}

// Registry is the single source of truth for descriptors and live
// instances. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	store      *descriptor.Store
	singletons map[string]*slot
	factories  map[string]ThreadFactory
	threads    map[string]map[string]*slot
	externals  map[string]any
	seq        atomic.Uint64
}

// NewRegistry creates a registry seeded with the descriptors of store.
func NewRegistry(store *descriptor.Store) *Registry {
	if store == nil {
		store, _ = descriptor.NewStore()
	}
	return &Registry{
		store:      store,
		singletons: make(map[string]*slot),
		factories:  make(map[string]ThreadFactory),
		threads:    make(map[string]map[string]*slot),
		externals:  make(map[string]any),
	}
}

// RegisterDescriptor adds a descriptor. Duplicate names are rejected.
func (r *Registry) RegisterDescriptor(d *descriptor.Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d != nil {
		if _, exists := r.externals[d.PreferredName()]; exists {
			return errors.ErrConfiguration(d.PreferredName(), errors.StageRegister,
				"name is taken by an external instance")
		}
	}
	return r.store.Add(d)
}

// LookupDescriptor returns the descriptor registered under name, or under a
// type name that identifies exactly one descriptor.
func (r *Registry) LookupDescriptor(name string) (*descriptor.Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.store.Lookup(name)
	if !ok {
		return nil, errors.ErrUnknownBean(name, errors.StageLookup)
	}
	return d, nil
}

// Target returns the bean name a dependency reference resolves to.
func (r *Registry) Target(dep descriptor.Dependency) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.Target(dep)
}

// Descriptors returns the registered descriptors in registration order.
func (r *Registry) Descriptors() []*descriptor.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.Descriptors()
}

// Store returns a snapshot of the registered descriptors.
func (r *Registry) Store() *descriptor.Store {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, _ := descriptor.NewStore(r.store.Descriptors()...)
	return s
}

// HasInstance reports whether name has a stored singleton or an installed
// thread-scoped factory.
func (r *Registry) HasInstance(name string) bool {
	if _, ok := r.Singleton(name); ok {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// RegisterSingleton stores the instance of a singleton descriptor under its
// preferred name. A singleton is stored at most once; a second registration
// is a lifecycle error.
func (r *Registry) RegisterSingleton(d *descriptor.Descriptor, instance any, holder *Holder) error {
	name := d.PreferredName()
	s := r.singletonSlot(name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return errors.ErrLifecycle(name, errors.StageRegister, "singleton already registered")
	}
	r.fill(s, instance, holder)
	return nil
}

// Singleton returns the stored singleton instance of name.
func (r *Registry) Singleton(name string) (any, bool) {
	r.mu.RLock()
	s, ok := r.singletons[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return s.get()
}

// SingletonOrCreate returns the singleton instance of name, calling create
// when there is none yet. Concurrent callers wait for a single creation and
// all receive its result. A failed creation is not stored.
func (r *Registry) SingletonOrCreate(name string, create func() (any, *Holder, error)) (any, error) {
	s := r.singletonSlot(name)

	// Fast path: check if already created (read lock)
	if instance, ok := s.get(); ok {
		return instance, nil
	}

	// Slow path: creation holds the write lock of this slot only
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return s.instance, nil
	}

	instance, holder, err := create()
	if err != nil {
		return nil, err
	}
	r.fill(s, instance, holder)
	return instance, nil
}

// RegisterThreadScoped installs the shared factory of a thread-scoped
// descriptor. Each execution context that later asks for the bean invokes
// the factory once and keeps the result.
func (r *Registry) RegisterThreadScoped(d *descriptor.Descriptor, factory ThreadFactory) error {
	if !r.installFactory(d.PreferredName(), factory) {
		return errors.ErrLifecycle(d.PreferredName(), errors.StageRegister, "thread-scoped factory already installed")
	}
	return nil
}

// HasThreadFactory reports whether a thread-scoped factory is installed.
func (r *Registry) HasThreadFactory(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// ThreadScoped returns the instance of name owned by the execution context
// of ctx.
func (r *Registry) ThreadScoped(ctx context.Context, name string) (any, bool) {
	id := ExecutionContextID(ctx)
	r.mu.RLock()
	s, ok := r.threads[name][id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return s.get()
}

// ThreadScopedOrCreate returns the instance of name owned by the execution
// context of ctx, invoking the installed factory on that context's first
// access.
func (r *Registry) ThreadScopedOrCreate(ctx context.Context, name string) (any, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.ErrLifecycle(name, errors.StageLookup, "no thread-scoped factory installed")
	}

	s := r.threadSlot(name, ExecutionContextID(ctx))
	if instance, ok := s.get(); ok {
		return instance, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return s.instance, nil
	}

	instance, holder, err := factory(ctx)
	if err != nil {
		return nil, err
	}
	r.fill(s, instance, holder)
	return instance, nil
}

// RegisterExternal stores a pre-built value under name. External values are
// not part of the dependency graph and are never destroyed.
func (r *Registry) RegisterExternal(name string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.externals[name]; exists {
		return errors.ErrConfiguration(name, errors.StageRegister, "duplicate external instance")
	}
	if _, exists := r.store.Lookup(name); exists {
		return errors.ErrConfiguration(name, errors.StageRegister, "name is taken by a descriptor")
	}
	r.externals[name] = value
	return nil
}

// External returns the external value registered under name.
func (r *Registry) External(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.externals[name]
	return v, ok
}

// LiveSingleton returns the stored singleton of name with its holder.
func (r *Registry) LiveSingleton(name string) (Live, bool) {
	r.mu.RLock()
	s, ok := r.singletons[name]
	r.mu.RUnlock()
	if !ok {
		return Live{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return Live{}, false
	}
	return Live{Name: name, Instance: s.instance, Holder: s.holder}, true
}

// LiveThreadScoped returns every context's instance of name, oldest first.
func (r *Registry) LiveThreadScoped(name string) []Live {
	r.mu.RLock()
	slots := make(map[string]*slot, len(r.threads[name]))
	for id, s := range r.threads[name] {
		slots[id] = s
	}
	r.mu.RUnlock()

	type entry struct {
		live Live
		seq  uint64
	}
	var entries []entry
	for id, s := range slots {
		s.mu.RLock()
		if s.ready {
			entries = append(entries, entry{
				live: Live{Name: name, ContextID: id, Instance: s.instance, Holder: s.holder},
				seq:  s.seq,
			})
		}
		s.mu.RUnlock()
	}
	slices.SortFunc(entries, func(a, b entry) int { return cmp.Compare(a.seq, b.seq) })

	out := make([]Live, len(entries))
	for i, e := range entries {
		out[i] = e.live
	}
	return out
}

// ContextsOf returns the ids of the execution contexts holding an instance
// of name, oldest first.
func (r *Registry) ContextsOf(name string) []string {
	live := r.LiveThreadScoped(name)
	ids := make([]string, len(live))
	for i, l := range live {
		ids[i] = l.ContextID
	}
	return ids
}

// TakeThreadScoped removes and returns the instance of name owned by the
// execution context id.
func (r *Registry) TakeThreadScoped(id, name string) (Live, bool) {
	r.mu.Lock()
	s, ok := r.threads[name][id]
	if ok {
		delete(r.threads[name], id)
	}
	r.mu.Unlock()
	if !ok {
		return Live{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return Live{}, false
	}
	return Live{Name: name, ContextID: id, Instance: s.instance, Holder: s.holder}, true
}

// DropContext forgets every thread-scoped instance of the execution context
// id and returns how many there were.
func (r *Registry) DropContext(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, byContext := range r.threads {
		if _, ok := byContext[id]; ok {
			delete(byContext, id)
			n++
		}
	}
	return n
}

func (r *Registry) singletonSlot(name string) *slot {
	r.mu.RLock()
	s, ok := r.singletons[name]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok = r.singletons[name]; !ok {
		s = &slot{}
		r.singletons[name] = s
	}
	return s
}

func (r *Registry) threadSlot(name, id string) *slot {
	r.mu.RLock()
	s, ok := r.threads[name][id]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	byContext, ok := r.threads[name]
	if !ok {
		byContext = make(map[string]*slot)
		r.threads[name] = byContext
	}
	if s, ok = byContext[id]; !ok {
		s = &slot{}
		byContext[id] = s
	}
	return s
}

func (r *Registry) installFactory(name string, factory ThreadFactory) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return false
	}
	r.factories[name] = factory
	return true
}

// fill must be called with s.mu held for writing.
func (r *Registry) fill(s *slot, instance any, holder *Holder) {
	s.instance = instance
	s.holder = holder
	s.ready = true
	s.seq = r.seq.Add(1)
}
