package ecs

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/TheBitDrifter/bark"
)

// componentMeta is the fixed-after-registration metadata for one component
// type: size, alignment, and optional move/drop hooks for types that need
// non-trivial relocation or cleanup beyond a plain Go assignment.
type componentMeta struct {
	typ     reflect.Type
	size    uintptr
	align   uintptr
	newCol  func(capacityHint int) columnStorage
	moveFn  func(dst, src any) any
	dropFn  func(value any)
}

// ComponentRegistry mints a dense TypeId per component type on first use and
// exposes per-type metadata. It is safe for concurrent use: reads take only
// the read side of an RWMutex (they are not lock-free); the first
// registration of any given type takes the write lock once
// (double-checked publication).
type ComponentRegistry struct {
	mu   sync.RWMutex
	ids  map[reflect.Type]TypeId
	meta []componentMeta
}

// NewComponentRegistry creates an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		ids: make(map[reflect.Type]TypeId),
	}
}

// ComponentID returns the dense TypeId for T, minting one on first use.
// Thread-safe.
func ComponentID[T any](r *ComponentRegistry) TypeId {
	key := reflect.TypeOf((*T)(nil)).Elem()

	r.mu.RLock()
	id, ok := r.ids[key]
	r.mu.RUnlock()
	if ok {
		return id
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.ids[key]; ok {
		return id
	}

	if len(r.meta) >= MaxComponentTypes {
		panic(bark.AddTrace(ErrSignatureOverflow{Type: key}))
	}

	id = TypeId(len(r.meta))
	var zero T
	r.meta = append(r.meta, componentMeta{
		typ:   key,
		size:  unsafe.Sizeof(zero),
		align: unsafe.Alignof(zero),
		newCol: func(capacityHint int) columnStorage {
			col := newColumn[T](capacityHint)
			col.drop = func(v T) {
				if fn := r.dropFnFor(id); fn != nil {
					fn(v)
				}
			}
			col.move = func(dst, src T) T {
				if fn := r.moveFnFor(id); fn != nil {
					return fn(dst, src).(T)
				}
				return src
			}
			return col
		},
	})
	r.ids[key] = id
	return id
}

// RegisterMoveFn installs a custom relocation function for T, invoked
// instead of a plain Go assignment whenever the archetype manager copies a
// value of this type between columns. Most POD component types never need
// this; it exists for types whose default copy semantics would be wrong.
func RegisterMoveFn[T any](r *ComponentRegistry, fn func(dst, src T) T) {
	id := ComponentID[T](r)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meta[id].moveFn = func(dst, src any) any {
		return fn(dst.(T), src.(T))
	}
}

// RegisterDropFn installs a cleanup function invoked when a value of T is
// swap-removed from a column (not when it is overwritten in place), e.g. for
// component types holding external handles that must be released.
func RegisterDropFn[T any](r *ComponentRegistry, fn func(value T)) {
	id := ComponentID[T](r)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meta[id].dropFn = func(value any) {
		fn(value.(T))
	}
}

// Metadata returns the registered metadata for id. ok is false if id was
// never minted by this registry.
func (r *ComponentRegistry) Metadata(id TypeId) (size, align uintptr, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.meta) {
		return 0, 0, false
	}
	m := r.meta[id]
	return m.size, m.align, true
}

// TypeCount returns the number of distinct component types minted so far.
func (r *ComponentRegistry) TypeCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.meta)
}

func (r *ComponentRegistry) newColumnFor(id TypeId, capacityHint int) columnStorage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.meta) {
		panic(bark.AddTrace(ErrUnknownComponentType{ID: id}))
	}
	return r.meta[id].newCol(capacityHint)
}

func (r *ComponentRegistry) moveFnFor(id TypeId) func(dst, src any) any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.meta) {
		return nil
	}
	return r.meta[id].moveFn
}

func (r *ComponentRegistry) dropFnFor(id TypeId) func(any) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.meta) {
		return nil
	}
	return r.meta[id].dropFn
}
