package ecs

// columnStorage is the type-erased interface every component column
// implements: an opaque carrier for a TypeId's worth of raw values.
// Rather than hand-rolling a small-buffer-optimized byte array the way a
// systems language would, Go's own `any` boxing already gives a uniform
// type-erased carrier, so the column unboxes through a type assertion
// instead of a manual byte copy. Entries are dense and swap-removed
// rather than tombstoned: a component column never has holes.
type columnStorage interface {
	// len returns the number of live entries (== archetype.count()).
	len() int
	// cap returns the current backing capacity.
	cap() int
	// appendValue appends one boxed value, growing capacity (doubling) if
	// needed. Returns the new entry's index.
	appendValue(v any) int
	// swapRemove moves the last entry into i and shrinks length by one. A
	// no-op on the value itself if i was already the last entry.
	swapRemove(i int)
	// valueAt returns a pointer to the entry at index i, boxed as any (nil
	// if i is out of range).
	valueAt(i int) any
	// setValue overwrites the entry at index i in place, used when a
	// component add targets a type the entity already carries.
	setValue(i int, v any)
	// appendFrom copies the srcIndex'th entry of src (guaranteed to be the
	// same concrete type, since it shares this column's TypeId) into this
	// column, applying the registered move function if one was set.
	appendFrom(src columnStorage, srcIndex int) int
	// rawBytes exposes the live entries as a byte range for persistence.
	// Valid only for POD component types.
	rawBytes() []byte
	// loadRaw bulk-loads n entries from a byte range produced by rawBytes
	// on a column of the same concrete type.
	loadRaw(data []byte, n int)
}
