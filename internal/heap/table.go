package heap

// Entry is one hash-table slot. An empty entry has Key == nil and a nil
// Value; a tombstone (a deleted slot kept to preserve probe chains) has
// Key == nil and a true boolean Value.
type Entry struct {
	Key   *StringObj
	Value Value
}

func (e *Entry) isEmpty() bool     { return e.Key == nil && e.Value.IsNil() }
func (e *Entry) isTombstone() bool { return e.Key == nil && !e.Value.IsNil() }

const tableMaxLoad = 0.75

// Table is an open-addressed, linear-probed, string-keyed hash table
// used for globals, instance fields, class method tables, and the
// string intern pool. Capacity is always a power of two; entries is
// masked with capacity-1 rather than modulo for the probe step.
type Table struct {
	count   int
	entries []Entry
}

func NewTable() *Table { return &Table{} }

func (t *Table) mask() uint32 { return uint32(len(t.entries) - 1) }

// findEntry returns the slot a key belongs in: an exact match if one
// exists, else the first empty slot, reusing the earliest tombstone
// encountered along the probe chain.
func findEntry(entries []Entry, key *StringObj) *Entry {
	mask := uint32(len(entries) - 1)
	index := key.Hash & mask
	var tombstone *Entry
	for {
		entry := &entries[index]
		if entry.Key == nil {
			if entry.isEmpty() {
				if tombstone != nil {
					return tombstone
				}
				return entry
			}
			if tombstone == nil {
				tombstone = entry
			}
		} else if entry.Key == key {
			return entry
		}
		index = (index + 1) & mask
	}
}

func (t *Table) adjustCapacity(newCap int) {
	entries := make([]Entry, newCap)
	for i := range entries {
		entries[i] = Entry{Key: nil, Value: Nil}
	}

	t.count = 0
	for i := range t.entries {
		old := &t.entries[i]
		if old.Key == nil {
			continue
		}
		dst := findEntry(entries, old.Key)
		dst.Key = old.Key
		dst.Value = old.Value
		t.count++
	}
	t.entries = entries
}

// Get probes the chain for key and reports whether it was found.
func (t *Table) Get(key *StringObj) (Value, bool) {
	if len(t.entries) == 0 {
		return Nil, false
	}
	entry := findEntry(t.entries, key)
	if entry.Key == nil {
		return Nil, false
	}
	return entry.Value, true
}

// Set inserts or overwrites key -> value, growing the table first if the
// load factor would be exceeded. It reports whether this was a new key.
func (t *Table) Set(key *StringObj, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		newCap := growCapacity(len(t.entries))
		t.adjustCapacity(newCap)
	}

	entry := findEntry(t.entries, key)
	isNewKey := entry.Key == nil
	if isNewKey && entry.isEmpty() {
		t.count++
	}
	entry.Key = key
	entry.Value = value
	return isNewKey
}

// Delete tombstones the entry for key, if present. Tombstones occupy
// space but never decrement count, since count tracks live-plus-tombstone
// occupancy for the load-factor check.
func (t *Table) Delete(key *StringObj) bool {
	if len(t.entries) == 0 {
		return false
	}
	entry := findEntry(t.entries, key)
	if entry.Key == nil {
		return false
	}
	entry.Key = nil
	entry.Value = Bool(true)
	return true
}

// AddAll copies every live key/value from t into dst.
func (t *Table) AddAll(dst *Table) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key != nil {
			dst.Set(e.Key, e.Value)
		}
	}
}

// FindString locates an existing canonical string without allocating a
// StringObj first — the only entry point the intern pool needs.
func (t *Table) FindString(chars string, hash uint32) *StringObj {
	if len(t.entries) == 0 {
		return nil
	}
	mask := t.mask()
	index := hash & mask
	for {
		entry := &t.entries[index]
		if entry.Key == nil {
			if entry.isEmpty() {
				return nil
			}
		} else if entry.Key.Hash == hash && entry.Key.Chars == chars {
			return entry.Key
		}
		index = (index + 1) & mask
	}
}

// MarkTable marks every live key and value reachable through t.
func (t *Table) MarkTable(h *Heap) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key != nil {
			h.MarkObject(e.Key)
		}
		h.MarkValue(e.Value)
	}
}

// RemoveWhite deletes every entry whose key string was not marked during
// the preceding mark phase. This is the only place the intern pool's
// weak references are reconciled; it must run before sweep frees the
// unmarked strings out from under it.
func (t *Table) RemoveWhite() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key != nil && !e.Key.IsMarked() {
			t.Delete(e.Key)
		}
	}
}

func growCapacity(cap int) int {
	if cap < 8 {
		return 8
	}
	return cap * 2
}
