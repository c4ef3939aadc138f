package heap

import (
	"strconv"
	"testing"
)

func TestTableSetGetDelete(t *testing.T) {
	h := NewHeap()
	tbl := NewTable()

	a := h.CopyString("alpha")
	b := h.CopyString("beta")

	if isNew := tbl.Set(a, Number(1)); !isNew {
		t.Fatalf("expected new key")
	}
	tbl.Set(b, Number(2))

	if v, ok := tbl.Get(a); !ok || v.Number != 1 {
		t.Fatalf("expected alpha=1, got %v ok=%v", v, ok)
	}

	if !tbl.Delete(a) {
		t.Fatalf("expected delete to find key")
	}
	if _, ok := tbl.Get(a); ok {
		t.Fatalf("expected alpha to be gone after delete")
	}
	if v, ok := tbl.Get(b); !ok || v.Number != 2 {
		t.Fatalf("beta should survive deletion of alpha, got %v ok=%v", v, ok)
	}
}

func TestTableSurvivesManyResizes(t *testing.T) {
	h := NewHeap()
	tbl := NewTable()

	names := make([]*StringObj, 0, 200)
	for i := 0; i < 200; i++ {
		s := h.CopyString(string(rune('a')) + strconv.Itoa(i))
		names = append(names, s)
		tbl.Set(s, Number(float64(i)))
	}

	for i, s := range names {
		v, ok := tbl.Get(s)
		if !ok || v.Number != float64(i) {
			t.Fatalf("key %d lost after resizes: %v ok=%v", i, v, ok)
		}
	}
}

func TestTableTombstoneDoesNotBreakProbeChain(t *testing.T) {
	h := NewHeap()
	tbl := NewTable()

	a := h.CopyString("a")
	bb := h.CopyString("bb")
	ccc := h.CopyString("ccc")

	tbl.Set(a, Number(1))
	tbl.Set(bb, Number(2))
	tbl.Set(ccc, Number(3))
	tbl.Delete(bb)

	if v, ok := tbl.Get(ccc); !ok || v.Number != 3 {
		t.Fatalf("expected ccc to still be reachable past the tombstone, got %v ok=%v", v, ok)
	}
}

func TestFindStringLocatesInternedString(t *testing.T) {
	h := NewHeap()
	s := h.CopyString("hello")
	found := h.strings.FindString("hello", hashString("hello"))
	if found != s {
		t.Fatalf("expected FindString to return the canonical instance")
	}
}
