package shamap

import "testing"

func key(b byte) [32]byte {
	var k [32]byte
	k[31] = b
	return k
}

func TestSHAMap_PutGetHas(t *testing.T) {
	sm, err := New(TypeState)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if sm.Has(key(1)) {
		t.Fatal("empty map should not have key 1")
	}

	if err := sm.Put(key(1), []byte("hello")); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	item, ok := sm.Get(key(1))
	if !ok {
		t.Fatal("expected Get to find the item just Put")
	}
	if string(item.Data()) != "hello" {
		t.Errorf("Data() = %q, want %q", item.Data(), "hello")
	}
	if !sm.Has(key(1)) {
		t.Error("Has should report true after Put")
	}
}

func TestSHAMap_DeleteRemovesItem(t *testing.T) {
	sm, _ := New(TypeState)
	sm.Put(key(1), []byte("x"))
	if err := sm.Delete(key(1)); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if sm.Has(key(1)) {
		t.Error("key should be gone after Delete")
	}
}

func TestSHAMap_SetImmutableBlocksMutation(t *testing.T) {
	sm, _ := New(TypeState)
	sm.Put(key(1), []byte("x"))
	sm.SetImmutable()

	if err := sm.Put(key(2), []byte("y")); err != ErrImmutable {
		t.Errorf("Put on immutable map = %v, want ErrImmutable", err)
	}
	if err := sm.Delete(key(1)); err != ErrImmutable {
		t.Errorf("Delete on immutable map = %v, want ErrImmutable", err)
	}
}

func TestSHAMap_ForEachVisitsInAscendingKeyOrder(t *testing.T) {
	sm, _ := New(TypeState)
	sm.Put(key(3), []byte("c"))
	sm.Put(key(1), []byte("a"))
	sm.Put(key(2), []byte("b"))

	var seen []byte
	sm.ForEach(func(item *SHAMapItem) bool {
		seen = append(seen, item.Data()[0])
		return true
	})

	want := "abc"
	if string(seen) != want {
		t.Errorf("ForEach order = %q, want %q", seen, want)
	}
}

func TestSHAMap_ForEachStopsWhenFnReturnsFalse(t *testing.T) {
	sm, _ := New(TypeState)
	sm.Put(key(1), []byte("a"))
	sm.Put(key(2), []byte("b"))
	sm.Put(key(3), []byte("c"))

	count := 0
	sm.ForEach(func(item *SHAMapItem) bool {
		count++
		return false
	})
	if count != 1 {
		t.Errorf("ForEach visited %d items, want 1 after returning false immediately", count)
	}
}

func TestSHAMap_LenTracksPutAndDelete(t *testing.T) {
	sm, _ := New(TypeState)
	if sm.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 on empty map", sm.Len())
	}
	sm.Put(key(1), []byte("a"))
	sm.Put(key(2), []byte("b"))
	if sm.Len() != 2 {
		t.Errorf("Len() = %d, want 2", sm.Len())
	}
	sm.Delete(key(1))
	if sm.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after Delete", sm.Len())
	}
}

func TestSHAMap_HashIsStableAndOrderIndependentOnInsertOrder(t *testing.T) {
	a, _ := New(TypeState)
	a.Put(key(1), []byte("a"))
	a.Put(key(2), []byte("b"))

	b, _ := New(TypeState)
	b.Put(key(2), []byte("b"))
	b.Put(key(1), []byte("a"))

	aHash, err := a.Hash()
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	bHash, _ := b.Hash()
	if aHash != bHash {
		t.Error("Hash should not depend on insertion order")
	}

	c, _ := New(TypeState)
	c.Put(key(1), []byte("a"))
	c.Put(key(2), []byte("different"))
	cHash, _ := c.Hash()
	if aHash == cHash {
		t.Error("Hash should differ when contents differ")
	}
}
