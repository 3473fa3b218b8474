package data

import (
	"testing"
)

// TestOwnership_Exclusive verifies that a value is owned by at most one
// party: a second take fails until the first owner drops.
func TestOwnership_Exclusive(t *testing.T) {
	owner1 := &struct{ name string }{"one"}
	owner2 := &struct{ name string }{"two"}

	v := NewInteger(42)
	if !Unowned(v) {
		t.Fatalf("fresh value should be unowned")
	}
	if !TakeOwnership(v, owner1) {
		t.Fatalf("first take should succeed")
	}
	if TakeOwnership(v, owner2) {
		t.Errorf("second take should fail while owned")
	}
	if !OwnedBy(v, owner1) {
		t.Errorf("value should be owned by the first taker")
	}
	if DropOwnership(v, owner2) {
		t.Errorf("drop by a non-owner should fail")
	}
	if !DropOwnership(v, owner1) {
		t.Errorf("drop by the owner should succeed")
	}
	if !TakeOwnership(v, owner2) {
		t.Errorf("take after drop should succeed")
	}
}

// TestClaimOrCopy verifies the claim-then-copy behavior.
func TestClaimOrCopy(t *testing.T) {
	who := &struct{ name string }{"who"}

	// Unowned values are claimed outright
	v := NewString("hello")
	claimed := ClaimOrCopy(v, who)
	if claimed != v {
		t.Errorf("claiming an unowned value should return the value itself")
	}
	if !OwnedBy(v, who) {
		t.Errorf("claimed value should be owned by the claimer")
	}

	// Owned values are copied
	other := &struct{ name string }{"other"}
	w := NewInteger(7)
	TakeOwnership(w, other)
	copied := ClaimOrCopy(w, who)
	if copied == nil {
		t.Fatalf("copy of an owned scalar should succeed")
	}
	if copied == w {
		t.Errorf("copy should be a distinct value")
	}
	if copied.(*Integer).Value != 7 {
		t.Errorf("copy should carry the same value")
	}
	if !OwnedBy(copied, who) {
		t.Errorf("copy should be owned by the claimer")
	}
	if !OwnedBy(w, other) {
		t.Errorf("original should keep its owner")
	}
}

// TestShallowCopy_NestedContainersFail verifies that deep copy is
// deliberately not provided.
func TestShallowCopy_NestedContainersFail(t *testing.T) {
	flat := NewMap()
	flat.Set("a", NewInteger(1))
	flat.Set("b", NewString("x"))
	if ShallowCopy(flat) == nil {
		t.Errorf("shallow copy of a flat map should succeed")
	}

	nested := NewMap()
	inner := NewMap()
	nested.Set("inner", inner)
	if ShallowCopy(nested) != nil {
		t.Errorf("shallow copy of a map containing a map should fail")
	}

	list := NewList()
	list.Append(NewInteger(1))
	if ShallowCopy(list) == nil {
		t.Errorf("shallow copy of a flat list should succeed")
	}
	deepList := NewList()
	deepList.Append(NewList())
	if ShallowCopy(deepList) != nil {
		t.Errorf("shallow copy of a list containing a list should fail")
	}
}

// TestMapSet_TransfersOwnership verifies that storing a value into a
// map hands ownership to that map.
func TestMapSet_TransfersOwnership(t *testing.T) {
	m := NewMap()
	v := NewInteger(5)
	if !m.Set("n", v) {
		t.Fatalf("set of an unowned value should succeed")
	}
	if !OwnedBy(v, m) {
		t.Errorf("stored value should be owned by the map")
	}

	// A value owned elsewhere cannot be stored
	other := &struct{}{}
	w := NewInteger(6)
	TakeOwnership(w, other)
	if m.Set("m", w) {
		t.Errorf("set of a value owned elsewhere should fail")
	}

	// Replacing a key releases the old value
	v2 := NewInteger(50)
	if !m.Set("n", v2) {
		t.Fatalf("replacing set should succeed")
	}
	if m.Get("n").(*Integer).Value != 50 {
		t.Errorf("replacement should be visible")
	}
	if m.Len() != 1 {
		t.Errorf("replacement should not grow the map, len = %d", m.Len())
	}
}

// TestDestroyIfOwned verifies the disposal rules.
func TestDestroyIfOwned(t *testing.T) {
	who := &struct{ name string }{"who"}
	other := &struct{ name string }{"other"}

	m := NewMap()
	m.Set("k", NewInteger(1))
	TakeOwnership(m, other)

	// Owned by a different party: untouched
	DestroyIfOwned(m, who)
	if m.Len() != 1 {
		t.Errorf("value owned by another party should not be destroyed")
	}

	// Owned by who: destroyed
	DropOwnership(m, other)
	TakeOwnership(m, who)
	DestroyIfOwned(m, who)
	if m.Len() != 0 {
		t.Errorf("value owned by the caller should be destroyed")
	}
}

// TestPathAccess verifies dotted-path reads and writes.
func TestPathAccess(t *testing.T) {
	root := NewMap()
	if !SetByPath(root, []string{"user", "name"}, NewString("Alice")) {
		t.Fatalf("set through a missing intermediate should create it")
	}

	got := GetByPath(root, []string{"user", "name"})
	if got == nil || got.(*String).Value != "Alice" {
		t.Fatalf("get should find the stored value, got %v", got)
	}

	// Intermediate scalar blocks the path
	SetByPath(root, []string{"scalar"}, NewInteger(3))
	if SetByPath(root, []string{"scalar", "field"}, NewInteger(4)) {
		t.Errorf("set through a scalar intermediate should fail")
	}
	if GetByPath(root, []string{"scalar", "field"}) != nil {
		t.Errorf("get through a scalar intermediate should find nothing")
	}
}

// TestEqual verifies structural comparison.
func TestEqual(t *testing.T) {
	a := NewMap()
	SetByPath(a, []string{"u", "n"}, NewString("x"))
	SetByPath(a, []string{"c"}, NewInteger(3))

	b := NewMap()
	SetByPath(b, []string{"c"}, NewInteger(3))
	SetByPath(b, []string{"u", "n"}, NewString("x"))

	if !Equal(a, b) {
		t.Errorf("maps with the same content should be equal regardless of key order")
	}

	SetByPath(b, []string{"c"}, NewInteger(4))
	if Equal(a, b) {
		t.Errorf("maps with different content should not be equal")
	}

	if Equal(NewInteger(1), NewDouble(1)) {
		t.Errorf("values of different types should not be equal")
	}
}
