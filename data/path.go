package data

// Dotted-path access into nested maps. Paths are the field lists produced
// by the expression parser for accessors such as memory.user.name.

// GetByPath walks path through nested maps starting at root and returns
// the value found, or nil when a segment is missing or an intermediate
// value is not a map. The returned value remains owned by its map.
func GetByPath(root *Map, path []string) Value {
	if root == nil {
		return nil
	}
	var current Value = root
	for _, field := range path {
		m, ok := current.(*Map)
		if !ok {
			return nil
		}
		current = m.Get(field)
		if current == nil {
			return nil
		}
	}
	return current
}

// SetByPath stores value at path inside root, creating intermediate maps
// for missing segments. Every intermediate that already exists must be a
// map; finding a scalar on the way reports failure and leaves the value
// unstored. Ownership of value transfers to the map it lands in.
func SetByPath(root *Map, path []string, value Value) bool {
	if root == nil || len(path) == 0 {
		return false
	}
	current := root
	for _, field := range path[:len(path)-1] {
		next := current.Get(field)
		if next == nil {
			created := NewMap()
			if !current.Set(field, created) {
				return false
			}
			current = created
			continue
		}
		m, ok := next.(*Map)
		if !ok {
			return false
		}
		current = m
	}
	return current.Set(path[len(path)-1], value)
}

// Equal compares two values structurally, ignoring ownership. Maps are
// equal when they hold equal values under the same key set; key order
// does not matter.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.GetType() != b.GetType() {
		return false
	}
	switch av := a.(type) {
	case *Integer:
		return av.Value == b.(*Integer).Value
	case *Double:
		return av.Value == b.(*Double).Value
	case *String:
		return av.Value == b.(*String).Value
	case *Map:
		bv := b.(*Map)
		if len(av.Keys) != len(bv.Keys) {
			return false
		}
		for key, entry := range av.Pairs {
			other, ok := bv.Pairs[key]
			if !ok || !Equal(entry, other) {
				return false
			}
		}
		return true
	case *List:
		bv := b.(*List)
		if len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i, elem := range av.Elements {
			if !Equal(elem, bv.Elements[i]) {
				return false
			}
		}
		return true
	}
	return false
}
