package data

// Ownership operations. A value is either unowned (its marker is empty)
// or owned by exactly one party. The party is an opaque identity; the
// runtime uses pointers to the owning component (a map, the dispatcher,
// an evaluator instance).

// TakeOwnership makes who the owner of value. It succeeds only when the
// value is currently unowned.
func TakeOwnership(value Value, who any) bool {
	if value == nil || who == nil {
		return false
	}
	mk := value.marker()
	if mk.holder != nil {
		return false
	}
	mk.holder = who
	return true
}

// DropOwnership releases value from who. It succeeds only when the value
// is currently owned by who; the value becomes unowned.
func DropOwnership(value Value, who any) bool {
	if value == nil || who == nil {
		return false
	}
	mk := value.marker()
	if mk.holder != who {
		return false
	}
	mk.holder = nil
	return true
}

// OwnedBy reports whether value is currently owned by who.
func OwnedBy(value Value, who any) bool {
	if value == nil {
		return false
	}
	return value.marker().holder == who
}

// Unowned reports whether value currently has no owner.
func Unowned(value Value) bool {
	if value == nil {
		return false
	}
	return value.marker().holder == nil
}

// ClaimOrCopy either takes ownership of an unowned value or, when the
// value is owned by some other party, produces an unowned shallow copy
// that who then takes ownership of. The shallow copy fails for a Map or
// List that contains nested containers, since deep copy is deliberately
// not provided; in that case nil is returned.
func ClaimOrCopy(value Value, who any) Value {
	if value == nil || who == nil {
		return nil
	}
	if TakeOwnership(value, who) {
		return value
	}
	copied := ShallowCopy(value)
	if copied == nil {
		return nil
	}
	TakeOwnership(copied, who)
	return copied
}

// ShallowCopy produces an unowned copy of value. Scalar values are
// duplicated outright. For a Map or List the top-level entries are
// duplicated, which requires every entry to itself be a scalar: a nested
// container makes the copy fail and nil is returned.
func ShallowCopy(value Value) Value {
	switch v := value.(type) {
	case *Integer:
		return NewInteger(v.Value)
	case *Double:
		return NewDouble(v.Value)
	case *String:
		return NewString(v.Value)
	case *Map:
		copied := NewMap()
		for _, key := range v.Keys {
			entry := copyScalar(v.Pairs[key])
			if entry == nil {
				return nil
			}
			copied.Set(key, entry)
		}
		return copied
	case *List:
		copied := NewList()
		for _, elem := range v.Elements {
			entry := copyScalar(elem)
			if entry == nil {
				return nil
			}
			copied.Append(entry)
		}
		return copied
	}
	return nil
}

// copyScalar duplicates a scalar value, returning nil for containers.
func copyScalar(value Value) Value {
	switch v := value.(type) {
	case *Integer:
		return NewInteger(v.Value)
	case *Double:
		return NewDouble(v.Value)
	case *String:
		return NewString(v.Value)
	}
	return nil
}

// Destroy tears down a value, releasing everything it reaches. In Go the
// collector reclaims the storage; destroying clears containers so that
// stale references cannot resurrect ownership of the contents.
func Destroy(value Value) {
	switch v := value.(type) {
	case *Map:
		for _, key := range v.Keys {
			entry := v.Pairs[key]
			entry.marker().holder = nil
			Destroy(entry)
		}
		v.Pairs = make(map[string]Value)
		v.Keys = v.Keys[:0]
	case *List:
		for _, elem := range v.Elements {
			elem.marker().holder = nil
			Destroy(elem)
		}
		v.Elements = v.Elements[:0]
	}
}

// DestroyIfOwned destroys value when who can dispose of it: either who
// owns it, or nobody does. A value owned by a different party is left
// untouched.
func DestroyIfOwned(value Value, who any) {
	if value == nil {
		return
	}
	mk := value.marker()
	if mk.holder != nil && mk.holder != who {
		return
	}
	mk.holder = nil
	Destroy(value)
}
