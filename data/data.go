// Package data defines the dynamically-typed value model of the agerun
// runtime. A value is one of Integer, Double, String, Map or List, and
// every value carries an ownership marker identifying the single party
// that currently owns it (an agent's memory map, the dispatcher, an
// evaluator). All types implement the Value interface, which allows for
// type checking, string representation, and value inspection.
//
// The ownership discipline is the backbone of the runtime: a value is
// either owned by exactly one party or unowned, messages in flight are
// owned by the dispatcher, and a value stored into a map transfers its
// ownership to that map.
package data

import (
	"fmt"
	"strconv"
)

// Type identifies the runtime type of a Value as a string constant.
// These constants are used for type checking and dispatch in the
// evaluators.
type Type string

const (
	// IntegerType represents 64-bit signed integer values
	IntegerType Type = "INTEGER"
	// DoubleType represents 64-bit floating-point values
	DoubleType Type = "DOUBLE"
	// StringType represents string values
	StringType Type = "STRING"
	// MapType represents string-keyed maps of values
	MapType Type = "MAP"
	// ListType represents ordered lists of values
	ListType Type = "LIST"
)

// Value is the core interface implemented by every runtime value.
// It provides type identification, a plain string form used by build()
// and the log, and a detailed form used for inspection.
type Value interface {
	// GetType returns the Type of the value, used for type checking
	GetType() Type
	// ToString returns the plain string form of the value
	ToString() string
	// ToObject returns a detailed representation including type information
	ToObject() string

	// marker exposes the value's ownership slot. Unexported so the set of
	// Value implementations is closed within this package.
	marker() *ownerMarker
}

// marker is the ownership slot embedded in every concrete value type.
// holder is nil while the value is unowned.
type ownerMarker struct {
	holder any
}

func (m *ownerMarker) marker() *ownerMarker { return m }

// Integer represents a 64-bit signed integer value.
type Integer struct {
	ownerMarker
	Value int64
}

// NewInteger creates an unowned Integer value.
func NewInteger(v int64) *Integer {
	return &Integer{Value: v}
}

// GetType returns the type of the Integer value
func (i *Integer) GetType() Type { return IntegerType }

// ToString returns the decimal form of the integer (e.g. "42")
func (i *Integer) ToString() string { return strconv.FormatInt(i.Value, 10) }

// ToObject returns a detailed representation (e.g. "<INTEGER(42)>")
func (i *Integer) ToObject() string { return fmt.Sprintf("<INTEGER(%d)>", i.Value) }

// Double represents a 64-bit floating-point value.
type Double struct {
	ownerMarker
	Value float64
}

// NewDouble creates an unowned Double value.
func NewDouble(v float64) *Double {
	return &Double{Value: v}
}

// GetType returns the type of the Double value
func (d *Double) GetType() Type { return DoubleType }

// ToString returns the shortest decimal form that round-trips the value
func (d *Double) ToString() string { return strconv.FormatFloat(d.Value, 'g', -1, 64) }

// ToObject returns a detailed representation (e.g. "<DOUBLE(1.5)>")
func (d *Double) ToObject() string { return fmt.Sprintf("<DOUBLE(%s)>", d.ToString()) }

// String represents an owned text value.
type String struct {
	ownerMarker
	Value string
}

// NewString creates an unowned String value.
func NewString(v string) *String {
	return &String{Value: v}
}

// GetType returns the type of the String value
func (s *String) GetType() Type { return StringType }

// ToString returns the string itself
func (s *String) ToString() string { return s.Value }

// ToObject returns a detailed representation (e.g. `<STRING("hi")>`)
func (s *String) ToObject() string { return fmt.Sprintf("<STRING(%q)>", s.Value) }

// Map represents a string-keyed map of values. The internal Go map is
// paired with an ordered key slice so that iteration and serialization
// are stable, although no key order is part of the map's contract.
// Values stored in a map are owned by the map.
type Map struct {
	ownerMarker
	Pairs map[string]Value
	Keys  []string
}

// NewMap creates an empty unowned Map.
func NewMap() *Map {
	return &Map{
		Pairs: make(map[string]Value),
		Keys:  make([]string, 0),
	}
}

// GetType returns the type of the Map value
func (m *Map) GetType() Type { return MapType }

// ToString returns the map as "map{key: value, ...}"
func (m *Map) ToString() string {
	result := "map{"
	for i, key := range m.Keys {
		if i > 0 {
			result += ", "
		}
		result += key + ": " + m.Pairs[key].ToString()
	}
	result += "}"
	return result
}

// ToObject returns a detailed representation of the map
func (m *Map) ToObject() string {
	result := "<MAP{"
	for i, key := range m.Keys {
		if i > 0 {
			result += ", "
		}
		result += key + ": " + m.Pairs[key].ToObject()
	}
	result += "}>"
	return result
}

// Get returns the value stored under key, or nil if the key is absent.
// The returned value remains owned by the map.
func (m *Map) Get(key string) Value {
	return m.Pairs[key]
}

// Has reports whether key is present in the map.
func (m *Map) Has(key string) bool {
	_, ok := m.Pairs[key]
	return ok
}

// Len returns the number of entries in the map.
func (m *Map) Len() int { return len(m.Keys) }

// Set stores value under key, transferring ownership of the value to the
// map. It fails when the value is already owned by another party. A
// previous value under the same key is released and destroyed.
func (m *Map) Set(key string, value Value) bool {
	if value == nil {
		return false
	}
	mk := value.marker()
	if mk.holder != nil && mk.holder != m {
		return false
	}
	if old, ok := m.Pairs[key]; ok {
		old.marker().holder = nil
		Destroy(old)
	} else {
		m.Keys = append(m.Keys, key)
	}
	mk.holder = m
	m.Pairs[key] = value
	return true
}

// Delete removes key from the map, releasing and destroying its value.
// It reports whether the key was present.
func (m *Map) Delete(key string) bool {
	old, ok := m.Pairs[key]
	if !ok {
		return false
	}
	delete(m.Pairs, key)
	for i, k := range m.Keys {
		if k == key {
			m.Keys = append(m.Keys[:i], m.Keys[i+1:]...)
			break
		}
	}
	old.marker().holder = nil
	Destroy(old)
	return true
}

// List represents an ordered list of values. Values stored in a list are
// owned by the list.
type List struct {
	ownerMarker
	Elements []Value
}

// NewList creates an empty unowned List.
func NewList() *List {
	return &List{Elements: make([]Value, 0)}
}

// GetType returns the type of the List value
func (l *List) GetType() Type { return ListType }

// ToString returns the list as "list(elem1, elem2, ...)"
func (l *List) ToString() string {
	result := "list("
	for i, elem := range l.Elements {
		if i > 0 {
			result += ", "
		}
		result += elem.ToString()
	}
	result += ")"
	return result
}

// ToObject returns a detailed representation of the list
func (l *List) ToObject() string {
	result := "<LIST("
	for i, elem := range l.Elements {
		if i > 0 {
			result += ", "
		}
		result += elem.ToObject()
	}
	result += ")>"
	return result
}

// Append adds value to the end of the list, transferring ownership to the
// list. It fails when the value is already owned by another party.
func (l *List) Append(value Value) bool {
	if value == nil {
		return false
	}
	mk := value.marker()
	if mk.holder != nil && mk.holder != l {
		return false
	}
	mk.holder = l
	l.Elements = append(l.Elements, value)
	return true
}

// Len returns the number of elements in the list.
func (l *List) Len() int { return len(l.Elements) }
