package ast

import (
	"iter"

	"github.com/alecthomas/participle/v2/lexer"
)

// DictEntry is one key/value pair of a Dict.
type DictEntry struct {
	Key   Value
	Value Value
}

// Dict is an insertion ordered mapping whose keys may be any Value.
type Dict struct {
	entries []DictEntry
	index   map[string]int
}

func NewDict() *Dict {
	return &Dict{index: make(map[string]int)}
}

// Set inserts key or replaces its value in place, keeping the original order.
func (d *Dict) Set(key, value Value) {
	k := dictKey(key)
	if i, ok := d.index[k]; ok {
		d.entries[i].Value = value
		return
	}
	d.index[k] = len(d.entries)
	d.entries = append(d.entries, DictEntry{Key: key, Value: value})
}

func (d *Dict) Get(key Value) (Value, bool) {
	i, ok := d.index[dictKey(key)]
	if !ok {
		return nil, false
	}
	return d.entries[i].Value, true
}

func (d *Dict) Len() int {
	return len(d.entries)
}

// All iterates entries in insertion order.
func (d *Dict) All() iter.Seq2[Value, Value] {
	return func(yield func(Value, Value) bool) {
		for _, e := range d.entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

func (d *Dict) Entries() []DictEntry {
	return append([]DictEntry(nil), d.entries...)
}

func (d *Dict) Equal(other Value) bool {
	o, ok := other.(*Dict)
	if !ok || o.Len() != d.Len() {
		return false
	}
	for i, e := range d.entries {
		oe := o.entries[i]
		if !e.Key.Equal(oe.Key) || !e.Value.Equal(oe.Value) {
			return false
		}
	}
	return true
}

// dictKey gives equal keys one lookup string; kinds never collide.
func dictKey(v Value) string {
	if d, ok := v.(Decimal); ok {
		return DECIMAL.String() + ":" + d.Decimal.String()
	}
	return v.Kind().String() + ":" + v.String()
}

// PropertyMap holds the assignments of one object block in source order.
type PropertyMap struct {
	names  []string
	values map[string]Value
}

func NewPropertyMap() *PropertyMap {
	return &PropertyMap{values: make(map[string]Value)}
}

// Add inserts a property. It reports false, leaving the map unchanged, when
// the name is already present.
func (m *PropertyMap) Add(name string, value Value) bool {
	if _, ok := m.values[name]; ok {
		return false
	}
	m.names = append(m.names, name)
	m.values[name] = value
	return true
}

func (m *PropertyMap) Get(name string) (Value, bool) {
	v, ok := m.values[name]
	return v, ok
}

func (m *PropertyMap) Has(name string) bool {
	_, ok := m.values[name]
	return ok
}

func (m *PropertyMap) Len() int {
	return len(m.names)
}

func (m *PropertyMap) Names() []string {
	return append([]string(nil), m.names...)
}

func (m *PropertyMap) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, name := range m.names {
			if !yield(name, m.values[name]) {
				return
			}
		}
	}
}

func (m *PropertyMap) Equal(other *PropertyMap) bool {
	if other == nil || m.Len() != other.Len() {
		return false
	}
	for i, name := range m.names {
		if other.names[i] != name || !m.values[name].Equal(other.values[name]) {
			return false
		}
	}
	return true
}

// ObjectRecord is one object block: its header path and properties.
type ObjectRecord struct {
	Pos        lexer.Position
	Path       Path
	Properties *PropertyMap
}

// Equal compares path and properties; positions are ignored.
func (r ObjectRecord) Equal(other ObjectRecord) bool {
	return r.Path == other.Path && r.Properties.Equal(other.Properties)
}

// Document lists object records in source order. Records sharing a path are
// kept apart.
type Document []ObjectRecord

// Find returns every record declared with path, in source order.
func (d Document) Find(path Path) []ObjectRecord {
	var found []ObjectRecord
	for _, r := range d {
		if r.Path == path {
			found = append(found, r)
		}
	}
	return found
}
