// Copyright 2013 Seth Bunce. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package bson

import (
	"bytes"
	"fmt"
)

// Pair is one (field-name, value) entry of a Document.
type Pair struct {
	Key string
	Val interface{}
}

// Document is an ordered collection of (field-name, value) pairs: the root
// unit of the BSON wire format and the container every BSON/JSON document
// in this module is built from.
//
// This replaces the teacher's unordered Map type. A Map loses field order on
// iteration, which makes byte-exact round-tripping impossible (spec.md §9
// calls this out as a known defect to correct). Document keeps entries in an
// append-only slice for ordered iteration and a name->index side table for
// O(1) lookup, with last-write-wins semantics that preserve the position of
// the *first* insertion of a repeated key.
type Document struct {
	entries []Pair
	index   map[string]int
}

// NewDocument returns an empty Document.
func NewDocument() *Document {
	return &Document{index: make(map[string]int)}
}

// NewDocumentWithCapacity returns an empty Document pre-sized for n fields.
func NewDocumentWithCapacity(n int) *Document {
	return &Document{
		entries: make([]Pair, 0, n),
		index:   make(map[string]int, n),
	}
}

// DocumentFromPairs builds a Document from an ordered list of pairs, applying
// last-write-wins semantics for duplicate keys exactly as Set would.
func DocumentFromPairs(pairs ...Pair) *Document {
	d := NewDocumentWithCapacity(len(pairs))
	for _, p := range pairs {
		d.Set(p.Key, p.Val)
	}
	return d
}

// Set inserts or updates a field. If name already exists its value is
// replaced in place, preserving the original position; otherwise the field
// is appended at the end. Returns the previous value, if any.
func (d *Document) Set(name string, val interface{}) (interface{}, bool) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if i, ok := d.index[name]; ok {
		old := d.entries[i].Val
		d.entries[i].Val = val
		return old, true
	}
	d.index[name] = len(d.entries)
	d.entries = append(d.entries, Pair{Key: name, Val: val})
	return nil, false
}

// Get returns the value stored under name, and whether it was present.
func (d *Document) Get(name string) (interface{}, bool) {
	if d == nil {
		return nil, false
	}
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.entries[i].Val, true
}

// Delete removes a field, shifting later entries down to keep the index
// consistent. Returns the removed value, if any.
func (d *Document) Delete(name string) (interface{}, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	old := d.entries[i].Val
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	delete(d.index, name)
	for k, idx := range d.index {
		if idx > i {
			d.index[k] = idx - 1
		}
	}
	return old, true
}

// Len returns the number of fields.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Keys returns the field names in insertion order.
func (d *Document) Keys() []string {
	ks := make([]string, len(d.entries))
	for i, p := range d.entries {
		ks[i] = p.Key
	}
	return ks
}

// Pairs returns the (name, value) entries in insertion order. The returned
// slice shares storage with the Document and must not be mutated.
func (d *Document) Pairs() []Pair {
	if d == nil {
		return nil
	}
	return d.entries
}

// Equal reports whether two documents have the same fields in the same
// order with equal values. Numeric variants never cross-equal (Int32(1) !=
// Int64(1) != Float(1.0)), matching the value model's structural equality
// rule.
func (d *Document) Equal(o *Document) bool {
	if d.Len() != o.Len() {
		return false
	}
	for i, p := range d.entries {
		op := o.entries[i]
		if p.Key != op.Key {
			return false
		}
		if !valuesEqual(p.Val, op.Val) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b interface{}) bool {
	switch at := a.(type) {
	case *Document:
		bt, ok := b.(*Document)
		return ok && at.Equal(bt)
	case Array:
		bt, ok := b.(Array)
		if !ok || len(at) != len(bt) {
			return false
		}
		for i := range at {
			if !valuesEqual(at[i], bt[i]) {
				return false
			}
		}
		return true
	case Binary:
		bt, ok := b.(Binary)
		return ok && bytes.Equal(at, bt)
	case JavascriptScope:
		bt, ok := b.(JavascriptScope)
		return ok && at.Javascript == bt.Javascript && at.Scope.Equal(bt.Scope)
	default:
		return a == b
	}
}

// String is a debug-oriented projection, not a wire format.
func (d *Document) String() string {
	wr := bytes.NewBuffer(nil)
	fmt.Fprint(wr, "Document[")
	for i, p := range d.entries {
		fmt.Fprintf(wr, "%v: %v", p.Key, display(p.Val))
		if i != len(d.entries)-1 {
			fmt.Fprint(wr, " ")
		}
	}
	fmt.Fprint(wr, "]")
	return wr.String()
}
