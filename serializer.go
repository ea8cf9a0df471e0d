// Copyright 2013 Seth Bunce. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package bson

import "time"

// Serializer is the visitor every value-model traversal goes through: one
// method per variant, plus three document-level helpers. The BSON encoder
// and the JSON emitter both implement this, which is why §4.3 separates
// type-tag emission (each Serialize<Variant> method's job) from field-name
// emission (SerializeFieldName's job) — BSON wants tag-then-name-then-
// payload, JSON wants brace-name-colon-payload, and this split lets one
// dispatch function serve both.
type Serializer interface {
	SerializeFloat(value Float) error
	SerializeString(value String) error
	SerializeDocument(value *Document) error
	SerializeArray(value Array) error
	SerializeBinary(value Binary) error
	SerializeUndefined() error
	SerializeObjectId(value ObjectId) error
	SerializeBool(value Bool) error
	SerializeUTCDateTime(value UTCDateTime) error
	SerializeNull() error
	SerializeRegexp(value Regexp) error
	SerializeDBPointer(value DBPointer) error
	SerializeJavascript(value Javascript) error
	SerializeSymbol(value Symbol) error
	SerializeJavascriptScope(value JavascriptScope) error
	SerializeInt32(value Int32) error
	SerializeTimestamp(value Timestamp) error
	SerializeInt64(value Int64) error
	SerializeUInt64(value UInt64) error
	SerializeMinKey() error
	SerializeMaxKey() error

	StartDocument() error
	EndDocument() error
	SerializeFieldName(name string) error
}

// dispatch is the single exhaustive type switch over the closed value model
// (spec.md §9: "best expressed as a closed tagged sum plus a single
// dispatch function, not dynamic subtyping"), mapping a bare value onto the
// matching Serializer method. The package's own Encode and JSON paths do not
// call it: bsonEncoder.encodeElement and jsonEmitter.emitValue each carry
// their own type switch.
func dispatch(s Serializer, v interface{}) error {
	switch vt := v.(type) {
	case Float:
		return s.SerializeFloat(vt)
	case String:
		return s.SerializeString(vt)
	case *Document:
		return s.SerializeDocument(vt)
	case Array:
		return s.SerializeArray(vt)
	case Binary:
		return s.SerializeBinary(vt)
	case Undefined:
		return s.SerializeUndefined()
	case ObjectId:
		return s.SerializeObjectId(vt)
	case Bool:
		return s.SerializeBool(vt)
	case UTCDateTime:
		return s.SerializeUTCDateTime(vt)
	case Null:
		return s.SerializeNull()
	case nil:
		return s.SerializeNull()
	case Regexp:
		return s.SerializeRegexp(vt)
	case DBPointer:
		return s.SerializeDBPointer(vt)
	case Javascript:
		return s.SerializeJavascript(vt)
	case Symbol:
		return s.SerializeSymbol(vt)
	case JavascriptScope:
		return s.SerializeJavascriptScope(vt)
	case Int32:
		return s.SerializeInt32(vt)
	case Timestamp:
		return s.SerializeTimestamp(vt)
	case Int64:
		return s.SerializeInt64(vt)
	case UInt64:
		return s.SerializeUInt64(vt)
	case MinKey:
		return s.SerializeMinKey()
	case MaxKey:
		return s.SerializeMaxKey()
	}
	if coerced, ok := coerce(v); ok {
		return dispatch(s, coerced)
	}
	return newErrf(InvalidValue, "cannot serialize value of type %T", v)
}

// coerce maps common host Go types onto the closed value model, matching
// the teacher's coercion table (spec.md §4.2: "construction of each variant
// from typical host types"). It reports false for anything not covered.
func coerce(v interface{}) (interface{}, bool) {
	switch vt := v.(type) {
	case bool:
		return Bool(vt), true
	case int8:
		return Int32(vt), true
	case int16:
		return Int32(vt), true
	case int32:
		return Int32(vt), true
	case uint8:
		return Int32(vt), true
	case uint16:
		return Int32(vt), true
	case uint32:
		return Int64(vt), true
	case int:
		return Int64(vt), true
	case int64:
		return Int64(vt), true
	case uint64:
		return UInt64(vt), true
	case float32:
		return Float(vt), true
	case float64:
		return Float(vt), true
	case string:
		return String(vt), true
	case []byte:
		return Binary(vt), true
	case time.Time:
		return UTCDateTime(vt.UnixNano() / int64(time.Millisecond)), true
	}
	return nil, false
}
