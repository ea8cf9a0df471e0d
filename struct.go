// Copyright 2013 Seth Bunce. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package bson

import (
	"fmt"
	"reflect"
	"strings"
)

// StructToDocument converts a struct into a Document using the same field
// tag conventions as encoding/json: a field named `Foo` is stored under
// "Foo" unless tagged `bson:"name"`; `bson:"-"` drops the field;
// `bson:"name,omitempty"` drops the field when it holds its zero value.
// Unexported fields are always skipped. Nested structs recurse into nested
// Documents; anything not already a value-model type or a struct is run
// through the same host-type coercion Encode uses.
func StructToDocument(src interface{}) (*Document, error) {
	return structToDocument("", src)
}

func structToDocument(path string, src interface{}) (*Document, error) {
	rv := indirect(reflect.ValueOf(src))
	if rv.Kind() != reflect.Struct {
		return nil, newErrf(InvalidValue, "%v: expected struct, got %v", path, rv.Kind())
	}
	doc := NewDocumentWithCapacity(rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		sf := rv.Type().Field(i)
		if sf.PkgPath != "" {
			continue // unexported
		}
		name := sf.Name
		fv := indirect(rv.Field(i))
		if tag := sf.Tag.Get("bson"); tag != "" {
			tok := strings.Split(tag, ",")
			if tok[0] == "-" {
				continue
			}
			if tok[0] != "" {
				name = tok[0]
			}
			if len(tok) == 2 && tok[1] == "omitempty" && isEmptyValue(rv.Field(i)) {
				continue
			}
		}
		val, err := structFieldValue(catpath(path, name), fv)
		if err != nil {
			return nil, err
		}
		doc.Set(name, val)
	}
	return doc, nil
}

func structFieldValue(path string, fv reflect.Value) (interface{}, error) {
	if !fv.IsValid() {
		return Null{}, nil
	}
	v := fv.Interface()
	switch v.(type) {
	case Float, String, *Document, Array, Binary, Undefined, ObjectId, Bool,
		UTCDateTime, Null, Regexp, DBPointer, Javascript, Symbol,
		JavascriptScope, Int32, Timestamp, Int64, UInt64, MinKey, MaxKey:
		return v, nil
	}
	if fv.Kind() == reflect.Struct {
		return structToDocument(path, v)
	}
	if fv.Kind() == reflect.Slice && fv.Type().Elem().Kind() != reflect.Uint8 {
		arr := make(Array, fv.Len())
		for i := 0; i < fv.Len(); i++ {
			elem, err := structFieldValue(fmt.Sprintf("%v.%v", path, i), indirect(fv.Index(i)))
			if err != nil {
				return nil, err
			}
			arr[i] = elem
		}
		return arr, nil
	}
	if coerced, ok := coerce(v); ok {
		return coerced, nil
	}
	return nil, newErrf(InvalidValue, "%v: cannot represent field of type %T", path, v)
}

// isEmptyValue reports whether val holds its Go zero value, the same rule
// encoding/json uses for `omitempty`.
func isEmptyValue(val reflect.Value) bool {
	switch val.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return val.Len() == 0
	case reflect.Bool:
		return !val.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return val.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return val.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return val.Float() == 0
	case reflect.Interface, reflect.Ptr:
		return val.IsNil()
	}
	return false
}

// EncodeStruct converts src to a Document via StructToDocument, then
// encodes that document as BSON using DefaultEncoderConfig.
func EncodeStruct(src interface{}) ([]byte, error) {
	doc, err := StructToDocument(src)
	if err != nil {
		return nil, err
	}
	return Encode(doc)
}
