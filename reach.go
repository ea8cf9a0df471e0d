// Copyright 2013 Seth Bunce. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package bson

import (
	"errors"
	"fmt"
	"reflect"
	"time"
)

// Reach walks a dotted path into the document and assigns the value found
// there into dst, coercing to dst's Go type where the value model allows
// it. Returns true if the path resolved to a value, false if any segment
// was absent. Returns an error if the value found cannot be coerced to
// dst's type.
//
// Supported coercions:
//
//	Float       -> float64
//	String      -> string
//	Binary      -> []byte
//	ObjectId    -> []byte
//	Bool        -> bool
//	UTCDateTime -> int64, time.Time
//	Javascript  -> string
//	Symbol      -> string
//	Int32       -> int32, int64
//	Timestamp   -> int64, time.Time
//	Int64       -> int64
//	UInt64      -> uint64
//
// To disable coercion, pass a dst of the exact matching value-model type.
func (d *Document) Reach(dst interface{}, dot ...string) (bool, error) {
	if dst == nil {
		return false, errors.New("dst must not be nil")
	}
	src := reach(d, dot...)
	if src == nil {
		return false, nil
	}
	return assign(dst, src)
}

// Reach walks a dotted path into the array (numeric indices as strings) and
// assigns the value found there into dst. See Document.Reach.
func (a Array) Reach(dst interface{}, dot ...string) (bool, error) {
	if dst == nil {
		return false, errors.New("dst must not be nil")
	}
	src := reach(a, dot...)
	if src == nil {
		return false, nil
	}
	return assign(dst, src)
}

func reach(cur interface{}, dot ...string) interface{} {
	path := ""
	for _, name := range dot {
		path = catpath(path, name)
		switch curt := cur.(type) {
		case Float, String, Binary, Undefined, ObjectId, Bool, UTCDateTime,
			Null, Javascript, Symbol, Int32, Timestamp, Int64, UInt64, MinKey, MaxKey:
			return nil
		case *Document:
			a, ok := curt.Get(name)
			if !ok {
				return nil
			}
			cur = a
		case Array:
			idx, err := indexOf(name)
			if err != nil || idx < 0 || idx >= len(curt) {
				return nil
			}
			cur = curt[idx]
		case Regexp:
			if name == "Pattern" {
				cur = curt.Pattern
			} else if name == "Options" {
				cur = curt.Options
			} else {
				return nil
			}
		case DBPointer:
			if name == "Name" {
				cur = curt.Name
			} else if name == "ObjectId" {
				cur = curt.ObjectId
			} else {
				return nil
			}
		case JavascriptScope:
			if name == "Javascript" {
				cur = curt.Javascript
			} else if name == "Scope" {
				cur = curt.Scope
			} else {
				return nil
			}
		default:
			return nil
		}
	}
	return cur
}

func indexOf(name string) (int, error) {
	n := 0
	if name == "" {
		return -1, fmt.Errorf("empty array index")
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return -1, fmt.Errorf("not a decimal index: %q", name)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

func assignError(dst reflect.Value, src interface{}) error {
	return fmt.Errorf("cannot coerce %T to %v", src, dst.Type())
}

// assign coerces src into dst, allocating through pointers/interfaces as
// needed (see indirectAlloc).
func assign(dst, src interface{}) (bool, error) {
	dstrv := indirectAlloc(reflect.ValueOf(dst))
	switch srct := src.(type) {
	case Float:
		if dstrv.Kind() != reflect.Float64 {
			return false, assignError(dstrv, src)
		}
		dstrv.SetFloat(float64(srct))
	case String:
		if dstrv.Kind() != reflect.String {
			return false, assignError(dstrv, src)
		}
		dstrv.SetString(string(srct))
	case *Document:
		if _, ok := dstrv.Interface().(*Document); !ok {
			return false, assignError(dstrv, src)
		}
		dstrv.Set(reflect.ValueOf(srct))
	case Array:
		if _, ok := dstrv.Interface().(Array); !ok {
			return false, assignError(dstrv, src)
		}
		dstrv.Set(reflect.ValueOf(srct))
	case Binary:
		if dstrv.Kind() != reflect.Slice || dstrv.Type().Elem().Kind() != reflect.Uint8 {
			return false, assignError(dstrv, src)
		}
		dstrv.SetBytes([]byte(srct))
	case Undefined:
		// Nothing to do.
	case ObjectId:
		if _, ok := dstrv.Interface().(ObjectId); ok {
			dstrv.Set(reflect.ValueOf(srct))
			break
		}
		if dstrv.Kind() != reflect.Slice || dstrv.Type().Elem().Kind() != reflect.Uint8 {
			return false, assignError(dstrv, src)
		}
		dstrv.SetBytes(srct.Bytes())
	case Bool:
		if dstrv.Kind() != reflect.Bool {
			return false, assignError(dstrv, src)
		}
		dstrv.SetBool(bool(srct))
	case UTCDateTime:
		switch dstrv.Interface().(type) {
		case time.Time:
			dstrv.Set(reflect.ValueOf(time.Unix(0, int64(srct)*int64(time.Millisecond))))
		default:
			if dstrv.Kind() != reflect.Int64 {
				return false, assignError(dstrv, src)
			}
			dstrv.SetInt(int64(srct))
		}
	case Null:
		// Nothing to do.
	case Regexp:
		if _, ok := dstrv.Interface().(Regexp); !ok {
			return false, assignError(dstrv, src)
		}
		dstrv.Set(reflect.ValueOf(srct))
	case DBPointer:
		if _, ok := dstrv.Interface().(DBPointer); !ok {
			return false, assignError(dstrv, src)
		}
		dstrv.Set(reflect.ValueOf(srct))
	case Javascript:
		if dstrv.Kind() != reflect.String {
			return false, assignError(dstrv, src)
		}
		dstrv.SetString(string(srct))
	case Symbol:
		if dstrv.Kind() != reflect.String {
			return false, assignError(dstrv, src)
		}
		dstrv.SetString(string(srct))
	case JavascriptScope:
		if _, ok := dstrv.Interface().(JavascriptScope); !ok {
			return false, assignError(dstrv, src)
		}
		dstrv.Set(reflect.ValueOf(srct))
	case Int32:
		if dstrv.Kind() != reflect.Int32 && dstrv.Kind() != reflect.Int64 {
			return false, assignError(dstrv, src)
		}
		dstrv.SetInt(int64(srct))
	case Timestamp:
		switch dstrv.Interface().(type) {
		case time.Time:
			dstrv.Set(reflect.ValueOf(time.Unix(int64(srct.Seconds()), 0)))
		default:
			if dstrv.Kind() != reflect.Int64 {
				return false, assignError(dstrv, src)
			}
			dstrv.SetInt(int64(srct))
		}
	case Int64:
		if dstrv.Kind() != reflect.Int64 {
			return false, assignError(dstrv, src)
		}
		dstrv.SetInt(int64(srct))
	case UInt64:
		if dstrv.Kind() != reflect.Uint64 {
			return false, assignError(dstrv, src)
		}
		dstrv.SetUint(uint64(srct))
	case MinKey:
		// Nothing to do.
	case MaxKey:
		// Nothing to do.
	}
	return true, nil
}
