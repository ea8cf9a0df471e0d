// Copyright 2013 Seth Bunce. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package bson

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
)

// JSONConfig governs the JSON emitter.
type JSONConfig struct {
	// Pretty enables 2-space-indented, newline-separated output. The
	// default (false) emits the most compact single-line form.
	Pretty bool
}

// jsonEmitter implements Serializer by projecting the value model to JSON
// text, following the "relaxed extended JSON" convention: plain
// JSON-representable variants emit natively, everything else gets a
// `$`-prefixed wrapper object (see SPEC_FULL.md §4.6). It shares the
// visitor contract with bsonEncoder but, unlike the wire format, JSON
// containers have their own bracket/comma punctuation rather than a single
// document framing, so SerializeDocument and SerializeArray each drive their
// own member loop instead of delegating through StartDocument/EndDocument.
type jsonEmitter struct {
	buf    bytes.Buffer
	cfg    JSONConfig
	indent int
}

// EncodeJSON renders doc as a JSON string under cfg.
func EncodeJSON(doc *Document, cfg JSONConfig) (string, error) {
	e := &jsonEmitter{cfg: cfg}
	if err := e.SerializeDocument(doc); err != nil {
		return "", err
	}
	return e.buf.String(), nil
}

func (e *jsonEmitter) writeIndent(depth int) {
	if !e.cfg.Pretty {
		return
	}
	e.buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		e.buf.WriteString("  ")
	}
}

func (e *jsonEmitter) SerializeDocument(value *Document) error {
	e.buf.WriteByte('{')
	e.indent++
	pairs := value.Pairs()
	for i, p := range pairs {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.writeIndent(e.indent)
		writeJSONString(&e.buf, p.Key)
		e.buf.WriteByte(':')
		if e.cfg.Pretty {
			e.buf.WriteByte(' ')
		}
		if err := e.emitValue(p.Val); err != nil {
			return err
		}
	}
	e.indent--
	if len(pairs) > 0 {
		e.writeIndent(e.indent)
	}
	e.buf.WriteByte('}')
	return nil
}

func (e *jsonEmitter) SerializeArray(value Array) error {
	e.buf.WriteByte('[')
	e.indent++
	for i, v := range value {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.writeIndent(e.indent)
		if err := e.emitValue(v); err != nil {
			return err
		}
	}
	e.indent--
	if len(value) > 0 {
		e.writeIndent(e.indent)
	}
	e.buf.WriteByte(']')
	return nil
}

// emitValue is the exhaustive type switch driving JSON emission for a
// single value, the JSON-side counterpart to bsonEncoder.encodeElement.
func (e *jsonEmitter) emitValue(v interface{}) error {
	switch vt := normalizeValue(v).(type) {
	case Float:
		return e.writeNumberOrNull(float64(vt))
	case String:
		writeJSONString(&e.buf, string(vt))
		return nil
	case *Document:
		return e.SerializeDocument(vt)
	case Array:
		return e.SerializeArray(vt)
	case Binary:
		return e.writeWrapped1("$binary", func() {
			e.buf.WriteString(`{"base64":`)
			writeJSONString(&e.buf, base64.StdEncoding.EncodeToString(vt))
			e.buf.WriteString(`,"subType":"00"}`)
		})
	case Undefined:
		return e.writeWrappedLiteral("$undefined", "true")
	case ObjectId:
		return e.writeWrappedString("$oid", vt.Hex())
	case Bool:
		if vt {
			e.buf.WriteString("true")
		} else {
			e.buf.WriteString("false")
		}
		return nil
	case UTCDateTime:
		return e.writeWrapped1("$date", func() {
			e.buf.WriteString(`{"$numberLong":`)
			writeJSONString(&e.buf, strconv.FormatInt(int64(vt), 10))
			e.buf.WriteByte('}')
		})
	case Null:
		e.buf.WriteString("null")
		return nil
	case Regexp:
		return e.writeWrapped1("$regularExpression", func() {
			e.buf.WriteString(`{"pattern":`)
			writeJSONString(&e.buf, vt.Pattern)
			e.buf.WriteString(`,"options":`)
			writeJSONString(&e.buf, vt.Options)
			e.buf.WriteByte('}')
		})
	case DBPointer:
		return e.writeWrapped1("$dbPointer", func() {
			e.buf.WriteString(`{"$ref":`)
			writeJSONString(&e.buf, vt.Name)
			e.buf.WriteString(`,"$id":{"$oid":`)
			writeJSONString(&e.buf, vt.ObjectId.Hex())
			e.buf.WriteString("}}")
		})
	case Javascript:
		return e.writeWrappedString("$code", string(vt))
	case Symbol:
		return e.writeWrappedString("$symbol", string(vt))
	case JavascriptScope:
		e.buf.WriteByte('{')
		e.buf.WriteString(`"$code":`)
		writeJSONString(&e.buf, vt.Javascript)
		e.buf.WriteString(`,"$scope":`)
		scope := vt.Scope
		if scope == nil {
			scope = NewDocument()
		}
		if err := e.SerializeDocument(scope); err != nil {
			return err
		}
		e.buf.WriteByte('}')
		return nil
	case Int32:
		e.buf.WriteString(strconv.FormatInt(int64(vt), 10))
		return nil
	case Timestamp:
		return e.writeWrapped1("$timestamp", func() {
			fmt.Fprintf(&e.buf, `{"t":%v,"i":%v}`, vt.Seconds(), vt.Increment())
		})
	case Int64:
		e.buf.WriteString(strconv.FormatInt(int64(vt), 10))
		return nil
	case UInt64:
		return e.writeWrappedString("$numberLong", strconv.FormatUint(uint64(vt), 10))
	case MinKey:
		return e.writeWrappedLiteral("$minKey", "1")
	case MaxKey:
		return e.writeWrappedLiteral("$maxKey", "1")
	}
	return newErrf(InvalidValue, "cannot render value of type %T as JSON", v)
}

func (e *jsonEmitter) writeNumberOrNull(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		e.buf.WriteString("null")
		return nil
	}
	e.buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

func (e *jsonEmitter) writeWrappedString(key, value string) error {
	e.buf.WriteByte('{')
	writeJSONString(&e.buf, key)
	e.buf.WriteByte(':')
	writeJSONString(&e.buf, value)
	e.buf.WriteByte('}')
	return nil
}

func (e *jsonEmitter) writeWrappedLiteral(key, literal string) error {
	e.buf.WriteByte('{')
	writeJSONString(&e.buf, key)
	e.buf.WriteByte(':')
	e.buf.WriteString(literal)
	e.buf.WriteByte('}')
	return nil
}

func (e *jsonEmitter) writeWrapped1(key string, writeValue func()) error {
	e.buf.WriteByte('{')
	writeJSONString(&e.buf, key)
	e.buf.WriteByte(':')
	writeValue()
	e.buf.WriteByte('}')
	return nil
}

// writeJSONString writes a JSON-quoted, escaped string per spec.md §4.6:
// double quote, backslash, and the standard short escapes get their
// two-character forms; other control characters (< 0x20) get \u00XX.
func writeJSONString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

// The remaining methods satisfy Serializer for bare, non-document-field
// dispatch (e.g. a caller rendering a scalar value directly).

func (e *jsonEmitter) SerializeFloat(value Float) error            { return e.writeNumberOrNull(float64(value)) }
func (e *jsonEmitter) SerializeString(value String) error          { writeJSONString(&e.buf, string(value)); return nil }
func (e *jsonEmitter) SerializeBinary(value Binary) error          { return e.emitValue(value) }
func (e *jsonEmitter) SerializeUndefined() error                   { return e.emitValue(Undefined{}) }
func (e *jsonEmitter) SerializeObjectId(value ObjectId) error      { return e.emitValue(value) }
func (e *jsonEmitter) SerializeBool(value Bool) error               { return e.emitValue(value) }
func (e *jsonEmitter) SerializeUTCDateTime(value UTCDateTime) error { return e.emitValue(value) }
func (e *jsonEmitter) SerializeNull() error                         { e.buf.WriteString("null"); return nil }
func (e *jsonEmitter) SerializeRegexp(value Regexp) error           { return e.emitValue(value) }
func (e *jsonEmitter) SerializeDBPointer(value DBPointer) error     { return e.emitValue(value) }
func (e *jsonEmitter) SerializeJavascript(value Javascript) error   { return e.emitValue(value) }
func (e *jsonEmitter) SerializeSymbol(value Symbol) error           { return e.emitValue(value) }
func (e *jsonEmitter) SerializeJavascriptScope(value JavascriptScope) error {
	return e.emitValue(value)
}
func (e *jsonEmitter) SerializeInt32(value Int32) error     { return e.emitValue(value) }
func (e *jsonEmitter) SerializeTimestamp(value Timestamp) error { return e.emitValue(value) }
func (e *jsonEmitter) SerializeInt64(value Int64) error     { return e.emitValue(value) }
func (e *jsonEmitter) SerializeUInt64(value UInt64) error   { return e.emitValue(value) }
func (e *jsonEmitter) SerializeMinKey() error                { return e.emitValue(MinKey{}) }
func (e *jsonEmitter) SerializeMaxKey() error                { return e.emitValue(MaxKey{}) }

// StartDocument/EndDocument/SerializeFieldName are no-ops for the JSON
// emitter: SerializeDocument above drives its own member loop and never
// calls back through these, since JSON's brace/comma punctuation isn't a
// simple length prefix the way BSON's is.
func (e *jsonEmitter) StartDocument() error             { return nil }
func (e *jsonEmitter) EndDocument() error               { return nil }
func (e *jsonEmitter) SerializeFieldName(name string) error { return nil }
