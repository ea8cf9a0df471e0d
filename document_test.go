// Copyright 2013 Seth Bunce. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package bson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Round trip Document -> bson -> Document then compare documents.
var documentTest = []*Document{
	DocumentFromPairs(Pair{"Float", Float(123.123)}),
	DocumentFromPairs(Pair{"String", String("123")}),
	DocumentFromPairs(Pair{"embed", DocumentFromPairs(Pair{"foo", String("bar")})}),
	DocumentFromPairs(Pair{"Array", Array{String("foo"), String("bar")}}),
	DocumentFromPairs(Pair{"Binary", Binary{0x00, 0x01}}),
	DocumentFromPairs(Pair{"ObjectId", ObjectId{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00}}),
	DocumentFromPairs(Pair{"Bool", Bool(true)}, Pair{"false", Bool(false)}),
	DocumentFromPairs(Pair{"UTCDateTime", UTCDateTime(123)}),
	DocumentFromPairs(Pair{"Null", Null{}}),
	DocumentFromPairs(Pair{"Regexp", Regexp{"foo", "bar"}}),
	DocumentFromPairs(Pair{"Javascript", Javascript("foo")}),
	DocumentFromPairs(Pair{"Int32", Int32(123)}),
	DocumentFromPairs(Pair{"Timestamp", Timestamp(123)}),
	DocumentFromPairs(Pair{"Int64", Int64(123)}),
	DocumentFromPairs(Pair{"UInt64", UInt64(123)}),
	DocumentFromPairs(Pair{"MinKey", MinKey{}}),
	DocumentFromPairs(Pair{"MaxKey", MaxKey{}}),
}

// TestEmptyDocumentEncodesToFiveBytes is spec scenario 1: {} <-> 05 00 00 00 00.
// A root document carries no leading type tag (that's only for a Document
// nested under a field name), so this must be exactly 5 bytes, not 6.
func TestEmptyDocumentEncodesToFiveBytes(t *testing.T) {
	b, err := Encode(NewDocument())
	require.NoError(t, err)
	assert.Equal(t, []byte{0x05, 0x00, 0x00, 0x00, 0x00}, b)

	dst, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, 0, dst.Len())
}

func TestDocumentRoundTrip(t *testing.T) {
	// The fixture table includes UInt64, which the default decoder rejects.
	dcfg := DefaultDecoderConfig()
	dcfg.AllowUInt64Extension = true
	for _, d0 := range documentTest {
		b, err := Encode(d0)
		require.NoError(t, err, d0)
		d1, err := DecodeWithConfig(b, dcfg)
		require.NoError(t, err, d0)
		assert.True(t, d0.Equal(d1), "%v != %v", d0, d1)
	}
}

// TestDocumentOrderPreserved is the regression test for the defect the
// teacher's Map had: field order must survive a round trip.
func TestDocumentOrderPreserved(t *testing.T) {
	src := DocumentFromPairs(
		Pair{"z", Int32(1)},
		Pair{"a", Int32(2)},
		Pair{"m", Int32(3)},
	)
	b, err := Encode(src)
	require.NoError(t, err)
	dst, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, dst.Keys())
}

// TestDocumentSetLastWriteWinsPosition verifies that re-setting an existing
// key updates the value in place without moving its position.
func TestDocumentSetLastWriteWinsPosition(t *testing.T) {
	doc := NewDocument()
	doc.Set("a", Int32(1))
	doc.Set("b", Int32(2))
	doc.Set("a", Int32(99))
	assert.Equal(t, []string{"a", "b"}, doc.Keys())
	v, ok := doc.Get("a")
	require.True(t, ok)
	assert.Equal(t, Int32(99), v)
}

func TestDeprecatedVariantsRejectedByDefault(t *testing.T) {
	doc := NewDocument()
	doc.Set("x", Undefined{})
	_, err := Encode(doc)
	require.Error(t, err)
	var bsonErr *Error
	require.ErrorAs(t, err, &bsonErr)
	assert.Equal(t, Deprecated, bsonErr.Kind)
}

func TestDeprecatedVariantsLenientPassthrough(t *testing.T) {
	doc := NewDocument()
	doc.Set("x", Undefined{})
	cfg := DefaultEncoderConfig()
	cfg.RejectDeprecated = false
	b, err := EncodeWithConfig(doc, cfg)
	require.NoError(t, err)

	dcfg := DefaultDecoderConfig()
	dcfg.RejectDeprecated = false
	dst, err := DecodeWithConfig(b, dcfg)
	require.NoError(t, err)
	v, ok := dst.Get("x")
	require.True(t, ok)
	assert.Equal(t, Undefined{}, v)
}

func TestUInt64ExtensionGating(t *testing.T) {
	doc := NewDocument()
	doc.Set("big", UInt64(1))

	cfg := DefaultEncoderConfig()
	cfg.AllowUInt64Extension = false
	_, err := EncodeWithConfig(doc, cfg)
	require.Error(t, err)

	b, err := Encode(doc) // encoder default allows it
	require.NoError(t, err)

	_, err = Decode(b) // decoder default rejects it
	require.Error(t, err)

	dcfg := DefaultDecoderConfig()
	dcfg.AllowUInt64Extension = true
	dst, err := DecodeWithConfig(b, dcfg)
	require.NoError(t, err)
	v, ok := dst.Get("big")
	require.True(t, ok)
	assert.Equal(t, UInt64(1), v)
}

func TestUTCDateTimeAndTimestampRouteToDistinctTags(t *testing.T) {
	doc := DocumentFromPairs(
		Pair{"when", UTCDateTime(1000)},
		Pair{"ts", NewTimestamp(1, 2)},
	)
	b, err := Encode(doc)
	require.NoError(t, err)
	dst, err := Decode(b)
	require.NoError(t, err)
	when, ok := dst.Get("when")
	require.True(t, ok)
	assert.Equal(t, UTCDateTime(1000), when)
	ts, ok := dst.Get("ts")
	require.True(t, ok)
	tsVal := ts.(Timestamp)
	assert.Equal(t, uint32(1), tsVal.Seconds())
	assert.Equal(t, uint32(2), tsVal.Increment())
}

func TestDecodeTruncatedInputFails(t *testing.T) {
	doc := DocumentFromPairs(Pair{"a", Int32(1)})
	b, err := Encode(doc)
	require.NoError(t, err)
	_, err = Decode(b[:len(b)-3])
	require.Error(t, err)
	var bsonErr *Error
	require.ErrorAs(t, err, &bsonErr)
	assert.Equal(t, InvalidDocument, bsonErr.Kind)
}

// TestDecodeMissingTerminatorFails is spec scenario 5: stripping the final
// NUL terminator is a truncated/malformed frame (InvalidDocument), not a
// buffer-overflow condition.
func TestDecodeMissingTerminatorFails(t *testing.T) {
	doc := DocumentFromPairs(Pair{"a", Int32(1)})
	b, err := Encode(doc)
	require.NoError(t, err)
	_, err = Decode(b[:len(b)-1])
	require.Error(t, err)
	var bsonErr *Error
	require.ErrorAs(t, err, &bsonErr)
	assert.Equal(t, InvalidDocument, bsonErr.Kind)
}

func TestDecodeDocumentLengthMismatchFails(t *testing.T) {
	doc := DocumentFromPairs(Pair{"a", Int32(1)})
	b, err := Encode(doc)
	require.NoError(t, err)
	_, err = Decode(append(b, 0xAB))
	require.Error(t, err)
}

func TestDecodeNonDenseArrayIndexFails(t *testing.T) {
	// Hand-build an array whose inner document skips from "0" straight to
	// "2", bypassing the encoder (which never produces this) to exercise
	// the decoder's dense-index validation directly.
	w := NewBufferWriter()
	enc := newBSONEncoder(w, DefaultEncoderConfig())
	require.NoError(t, enc.StartDocument())
	require.NoError(t, enc.writeTag(tagArray))
	require.NoError(t, enc.SerializeFieldName("arr"))
	require.NoError(t, enc.StartDocument())
	require.NoError(t, enc.encodeElement("0", Int32(10)))
	require.NoError(t, enc.encodeElement("2", Int32(20)))
	require.NoError(t, enc.EndDocument())
	require.NoError(t, enc.EndDocument())

	_, err := Decode(w.Bytes())
	require.Error(t, err)
	var bsonErr *Error
	require.ErrorAs(t, err, &bsonErr)
	assert.Equal(t, InvalidValue, bsonErr.Kind)
}

func TestDecodeUnknownTagFails(t *testing.T) {
	doc := DocumentFromPairs(Pair{"a", Int32(1)})
	b, err := Encode(doc)
	require.NoError(t, err)
	// Flip the Int32 tag byte (offset 4, right after the length prefix) to
	// an unused value.
	b[4] = 0x99
	_, err = Decode(b)
	require.Error(t, err)
}
