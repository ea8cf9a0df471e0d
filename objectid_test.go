// Copyright 2013 Seth Bunce. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package bson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewObjectId(t *testing.T) {
	oid0, err := NewObjectId()
	require.NoError(t, err)
	oid1, err := NewObjectId()
	require.NoError(t, err)
	assert.NotEqual(t, oid0, oid1)
}

func TestNewObjectIdFromUUID(t *testing.T) {
	oid, err := NewObjectIdFromUUID()
	require.NoError(t, err)
	assert.Len(t, oid.Bytes(), 12)
}

func TestObjectIdHexRoundTrip(t *testing.T) {
	oid, err := NewObjectId()
	require.NoError(t, err)
	parsed, err := ObjectIdFromHex(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, parsed)
}

func TestObjectIdFromBytesWrongLength(t *testing.T) {
	_, err := ObjectIdFromBytes([]byte{0x01, 0x02})
	require.Error(t, err)
}

func TestObjectIdFromHexWrongLength(t *testing.T) {
	_, err := ObjectIdFromHex("abc")
	require.Error(t, err)
}

func TestObjectIdEncodeDecode(t *testing.T) {
	oid, err := NewObjectId()
	require.NoError(t, err)
	doc := DocumentFromPairs(Pair{"id", oid})
	b, err := Encode(doc)
	require.NoError(t, err)
	dst, err := Decode(b)
	require.NoError(t, err)
	v, ok := dst.Get("id")
	require.True(t, ok)
	assert.Equal(t, oid, v)
}
