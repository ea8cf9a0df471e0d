// Copyright 2013 Seth Bunce. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package bson

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferWriterBackpatch(t *testing.T) {
	w := NewBufferWriter()
	require.NoError(t, w.WriteInt32(0))
	end := w.Pos()
	_, err := w.Write([]byte{0xAA, 0xBB})
	require.NoError(t, err)
	require.NoError(t, w.Seek(0))
	require.NoError(t, w.WriteInt32(int32(end)))
	assert.Equal(t, []byte{byte(end), 0x00, 0x00, 0x00, 0xAA, 0xBB}, w.Bytes())
}

func TestStreamWriterFlushesOnClose(t *testing.T) {
	var dst bytes.Buffer
	sw := NewStreamWriter(&dst)
	_, err := sw.Write([]byte{0x01, 0x02, 0x03})
	require.NoError(t, err)
	require.NoError(t, sw.Close())
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, dst.Bytes())
}

func TestEncoderNestingDepthCapped(t *testing.T) {
	var v interface{} = Int32(1)
	for i := 0; i < maxBackpatchDepth+5; i++ {
		v = DocumentFromPairs(Pair{"inner", v})
	}
	outer, ok := v.(*Document)
	require.True(t, ok)
	_, err := Encode(outer)
	require.Error(t, err)
	var bsonErr *Error
	require.ErrorAs(t, err, &bsonErr)
	assert.Equal(t, InvalidDocument, bsonErr.Kind)
}
