// Copyright 2013 Seth Bunce. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package bson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type structTest struct {
	src interface{} // Convert this.
	exp *Document   // Expect the result to equal this.
}

// Test struct tags.
type tags struct {
	Ignore     string `bson:"-"`
	Rename     string `bson:"rename_ok"`
	OmitRename string `bson:"omitrename_ok,omitempty"`
	Omit       string `bson:",omitempty"`
}

// Test that unexported field is ignored.
type unexport struct {
	foo string
}

type nested struct {
	Inner tags
}

var structTests = []structTest{
	// Struct tags. Encode with omit field empty.
	{
		src: tags{
			Ignore:     "foo",
			Rename:     "bar",
			OmitRename: "",
			Omit:       "",
		},
		exp: DocumentFromPairs(Pair{"rename_ok", String("bar")}),
	},
	// Struct tags. Encode with omit fields not empty.
	{
		src: tags{
			Ignore:     "foo",
			Rename:     "bar",
			OmitRename: "123",
			Omit:       "321",
		},
		exp: DocumentFromPairs(
			Pair{"rename_ok", String("bar")},
			Pair{"omitrename_ok", String("123")},
			Pair{"Omit", String("321")},
		),
	},
	// Unexported field.
	{
		src: unexport{foo: "bar"},
		exp: NewDocument(),
	},
	// Nested struct.
	{
		src: nested{Inner: tags{Rename: "baz"}},
		exp: DocumentFromPairs(
			Pair{"Inner", DocumentFromPairs(Pair{"rename_ok", String("baz")})},
		),
	},
}

func TestStructToDocument(t *testing.T) {
	for _, st := range structTests {
		dst, err := StructToDocument(st.src)
		require.NoError(t, err, st.src)
		assert.True(t, dst.Equal(st.exp), "%v != %v", dst, st.exp)
	}
}

func TestEncodeStructRoundTrip(t *testing.T) {
	src := tags{Rename: "bar", OmitRename: "keep"}
	b, err := EncodeStruct(src)
	require.NoError(t, err)
	dst, err := Decode(b)
	require.NoError(t, err)
	v, ok := dst.Get("rename_ok")
	require.True(t, ok)
	assert.Equal(t, String("bar"), v)
}
