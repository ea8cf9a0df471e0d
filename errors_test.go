// Copyright 2013 Seth Bunce. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package bson

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKindString(t *testing.T) {
	kinds := []ErrorKind{Io, BufferOverflow, InvalidValue, Utf8, InvalidDocument,
		Deprecated, NotImplemented, NotSupported}
	for _, k := range kinds {
		assert.NotEmpty(t, k.String())
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := io.ErrUnexpectedEOF
	err := wrapIo(cause)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestErrorAsExtractsKind(t *testing.T) {
	_, err := ObjectIdFromHex("short")
	var bsonErr *Error
	require.ErrorAs(t, err, &bsonErr)
	assert.Equal(t, InvalidValue, bsonErr.Kind)
}
