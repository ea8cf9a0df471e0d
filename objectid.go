// Copyright 2013 Seth Bunce. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package bson

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// ObjectId is a 12-byte opaque identifier (tag 0x07).
type ObjectId [12]byte

// RandomSource fills p with random bytes. The default, used by NewObjectId,
// is backed by crypto/rand. ObjectId generation is an injected collaborator
// (spec.md §1): the core only needs "a 12-byte random source", not any
// particular generator.
type RandomSource func(p []byte) error

func defaultRandomSource(p []byte) error {
	_, err := rand.Read(p)
	return err
}

// NewObjectId generates a random ObjectId using the default random source.
func NewObjectId() (ObjectId, error) {
	return NewObjectIdFrom(defaultRandomSource)
}

// NewObjectIdFrom generates a random ObjectId using the given random source.
func NewObjectIdFrom(src RandomSource) (ObjectId, error) {
	var oid ObjectId
	if err := src(oid[:]); err != nil {
		return ObjectId{}, wrapIo(err)
	}
	return oid, nil
}

// NewObjectIdFromUUID generates an ObjectId from a fresh random UUID
// (github.com/google/uuid), taking its first 12 bytes. This is an
// alternative to NewObjectId for callers who want uuid-grade randomness and
// want their identifiers to correlate with UUIDs used elsewhere in a system.
func NewObjectIdFromUUID() (ObjectId, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return ObjectId{}, wrapIo(err)
	}
	var oid ObjectId
	copy(oid[:], u[:12])
	return oid, nil
}

// ObjectIdFromBytes builds an ObjectId from exactly 12 raw bytes.
func ObjectIdFromBytes(b []byte) (ObjectId, error) {
	if len(b) != 12 {
		return ObjectId{}, newErrf(InvalidValue, "ObjectId must be 12 bytes, got %v", len(b))
	}
	var oid ObjectId
	copy(oid[:], b)
	return oid, nil
}

// ObjectIdFromHex parses a 24-character lowercase hex string into an ObjectId.
func ObjectIdFromHex(s string) (ObjectId, error) {
	if len(s) != 24 {
		return ObjectId{}, newErrf(InvalidValue, "ObjectId hex must be 24 chars, got %v", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return ObjectId{}, newErrf(InvalidValue, "ObjectId hex decode: %v", err)
	}
	return ObjectIdFromBytes(b)
}

// Hex returns the lowercase 24-character hex display form.
func (o ObjectId) Hex() string {
	return hex.EncodeToString(o[:])
}

// Bytes returns the 12 raw bytes.
func (o ObjectId) Bytes() []byte {
	return o[:]
}
