// Copyright 2013 Seth Bunce. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package bson

import "io"

// Encode renders doc as BSON bytes using DefaultEncoderConfig.
func Encode(doc *Document) ([]byte, error) {
	return EncodeWithConfig(doc, DefaultEncoderConfig())
}

// EncodeWithConfig renders doc as BSON bytes under cfg.
func EncodeWithConfig(doc *Document, cfg EncoderConfig) ([]byte, error) {
	w := NewBufferWriter()
	if err := EncodeDocument(w, doc, cfg); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// EncodeTo writes doc as BSON to w using DefaultEncoderConfig.
func EncodeTo(w io.Writer, doc *Document) error {
	return EncodeToWithConfig(w, doc, DefaultEncoderConfig())
}

// EncodeToWithConfig writes doc as BSON to w under cfg.
func EncodeToWithConfig(w io.Writer, doc *Document, cfg EncoderConfig) error {
	b, err := EncodeWithConfig(doc, cfg)
	if err != nil {
		return err
	}
	_, werr := w.Write(b)
	return wrapIo2(werr)
}

// Decode parses b as a single BSON document using DefaultDecoderConfig.
func Decode(b []byte) (*Document, error) {
	return DecodeWithConfig(b, DefaultDecoderConfig())
}

// DecodeWithConfig parses b as a single BSON document under cfg.
func DecodeWithConfig(b []byte, cfg DecoderConfig) (*Document, error) {
	return DecodeDocument(b, cfg)
}

// DecodeFrom reads and parses an entire BSON document from r using
// DefaultDecoderConfig.
func DecodeFrom(r io.Reader) (*Document, error) {
	return DecodeFromWithConfig(r, DefaultDecoderConfig())
}

// DecodeFromWithConfig reads and parses an entire BSON document from r
// under cfg.
func DecodeFromWithConfig(r io.Reader, cfg DecoderConfig) (*Document, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, wrapIo(err)
	}
	return DecodeDocument(b, cfg)
}

// ToJSON renders doc as compact JSON text.
func ToJSON(doc *Document) (string, error) {
	return EncodeJSON(doc, JSONConfig{})
}

// ToPrettyJSON renders doc as indented, multi-line JSON text.
func ToPrettyJSON(doc *Document) (string, error) {
	return EncodeJSON(doc, JSONConfig{Pretty: true})
}
