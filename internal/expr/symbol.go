package expr

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// Symbol is a named atom. Symbols are interned by NFC-normalized name, so two
// symbols with the same name obtained from the same Interner are the same
// pointer and Same reduces to pointer equality.
type Symbol struct {
	name string
}

// Name returns the symbol's normalized name.
func (s *Symbol) Name() string { return s.name }

func (s *Symbol) Same(other Element) bool {
	o, ok := other.(*Symbol)
	return ok && (s == o || s.name == o.name)
}

func (s *Symbol) String() string { return s.name }

func (s *Symbol) isElement() {}

// String is a string atom. Interned by value; the raw bytes are preserved
// (normalization happens only in the canonical encoding).
type String struct {
	value string
}

// Value returns the string contents.
func (s *String) Value() string { return s.value }

func (s *String) Same(other Element) bool {
	o, ok := other.(*String)
	return ok && (s == o || s.value == o.value)
}

func (s *String) String() string { return fmt.Sprintf("%q", s.value) }

func (s *String) isElement() {}

// ByteArray is an immutable run of raw bytes. It shares the string rank in
// the canonical ordering. Not interned: callers must not alias the backing
// slice after construction.
type ByteArray struct {
	data []byte
}

// NewByteArray copies data into a fresh ByteArray.
func NewByteArray(data []byte) *ByteArray {
	return &ByteArray{data: bytes.Clone(data)}
}

// Bytes returns a copy of the contents.
func (b *ByteArray) Bytes() []byte { return bytes.Clone(b.data) }

// Len returns the number of bytes.
func (b *ByteArray) Len() int { return len(b.data) }

func (b *ByteArray) Same(other Element) bool {
	o, ok := other.(*ByteArray)
	return ok && bytes.Equal(b.data, o.data)
}

func (b *ByteArray) String() string {
	return fmt.Sprintf("ByteArray[%s]", hex.EncodeToString(b.data))
}

func (b *ByteArray) isElement() {}
