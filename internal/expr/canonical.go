package expr

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"golang.org/x/text/unicode/norm"
)

// Canonical byte encoding of expression trees, used for content hashing and
// trace-store identity. Two elements encode to the same bytes iff they are
// Same, with one deliberate exception: machine and arbitrary-precision reals
// encode their exact representation, so reals that are Same only up to the
// lower precision hash differently. Hash identity is therefore strictly
// finer than Same for mixed-precision reals, which is the safe direction for
// a cache key.
//
// Layout: one kind tag byte per node, uvarint length prefixes for all
// variable-size payloads, string payloads NFC-normalized.

const hashDomain = "tungsten:expr:v1"

const (
	tagSymbol        = 'y'
	tagString        = 's'
	tagByteArray     = 'b'
	tagInteger       = 'i'
	tagRational      = 'r'
	tagMachineReal   = 'm'
	tagPrecisionReal = 'p'
	tagComplex       = 'c'
	tagExpression    = 'e'
)

// AppendCanonical appends the canonical encoding of e to buf.
func AppendCanonical(buf []byte, e Element) []byte {
	switch v := e.(type) {
	case *Symbol:
		return appendBytes(append(buf, tagSymbol), []byte(v.name))
	case *String:
		return appendBytes(append(buf, tagString), []byte(norm.NFC.String(v.value)))
	case *ByteArray:
		return appendBytes(append(buf, tagByteArray), v.data)
	case *Integer:
		return appendBytes(append(buf, tagInteger), []byte(v.value.String()))
	case *Rational:
		return appendBytes(append(buf, tagRational), []byte(v.value.RatString()))
	case *MachineReal:
		buf = append(buf, tagMachineReal)
		return binary.BigEndian.AppendUint64(buf, math.Float64bits(v.value))
	case *PrecisionReal:
		buf = append(buf, tagPrecisionReal)
		buf = binary.AppendUvarint(buf, uint64(v.prec))
		return appendBytes(buf, []byte(v.value.Text('p', 0)))
	case *Complex:
		buf = append(buf, tagComplex)
		buf = AppendCanonical(buf, v.re)
		return AppendCanonical(buf, v.im)
	case *Expression:
		buf = append(buf, tagExpression)
		buf = binary.AppendUvarint(buf, uint64(len(v.elements)))
		buf = AppendCanonical(buf, v.head)
		for _, el := range v.elements {
			buf = AppendCanonical(buf, el)
		}
		return buf
	}
	panic("expr: unknown element kind")
}

func appendBytes(buf, payload []byte) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(payload)))
	return append(buf, payload...)
}

// ContentHash returns the hex SHA-256 of the domain-separated canonical
// encoding. Stable across processes and releases of the same encoding
// version.
func ContentHash(e Element) string {
	h := sha256.New()
	h.Write([]byte(hashDomain))
	h.Write([]byte{0x00})
	h.Write(AppendCanonical(nil, e))
	return hex.EncodeToString(h.Sum(nil))
}
