package script

import (
	"encoding/binary"
	"errors"
	"io"
)

// Script opcodes used by the MinerId protocol envelope
const (
	OpFalse     = 0x00
	OpReturn    = 0x6a
	OpPushData1 = 0x4c
	OpPushData2 = 0x4d
	OpPushData4 = 0x4e
)

// Prefix is the fixed MinerId marker every candidate output starts with:
// OP_FALSE OP_RETURN, a 4-byte push and the protocol magic 0xAC1EED88
var Prefix = []byte{OpFalse, OpReturn, 0x04, 0xac, 0x1e, 0xed, 0x88}

// PrefixLen is the number of marker bytes preceding the push-data stream
const PrefixLen = 7

var (
	// ErrTruncatedPush is returned when a push instruction declares more
	// bytes than the script still holds
	ErrTruncatedPush = errors.New("script: truncated push data")

	// ErrNonPushOp is returned when a non-push opcode shows up where the
	// protocol expects data pushes only
	ErrNonPushOp = errors.New("script: non-push opcode in data stream")
)

// IsMinerId reports whether the output script starts with the MinerId marker
func IsMinerId(s []byte) bool {
	if len(s) < PrefixLen {
		return false
	}
	for i, b := range Prefix {
		if s[i] != b {
			return false
		}
	}
	return true
}

// Reader walks the push-data instructions of a script, one operand at a
// time. It fails closed: a truncated push or a non-push opcode stops the
// reader with an error instead of guessing at the remainder.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a reader over the given script bytes
func NewReader(s []byte) *Reader {
	return &Reader{buf: s}
}

// Next returns the operand of the next push instruction. It returns io.EOF
// once the script is cleanly exhausted. The returned slice aliases the
// script buffer.
func (r *Reader) Next() ([]byte, error) {
	if r.pos >= len(r.buf) {
		return nil, io.EOF
	}

	op := r.buf[r.pos]
	r.pos++

	var n int
	switch {
	case op == OpFalse:
		return []byte{}, nil
	case op < OpPushData1:
		n = int(op)
	case op == OpPushData1:
		if r.pos+1 > len(r.buf) {
			return nil, ErrTruncatedPush
		}
		n = int(r.buf[r.pos])
		r.pos++
	case op == OpPushData2:
		if r.pos+2 > len(r.buf) {
			return nil, ErrTruncatedPush
		}
		n = int(binary.LittleEndian.Uint16(r.buf[r.pos:]))
		r.pos += 2
	case op == OpPushData4:
		if r.pos+4 > len(r.buf) {
			return nil, ErrTruncatedPush
		}
		n = int(binary.LittleEndian.Uint32(r.buf[r.pos:]))
		r.pos += 4
	default:
		return nil, ErrNonPushOp
	}

	if r.pos+n > len(r.buf) {
		return nil, ErrTruncatedPush
	}
	operand := r.buf[r.pos : r.pos+n]
	r.pos += n
	return operand, nil
}

// AppendPushData appends data to script using the smallest push encoding
func AppendPushData(script []byte, data []byte) []byte {
	n := len(data)
	switch {
	case n == 0:
		script = append(script, OpFalse)
	case n < OpPushData1:
		script = append(script, byte(n))
	case n <= 0xff:
		script = append(script, OpPushData1, byte(n))
	case n <= 0xffff:
		script = append(script, OpPushData2, 0, 0)
		binary.LittleEndian.PutUint16(script[len(script)-2:], uint16(n))
	default:
		script = append(script, OpPushData4, 0, 0, 0, 0)
		binary.LittleEndian.PutUint32(script[len(script)-4:], uint32(n))
	}
	return append(script, data...)
}
