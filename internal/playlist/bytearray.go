package playlist

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrShortRead is returned by ByteArray.Err after a read past the written data.
var ErrShortRead = errors.New("short read")

const (
	firstAllocFactor = 64
	growthFactor     = 1.3
)

// ByteArray is a growable buffer written with Add* and read back in the same
// order with Next*. Values use the host byte order and no padding. Strings
// are an int32 byte length followed by the bytes.
//
// The first failed read sets a sticky error; later reads return zero values.
type ByteArray struct {
	data []byte
	size int
	at   int
	err  error
}

func NewByteArray() *ByteArray {
	return &ByteArray{}
}

// ByteArrayFrom returns a ByteArray positioned to read data.
func ByteArrayFrom(data []byte) *ByteArray {
	return &ByteArray{data: data, size: len(data)}
}

// Bytes returns the written data.
func (ba *ByteArray) Bytes() []byte {
	return ba.data[:ba.size]
}

// Cap returns the allocated capacity.
func (ba *ByteArray) Cap() int {
	return len(ba.data)
}

// Remaining returns the number of unread bytes.
func (ba *ByteArray) Remaining() int {
	return ba.size - ba.at
}

// Err returns the first read error.
func (ba *ByteArray) Err() error {
	return ba.err
}

func (ba *ByteArray) ensure(more int) {
	need := ba.size + more
	if need <= len(ba.data) {
		return
	}

	var capacity int
	if ba.data == nil {
		capacity = more * firstAllocFactor
	} else {
		capacity = len(ba.data)
		for capacity < need {
			grown := int(float64(capacity) * growthFactor)
			if grown == capacity {
				grown++
			}
			capacity = grown
		}
	}
	if capacity < need {
		capacity = need
	}

	data := make([]byte, capacity)
	copy(data, ba.data[:ba.size])
	ba.data = data
}

func (ba *ByteArray) add(b []byte) {
	ba.ensure(len(b))
	copy(ba.data[ba.size:], b)
	ba.size += len(b)
}

func (ba *ByteArray) AddI8(v int8)  { ba.AddU8(uint8(v)) }
func (ba *ByteArray) AddU8(v uint8) { ba.add([]byte{v}) }

func (ba *ByteArray) AddI16(v int16) { ba.AddU16(uint16(v)) }

func (ba *ByteArray) AddU16(v uint16) {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], v)
	ba.add(b[:])
}

func (ba *ByteArray) AddI32(v int32) { ba.AddU32(uint32(v)) }

func (ba *ByteArray) AddU32(v uint32) {
	var b [4]byte
	binary.NativeEndian.PutUint32(b[:], v)
	ba.add(b[:])
}

func (ba *ByteArray) AddI64(v int64) { ba.AddU64(uint64(v)) }

func (ba *ByteArray) AddU64(v uint64) {
	var b [8]byte
	binary.NativeEndian.PutUint64(b[:], v)
	ba.add(b[:])
}

func (ba *ByteArray) AddF32(v float32) { ba.AddU32(math.Float32bits(v)) }
func (ba *ByteArray) AddF64(v float64) { ba.AddU64(math.Float64bits(v)) }

func (ba *ByteArray) AddString(s string) {
	ba.AddI32(int32(len(s)))
	ba.add([]byte(s))
}

func (ba *ByteArray) next(n int, what string) []byte {
	if ba.err != nil {
		return nil
	}
	if n < 0 || n > ba.Remaining() {
		ba.err = fmt.Errorf("%w: %s needs %d bytes at offset %d, %d left", ErrShortRead, what, n, ba.at, ba.Remaining())
		return nil
	}
	b := ba.data[ba.at : ba.at+n]
	ba.at += n
	return b
}

func (ba *ByteArray) NextI8() int8 { return int8(ba.NextU8()) }

func (ba *ByteArray) NextU8() uint8 {
	b := ba.next(1, "u8")
	if b == nil {
		return 0
	}
	return b[0]
}

func (ba *ByteArray) NextI16() int16 { return int16(ba.NextU16()) }

func (ba *ByteArray) NextU16() uint16 {
	b := ba.next(2, "u16")
	if b == nil {
		return 0
	}
	return binary.NativeEndian.Uint16(b)
}

func (ba *ByteArray) NextI32() int32 { return int32(ba.NextU32()) }

func (ba *ByteArray) NextU32() uint32 {
	b := ba.next(4, "u32")
	if b == nil {
		return 0
	}
	return binary.NativeEndian.Uint32(b)
}

func (ba *ByteArray) NextI64() int64 { return int64(ba.NextU64()) }

func (ba *ByteArray) NextU64() uint64 {
	b := ba.next(8, "u64")
	if b == nil {
		return 0
	}
	return binary.NativeEndian.Uint64(b)
}

func (ba *ByteArray) NextF32() float32 { return math.Float32frombits(ba.NextU32()) }
func (ba *ByteArray) NextF64() float64 { return math.Float64frombits(ba.NextU64()) }

func (ba *ByteArray) NextString() string {
	n := ba.NextI32()
	b := ba.next(int(n), "string")
	if b == nil {
		return ""
	}
	return string(b)
}
