package types

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/solana-nft-programs/rental-resolver/common"
)

// Record layouts are little-endian with 1-byte presence flags for optional
// fields and u32 length prefixes for strings and vectors. A decode succeeds
// only if every byte of the account data is consumed and all enum fields are
// in range, which is what keeps the schema registry unambiguous.

var (
	ErrTruncatedRecord  = errors.New("truncated record data")
	ErrTrailingBytes    = errors.New("trailing bytes after record")
	ErrBadRecordVersion = errors.New("unsupported record version")
)

const (
	maxStringLength = 1024
	maxVecLength    = 64
)

type reader struct {
	buf []byte
	off int
	err error
}

func newReader(buf []byte) *reader { return &reader{buf: buf} }

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.buf) {
		r.fail(ErrTruncatedRecord)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) boolean() bool {
	v := r.u8()
	if v > 1 {
		r.fail(fmt.Errorf("%w: bad bool %d", ErrTruncatedRecord, v))
	}
	return v == 1
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) i64() int64 {
	return int64(r.u64())
}

func (r *reader) address() common.Address {
	b := r.take(common.AddressLength)
	if b == nil {
		return common.Address{}
	}
	return common.BytesToAddress(b)
}

func (r *reader) optU64() *uint64 {
	if !r.present() {
		return nil
	}
	v := r.u64()
	return &v
}

func (r *reader) optI64() *int64 {
	if !r.present() {
		return nil
	}
	v := r.i64()
	return &v
}

func (r *reader) optAddress() *common.Address {
	if !r.present() {
		return nil
	}
	v := r.address()
	return &v
}

func (r *reader) present() bool {
	flag := r.u8()
	if flag > 1 {
		r.fail(fmt.Errorf("%w: bad presence flag %d", ErrTruncatedRecord, flag))
		return false
	}
	return flag == 1
}

func (r *reader) str() string {
	n := r.u32()
	if n > maxStringLength {
		r.fail(fmt.Errorf("%w: string length %d", ErrTruncatedRecord, n))
		return ""
	}
	b := r.take(int(n))
	if b == nil {
		return ""
	}
	return string(b)
}

func (r *reader) addressVec() []common.Address {
	n := r.u32()
	if n > maxVecLength {
		r.fail(fmt.Errorf("%w: vector length %d", ErrTruncatedRecord, n))
		return nil
	}
	out := make([]common.Address, 0, n)
	for i := uint32(0); i < n; i++ {
		out = append(out, r.address())
	}
	return out
}

// finish fails the decode unless the whole buffer was consumed.
func (r *reader) finish() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.buf) {
		return ErrTrailingBytes
	}
	return nil
}

type writer struct {
	buf []byte
}

func (w *writer) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *writer) boolean(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func (w *writer) u32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *writer) u64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *writer) i64(v int64) { w.u64(uint64(v)) }

func (w *writer) address(a common.Address) { w.buf = append(w.buf, a.Bytes()...) }

func (w *writer) optU64(v *uint64) {
	if v == nil {
		w.u8(0)
		return
	}
	w.u8(1)
	w.u64(*v)
}

func (w *writer) optI64(v *int64) {
	if v == nil {
		w.u8(0)
		return
	}
	w.u8(1)
	w.i64(*v)
}

func (w *writer) optAddress(a *common.Address) {
	if a == nil {
		w.u8(0)
		return
	}
	w.u8(1)
	w.address(*a)
}

func (w *writer) str(s string) {
	w.u32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *writer) addressVec(v []common.Address) {
	w.u32(uint32(len(v)))
	for _, a := range v {
		w.address(a)
	}
}
