// Package poly1305 implements the Poly1305 one time authenticator.  Unlike
// the golang.org/x/crypto implementation it exposes a hash.Hash so that
// messages can be fed incrementally.
//
// A key must never authenticate more than one message.  An attacker that
// sees two messages authenticated under the same key can forge tags at
// will.
package poly1305

import (
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"hash"
)

const (
	// KeySize is the Poly1305 key size in bytes.
	KeySize = 32

	// Size is the Poly1305 tag size in bytes.
	Size = 16

	// BlockSize is the Poly1305 block size in bytes.
	BlockSize = 16
)

// ErrInvalidKeySize is the error returned when the key length is invalid.
var ErrInvalidKeySize = errors.New("poly1305: invalid key size")

var _ hash.Hash = (*Poly1305)(nil)

// Poly1305 is an instance of the Poly1305 authenticator.  The accumulator is
// held as 5 26 bit limbs so that products fit in 64 bits with room for the
// lazy carries.
type Poly1305 struct {
	r        [5]uint32
	h        [5]uint32
	pad      [4]uint32
	buffer   [BlockSize]byte
	leftover int
	final    bool
}

// New returns a new Poly1305 instance keyed with the supplied one time key.
func New(key []byte) (*Poly1305, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	st := &Poly1305{}
	st.Init(key)
	return st, nil
}

// Init (re-)initializes the instance with a given one time key.  It panics if
// the key is not KeySize bytes.
func (st *Poly1305) Init(key []byte) {
	if len(key) != KeySize {
		panic(ErrInvalidKeySize)
	}

	// r = le128(key[0:16]) clamped to 0x0ffffffc0ffffffc0ffffffc0fffffff,
	// split into 26 bit limbs.
	st.r[0] = binary.LittleEndian.Uint32(key[0:]) & 0x3ffffff
	st.r[1] = (binary.LittleEndian.Uint32(key[3:]) >> 2) & 0x3ffff03
	st.r[2] = (binary.LittleEndian.Uint32(key[6:]) >> 4) & 0x3ffc0ff
	st.r[3] = (binary.LittleEndian.Uint32(key[9:]) >> 6) & 0x3f03fff
	st.r[4] = (binary.LittleEndian.Uint32(key[12:]) >> 8) & 0x00fffff

	for i := range st.h {
		st.h[i] = 0
	}

	// s = le128(key[16:32]), only added at the very end.
	st.pad[0] = binary.LittleEndian.Uint32(key[16:])
	st.pad[1] = binary.LittleEndian.Uint32(key[20:])
	st.pad[2] = binary.LittleEndian.Uint32(key[24:])
	st.pad[3] = binary.LittleEndian.Uint32(key[28:])

	st.leftover = 0
	st.final = false
}

// Write adds more message data to the running authenticator.  It never
// returns an error.
func (st *Poly1305) Write(p []byte) (n int, err error) {
	m := p
	bytes := len(m)

	// Top off a previously buffered partial block first.
	if st.leftover > 0 {
		want := BlockSize - st.leftover
		if want > bytes {
			want = bytes
		}
		copy(st.buffer[st.leftover:], m[:want])
		bytes -= want
		m = m[want:]
		st.leftover += want
		if st.leftover < BlockSize {
			return len(p), nil
		}
		st.blocks(st.buffer[:], BlockSize)
		st.leftover = 0
	}

	if bytes >= BlockSize {
		want := bytes & (^(BlockSize - 1))
		st.blocks(m, want)
		m = m[want:]
		bytes -= want
	}

	if bytes > 0 {
		copy(st.buffer[st.leftover:], m[:bytes])
		st.leftover += bytes
	}

	return len(p), nil
}

// Sum appends the tag for the data written so far to b and returns the
// resulting slice.  The underlying state is not changed, so more data may be
// written afterwards, though doing so with a one time key is almost always a
// mistake.
func (st *Poly1305) Sum(b []byte) []byte {
	var tag [Size]byte
	tmp := *st
	tmp.finish(&tag)
	return append(b, tag[:]...)
}

// Reset clears the internal state and panics.  Poly1305 keys are one time
// use only, so an instance cannot be restarted.
func (st *Poly1305) Reset() {
	st.Clear()
	panic("poly1305: Reset() is not supported")
}

// Size returns the number of bytes Sum will return.
func (st *Poly1305) Size() int {
	return Size
}

// BlockSize returns the authenticator's underlying block size.
func (st *Poly1305) BlockSize() int {
	return BlockSize
}

// Clear purges the key material and the accumulator from the instance.
func (st *Poly1305) Clear() {
	for i := range st.h {
		st.h[i] = 0
	}
	for i := range st.r {
		st.r[i] = 0
	}
	for i := range st.pad {
		st.pad[i] = 0
	}
}

// blocks absorbs bytes/BlockSize full blocks from m into the accumulator:
// h = (h + block) * r modulo 2^130 - 5, with each full block raised by
// 2^128.  The final short block has already been padded by finish and gets
// no high bit.
func (st *Poly1305) blocks(m []byte, bytes int) {
	var hibit uint32
	if !st.final {
		hibit = 1 << 24
	}
	r0, r1, r2, r3, r4 := st.r[0], st.r[1], st.r[2], st.r[3], st.r[4]
	s1, s2, s3, s4 := r1*5, r2*5, r3*5, r4*5
	h0, h1, h2, h3, h4 := st.h[0], st.h[1], st.h[2], st.h[3], st.h[4]

	for bytes >= BlockSize {
		// h += m[i]
		h0 += binary.LittleEndian.Uint32(m[0:]) & 0x3ffffff
		h1 += (binary.LittleEndian.Uint32(m[3:]) >> 2) & 0x3ffffff
		h2 += (binary.LittleEndian.Uint32(m[6:]) >> 4) & 0x3ffffff
		h3 += (binary.LittleEndian.Uint32(m[9:]) >> 6) & 0x3ffffff
		h4 += (binary.LittleEndian.Uint32(m[12:]) >> 8) | hibit

		// h *= r, using that 2^130 = 5 modulo p to fold the high limbs back
		// down via s1..s4.
		d0 := uint64(h0)*uint64(r0) + uint64(h1)*uint64(s4) + uint64(h2)*uint64(s3) + uint64(h3)*uint64(s2) + uint64(h4)*uint64(s1)
		d1 := uint64(h0)*uint64(r1) + uint64(h1)*uint64(r0) + uint64(h2)*uint64(s4) + uint64(h3)*uint64(s3) + uint64(h4)*uint64(s2)
		d2 := uint64(h0)*uint64(r2) + uint64(h1)*uint64(r1) + uint64(h2)*uint64(r0) + uint64(h3)*uint64(s4) + uint64(h4)*uint64(s3)
		d3 := uint64(h0)*uint64(r3) + uint64(h1)*uint64(r2) + uint64(h2)*uint64(r1) + uint64(h3)*uint64(r0) + uint64(h4)*uint64(s4)
		d4 := uint64(h0)*uint64(r4) + uint64(h1)*uint64(r3) + uint64(h2)*uint64(r2) + uint64(h3)*uint64(r1) + uint64(h4)*uint64(r0)

		// Partial reduction, carrying each limb into the next.
		c := uint32(d0 >> 26)
		h0 = uint32(d0) & 0x3ffffff
		d1 += uint64(c)
		c = uint32(d1 >> 26)
		h1 = uint32(d1) & 0x3ffffff
		d2 += uint64(c)
		c = uint32(d2 >> 26)
		h2 = uint32(d2) & 0x3ffffff
		d3 += uint64(c)
		c = uint32(d3 >> 26)
		h3 = uint32(d3) & 0x3ffffff
		d4 += uint64(c)
		c = uint32(d4 >> 26)
		h4 = uint32(d4) & 0x3ffffff
		h0 += c * 5
		c = h0 >> 26
		h0 &= 0x3ffffff
		h1 += c

		m = m[BlockSize:]
		bytes -= BlockSize
	}

	st.h[0], st.h[1], st.h[2], st.h[3], st.h[4] = h0, h1, h2, h3, h4
}

func (st *Poly1305) finish(tag *[Size]byte) {
	// Pad out and absorb the remaining short block.  The 0x01 byte after the
	// message bytes encodes the block length, so a short block is never
	// confused with a full one, nor with a block carrying trailing zeros.
	if st.leftover > 0 {
		st.buffer[st.leftover] = 1
		for i := st.leftover + 1; i < BlockSize; i++ {
			st.buffer[i] = 0
		}
		st.final = true
		st.blocks(st.buffer[:], BlockSize)
	}

	// Fully carry h.
	h0, h1, h2, h3, h4 := st.h[0], st.h[1], st.h[2], st.h[3], st.h[4]
	c := h1 >> 26
	h1 &= 0x3ffffff
	h2 += c
	c = h2 >> 26
	h2 &= 0x3ffffff
	h3 += c
	c = h3 >> 26
	h3 &= 0x3ffffff
	h4 += c
	c = h4 >> 26
	h4 &= 0x3ffffff
	h0 += c * 5
	c = h0 >> 26
	h0 &= 0x3ffffff
	h1 += c

	// Compute g = h + 5 - 2^130.  If that subtraction borrows, h was already
	// fully reduced and must be kept as-is.
	g0 := h0 + 5
	c = g0 >> 26
	g0 &= 0x3ffffff
	g1 := h1 + c
	c = g1 >> 26
	g1 &= 0x3ffffff
	g2 := h2 + c
	c = g2 >> 26
	g2 &= 0x3ffffff
	g3 := h3 + c
	c = g3 >> 26
	g3 &= 0x3ffffff
	g4 := h4 + c - (1 << 26)

	// Select h or g in constant time based on the borrow.
	mask := (g4 >> 31) - 1
	g0 &= mask
	g1 &= mask
	g2 &= mask
	g3 &= mask
	g4 &= mask
	mask = ^mask
	h0 = (h0 & mask) | g0
	h1 = (h1 & mask) | g1
	h2 = (h2 & mask) | g2
	h3 = (h3 & mask) | g3
	h4 = (h4 & mask) | g4

	// Repack the 26 bit limbs into 32 bit words, truncating to 2^128.
	h0 = h0 | (h1 << 26)
	h1 = (h1 >> 6) | (h2 << 20)
	h2 = (h2 >> 12) | (h3 << 14)
	h3 = (h3 >> 18) | (h4 << 8)

	// tag = (h + s) modulo 2^128.
	f := uint64(h0) + uint64(st.pad[0])
	h0 = uint32(f)
	f = uint64(h1) + uint64(st.pad[1]) + (f >> 32)
	h1 = uint32(f)
	f = uint64(h2) + uint64(st.pad[2]) + (f >> 32)
	h2 = uint32(f)
	f = uint64(h3) + uint64(st.pad[3]) + (f >> 32)
	h3 = uint32(f)

	binary.LittleEndian.PutUint32(tag[0:], h0)
	binary.LittleEndian.PutUint32(tag[4:], h1)
	binary.LittleEndian.PutUint32(tag[8:], h2)
	binary.LittleEndian.PutUint32(tag[12:], h3)

	st.Clear()
}

// Sum computes the tag for m using the one time key and writes it to tag.
func Sum(tag *[Size]byte, m []byte, key *[KeySize]byte) {
	var st Poly1305
	st.Init(key[:])
	st.Write(m)
	st.finish(tag)
}

// Verify checks the tag of m against the expected value in constant time and
// reports whether they match.
func Verify(tag *[Size]byte, m []byte, key *[KeySize]byte) bool {
	var computed [Size]byte
	Sum(&computed, m, key)
	return subtle.ConstantTimeCompare(tag[:], computed[:]) == 1
}
