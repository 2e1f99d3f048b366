// Package ref provides the portable ChaCha20 backend.
package ref

import (
	"encoding/binary"
	"math/bits"

	"github.com/jedisct1/go-chachapoly/internal/api"
)

const rounds = 20

// Impl is the portable backend (exposed for testing).
var Impl = &implRef{}

type implRef struct{}

func (impl *implRef) Name() string {
	return "ref"
}

// quarterRound mixes four state words with add-rotate-xor operations.  It is
// small enough for the compiler to inline at every call site below.
func quarterRound(a, b, c, d uint32) (uint32, uint32, uint32, uint32) {
	a += b
	d ^= a
	d = bits.RotateLeft32(d, 16)
	c += d
	b ^= c
	b = bits.RotateLeft32(b, 12)
	a += b
	d ^= a
	d = bits.RotateLeft32(d, 8)
	c += d
	b ^= c
	b = bits.RotateLeft32(b, 7)
	return a, b, c, d
}

func (impl *implRef) Blocks(x *[api.StateSize]uint32, dst, src []byte, nrBlocks int) {
	for n := 0; n < nrBlocks; n++ {
		x0, x1, x2, x3 := api.Sigma0, api.Sigma1, api.Sigma2, api.Sigma3
		x4, x5, x6, x7 := x[4], x[5], x[6], x[7]
		x8, x9, x10, x11 := x[8], x[9], x[10], x[11]
		x12, x13, x14, x15 := x[12], x[13], x[14], x[15]

		for i := 0; i < rounds; i += 2 {
			// Odd round: quarter round each column.
			x0, x4, x8, x12 = quarterRound(x0, x4, x8, x12)
			x1, x5, x9, x13 = quarterRound(x1, x5, x9, x13)
			x2, x6, x10, x14 = quarterRound(x2, x6, x10, x14)
			x3, x7, x11, x15 = quarterRound(x3, x7, x11, x15)

			// Even round: quarter round each diagonal.
			x0, x5, x10, x15 = quarterRound(x0, x5, x10, x15)
			x1, x6, x11, x12 = quarterRound(x1, x6, x11, x12)
			x2, x7, x8, x13 = quarterRound(x2, x7, x8, x13)
			x3, x4, x9, x14 = quarterRound(x3, x4, x9, x14)
		}

		// Add back the input words.  This final addition is what makes the
		// output a keyed function rather than an invertible permutation.
		x0 += api.Sigma0
		x1 += api.Sigma1
		x2 += api.Sigma2
		x3 += api.Sigma3
		x4 += x[4]
		x5 += x[5]
		x6 += x[6]
		x7 += x[7]
		x8 += x[8]
		x9 += x[9]
		x10 += x[10]
		x11 += x[11]
		x12 += x[12]
		x13 += x[13]
		x14 += x[14]
		x15 += x[15]

		_ = dst[api.BlockSize-1] // Force bounds check elimination.

		if src != nil {
			_ = src[api.BlockSize-1] // Force bounds check elimination.
			binary.LittleEndian.PutUint32(dst[0:4], binary.LittleEndian.Uint32(src[0:4])^x0)
			binary.LittleEndian.PutUint32(dst[4:8], binary.LittleEndian.Uint32(src[4:8])^x1)
			binary.LittleEndian.PutUint32(dst[8:12], binary.LittleEndian.Uint32(src[8:12])^x2)
			binary.LittleEndian.PutUint32(dst[12:16], binary.LittleEndian.Uint32(src[12:16])^x3)
			binary.LittleEndian.PutUint32(dst[16:20], binary.LittleEndian.Uint32(src[16:20])^x4)
			binary.LittleEndian.PutUint32(dst[20:24], binary.LittleEndian.Uint32(src[20:24])^x5)
			binary.LittleEndian.PutUint32(dst[24:28], binary.LittleEndian.Uint32(src[24:28])^x6)
			binary.LittleEndian.PutUint32(dst[28:32], binary.LittleEndian.Uint32(src[28:32])^x7)
			binary.LittleEndian.PutUint32(dst[32:36], binary.LittleEndian.Uint32(src[32:36])^x8)
			binary.LittleEndian.PutUint32(dst[36:40], binary.LittleEndian.Uint32(src[36:40])^x9)
			binary.LittleEndian.PutUint32(dst[40:44], binary.LittleEndian.Uint32(src[40:44])^x10)
			binary.LittleEndian.PutUint32(dst[44:48], binary.LittleEndian.Uint32(src[44:48])^x11)
			binary.LittleEndian.PutUint32(dst[48:52], binary.LittleEndian.Uint32(src[48:52])^x12)
			binary.LittleEndian.PutUint32(dst[52:56], binary.LittleEndian.Uint32(src[52:56])^x13)
			binary.LittleEndian.PutUint32(dst[56:60], binary.LittleEndian.Uint32(src[56:60])^x14)
			binary.LittleEndian.PutUint32(dst[60:64], binary.LittleEndian.Uint32(src[60:64])^x15)
			src = src[api.BlockSize:]
		} else {
			binary.LittleEndian.PutUint32(dst[0:4], x0)
			binary.LittleEndian.PutUint32(dst[4:8], x1)
			binary.LittleEndian.PutUint32(dst[8:12], x2)
			binary.LittleEndian.PutUint32(dst[12:16], x3)
			binary.LittleEndian.PutUint32(dst[16:20], x4)
			binary.LittleEndian.PutUint32(dst[20:24], x5)
			binary.LittleEndian.PutUint32(dst[24:28], x6)
			binary.LittleEndian.PutUint32(dst[28:32], x7)
			binary.LittleEndian.PutUint32(dst[32:36], x8)
			binary.LittleEndian.PutUint32(dst[36:40], x9)
			binary.LittleEndian.PutUint32(dst[40:44], x10)
			binary.LittleEndian.PutUint32(dst[44:48], x11)
			binary.LittleEndian.PutUint32(dst[48:52], x12)
			binary.LittleEndian.PutUint32(dst[52:56], x13)
			binary.LittleEndian.PutUint32(dst[56:60], x14)
			binary.LittleEndian.PutUint32(dst[60:64], x15)
		}
		dst = dst[api.BlockSize:]

		// The counter words advance as a 64 bit pair.  The IETF variant must
		// never let the low word wrap into x[13]; the public driver enforces
		// that bound before calling here.
		ctr := uint64(x[13])<<32 | uint64(x[12])
		ctr++
		x[12] = uint32(ctr)
		x[13] = uint32(ctr >> 32)
	}
}

func (impl *implRef) HChaCha(key, nonce, dst []byte) {
	// Force bounds check elimination.
	_ = key[31]
	_ = nonce[api.HNonceSize-1]

	x0, x1, x2, x3 := api.Sigma0, api.Sigma1, api.Sigma2, api.Sigma3
	x4 := binary.LittleEndian.Uint32(key[0:4])
	x5 := binary.LittleEndian.Uint32(key[4:8])
	x6 := binary.LittleEndian.Uint32(key[8:12])
	x7 := binary.LittleEndian.Uint32(key[12:16])
	x8 := binary.LittleEndian.Uint32(key[16:20])
	x9 := binary.LittleEndian.Uint32(key[20:24])
	x10 := binary.LittleEndian.Uint32(key[24:28])
	x11 := binary.LittleEndian.Uint32(key[28:32])
	x12 := binary.LittleEndian.Uint32(nonce[0:4])
	x13 := binary.LittleEndian.Uint32(nonce[4:8])
	x14 := binary.LittleEndian.Uint32(nonce[8:12])
	x15 := binary.LittleEndian.Uint32(nonce[12:16])

	for i := 0; i < rounds; i += 2 {
		x0, x4, x8, x12 = quarterRound(x0, x4, x8, x12)
		x1, x5, x9, x13 = quarterRound(x1, x5, x9, x13)
		x2, x6, x10, x14 = quarterRound(x2, x6, x10, x14)
		x3, x7, x11, x15 = quarterRound(x3, x7, x11, x15)

		x0, x5, x10, x15 = quarterRound(x0, x5, x10, x15)
		x1, x6, x11, x12 = quarterRound(x1, x6, x11, x12)
		x2, x7, x8, x13 = quarterRound(x2, x7, x8, x13)
		x3, x4, x9, x14 = quarterRound(x3, x4, x9, x14)
	}

	// No final addition here: HChaCha20 returns the words holding the
	// constants and the nonce, x0..x3 and x12..x15.
	_ = dst[api.HashSize-1] // Force bounds check elimination.
	binary.LittleEndian.PutUint32(dst[0:4], x0)
	binary.LittleEndian.PutUint32(dst[4:8], x1)
	binary.LittleEndian.PutUint32(dst[8:12], x2)
	binary.LittleEndian.PutUint32(dst[12:16], x3)
	binary.LittleEndian.PutUint32(dst[16:20], x12)
	binary.LittleEndian.PutUint32(dst[20:24], x13)
	binary.LittleEndian.PutUint32(dst[24:28], x14)
	binary.LittleEndian.PutUint32(dst[28:32], x15)
}

// Register appends the portable backend to impls and returns the new slice.
func Register(impls []api.Implementation) []api.Implementation {
	return append(impls, Impl)
}
