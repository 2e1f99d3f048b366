// Package chacha20 implements the ChaCha20, IETF ChaCha20 and XChaCha20
// stream ciphers.
package chacha20

import (
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"math"

	"github.com/jedisct1/go-chachapoly/internal/api"
	"github.com/jedisct1/go-chachapoly/internal/hardware"
	"github.com/jedisct1/go-chachapoly/internal/ref"
)

const (
	// KeySize is the key size in bytes.
	KeySize = 32

	// NonceSize is the nonce size in bytes for the classic variant.
	NonceSize = 8

	// INonceSize is the nonce size in bytes for the IETF variant.
	INonceSize = 12

	// XNonceSize is the nonce size in bytes for the XChaCha20 variant.
	XNonceSize = 24

	// HNonceSize is the nonce size in bytes for the HChaCha20 function.
	HNonceSize = 16

	// BlockSize is the block size in bytes.
	BlockSize = 64
)

var (
	// ErrInvalidKey is returned when the key is not KeySize bytes.
	ErrInvalidKey = errors.New("chacha20: invalid key length")

	// ErrInvalidNonce is returned when the nonce is not NonceSize, INonceSize
	// or XNonceSize bytes.
	ErrInvalidNonce = errors.New("chacha20: invalid nonce length")

	// ErrInvalidCounter is returned when the block counter is out of range
	// for the variant in use.
	ErrInvalidCounter = errors.New("chacha20: invalid block counter")

	backends []api.Implementation
	active   api.Implementation

	_ cipher.Stream = (*Cipher)(nil)
)

// Cipher is a keyed ChaCha20, IETF ChaCha20 or XChaCha20 stream cipher
// instance.  Instances are not safe for concurrent use.
type Cipher struct {
	// input is the 16 word block function input: the four constant words,
	// then the key, the block counter and the nonce.
	input [api.StateSize]uint32

	// block holds key stream left over from the last partial block.  The
	// avail unconsumed bytes sit at the tail of block, and each byte is
	// zeroed as soon as it has been consumed.
	block [api.BlockSize]byte
	avail int

	ietf bool
}

// New returns a new instance keyed with the given key and nonce.  The variant
// is selected by the nonce length, and the block counter starts at 0.
func New(key, nonce []byte) (*Cipher, error) {
	var c Cipher
	if err := c.setup(key, nonce); err != nil {
		return nil, err
	}

	return &c, nil
}

// ReKey reinitializes the instance with the provided key and nonce.  The old
// key material is zeroed first, even on failure.
func (c *Cipher) ReKey(key, nonce []byte) error {
	c.Reset()
	return c.setup(key, nonce)
}

// Reset zeros the key material so that it no longer appears in the process's
// memory.  The instance is unusable until the next ReKey.
func (c *Cipher) Reset() {
	for i := range c.input {
		c.input[i] = 0
	}
	for i := range c.block {
		c.block[i] = 0
	}
	c.avail = 0
}

// Seek moves the block counter to blockCounter, so that the next output byte
// is the first byte of block blockCounter.  Any buffered key stream is
// discarded.  The IETF variant has a 32 bit counter, and larger values return
// ErrInvalidCounter.
func (c *Cipher) Seek(blockCounter uint64) error {
	lo, hi := uint32(blockCounter), uint32(blockCounter>>32)
	if c.ietf {
		if hi != 0 {
			return ErrInvalidCounter
		}
		c.input[12] = lo
	} else {
		c.input[12], c.input[13] = lo, hi
	}
	c.avail = 0
	return nil
}

// XORKeyStream sets dst to the result of XORing src with the key stream.  Dst
// and src may be the same slice but otherwise should not overlap.  If the
// lengths differ, only min(len(dst), len(src)) bytes are processed.  The IETF
// variant can produce at most 2^32 - 1 blocks of key stream for a given
// nonce, and the call panics when that limit would be exceeded.
func (c *Cipher) XORKeyStream(dst, src []byte) {
	if len(dst) > len(src) {
		dst = dst[:len(src)]
	}
	if len(src) > len(dst) {
		src = src[:len(dst)]
	}
	c.stream(dst, src)
}

// KeyStream sets dst to the raw key stream.  The IETF variant can produce at
// most 2^32 - 1 blocks of key stream for a given nonce, and the call panics
// when that limit would be exceeded.
func (c *Cipher) KeyStream(dst []byte) {
	c.stream(dst, nil)
}

// stream writes key stream to dst, XORed with src unless src is nil.  When
// src is not nil it must be exactly as long as dst.
func (c *Cipher) stream(dst, src []byte) {
	// Serve whatever is left over from the last partial block first.
	if c.avail > 0 {
		n := c.consume(dst, src)
		dst = dst[n:]
		if src != nil {
			src = src[n:]
		}
	}
	if len(dst) == 0 {
		return
	}

	// Whole blocks go straight to dst without staging.
	if direct := len(dst) &^ (api.BlockSize - 1); direct > 0 {
		c.generate(dst[:direct], src, direct/api.BlockSize)
		dst = dst[direct:]
		if src != nil {
			src = src[direct:]
		}
	}

	// The tail is served out of one freshly buffered block.
	if len(dst) > 0 {
		c.generate(c.block[:], nil, 1)
		c.avail = api.BlockSize
		c.consume(dst, src)
	}
}

// consume moves up to avail bytes of buffered key stream into dst, XORing
// with src unless src is nil, and returns the number of bytes written.
// Consumed key stream bytes are zeroed.
func (c *Cipher) consume(dst, src []byte) int {
	n := len(dst)
	if n > c.avail {
		n = c.avail
	}
	if n == 0 {
		return 0
	}

	// Reslice to eliminate bounds checks.
	ks := c.block[api.BlockSize-c.avail:]
	ks = ks[:n]
	dst = dst[:n]
	if src != nil {
		src = src[:n]
		for i := range ks {
			dst[i] = src[i] ^ ks[i]
			ks[i] = 0
		}
	} else {
		for i := range ks {
			dst[i] = ks[i]
			ks[i] = 0
		}
	}
	c.avail -= n

	return n
}

// generate produces nrBlocks blocks of key stream via the active backend,
// advancing the block counter.
func (c *Cipher) generate(dst, src []byte, nrBlocks int) {
	if c.ietf && uint64(c.input[12])+uint64(nrBlocks) > math.MaxUint32 {
		panic("chacha20: key stream for this nonce is exhausted")
	}

	active.Blocks(&c.input, dst, src, nrBlocks)
}

func (c *Cipher) setup(key, nonce []byte) error {
	if len(key) != KeySize {
		return ErrInvalidKey
	}

	var subKey [KeySize]byte
	switch len(nonce) {
	case NonceSize, INonceSize:
	case XNonceSize:
		// XChaCha20 is the classic variant keyed with
		// HChaCha20(key, nonce[0:16]) and using nonce[16:24] as the nonce.
		active.HChaCha(key, nonce[:api.HNonceSize], subKey[:])
		key = subKey[:]
		nonce = nonce[api.HNonceSize:]
	default:
		return ErrInvalidNonce
	}
	c.ietf = len(nonce) == INonceSize

	c.input[0] = api.Sigma0
	c.input[1] = api.Sigma1
	c.input[2] = api.Sigma2
	c.input[3] = api.Sigma3
	for i := 0; i < 8; i++ {
		c.input[4+i] = binary.LittleEndian.Uint32(key[4*i:])
	}
	c.input[12] = 0
	if c.ietf {
		c.input[13] = binary.LittleEndian.Uint32(nonce[0:4])
		c.input[14] = binary.LittleEndian.Uint32(nonce[4:8])
		c.input[15] = binary.LittleEndian.Uint32(nonce[8:12])
	} else {
		c.input[13] = 0
		c.input[14] = binary.LittleEndian.Uint32(nonce[0:4])
		c.input[15] = binary.LittleEndian.Uint32(nonce[4:8])
	}
	c.avail = 0

	for i := range subKey {
		subKey[i] = 0
	}

	return nil
}

// HChaCha is the HChaCha20 hash function used to build XChaCha20.  The key
// must be KeySize bytes and the nonce HNonceSize bytes.
func HChaCha(key, nonce []byte, dst *[32]byte) {
	active.HChaCha(key, nonce, dst[:])
}

func init() {
	// Backends register in order of preference.  The reference backend is
	// always present, so the list is never empty.
	backends = hardware.Register(backends)
	backends = ref.Register(backends)
	active = backends[0]
}
