// Package api defines the interface implemented by every ChaCha20 backend,
// along with the constants shared between the public package and the backends.
package api

const (
	// BlockSize is the size of a ChaCha20 block in bytes.
	BlockSize = 64

	// StateSize is the number of 32 bit words in the ChaCha20 state.
	StateSize = 16

	// HashSize is the size of the HChaCha20 output in bytes.
	HashSize = 32

	// HNonceSize is the HChaCha20 nonce size in bytes.
	HNonceSize = 16

	// Sigma0 is the first word of the ChaCha constant ("expa").
	Sigma0 = uint32(0x61707865)

	// Sigma1 is the second word of the ChaCha constant ("nd 3").
	Sigma1 = uint32(0x3320646e)

	// Sigma2 is the third word of the ChaCha constant ("2-by").
	Sigma2 = uint32(0x79622d32)

	// Sigma3 is the fourth word of the ChaCha constant ("te k").
	Sigma3 = uint32(0x6b206574)
)

// Implementation is a ChaCha20 backend.
type Implementation interface {
	// Name returns the name of the backend.
	Name() string

	// Blocks computes nrBlocks 64 byte ChaCha20 blocks, advancing the counter
	// words of x after each one.  If src is not nil, dst receives the XOR of
	// src with the key stream, otherwise dst receives the raw key stream.
	// Both slices must hold at least nrBlocks * BlockSize bytes.
	Blocks(x *[StateSize]uint32, dst, src []byte, nrBlocks int)

	// HChaCha computes the HChaCha20 function, writing its HashSize byte
	// output to dst.
	HChaCha(key, nonce, dst []byte)
}
