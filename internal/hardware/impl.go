// Package hardware is the registration point for accelerated ChaCha20
// backends.  Platforms without one fall back to the portable backend.
package hardware

import (
	"github.com/jedisct1/go-chachapoly/internal/api"
)

var hardwareImpls []api.Implementation

// Register appends the hardware backends available on this platform to impls
// and returns the new slice.
func Register(impls []api.Implementation) []api.Implementation {
	return append(impls, hardwareImpls...)
}
