package main

import (
	"encoding/binary"
	"fmt"

	blake2b "github.com/minio/blake2b-simd"
)

// KeyIDSize - Size of a derived key ID in bytes
const KeyIDSize = 8

// keyID derives a short public identifier from a secret key, so that content
// encrypted with one key is never silently fed to another.
func keyID(key []byte) []byte {
	hf, _ := blake2b.New(&blake2b.Config{
		Person: []byte(DomainStr),
		Size:   KeyIDSize,
	})
	hf.Write(key)
	return hf.Sum(nil)
}

func keyIDStr(id []byte) string {
	return fmt.Sprintf("%v", binary.LittleEndian.Uint64(id))
}
