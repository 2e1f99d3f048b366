package main

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/jedisct1/dlog"

	"github.com/jedisct1/go-chachapoly/chacha20"
	"github.com/jedisct1/go-chachapoly/poly1305"
)

func mustUnhex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// selfTest checks the primitives against the RFC 8439 and XChaCha20 test
// vectors and returns the first failure.
func selfTest() error {
	key := mustUnhex("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")

	// ChaCha20 block function, RFC 8439 section 2.3.2.
	cipher, err := chacha20.New(key, mustUnhex("000000090000004a00000000"))
	if err != nil {
		return err
	}
	if err = cipher.Seek(1); err != nil {
		return err
	}
	block := make([]byte, chacha20.BlockSize)
	cipher.KeyStream(block)
	if !bytes.Equal(block, mustUnhex("10f1e7e4d13b5915500fdd1fa32071c4c7d1f4c733c068030422aa9ac3d46c4e"+
		"d2826446079faa0914c2d705d98b02a2b5129cd1de164eb9cbd083e8a2503c4e")) {
		return fmt.Errorf("chacha20 block function mismatch")
	}

	// ChaCha20 encryption, RFC 8439 section 2.4.2.
	cipher, err = chacha20.New(key, mustUnhex("000000000000004a00000000"))
	if err != nil {
		return err
	}
	if err = cipher.Seek(1); err != nil {
		return err
	}
	plaintext := []byte("Ladies and Gentlemen of the class of '99: If I could offer you " +
		"only one tip for the future, sunscreen would be it.")
	ciphertext := make([]byte, len(plaintext))
	cipher.XORKeyStream(ciphertext, plaintext)
	if !bytes.Equal(ciphertext, mustUnhex("6e2e359a2568f98041ba0728dd0d6981e97e7aec1d4360c20a27afccfd9fae0b"+
		"f91b65c5524733ab8f593dabcd62b3571639d624e65152ab8f530c359f0861d8"+
		"07ca0dbf500d6a6156a38e088a22b65e52bc514d16ccf806818ce91ab7793736"+
		"5af90bbf74a35be6b40b8eedf2785e42874d")) {
		return fmt.Errorf("chacha20 encryption mismatch")
	}

	// HChaCha20, draft-irtf-cfrg-xchacha section 2.2.1.
	var subKey [32]byte
	chacha20.HChaCha(key, mustUnhex("000000090000004a0000000031415927"), &subKey)
	if !bytes.Equal(subKey[:], mustUnhex("82413b4227b27bfed30e42508a877d73a0f9e4d58a74a853c12ec41326d3ecdc")) {
		return fmt.Errorf("hchacha20 mismatch")
	}

	// Poly1305, RFC 8439 section 2.5.2.
	var polyKey [poly1305.KeySize]byte
	copy(polyKey[:], mustUnhex("85d6be7857556d337f4452fe42d506a80103808afb0db2fd4abff6af4149f51b"))
	var tag [poly1305.Size]byte
	poly1305.Sum(&tag, []byte("Cryptographic Forum Research Group"), &polyKey)
	if !bytes.Equal(tag[:], mustUnhex("a8061dc1305136c6c22b8baf0c0127a9")) {
		return fmt.Errorf("poly1305 tag mismatch")
	}

	// One time key derivation, RFC 8439 section 2.6.2.
	otk, err := oneTimeKey(mustUnhex("808182838485868788898a8b8c8d8e8f909192939495969798999a9b9c9d9e9f"),
		mustUnhex("000000000001020304050607"))
	if err != nil {
		return err
	}
	if !bytes.Equal(otk[:], mustUnhex("8ad5a08b905f81cc815040274ab29471a833b637e3fd0da508dbb8e2fdd1a646")) {
		return fmt.Errorf("one time key derivation mismatch")
	}

	// XChaCha20 round trip.
	nonce := mustUnhex("404142434445464748494a4b4c4d4e4f5051525354555657")
	cipher, err = chacha20.New(key, nonce)
	if err != nil {
		return err
	}
	cipher.XORKeyStream(ciphertext, plaintext)
	cipher, err = chacha20.New(key, nonce)
	if err != nil {
		return err
	}
	decrypted := make([]byte, len(ciphertext))
	cipher.XORKeyStream(decrypted, ciphertext)
	if !bytes.Equal(decrypted, plaintext) {
		return fmt.Errorf("xchacha20 round trip mismatch")
	}

	return nil
}

func selfTestOperation() {
	if err := selfTest(); err != nil {
		dlog.Fatal(err)
	}
	dlog.Notice("all test vectors passed")
}
