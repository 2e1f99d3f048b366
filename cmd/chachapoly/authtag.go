package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/jedisct1/dlog"

	"github.com/jedisct1/go-chachapoly/chacha20"
	"github.com/jedisct1/go-chachapoly/poly1305"
)

// oneTimeKey derives a single use Poly1305 key from the long term
// authentication key and a nonce, as the first 32 bytes of the ChaCha20 key
// stream.  The nonce must never be reused with the same key.
func oneTimeKey(authSk, nonce []byte) (*[poly1305.KeySize]byte, error) {
	cipher, err := chacha20.New(authSk, nonce)
	if err != nil {
		return nil, err
	}
	var key [poly1305.KeySize]byte
	cipher.KeyStream(key[:])
	cipher.Reset()
	return &key, nil
}

// authMessage returns a fresh nonce followed by the Poly1305 tag of content
// under the key derived from that nonce.
func authMessage(conf Conf, content []byte) ([]byte, error) {
	nonce := make([]byte, chacha20.XNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	key, err := oneTimeKey(conf.AuthSk, nonce)
	if err != nil {
		return nil, err
	}
	var tag [poly1305.Size]byte
	poly1305.Sum(&tag, content, key)
	return append(nonce, tag[:]...), nil
}

// verifyMessage checks a nonce plus tag blob produced by authMessage.
func verifyMessage(conf Conf, content, nonceTag []byte) (bool, error) {
	if len(nonceTag) != chacha20.XNonceSize+poly1305.Size {
		return false, fmt.Errorf("tag must be %v bytes (%v found)",
			chacha20.XNonceSize+poly1305.Size, len(nonceTag))
	}
	key, err := oneTimeKey(conf.AuthSk, nonceTag[:chacha20.XNonceSize])
	if err != nil {
		return false, err
	}
	var tag [poly1305.Size]byte
	copy(tag[:], nonceTag[chacha20.XNonceSize:])
	return poly1305.Verify(&tag, content, key), nil
}

func authOperation(conf Conf) {
	if conf.AuthSk == nil {
		dlog.Fatal("missing AuthSk in the configuration file - Run -genkeys to create one")
	}
	content, err := ioutil.ReadAll(os.Stdin)
	if err != nil {
		dlog.Fatal(err)
	}
	nonceTag, err := authMessage(conf, content)
	if err != nil {
		dlog.Fatal(err)
	}
	fmt.Println(hex.EncodeToString(nonceTag))
}

func verifyOperation(conf Conf, tagStr string) {
	if conf.AuthSk == nil {
		dlog.Fatal("missing AuthSk in the configuration file - Run -genkeys to create one")
	}
	if tagStr == "" {
		dlog.Fatal("-verify requires a tag, pass the -auth output via -tag")
	}
	nonceTag, err := hex.DecodeString(tagStr)
	if err != nil {
		dlog.Fatal(err)
	}
	content, err := ioutil.ReadAll(os.Stdin)
	if err != nil {
		dlog.Fatal(err)
	}
	ok, err := verifyMessage(conf, content, nonceTag)
	if err != nil {
		dlog.Fatal(err)
	}
	if !ok {
		dlog.Fatal("incorrect authentication tag")
	}
	fmt.Println("OK")
}
