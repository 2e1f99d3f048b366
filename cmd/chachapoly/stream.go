package main

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/jedisct1/dlog"

	"github.com/jedisct1/go-chachapoly/chacha20"
)

// sealStream encrypts content under a fresh random nonce.  The output is
// the encryption key ID, followed by the nonce, followed by the ciphertext.
func sealStream(conf Conf, content []byte) ([]byte, error) {
	nonce := make([]byte, chacha20.XNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	cipher, err := chacha20.New(conf.EncryptSk, nonce)
	if err != nil {
		return nil, err
	}
	blob := make([]byte, KeyIDSize+chacha20.XNonceSize+len(content))
	copy(blob, conf.EncryptSkID)
	copy(blob[KeyIDSize:], nonce)
	cipher.XORKeyStream(blob[KeyIDSize+chacha20.XNonceSize:], content)
	cipher.Reset()
	return blob, nil
}

// openStream decrypts a blob produced by sealStream.  It provides no
// integrity check beyond the key ID, use -auth/-verify for that.
func openStream(conf Conf, blob []byte) ([]byte, error) {
	if len(blob) < KeyIDSize+chacha20.XNonceSize {
		return nil, errors.New("truncated input")
	}
	encryptSkID := blob[0:KeyIDSize]
	if bytes.Equal(conf.EncryptSkID, encryptSkID) == false {
		return nil, fmt.Errorf("configured key ID is %v but the input was encrypted using key ID %v",
			keyIDStr(conf.EncryptSkID), keyIDStr(encryptSkID))
	}
	nonce := blob[KeyIDSize : KeyIDSize+chacha20.XNonceSize]
	cipher, err := chacha20.New(conf.EncryptSk, nonce)
	if err != nil {
		return nil, err
	}
	content := make([]byte, len(blob)-KeyIDSize-chacha20.XNonceSize)
	cipher.XORKeyStream(content, blob[KeyIDSize+chacha20.XNonceSize:])
	cipher.Reset()
	return content, nil
}

func encryptOperation(conf Conf) {
	if conf.EncryptSk == nil {
		dlog.Fatal("missing EncryptSk in the configuration file - Run -genkeys to create one")
	}
	if IsTerminal(int(os.Stdout.Fd())) {
		dlog.Fatal("not going to write binary data to a terminal - Redirect the output to a file or a pipe")
	}
	content, err := ioutil.ReadAll(os.Stdin)
	if err != nil {
		dlog.Fatal(err)
	}
	blob, err := sealStream(conf, content)
	if err != nil {
		dlog.Fatal(err)
	}
	if _, err = os.Stdout.Write(blob); err != nil {
		dlog.Fatal(err)
	}
}

func decryptOperation(conf Conf) {
	if conf.EncryptSk == nil {
		dlog.Fatal("missing EncryptSk in the configuration file - Run -genkeys to create one")
	}
	blob, err := ioutil.ReadAll(os.Stdin)
	if err != nil {
		dlog.Fatal(err)
	}
	content, err := openStream(conf, blob)
	if err != nil {
		dlog.Fatal(err)
	}
	if _, err = os.Stdout.Write(content); err != nil {
		dlog.Fatal(err)
	}
}
