package main

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/jedisct1/dlog"
	"golang.org/x/crypto/scrypt"

	"github.com/jedisct1/go-chachapoly/chacha20"
)

// DeterministicRand - Deterministic random function
type DeterministicRand struct {
	pool []byte
	pos  int
}

var deterministicRand DeterministicRand

func initDeterministicRand(password []byte, poolLen int) {
	key, err := scrypt.Key(password, []byte{}, 16384, 12, 1, poolLen)
	if err != nil {
		dlog.Fatal(err)
	}
	deterministicRand.pool, deterministicRand.pos = key, 0
}

func (DeterministicRand) Read(p []byte) (n int, err error) {
	reqLen := len(p)
	left := len(deterministicRand.pool) - deterministicRand.pos
	if left < reqLen {
		panic(fmt.Sprintf("rand pool exhaustion (%v left, %v needed)", left, reqLen))
	}
	copy(p, deterministicRand.pool[deterministicRand.pos:deterministicRand.pos+reqLen])
	for i := 0; i < reqLen; i++ {
		deterministicRand.pool[deterministicRand.pos+i] = 0
	}
	deterministicRand.pos += reqLen

	return reqLen, nil
}

func genKeys(configFile string, password string) {
	randRead := rand.Read
	if len(password) > 0 {
		initDeterministicRand([]byte(password), 2*chacha20.KeySize)
		randRead = deterministicRand.Read
	}
	encryptSk := make([]byte, chacha20.KeySize)
	if _, err := randRead(encryptSk); err != nil {
		dlog.Fatal(err)
	}
	encryptSkHex := hex.EncodeToString(encryptSk)

	authSk := make([]byte, chacha20.KeySize)
	if _, err := randRead(authSk); err != nil {
		dlog.Fatal(err)
	}
	authSkHex := hex.EncodeToString(authSk)

	fmt.Printf("\n\n--- Create a file named %s with the lines below ---\n\n\n", configFile)
	fmt.Printf("# Keys for chachapoly - Key ID %v\n\n", keyIDStr(keyID(encryptSk)))
	fmt.Printf("EncryptSk = %q\n", encryptSkHex)
	fmt.Printf("AuthSk    = %q\n", authSkHex)
}

func getPassword(prompt string) string {
	os.Stdout.Write([]byte(prompt))
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		dlog.Fatal(err)
	}
	return strings.TrimSpace(password)
}
