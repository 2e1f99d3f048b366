package main

import (
	"encoding/hex"
	"flag"
	"io/ioutil"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/jedisct1/dlog"
	homedir "github.com/mitchellh/go-homedir"

	"github.com/jedisct1/go-chachapoly/chacha20"
)

// DomainStr - BLAKE2b personalization string for key IDs
const DomainStr = "CP"

type tomlConfig struct {
	EncryptSk string
	AuthSk    string
}

// Conf - Shared config
type Conf struct {
	EncryptSk   []byte
	EncryptSkID []byte
	AuthSk      []byte
}

func expandConfigFile(path string) string {
	file, err := homedir.Expand(path)
	if err != nil {
		dlog.Fatal(err)
	}
	return file
}

func decodeConf(tomlConf tomlConfig) Conf {
	var conf Conf
	if encryptSkHex := tomlConf.EncryptSk; encryptSkHex != "" {
		encryptSk, err := hex.DecodeString(encryptSkHex)
		if err != nil {
			dlog.Fatal(err)
		}
		if len(encryptSk) != chacha20.KeySize {
			dlog.Fatalf("EncryptSk must be %v bytes (%v found)",
				chacha20.KeySize, len(encryptSk))
		}
		conf.EncryptSk = encryptSk
		conf.EncryptSkID = keyID(encryptSk)
	}
	if authSkHex := tomlConf.AuthSk; authSkHex != "" {
		authSk, err := hex.DecodeString(authSkHex)
		if err != nil {
			dlog.Fatal(err)
		}
		if len(authSk) != chacha20.KeySize {
			dlog.Fatalf("AuthSk must be %v bytes (%v found)",
				chacha20.KeySize, len(authSk))
		}
		conf.AuthSk = authSk
	}
	return conf
}

func main() {
	dlog.Init("chachapoly", dlog.SeverityNotice, "DAEMON")

	isEncrypt := flag.Bool("encrypt", false, "encrypt the standard input to the standard output")
	isDecrypt := flag.Bool("decrypt", false, "decrypt the standard input to the standard output")
	isAuth := flag.Bool("auth", false, "print an authentication tag for the standard input")
	isVerify := flag.Bool("verify", false, "verify an authentication tag (requires -tag)")
	tagStr := flag.String("tag", "", "hex encoded authentication tag, as printed by -auth")
	isGenKeys := flag.Bool("genkeys", false, "generate keys")
	isPassword := flag.Bool("password", false, "derive the keys from a password (with -genkeys)")
	isSelfTest := flag.Bool("selftest", false, "check the primitives against the built in test vectors")
	defaultConfigFile := "~/.chachapoly.toml"
	if runtime.GOOS == "windows" {
		defaultConfigFile = "~/chachapoly.toml"
	}
	configFile := flag.String("config", defaultConfigFile, "configuration file")
	flag.Parse()

	if *isSelfTest {
		selfTestOperation()
		return
	}
	if *isGenKeys {
		password := ""
		if *isPassword {
			password = getPassword("Password: ")
		}
		genKeys(*configFile, password)
		return
	}

	tomlData, err := ioutil.ReadFile(expandConfigFile(*configFile))
	if err != nil {
		dlog.Fatal(err)
	}
	var tomlConf tomlConfig
	if _, err = toml.Decode(string(tomlData), &tomlConf); err != nil {
		dlog.Fatal(err)
	}
	conf := decodeConf(tomlConf)

	switch {
	case *isEncrypt:
		encryptOperation(conf)
	case *isDecrypt:
		decryptOperation(conf)
	case *isAuth:
		authOperation(conf)
	case *isVerify:
		verifyOperation(conf, *tagStr)
	default:
		flag.Usage()
	}
}
