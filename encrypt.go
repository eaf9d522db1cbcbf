package main

import (
	"errors"
	"log"
	"os"

	"github.com/speedrun-hq/gasfutures-relayer/pkg/keystore"
)

var errNotAuthorized = errors.New("relayer is not an authorized caller of the settlement contract")

// encryptKey implements `encrypt-key <output path>`: it encrypts PRIVATE_KEY
// with KEY_PASSWORD and writes the file ENCRYPTED_KEY_PATH expects
func encryptKey(args []string) {
	if len(args) != 1 {
		log.Fatalf("usage: %s encrypt-key <output path>", os.Args[0])
	}

	data, err := keystore.EncryptKey(os.Getenv("PRIVATE_KEY"), os.Getenv("KEY_PASSWORD"))
	if err != nil {
		log.Fatalf("Failed to encrypt key: %v", err)
	}
	if err := os.WriteFile(args[0], data, 0o600); err != nil {
		log.Fatalf("Failed to write %s: %v", args[0], err)
	}
	log.Printf("Encrypted key written to %s", args[0])
}
