// Package keyfile writes a found Ed25519 key pair to disk in the layout
// Tor's hidden-service directory expects: hostname, hs_ed25519_public_key,
// hs_ed25519_secret_key, and an empty authorized_clients directory.
package keyfile

import (
	"crypto/ed25519"
	"crypto/sha512"
	"os"
	"path/filepath"

	"filippo.io/edwards25519"

	"github.com/vanitytor/vanityengine/pkg/vanity"
	"github.com/vanitytor/vanityengine/pkg/vanity/onion"
)

const (
	publicKeyTag = "== ed25519v1-public: type0 ==\x00\x00\x00"
	secretKeyTag = "== ed25519v1-secret: type0 ==\x00\x00\x00"

	dirMode  = 0700
	fileMode = 0600
)

// ExpandSeed expands a 32-byte Ed25519 seed into the 64-byte clamped
// scalar Tor stores as hs_ed25519_secret_key, following RFC 8032's
// key-clamping: SHA-512(seed), then clear the low 3 bits of byte 0, clear
// the high bit and set bit 254 of byte 31.
func ExpandSeed(seed []byte) [64]byte {
	h := sha512.Sum512(seed)
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64
	return h
}

// Write creates dir (one subdirectory per claimed pattern) and populates
// it with hostname, hs_ed25519_public_key, hs_ed25519_secret_key, and an
// empty authorized_clients subdirectory, then returns the full ".onion"
// address. seed must be the 32-byte Ed25519 seed used to derive pub.
func Write(dir string, seed []byte, pub ed25519.PublicKey) (string, error) {
	if len(seed) != ed25519.SeedSize {
		return "", vanity.NewIoError(os.ErrInvalid)
	}
	address, err := onion.EncodeAddress(pub)
	if err != nil {
		return "", vanity.NewIoError(err)
	}

	if err := os.MkdirAll(filepath.Join(dir, "authorized_clients"), dirMode); err != nil {
		return "", vanity.NewIoError(err)
	}

	secret := ExpandSeed(seed)
	secretFile := append([]byte(secretKeyTag), secret[:]...)
	if err := os.WriteFile(filepath.Join(dir, "hs_ed25519_secret_key"), secretFile, fileMode); err != nil {
		return "", vanity.NewIoError(err)
	}

	publicFile := append([]byte(publicKeyTag), pub...)
	if err := os.WriteFile(filepath.Join(dir, "hs_ed25519_public_key"), publicFile, fileMode); err != nil {
		return "", vanity.NewIoError(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "hostname"), []byte(address+"\n"), fileMode); err != nil {
		return "", vanity.NewIoError(err)
	}

	return address, nil
}

// Verify re-derives and re-parses a key pair before it is written to
// disk and handed to Tor. crypto/ed25519 will sign and verify with a
// non-canonically-encoded point, but Tor's own parser rejects one; a
// device-reported or otherwise corrupted candidate should fail here
// rather than surface as a hidden service that silently won't start.
func Verify(seed []byte, pub ed25519.PublicKey) error {
	if len(seed) != ed25519.SeedSize {
		return vanity.NewIoError(os.ErrInvalid)
	}
	if _, err := new(edwards25519.Point).SetBytes(pub); err != nil {
		return vanity.NewIoError(err)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	if !pub.Equal(priv.Public().(ed25519.PublicKey)) {
		return vanity.NewIoError(os.ErrInvalid)
	}
	return nil
}
