// Package onion implements the Tor v3 onion address encoding: mapping a
// 32-byte Ed25519 public key to its 56-character base32 name, and the
// reverse decode used for validation and tests.
package onion

import (
	"bytes"
	"fmt"

	"golang.org/x/crypto/sha3"

	"encoding/base32"
)

const (
	// Version is the only supported onion service version.
	Version byte = 0x03

	// NameLength is the length of the base32-encoded name portion,
	// without the ".onion" suffix.
	NameLength = 56

	// AddressLength is the full address length including ".onion".
	AddressLength = NameLength + len(Suffix)

	// Suffix is appended to every v3 onion name.
	Suffix = ".onion"

	checksumDomain = ".onion checksum"
	pubkeyLen      = 32
	checksumLen    = 2
)

// lowerEncoding is RFC 4648's base32 alphabet, lowercased, unpadded —
// the encoding Tor uses for onion names.
var lowerEncoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// Checksum computes the 2-byte onion-address checksum for pubkey:
// SHA3-256(".onion checksum" || pubkey || version)[:2].
func Checksum(pubkey []byte) [checksumLen]byte {
	h := sha3.New256()
	h.Write([]byte(checksumDomain))
	h.Write(pubkey)
	h.Write([]byte{Version})
	sum := h.Sum(nil)
	var out [checksumLen]byte
	copy(out[:], sum[:checksumLen])
	return out
}

// EncodeAddress returns the full ".onion" address for a 32-byte Ed25519
// public key.
func EncodeAddress(pubkey []byte) (string, error) {
	name, err := EncodeName(pubkey)
	if err != nil {
		return "", err
	}
	return name + Suffix, nil
}

// EncodeName returns the 56-character base32 name portion (without
// ".onion") for a 32-byte Ed25519 public key.
func EncodeName(pubkey []byte) (string, error) {
	if len(pubkey) != pubkeyLen {
		return "", fmt.Errorf("onion: public key must be %d bytes, got %d", pubkeyLen, len(pubkey))
	}
	checksum := Checksum(pubkey)

	buf := make([]byte, 0, pubkeyLen+checksumLen+1)
	buf = append(buf, pubkey...)
	buf = append(buf, checksum[:]...)
	buf = append(buf, Version)

	name := lowerEncoding.EncodeToString(buf)
	if len(name) != NameLength {
		return "", fmt.Errorf("onion: encoded name has unexpected length %d", len(name))
	}
	return name, nil
}

// DecodeName parses a 56-character onion name (without ".onion") back
// into its 32-byte public key, verifying the checksum and version byte.
func DecodeName(name string) (pubkey []byte, err error) {
	if len(name) != NameLength {
		return nil, fmt.Errorf("onion: name must be %d characters, got %d", NameLength, len(name))
	}
	raw, err := lowerEncoding.DecodeString(name)
	if err != nil {
		return nil, fmt.Errorf("onion: invalid base32 name: %w", err)
	}
	if len(raw) != pubkeyLen+checksumLen+1 {
		return nil, fmt.Errorf("onion: decoded name has unexpected length %d", len(raw))
	}

	pub := raw[:pubkeyLen]
	checksum := raw[pubkeyLen : pubkeyLen+checksumLen]
	version := raw[pubkeyLen+checksumLen]

	if version != Version {
		return nil, fmt.Errorf("onion: unsupported version byte 0x%02x", version)
	}
	want := Checksum(pub)
	if !bytes.Equal(checksum, want[:]) {
		return nil, fmt.Errorf("onion: checksum mismatch")
	}
	return pub, nil
}
