package keyfile

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanitytor/vanityengine/pkg/vanity/onion"
)

func TestWriteProducesWellFormedDirectory(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		t.Fatal(err)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	dir := t.TempDir()
	address, err := Write(dir, seed, pub)
	if err != nil {
		t.Fatal(err)
	}

	wantAddress, err := onion.EncodeAddress(pub)
	if err != nil {
		t.Fatal(err)
	}
	if address != wantAddress {
		t.Fatalf("got address %q, want %q", address, wantAddress)
	}

	hostname, err := os.ReadFile(filepath.Join(dir, "hostname"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(hostname)) != address {
		t.Fatalf("hostname file contents %q do not match address %q", hostname, address)
	}

	pubFile, err := os.ReadFile(filepath.Join(dir, "hs_ed25519_public_key"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(pubFile, []byte(publicKeyTag)) {
		t.Fatalf("public key file missing expected tag")
	}
	if !bytes.Equal(pubFile[len(publicKeyTag):], pub) {
		t.Fatalf("public key file does not contain the raw public key")
	}

	secretFile, err := os.ReadFile(filepath.Join(dir, "hs_ed25519_secret_key"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(secretFile, []byte(secretKeyTag)) {
		t.Fatalf("secret key file missing expected tag")
	}
	wantSecret := ExpandSeed(seed)
	if !bytes.Equal(secretFile[len(secretKeyTag):], wantSecret[:]) {
		t.Fatalf("secret key file does not match expanded seed")
	}

	info, err := os.Stat(filepath.Join(dir, "authorized_clients"))
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Fatalf("authorized_clients is not a directory")
	}
}

func TestExpandSeedClampsScalar(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	expanded := ExpandSeed(seed)
	if expanded[0]&0x07 != 0 {
		t.Fatalf("low 3 bits of byte 0 not cleared: %08b", expanded[0])
	}
	if expanded[31]&0x80 != 0 {
		t.Fatalf("high bit of byte 31 not cleared: %08b", expanded[31])
	}
	if expanded[31]&0x40 == 0 {
		t.Fatalf("bit 6 of byte 31 not set: %08b", expanded[31])
	}
}

func TestWriteRejectsWrongSeedLength(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Write(t.TempDir(), []byte("short"), priv.Public().(ed25519.PublicKey)); err == nil {
		t.Fatalf("expected an error for a short seed")
	}
}

func TestVerifyAcceptsMatchingPair(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		t.Fatal(err)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	if err := Verify(seed, pub); err != nil {
		t.Fatalf("Verify rejected a genuine pair: %v", err)
	}
}

func TestVerifyRejectsMismatchedPair(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		t.Fatal(err)
	}
	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	if err := Verify(seed, otherPub); err == nil {
		t.Fatalf("expected an error for a public key that does not match the seed")
	}
}

func TestVerifyRejectsMalformedPoint(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		t.Fatal(err)
	}
	bad := make(ed25519.PublicKey, ed25519.PublicKeySize)
	for i := range bad {
		bad[i] = 0xff
	}

	if err := Verify(seed, bad); err == nil {
		t.Fatalf("expected an error for a non-canonical point")
	}
}
