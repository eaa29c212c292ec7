package common

import (
	"bytes"
	"testing"
)

func TestAddressBase58RoundTrip(t *testing.T) {
	raw := make([]byte, AddressLength)
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	a := BytesToAddress(raw)
	dec, err := Base58ToAddress(a.String())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if dec != a {
		t.Fatalf("round trip mismatch: %s != %s", dec, a)
	}
	if !bytes.Equal(dec.Bytes(), raw) {
		t.Fatalf("byte mismatch")
	}
}

func TestBase58ToAddressRejectsInvalid(t *testing.T) {
	if _, err := Base58ToAddress("not-base58-0OIl"); err == nil {
		t.Fatalf("expected error for invalid alphabet")
	}
	// Valid base58 but wrong length.
	if _, err := Base58ToAddress("3yZe7d"); err == nil {
		t.Fatalf("expected error for short address")
	}
}

func TestAddressIsZero(t *testing.T) {
	var a Address
	if !a.IsZero() {
		t.Fatalf("zero address not reported as zero")
	}
	a[31] = 1
	if a.IsZero() {
		t.Fatalf("nonzero address reported as zero")
	}
}

func TestAddressTextMarshal(t *testing.T) {
	a := BytesToAddress([]byte{0xde, 0xad, 0xbe, 0xef})
	enc, err := a.MarshalText()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var b Address
	if err := b.UnmarshalText(enc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if a != b {
		t.Fatalf("text round trip mismatch")
	}
}
