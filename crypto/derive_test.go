package crypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/solana-nft-programs/rental-resolver/common"
)

var testProgram = common.BytesToAddress(bytes.Repeat([]byte{0x11}, 32))

func TestFindProgramAddressDeterministic(t *testing.T) {
	seeds := [][]byte{[]byte("time-invalidator"), bytes.Repeat([]byte{0x22}, 32)}
	a1, bump1, err := FindProgramAddress(seeds, testProgram)
	if err != nil {
		t.Fatalf("derivation failed: %v", err)
	}
	a2, bump2, err := FindProgramAddress(seeds, testProgram)
	if err != nil {
		t.Fatalf("derivation failed: %v", err)
	}
	if a1 != a2 || bump1 != bump2 {
		t.Fatalf("derivation not deterministic: %s/%d vs %s/%d", a1, bump1, a2, bump2)
	}
	if a1.IsZero() {
		t.Fatalf("derived zero address")
	}
}

func TestFindProgramAddressBumpReproducible(t *testing.T) {
	seeds := [][]byte{[]byte("use-invalidator"), bytes.Repeat([]byte{0x33}, 32)}
	addr, bump, err := FindProgramAddress(seeds, testProgram)
	if err != nil {
		t.Fatalf("derivation failed: %v", err)
	}
	again, err := CreateProgramAddress(append(seeds, []byte{bump}), testProgram)
	if err != nil {
		t.Fatalf("re-derivation with bump failed: %v", err)
	}
	if addr != again {
		t.Fatalf("bump re-derivation mismatch: %s vs %s", addr, again)
	}
}

func TestFindProgramAddressSeedSensitivity(t *testing.T) {
	base := bytes.Repeat([]byte{0x44}, 32)
	a, _, err := FindProgramAddress([][]byte{[]byte("a"), base}, testProgram)
	if err != nil {
		t.Fatalf("derivation failed: %v", err)
	}
	b, _, err := FindProgramAddress([][]byte{[]byte("b"), base}, testProgram)
	if err != nil {
		t.Fatalf("derivation failed: %v", err)
	}
	if a == b {
		t.Fatalf("different seeds derived the same address")
	}
}

func TestCreateProgramAddressSeedLimits(t *testing.T) {
	long := make([]byte, MaxSeedLength+1)
	if _, err := CreateProgramAddress([][]byte{long}, testProgram); !errors.Is(err, ErrSeedTooLong) {
		t.Fatalf("expected ErrSeedTooLong, got %v", err)
	}
	many := make([][]byte, MaxSeeds+1)
	for i := range many {
		many[i] = []byte{byte(i)}
	}
	if _, err := CreateProgramAddress(many, testProgram); !errors.Is(err, ErrTooManySeeds) {
		t.Fatalf("expected ErrTooManySeeds, got %v", err)
	}
}
