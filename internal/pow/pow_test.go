package pow

import (
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strconv"
	"testing"
)

// fakeBlock is a minimal pow.Block used to drive the nonce search in
// isolation from the real block types.
type fakeBlock struct {
	prefix string
	nonce  int
}

func (b *fakeBlock) ComputeHash() string {
	sum := sha256.Sum256([]byte(b.prefix + strconv.Itoa(b.nonce)))
	return hex.EncodeToString(sum[:])
}
func (b *fakeBlock) GetNonce() int  { return b.nonce }
func (b *fakeBlock) SetNonce(n int) { b.nonce = n }

func defaultTarget(t *testing.T) *big.Int {
	t.Helper()
	target, err := NBitsToTarget(DefaultNBits)
	if err != nil {
		t.Fatalf("NBitsToTarget(DefaultNBits): %v", err)
	}
	return target
}

func TestTargetToNBitsRoundTrip(t *testing.T) {
	target := defaultTarget(t)
	nbits := TargetToNBits(target)
	if nbits != "0x1e0ffff0" {
		t.Fatalf("TargetToNBits(default target) = %s, want 0x1e0ffff0", nbits)
	}

	back, err := NBitsToTarget(nbits)
	if err != nil {
		t.Fatalf("NBitsToTarget(%s): %v", nbits, err)
	}
	if back.Cmp(target) != 0 {
		t.Fatalf("round trip target mismatch: got %s, want %s", back, target)
	}
}

func TestNBitsToTargetAcceptsStringAndUint32(t *testing.T) {
	a, err := NBitsToTarget("0x1e0ffff0")
	if err != nil {
		t.Fatalf("string form: %v", err)
	}
	b, err := NBitsToTarget(uint32(0x1e0ffff0))
	if err != nil {
		t.Fatalf("uint32 form: %v", err)
	}
	if a.Cmp(b) != 0 {
		t.Fatalf("string and uint32 forms disagree: %s != %s", a, b)
	}
}

func TestFindValidNonceTrivialDifficulty(t *testing.T) {
	// 0x1f00ffff decodes to 0xffff * 256^28, a target with 4 leading
	// zero hex digits, so roughly one hash in 65536 satisfies it: an
	// easy search of a few tens of thousands of tries on average.
	b := &fakeBlock{prefix: "shard-block-header-1"}
	nonce, err := FindValidNonce(b, "0x1f00ffff")
	if err != nil {
		t.Fatalf("FindValidNonce: %v", err)
	}
	if nonce != b.GetNonce() {
		t.Fatalf("FindValidNonce returned %d but block nonce is %d", nonce, b.GetNonce())
	}

	target, _ := NBitsToTarget("0x1f00ffff")
	if !IsValidProof(b, target) {
		t.Fatalf("winning nonce %d does not satisfy IsValidProof", nonce)
	}
}

func TestIsValidProofRejectsWrongNonce(t *testing.T) {
	b := &fakeBlock{prefix: "p", nonce: 0}
	target := big.NewInt(0) // nothing can satisfy a zero target
	if IsValidProof(b, target) {
		t.Fatalf("IsValidProof succeeded against a zero target")
	}
}
