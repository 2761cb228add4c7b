// Package pow implements the compact-difficulty ("nbits") encoding and
// nonce search shared by shard mining and (optionally) shard-block
// validation. The target arithmetic follows the same compact<->big.Int
// idiom arejula27-p2pool-go's pkg/util uses for Bitcoin-style nBits,
// generalized from a fixed 256-bit space instead of 32-bit compact
// words truncated to uint32 — this system's nbits still packs into a
// uint32 (exponent + 24-bit coefficient), but the resulting target is
// a full 256-bit value, so big.Int carries it end to end.
package pow

import (
	"errors"
	"fmt"
	"math/big"
)

// MaxNonce bounds the nonce search to 32 bits, matching spec.md §4.1.
const MaxNonce uint32 = 1<<32 - 1

// DefaultNBits is the compact target used when a component is built
// without an explicit nbits or target: a 256-bit value with 5 leading
// zero hex digits (0x00000FFFF0...0), compact-encoded as 0x1e0ffff0.
const DefaultNBits uint32 = 0x1e0ffff0

// ErrNonceExhausted is returned by FindValidNonce when the search
// space is exhausted without finding a hash below target.
var ErrNonceExhausted = errors.New("pow: nonce space exhausted")

// Block is the minimal view a block header must provide to be mined
// or validated: its own content hash as a hex digest, and a mutable
// nonce the search increments in place.
type Block interface {
	ComputeHash() string
	GetNonce() int
	SetNonce(int)
}

// TargetToNBits renders a 256-bit target as the 8-hex-digit compact
// form: strip leading zero bytes from the big-endian representation,
// take exponent = remaining byte count and coefficient = the first
// three remaining bytes (zero-padded on the left if fewer than three
// remain), then renormalize while coefficient >= 0x7FFFFF.
func TargetToNBits(target *big.Int) string {
	if target.Sign() <= 0 {
		return fmt.Sprintf("0x%08x", 0)
	}

	raw := target.Bytes()
	exponent := len(raw)

	buf := make([]byte, 3)
	if len(raw) >= 3 {
		copy(buf, raw[:3])
	} else {
		// Left-pad with zeros per spec: a short remainder is treated as
		// the low-order bytes of the 3-byte coefficient, not the high.
		copy(buf[3-len(raw):], raw)
	}

	coefficient := uint32(buf[0])<<16 | uint32(buf[1])<<8 | uint32(buf[2])

	for coefficient >= 0x7FFFFF {
		coefficient >>= 8
		exponent++
	}

	nbits := (uint32(exponent) << 24) | coefficient
	return fmt.Sprintf("0x%08x", nbits)
}

// NBitsToTarget parses nbits (accepting either a "0x"-prefixed hex
// string or a raw uint32) and returns the corresponding 256-bit
// target: coefficient * 256^(exponent-3).
func NBitsToTarget(nbits interface{}) (*big.Int, error) {
	value, err := toUint32(nbits)
	if err != nil {
		return nil, err
	}

	exponent := int64(value>>24) & 0xFF
	coefficient := big.NewInt(int64(value & 0xFFFFFF))

	shift := (exponent - 3) * 8
	target := new(big.Int).Set(coefficient)
	if shift >= 0 {
		target.Lsh(target, uint(shift))
	} else {
		target.Rsh(target, uint(-shift))
	}
	return target, nil
}

func toUint32(nbits interface{}) (uint32, error) {
	switch v := nbits.(type) {
	case uint32:
		return v, nil
	case int:
		return uint32(v), nil
	case int64:
		return uint32(v), nil
	case string:
		s := v
		if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
			s = s[2:]
		}
		var parsed uint64
		if _, err := fmt.Sscanf(s, "%x", &parsed); err != nil {
			return 0, fmt.Errorf("pow: invalid nbits string %q: %w", v, err)
		}
		return uint32(parsed), nil
	default:
		return 0, fmt.Errorf("pow: unsupported nbits type %T", nbits)
	}
}

// FindValidNonce searches nonces starting from the block's current
// nonce, mutating it in place, until the block's hash interpreted as
// a big-endian integer is below target, or the search exhausts
// MaxNonce. It returns the winning nonce, or ErrNonceExhausted.
func FindValidNonce(b Block, nbits interface{}) (int, error) {
	target, err := NBitsToTarget(nbits)
	if err != nil {
		return 0, err
	}

	for nonce := b.GetNonce(); uint32(nonce) < MaxNonce; nonce++ {
		b.SetNonce(nonce)
		if hashBelowTarget(b.ComputeHash(), target) {
			return nonce, nil
		}
	}
	return 0, ErrNonceExhausted
}

// IsValidProof reports whether the block's current hash, interpreted
// as a big-endian integer, is below target.
func IsValidProof(b Block, target *big.Int) bool {
	return hashBelowTarget(b.ComputeHash(), target)
}

func hashBelowTarget(hexHash string, target *big.Int) bool {
	h, ok := new(big.Int).SetString(hexHash, 16)
	if !ok {
		return false
	}
	return h.Cmp(target) < 0
}
