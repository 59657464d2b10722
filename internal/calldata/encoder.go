// Package calldata serializes model records into Starknet calldata (Cairo serde)
// and decodes view-call results back.
package calldata

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/holiman/uint256"
)

const (
	// ShortStringMaxLen is the number of bytes that fit in one felt252.
	ShortStringMaxLen = 31
	byteArrayWordLen  = 31
)

var (
	// FieldPrime is 2^251 + 17*2^192 + 1.
	FieldPrime, _ = new(big.Int).SetString("800000000000011000000000000000000000000000000000000000000000001", 16)

	maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

var (
	ErrOutOfRange  = errors.New("value out of range")
	ErrNotASCII    = errors.New("short string must be ASCII")
	ErrStringLen   = errors.New("short string longer than 31 bytes")
	ErrEmptyFelt   = errors.New("empty felt")
	ErrInvalidFelt = errors.New("invalid felt")
)

// ParseFelt parses a 0x-prefixed hex or a decimal string into a field element.
func ParseFelt(s string) (*felt.Felt, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyFelt
	}
	var (
		v  *big.Int
		ok bool
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, ok = new(big.Int).SetString(s[2:], 16)
	} else {
		v, ok = new(big.Int).SetString(s, 10)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFelt, s)
	}
	return FeltFromBig(v)
}

// FeltFromBig rejects values outside [0, P).
func FeltFromBig(v *big.Int) (*felt.Felt, error) {
	if v == nil || v.Sign() < 0 || v.Cmp(FieldPrime) >= 0 {
		return nil, fmt.Errorf("%w: felt %v", ErrOutOfRange, v)
	}
	return new(felt.Felt).SetBigInt(v), nil
}

// Encoder appends Cairo-serialized values. The first error sticks and every
// later call becomes a no-op, so call chains only check Result.
type Encoder struct {
	out []*felt.Felt
	err error
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

func (e *Encoder) fail(err error) *Encoder {
	if e.err == nil {
		e.err = err
	}
	return e
}

func (e *Encoder) push(f *felt.Felt) *Encoder {
	if e.err == nil {
		e.out = append(e.out, f)
	}
	return e
}

func (e *Encoder) Felt(f *felt.Felt) *Encoder {
	if f == nil {
		return e.fail(ErrEmptyFelt)
	}
	return e.push(f)
}

func (e *Encoder) Felts(fs ...*felt.Felt) *Encoder {
	for _, f := range fs {
		e.Felt(f)
	}
	return e
}

// Address accepts any string ParseFelt does.
func (e *Encoder) Address(addr string) *Encoder {
	f, err := ParseFelt(addr)
	if err != nil {
		return e.fail(fmt.Errorf("address %q: %w", addr, err))
	}
	return e.push(f)
}

func (e *Encoder) Bool(b bool) *Encoder {
	if b {
		return e.push(new(felt.Felt).SetUint64(1))
	}
	return e.push(new(felt.Felt).SetUint64(0))
}

func (e *Encoder) U8(v uint8) *Encoder {
	return e.push(new(felt.Felt).SetUint64(uint64(v)))
}

func (e *Encoder) U32(v uint32) *Encoder {
	return e.push(new(felt.Felt).SetUint64(uint64(v)))
}

func (e *Encoder) U64(v uint64) *Encoder {
	return e.push(new(felt.Felt).SetUint64(v))
}

func (e *Encoder) U128(v *big.Int) *Encoder {
	if v == nil || v.Sign() < 0 || v.Cmp(maxU128) > 0 {
		return e.fail(fmt.Errorf("%w: u128 %v", ErrOutOfRange, v))
	}
	return e.push(new(felt.Felt).SetBigInt(v))
}

// U256 writes the low limb then the high limb.
func (e *Encoder) U256(v *big.Int) *Encoder {
	if v == nil || v.Sign() < 0 {
		return e.fail(fmt.Errorf("%w: u256 %v", ErrOutOfRange, v))
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return e.fail(fmt.Errorf("%w: u256 %v", ErrOutOfRange, v))
	}
	b := u.Bytes32()
	e.push(new(felt.Felt).SetBytes(b[16:]))
	return e.push(new(felt.Felt).SetBytes(b[:16]))
}

// I257 writes the magnitude as u256 followed by the sign flag. Zero is
// always positive.
func (e *Encoder) I257(v *big.Int) *Encoder {
	if v == nil {
		v = new(big.Int)
	}
	e.U256(new(big.Int).Abs(v))
	return e.Bool(v.Sign() < 0)
}

// ShortString packs an ASCII string of at most 31 bytes into one felt.
func (e *Encoder) ShortString(s string) *Encoder {
	f, err := ShortString(s)
	if err != nil {
		return e.fail(fmt.Errorf("short string %q: %w", s, err))
	}
	return e.push(f)
}

// ByteArray writes the full 31-byte words (length prefixed), the pending
// word and the pending word length.
func (e *Encoder) ByteArray(s string) *Encoder {
	data := []byte(s)
	full := len(data) / byteArrayWordLen
	e.Len(full)
	for i := 0; i < full; i++ {
		e.push(new(felt.Felt).SetBytes(data[i*byteArrayWordLen : (i+1)*byteArrayWordLen]))
	}
	pending := data[full*byteArrayWordLen:]
	e.push(new(felt.Felt).SetBytes(pending))
	return e.U32(uint32(len(pending)))
}

// Enum writes the variant index. Variant payloads are appended by the caller.
func (e *Encoder) Enum(variant int) *Encoder {
	if variant < 0 {
		return e.fail(fmt.Errorf("%w: enum variant %d", ErrOutOfRange, variant))
	}
	return e.push(new(felt.Felt).SetUint64(uint64(variant)))
}

// Len writes an array/span length prefix.
func (e *Encoder) Len(n int) *Encoder {
	return e.push(new(felt.Felt).SetUint64(uint64(n)))
}

func (e *Encoder) Err() error {
	return e.err
}

// Result returns the encoded felts or the first error.
func (e *Encoder) Result() ([]*felt.Felt, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([]*felt.Felt, len(e.out))
	copy(out, e.out)
	return out, nil
}

// ShortString encodes s as a Cairo short string.
func ShortString(s string) (*felt.Felt, error) {
	if len(s) > ShortStringMaxLen {
		return nil, ErrStringLen
	}
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return nil, ErrNotASCII
		}
	}
	return new(felt.Felt).SetBytes([]byte(s)), nil
}

// DecodeShortString is the inverse of ShortString; leading zero bytes are dropped.
func DecodeShortString(f *felt.Felt) string {
	b := f.BigInt(new(big.Int)).Bytes()
	return string(b)
}
