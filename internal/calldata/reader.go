package calldata

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/GoPolymarket/vesu-deployer/internal/model"
)

var ErrShortRead = errors.New("calldata: short read")

// Reader decodes view-call results. Like Encoder, the first error sticks.
type Reader struct {
	data []*felt.Felt
	pos  int
	err  error
}

func NewReader(data []*felt.Felt) *Reader {
	return &Reader{data: data}
}

func (r *Reader) next() *big.Int {
	if r.err != nil {
		return new(big.Int)
	}
	if r.pos >= len(r.data) {
		r.err = fmt.Errorf("%w: want felt #%d, have %d", ErrShortRead, r.pos, len(r.data))
		return new(big.Int)
	}
	v := r.data[r.pos].BigInt(new(big.Int))
	r.pos++
	return v
}

func (r *Reader) Felt() *felt.Felt {
	return new(felt.Felt).SetBigInt(r.next())
}

func (r *Reader) Bool() bool {
	v := r.next()
	if v.Sign() != 0 && v.Cmp(big.NewInt(1)) != 0 {
		r.setErr(fmt.Errorf("%w: bool %v", ErrOutOfRange, v))
	}
	return v.Sign() != 0
}

func (r *Reader) U64() uint64 {
	v := r.next()
	if !v.IsUint64() {
		r.setErr(fmt.Errorf("%w: u64 %v", ErrOutOfRange, v))
		return 0
	}
	return v.Uint64()
}

func (r *Reader) U128() *big.Int {
	v := r.next()
	if v.Cmp(maxU128) > 0 {
		r.setErr(fmt.Errorf("%w: u128 %v", ErrOutOfRange, v))
	}
	return v
}

// U256 reads low then high limb.
func (r *Reader) U256() *big.Int {
	low := r.U128()
	high := r.U128()
	return high.Lsh(high, 128).Or(high, low)
}

func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) setErr(err error) {
	if r.err == nil {
		r.err = err
	}
}

// DecodeAssetConfig decodes the result of pool.asset_config(asset).
func DecodeAssetConfig(data []*felt.Felt) (*model.AssetConfig, error) {
	r := NewReader(data)
	cfg := &model.AssetConfig{
		TotalCollateralShares:   r.U256(),
		TotalNominalDebt:        r.U256(),
		Reserve:                 r.U256(),
		MaxUtilization:          r.U256(),
		Floor:                   r.U256(),
		Scale:                   r.U256(),
		IsLegacy:                r.Bool(),
		LastUpdated:             r.U64(),
		LastRateAccumulator:     r.U256(),
		LastFullUtilizationRate: r.U256(),
		FeeRate:                 r.U256(),
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("decode asset_config: %w", err)
	}
	return cfg, nil
}

// DecodeU256 decodes a single u256 return value.
func DecodeU256(data []*felt.Felt) (*big.Int, error) {
	r := NewReader(data)
	v := r.U256()
	if err := r.Err(); err != nil {
		return nil, err
	}
	return v, nil
}
