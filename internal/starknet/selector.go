package starknet

import (
	"strings"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/GoPolymarket/vesu-deployer/internal/pkg/apperrors"
)

// Selector returns sn_keccak(name): keccak256 truncated to 250 bits.
func Selector(name string) *felt.Felt {
	h := crypto.Keccak256([]byte(name))
	h[0] &= 0x03
	return new(felt.Felt).SetBytes(h)
}

// EventName strips the module path, e.g.
// "vesu::pool_factory::PoolFactory::CreatePool" -> "CreatePool".
func EventName(path string) string {
	if i := strings.LastIndex(path, "::"); i >= 0 {
		return path[i+2:]
	}
	return path
}

// FindEvent returns the first event emitted by emitter whose first key is the
// selector of the event named by path.
func FindEvent(receipt *Receipt, emitter *felt.Felt, path string) (*Event, error) {
	if receipt == nil {
		return nil, apperrors.New(apperrors.ErrEventNotFound, path+": no receipt", nil)
	}
	sel := Selector(EventName(path))
	for i := range receipt.Events {
		ev := &receipt.Events[i]
		if emitter != nil && (ev.From == nil || !ev.From.Equal(emitter)) {
			continue
		}
		if len(ev.Keys) > 0 && ev.Keys[0].Equal(sel) {
			return ev, nil
		}
	}
	return nil, apperrors.New(apperrors.ErrEventNotFound,
		"event "+path+" not found in tx "+FeltString(receipt.TxHash), nil)
}

// EventAddress returns the address carried by a creation event: the first
// indexed key after the selector, else the first data word.
func EventAddress(ev *Event) (*felt.Felt, error) {
	switch {
	case len(ev.Keys) > 1:
		return ev.Keys[1], nil
	case len(ev.Data) > 0:
		return ev.Data[0], nil
	}
	return nil, apperrors.New(apperrors.ErrEventNotFound, "event carries no address", nil)
}

// FeltString formats f as 0x-hex; nil prints as "0x0".
func FeltString(f *felt.Felt) string {
	if f == nil {
		return "0x0"
	}
	return f.String()
}
