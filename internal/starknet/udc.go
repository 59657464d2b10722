package starknet

import (
	"crypto/rand"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/NethermindEth/starknet.go/contracts"
)

// UDCAddress is the Universal Deployer Contract, same address on every network.
var UDCAddress, _ = new(felt.Felt).SetString("0x041a78e741e5af2fec34b695679bc6891742439f7afb8484ecd7766661ad02bf")

const udcEntrypoint = "deployContract"

// DeployCall builds the UDC deployContract call. unique is always false so
// the address depends only on class hash, salt and calldata.
func DeployCall(classHash, salt *felt.Felt, calldata []*felt.Felt) Call {
	args := make([]*felt.Felt, 0, len(calldata)+4)
	args = append(args,
		classHash,
		salt,
		new(felt.Felt).SetUint64(0),
		new(felt.Felt).SetUint64(uint64(len(calldata))),
	)
	args = append(args, calldata...)
	return Call{To: UDCAddress, Entrypoint: udcEntrypoint, Calldata: args}
}

// PrecomputeAddress returns the address a non-unique UDC deployment will get.
func PrecomputeAddress(classHash, salt *felt.Felt, calldata []*felt.Felt) *felt.Felt {
	return contracts.PrecomputeAddress(&felt.Zero, salt, classHash, calldata)
}

// RandomSalt returns a random 248-bit salt (always below the field prime).
func RandomSalt() (*felt.Felt, error) {
	var b [31]byte
	if _, err := rand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return new(felt.Felt).SetBytes(b[:]), nil
}
