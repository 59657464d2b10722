package starknet

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/NethermindEth/starknet.go/contracts"
	"github.com/NethermindEth/starknet.go/hash"
	"github.com/NethermindEth/starknet.go/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/GoPolymarket/vesu-deployer/internal/pkg/apperrors"
)

// Artifact is a compiled contract: Sierra class plus its CASM.
type Artifact struct {
	Name      string
	Digest    common.Hash // keccak of the sierra file, keys the class-hash cache
	ClassHash *felt.Felt
	Sierra    *contracts.ContractClass
	Casm      *contracts.CasmClass
}

// ArtifactPaths returns the scarb output paths for a contract.
func ArtifactPaths(dir, pkg, name string) (sierra, casm string) {
	base := filepath.Join(dir, pkg+"_"+name)
	return base + ".contract_class.json", base + ".compiled_contract_class.json"
}

// LoadArtifact reads <dir>/<pkg>_<name>.contract_class.json and the matching
// compiled class.
func LoadArtifact(dir, pkg, name string) (*Artifact, error) {
	sierraPath, casmPath := ArtifactPaths(dir, pkg, name)

	raw, err := os.ReadFile(sierraPath)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrConfig, "read artifact "+name, err)
	}
	sierra, err := utils.UnmarshalJSONFileToType[contracts.ContractClass](sierraPath, "")
	if err != nil {
		return nil, apperrors.New(apperrors.ErrConfig, "parse sierra class "+sierraPath, err)
	}
	casm, err := contracts.UnmarshalCasmClass(casmPath)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrConfig, "parse casm class "+casmPath, err)
	}

	classHash := hash.ClassHash(sierra)
	if classHash == nil {
		return nil, fmt.Errorf("compute class hash of %s", name)
	}

	return &Artifact{
		Name:      name,
		Digest:    crypto.Keccak256Hash(raw),
		ClassHash: classHash,
		Sierra:    sierra,
		Casm:      casm,
	}, nil
}

// ArtifactLoader loads artifacts by contract name from one build directory.
type ArtifactLoader struct {
	Dir     string
	Package string
}

func (l ArtifactLoader) Load(name string) (*Artifact, error) {
	return LoadArtifact(l.Dir, l.Package, name)
}
