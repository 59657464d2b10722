package starknet

import (
	"context"
	"regexp"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/GoPolymarket/vesu-deployer/internal/pkg/apperrors"
)

var devnetURL = regexp.MustCompile(`localhost|127\.0\.0\.1`)

// IsDevnet reports whether url points at a local starknet-devnet.
func IsDevnet(url string) bool {
	return devnetURL.MatchString(url)
}

type PredeployedAccount struct {
	Address    string `json:"address"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// PredeployedAccounts asks starknet-devnet for its funded accounts.
func PredeployedAccounts(ctx context.Context, url string) ([]PredeployedAccount, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrRPC, "connect devnet", err)
	}
	defer client.Close()

	var accounts []PredeployedAccount
	if err := client.CallContext(ctx, &accounts, "devnet_getPredeployedAccounts"); err != nil {
		return nil, apperrors.New(apperrors.ErrRPC, "devnet_getPredeployedAccounts", err)
	}
	return accounts, nil
}
