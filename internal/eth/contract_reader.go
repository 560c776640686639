package eth

import (
	"context"
	"fmt"
	"math/big"

	"github.com/6529-Collections/marketview/pkg/market/events"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ContractReader answers the engine's read-only contract calls against the
// chain state at the block of the event being applied.
type ContractReader struct {
	client EthClient
}

func NewContractReader(client EthClient) *ContractReader {
	return &ContractReader{client: client}
}

func (r *ContractReader) GetFees(ctx context.Context, blockNumber uint64, market string, nftContract string, tokenID *big.Int, price *big.Int) (events.RevenueSplit, error) {
	out, err := r.call(ctx, blockNumber, marketABI, market, "getFees", common.HexToAddress(nftContract), tokenID, price)
	if err != nil {
		return events.RevenueSplit{}, err
	}
	if len(out) != 4 {
		return events.RevenueSplit{}, fmt.Errorf("getFees returned %d values", len(out))
	}
	var parts [4]*big.Int
	for i, v := range out {
		n, ok := v.(*big.Int)
		if !ok {
			return events.RevenueSplit{}, fmt.Errorf("getFees value %d is not a uint256", i)
		}
		parts[i] = n
	}
	return events.RevenueSplit{
		TreasuryFee:        parts[0],
		CreatorRev:         parts[1],
		PreviousCreatorRev: parts[2],
		OwnerRev:           parts[3],
	}, nil
}

func (r *ContractReader) BalanceOf(ctx context.Context, blockNumber uint64, contract string, owner string) (*big.Int, error) {
	out, err := r.call(ctx, blockNumber, assetABI, contract, "balanceOf", common.HexToAddress(owner))
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("balanceOf returned %d values", len(out))
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf value is not a uint256")
	}
	return balance, nil
}

func (r *ContractReader) call(ctx context.Context, blockNumber uint64, contractABI abi.ABI, contract string, method string, args ...interface{}) ([]interface{}, error) {
	input, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}
	to := common.HexToAddress(contract)
	output, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return nil, fmt.Errorf("%s call to %s failed: %w", method, contract, err)
	}
	values, err := contractABI.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return values, nil
}
