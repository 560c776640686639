package eth

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/6529-Collections/marketview/internal/eth/mocks"
	"github.com/ethereum/go-ethereum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func atBlock(block uint64) interface{} {
	return mock.MatchedBy(func(n *big.Int) bool {
		return n != nil && n.IsUint64() && n.Uint64() == block
	})
}

func TestContractReader_GetFees(t *testing.T) {
	client := mocks.NewEthClient(t)
	reader := NewContractReader(client)

	output, err := marketABI.Methods["getFees"].Outputs.Pack(
		big.NewInt(50), big.NewInt(100), big.NewInt(0), big.NewInt(850))
	require.NoError(t, err)

	expectedInput, err := marketABI.Pack("getFees", testNFT, big.NewInt(3), big.NewInt(1000))
	require.NoError(t, err)

	client.On("CallContract", mock.Anything, mock.MatchedBy(func(msg ethereum.CallMsg) bool {
		return msg.To != nil && *msg.To == testMarket && string(msg.Data) == string(expectedInput)
	}), atBlock(17_000_000)).Return(output, nil).Once()

	split, err := reader.GetFees(context.Background(), 17_000_000, testMarket.Hex(), testNFT.Hex(), big.NewInt(3), big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, int64(50), split.TreasuryFee.Int64())
	assert.Equal(t, int64(100), split.CreatorRev.Int64())
	assert.Equal(t, int64(0), split.PreviousCreatorRev.Int64())
	assert.Equal(t, int64(850), split.OwnerRev.Int64())
}

func TestContractReader_GetFeesCallFails(t *testing.T) {
	client := mocks.NewEthClient(t)
	reader := NewContractReader(client)

	client.On("CallContract", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("execution reverted")).Once()

	_, err := reader.GetFees(context.Background(), 17_000_000, testMarket.Hex(), testNFT.Hex(), big.NewInt(3), big.NewInt(1000))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execution reverted")
}

func TestContractReader_BalanceOf(t *testing.T) {
	client := mocks.NewEthClient(t)
	reader := NewContractReader(client)

	output, err := assetABI.Methods["balanceOf"].Outputs.Pack(big.NewInt(4))
	require.NoError(t, err)
	client.On("CallContract", mock.Anything, mock.MatchedBy(func(msg ethereum.CallMsg) bool {
		return msg.To != nil && *msg.To == testNFT
	}), atBlock(42)).Return(output, nil).Once()

	balance, err := reader.BalanceOf(context.Background(), 42, testNFT.Hex(), testSeller.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(4), balance.Int64())
}

func TestContractReader_BalanceOfGarbage(t *testing.T) {
	client := mocks.NewEthClient(t)
	reader := NewContractReader(client)

	client.On("CallContract", mock.Anything, mock.Anything, mock.Anything).
		Return([]byte{0x01, 0x02}, nil).Once()

	_, err := reader.BalanceOf(context.Background(), 42, testNFT.Hex(), testSeller.Hex())
	require.Error(t, err)
}
