package ledger

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

//go:embed contract.json
var contractABI string

// ParseABI returns the event contract's ABI.
func ParseABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(contractABI))
}

// Backend is the contract surface the adapters depend on.
type Backend interface {
	// Call runs a read-only method as from and returns the unpacked outputs.
	Call(ctx context.Context, from common.Address, method string, args ...interface{}) ([]interface{}, error)
	// Transact signs and sends a state-changing method call.
	Transact(ctx context.Context, opts *bind.TransactOpts, method string, args ...interface{}) (*types.Transaction, error)
	// WaitMined blocks until tx is included and returns its receipt.
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
	// RevertReason replays a failed transaction to recover its revert string.
	RevertReason(ctx context.Context, tx *types.Transaction, receipt *types.Receipt) string
}

// Signer is a connected wallet able to authorize transactions.
type Signer interface {
	Address() common.Address
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)
}

// ContractBackend binds the event contract at one address to an RPC client.
type ContractBackend struct {
	client   *ethclient.Client
	contract *bind.BoundContract
	address  common.Address
}

func NewContractBackend(client *ethclient.Client, address common.Address) (*ContractBackend, error) {
	parsed, err := ParseABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}
	return &ContractBackend{
		client:   client,
		contract: bind.NewBoundContract(address, parsed, client, client, client),
		address:  address,
	}, nil
}

func (b *ContractBackend) Address() common.Address {
	return b.address
}

func (b *ContractBackend) Call(ctx context.Context, from common.Address, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx, From: from}
	if err := b.contract.Call(opts, &out, method, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *ContractBackend) Transact(ctx context.Context, opts *bind.TransactOpts, method string, args ...interface{}) (*types.Transaction, error) {
	opts.Context = ctx
	return b.contract.Transact(opts, method, args...)
}

func (b *ContractBackend) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return bind.WaitMined(ctx, b.client, tx)
}

func (b *ContractBackend) RevertReason(ctx context.Context, tx *types.Transaction, receipt *types.Receipt) string {
	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return ""
	}
	msg := ethereum.CallMsg{
		From:  from,
		To:    tx.To(),
		Gas:   tx.Gas(),
		Value: tx.Value(),
		Data:  tx.Data(),
	}
	_, err = b.client.CallContract(ctx, msg, receipt.BlockNumber)
	reason, _ := revertReason(err)
	return reason
}
