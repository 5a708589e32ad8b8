package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Accounts calls eth_accounts and returns the addresses managed by the node.
func (c *Client) Accounts(ctx context.Context) ([]common.Address, error) {
	resp, _, err := c.Call(ctx, "eth_accounts")
	if err != nil {
		return nil, err
	}

	var addrs []common.Address
	if err := json.Unmarshal(resp.Result, &addrs); err != nil {
		return nil, fmt.Errorf("failed to parse accounts: %w", err)
	}
	return addrs, nil
}

// ChainID calls eth_chainId.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	resp, _, err := c.Call(ctx, "eth_chainId")
	if err != nil {
		return 0, err
	}

	var id hexutil.Uint64
	if err := json.Unmarshal(resp.Result, &id); err != nil {
		return 0, fmt.Errorf("failed to parse chain id: %w", err)
	}
	return uint64(id), nil
}

// BlockNumber fetches current block height
func (c *Client) BlockNumber(ctx context.Context) (uint64, time.Duration, error) {
	resp, latency, err := c.Call(ctx, "eth_blockNumber")
	if err != nil {
		return 0, latency, err
	}

	var num hexutil.Uint64
	if err := json.Unmarshal(resp.Result, &num); err != nil {
		return 0, latency, fmt.Errorf("failed to parse block number: %w", err)
	}
	return uint64(num), latency, nil
}

// GetBalance returns the balance of addr in wei at block ("latest" when empty).
func (c *Client) GetBalance(ctx context.Context, addr common.Address, block string) (*big.Int, error) {
	tag, err := BlockTag(block)
	if err != nil {
		return nil, err
	}
	resp, _, err := c.Call(ctx, "eth_getBalance", addr, tag)
	if err != nil {
		return nil, err
	}

	var bal hexutil.Big
	if err := json.Unmarshal(resp.Result, &bal); err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}
	return bal.ToInt(), nil
}
