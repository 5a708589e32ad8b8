// Package identity derives the addresses a resolved network acts as.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/dmagro/netcfg/internal/resolve"
	"github.com/dmagro/netcfg/internal/rpc"
)

// ErrInvalidKey is returned for a credential reference that is not a secp256k1 private
// key. The key material is never part of the error.
var ErrInvalidKey = errors.New("invalid private key")

// Provider derives identities from an assembled configuration.
type Provider interface {
	Identities(ctx context.Context, cfg *resolve.Config) ([]common.Address, error)
}

// LocalKeys treats every credential reference as a hex private key.
type LocalKeys struct{}

func (LocalKeys) Identities(ctx context.Context, cfg *resolve.Config) ([]common.Address, error) {
	accounts := cfg.Accounts()
	addrs := make([]common.Address, 0, len(accounts))
	for i, ref := range accounts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		addr, err := addressOf(ref)
		if err != nil {
			return nil, fmt.Errorf("network %s: account #%d: %w", cfg.Network(), i, err)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

func addressOf(hexKey string) (common.Address, error) {
	hexKey = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"), "0X")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return common.Address{}, ErrInvalidKey
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

// NodeAccounts asks the node for the accounts it manages (eth_accounts).
type NodeAccounts struct {
	Clients *rpc.Pool // optional; a fresh client is used when nil
}

func (n NodeAccounts) Identities(ctx context.Context, cfg *resolve.Config) ([]common.Address, error) {
	var client *rpc.Client
	if n.Clients != nil {
		client = n.Clients.GetOrCreate(cfg.Network(), cfg.URL(), cfg.Timeout(), cfg.MaxRetries())
	} else {
		client = rpc.NewClient(cfg.Network(), cfg.URL(), cfg.Timeout(), cfg.MaxRetries())
	}

	addrs, err := client.Accounts(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("network %s: %w", cfg.Network(), err)
	}
	return addrs, nil
}

// Auto uses the configured keys when the network has any and falls back to the
// accounts managed by the node otherwise.
type Auto struct {
	Local LocalKeys
	Node  NodeAccounts
}

func (a Auto) Identities(ctx context.Context, cfg *resolve.Config) ([]common.Address, error) {
	if len(cfg.Accounts()) > 0 {
		return a.Local.Identities(ctx, cfg)
	}
	return a.Node.Identities(ctx, cfg)
}
