package tasks

import (
	"context"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/dmagro/netcfg/internal/identity"
	"github.com/dmagro/netcfg/internal/resolve"
	"github.com/dmagro/netcfg/internal/rpc"
)

// Env is what an action receives: the assembled configuration and the capabilities
// built on it.
type Env struct {
	Config     *resolve.Config
	Identities identity.Provider // identity.Auto when nil
	Clients    *rpc.Pool         // shared node clients; a private pool when nil
	Out        io.Writer
	Log        *zap.Logger
}

// Accounts derives the identities of the active network.
func (e Env) Accounts(ctx context.Context) ([]common.Address, error) {
	p := e.Identities
	if p == nil {
		p = identity.Auto{Node: identity.NodeAccounts{Clients: e.Clients}}
	}
	return p.Identities(ctx, e.Config)
}

// Client returns a JSON-RPC client for the active network.
func (e Env) Client() *rpc.Client {
	cfg := e.Config
	if e.Clients == nil {
		return rpc.NewClient(cfg.Network(), cfg.URL(), cfg.Timeout(), cfg.MaxRetries())
	}
	return e.Clients.GetOrCreate(cfg.Network(), cfg.URL(), cfg.Timeout(), cfg.MaxRetries())
}
