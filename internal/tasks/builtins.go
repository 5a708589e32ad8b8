package tasks

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/dmagro/netcfg/internal/output"
	"github.com/dmagro/netcfg/internal/rpc"
)

// balanceConcurrency bounds concurrent eth_getBalance calls.
const balanceConcurrency = 8

// RegisterBuiltins adds the standard tasks to r.
func RegisterBuiltins(r *Registry) error {
	builtins := []Task{
		{Name: "accounts", Description: "Prints the list of accounts", Action: accountsTask},
		{Name: "balances", Description: "Prints the balance of every account", Action: balancesTask},
		{Name: "network", Description: "Prints chain id, latest block and latency of the node", Action: networkTask},
		{Name: "config", Description: "Prints the resolved configuration with secrets redacted", Action: configTask},
	}
	for _, t := range builtins {
		if err := r.Register(t.Name, t.Description, t.Action); err != nil {
			return err
		}
	}
	return nil
}

func accountsTask(ctx context.Context, env Env) error {
	addrs, err := env.Accounts(ctx)
	if err != nil {
		return err
	}
	for _, a := range addrs {
		fmt.Fprintln(env.Out, a.Hex())
	}
	return nil
}

func balancesTask(ctx context.Context, env Env) error {
	addrs, err := env.Accounts(ctx)
	if err != nil {
		return err
	}
	client := env.Client()

	results := ExecuteAll(ctx, addrs, balanceConcurrency,
		func(ctx context.Context, a common.Address) (*big.Int, error) {
			return client.GetBalance(ctx, a, "latest")
		})

	tbl := output.NewTable(env.Out, "Account", "Balance")
	for _, res := range results {
		if res.Err != nil {
			return fmt.Errorf("balance of %s: %w", addrs[res.Index].Hex(), res.Err)
		}
		tbl.AddRow(addrs[res.Index].Hex(), rpc.FormatEther(res.Value))
	}
	tbl.Print()
	return nil
}

func networkTask(ctx context.Context, env Env) error {
	client := env.Client()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return err
	}
	height, latency, err := client.BlockNumber(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Out, "%s %s\n", output.Bold("Network:"), env.Config.Network())
	fmt.Fprintf(env.Out, "%s %d\n", output.Bold("Chain ID:"), chainID)
	fmt.Fprintf(env.Out, "%s %s\n", output.Bold("Block:"), rpc.FormatNumber(height))
	fmt.Fprintf(env.Out, "%s %s\n", output.Bold("Latency:"), output.ColorLatency(latency))
	if gp, ok := env.Config.GasPrice(); ok {
		fmt.Fprintf(env.Out, "%s %s\n", output.Bold("Gas price:"), rpc.FormatGwei(gp))
	}

	if want, ok := env.Config.ChainID(); ok && want != chainID {
		env.Log.Warn("chain id mismatch", zap.Uint64("configured", want), zap.Uint64("node", chainID))
		fmt.Fprintln(env.Out, output.Yellow(fmt.Sprintf("warning: configured chainId %d, node reports %d", want, chainID)))
	}
	return nil
}

func configTask(_ context.Context, env Env) error {
	return output.Encode(env.Out, output.FormatYAML, env.Config.Redacted())
}
