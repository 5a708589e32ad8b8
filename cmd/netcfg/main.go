// Command netcfg resolves network profiles and runs tasks against them.
//
// Usage:
//
//	netcfg networks                    # profiles and whether they resolve
//	netcfg resolve -n mainnet          # redacted configuration
//	netcfg accounts -n polygon-mumbai  # run a task
//	netcfg run balances --set gasPrice=30gwei
package main

import (
	"fmt"
	"os"

	"github.com/dmagro/netcfg/internal/tasks"
)

func main() {
	registry := tasks.NewRegistry()
	if err := tasks.RegisterBuiltins(registry); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(registry).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
