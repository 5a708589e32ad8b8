package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dmagro/netcfg/internal/logging"
	"github.com/dmagro/netcfg/internal/output"
	"github.com/dmagro/netcfg/internal/rpc"
	"github.com/dmagro/netcfg/internal/tasks"
)

// settings are the persistent flags, overridable through NETCFG_* variables.
type settings struct {
	Root       string   `mapstructure:"root"`
	Config     string   `mapstructure:"config"`
	EnvFile    string   `mapstructure:"env-file"`
	Network    string   `mapstructure:"network"`
	Set        []string `mapstructure:"set"`
	VaultAddr  string   `mapstructure:"vault-addr"`
	VaultPath  string   `mapstructure:"vault-path"`
	VaultToken string   `mapstructure:"vault-token"`
	LogJSON    bool     `mapstructure:"log-json"`
	LogDebug   bool     `mapstructure:"log-debug"`
	LogUID     bool     `mapstructure:"log-uid"`
}

// app is the state shared by all subcommands of one invocation.
type app struct {
	v        *viper.Viper
	settings settings
	log      *zap.Logger
	registry *tasks.Registry
	clients  *rpc.Pool
}

func newRootCmd(registry *tasks.Registry) *cobra.Command {
	a := &app{
		v:        viper.New(),
		log:      zap.NewNop(),
		registry: registry,
		clients:  rpc.NewPool(),
	}

	cmd := &cobra.Command{
		Use:   "netcfg",
		Short: "Layered network configuration for EVM projects",
		Long: `netcfg assembles the configuration of one network profile from the project
file, secrets from the environment, a .env file or Vault, and command line
overrides. Resolution fails before any task runs when a referenced secret is
missing or an override is invalid.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}

	pf := cmd.PersistentFlags()
	addPersistentFlags(pf)

	a.v.SetEnvPrefix("NETCFG")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindPFlags(pf)
	_ = a.v.BindEnv("vault-token", "NETCFG_VAULT_TOKEN", "VAULT_TOKEN")

	cmd.AddCommand(
		networksCmd(a),
		resolveCmd(a),
		tasksCmd(a),
		runCmd(a),
	)
	for _, t := range registry.Tasks() {
		if hasCommand(cmd, t.Name) {
			continue // reachable through run
		}
		cmd.AddCommand(taskCmd(a, t))
	}

	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	if !output.IsTerminal() {
		output.DisableColors()
	}
	if err := a.v.Unmarshal(&a.settings); err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	// StringArray values keep embedded commas, which viper would split
	if set, err := cmd.Flags().GetStringArray("set"); err == nil && len(set) > 0 {
		a.settings.Set = set
	}

	log, err := logging.New(logging.Options{
		Debug: a.settings.LogDebug,
		JSON:  a.settings.LogJSON,
		UID:   a.settings.LogUID,
	})
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

func hasCommand(cmd *cobra.Command, name string) bool {
	for _, c := range cmd.Commands() {
		if c.Name() == name || c.HasAlias(name) {
			return true
		}
	}
	return false
}

func addPersistentFlags(pf *pflag.FlagSet) {
	pf.String("root", ".", "Project directory")
	pf.String("config", "", "Project file (default <root>/netcfg.yaml)")
	pf.String("env-file", "", "Secrets file (default <root>/.env)")
	pf.StringP("network", "n", "", "Network profile (default: default_network)")
	pf.StringArray("set", nil, "Override a numeric parameter, e.g. --set gasPrice=30gwei (repeatable)")
	pf.String("vault-addr", "", "Vault address; secrets are read from --vault-path when set")
	pf.String("vault-path", "", "Vault KV path holding secrets, e.g. secret/data/netcfg")
	pf.Bool("log-json", false, "Log in JSON")
	pf.Bool("log-debug", false, "Log debug messages")
	pf.Bool("log-uid", false, "Tag every log entry with a random invocation id")
}
