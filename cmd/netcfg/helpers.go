package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/dmagro/netcfg/internal/config"
	"github.com/dmagro/netcfg/internal/env"
	"github.com/dmagro/netcfg/internal/resolve"
)

func (a *app) configPath() string {
	if a.settings.Config != "" {
		return a.settings.Config
	}
	return filepath.Join(a.settings.Root, "netcfg.yaml")
}

func (a *app) envPath() string {
	if a.settings.EnvFile != "" {
		return a.settings.EnvFile
	}
	return filepath.Join(a.settings.Root, ".env")
}

// loadSecrets layers the secret sources; later sources win:
// process environment, then the .env file, then Vault.
func (a *app) loadSecrets(ctx context.Context) (env.Store, error) {
	store := env.FromEnviron(os.Environ())

	fileStore, err := env.Load(a.envPath())
	if err != nil {
		return env.Store{}, err
	}
	a.log.Debug("loaded env file", zap.String("path", a.envPath()), zap.Int("keys", fileStore.Len()))
	store = store.Merge(fileStore)

	if a.settings.VaultAddr == "" || a.settings.VaultPath == "" {
		return store, nil
	}

	token := a.settings.VaultToken
	if token == "" {
		token, _ = store.Lookup("VAULT_TOKEN")
	}
	client, err := env.NewVaultClient(env.VaultConfig{
		Address: a.settings.VaultAddr,
		Token:   token,
	})
	if err != nil {
		return env.Store{}, err
	}
	vaultStore, err := env.LoadVault(ctx, client, a.settings.VaultPath)
	if err != nil {
		return env.Store{}, err
	}
	a.log.Debug("loaded vault secrets", zap.String("path", a.settings.VaultPath), zap.Int("keys", vaultStore.Len()))
	return store.Merge(vaultStore), nil
}

func (a *app) loadResolver(ctx context.Context) (*resolve.Resolver, error) {
	file, err := config.Load(a.configPath(), a.log)
	if err != nil {
		return nil, err
	}
	secrets, err := a.loadSecrets(ctx)
	if err != nil {
		return nil, err
	}
	return resolve.New(file, secrets, a.log)
}

// resolve assembles the configuration of the selected network with --set overrides.
func (a *app) resolve(ctx context.Context) (*resolve.Config, error) {
	r, err := a.loadResolver(ctx)
	if err != nil {
		return nil, err
	}
	overrides, err := parseOverrides(a.settings.Set)
	if err != nil {
		return nil, err
	}
	return r.Resolve(a.settings.Network, overrides)
}

// parseOverrides turns ["gasPrice=30gwei", ...] into a map. The last value wins.
func parseOverrides(pairs []string) (map[string]string, error) {
	overrides := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q must be NAME=VALUE", resolve.ErrInvalidOverride, pair)
		}
		overrides[name] = strings.TrimSpace(value)
	}
	return overrides, nil
}
