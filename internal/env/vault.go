package env

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
)

// VaultConfig locates a secret in HashiCorp Vault.
type VaultConfig struct {
	Address string        // e.g. https://vault.example.com:8200
	Token   string        // falls back to VAULT_TOKEN handling of the vault client when empty
	Path    string        // logical path, e.g. "secret/data/netcfg" for KV v2
	Timeout time.Duration // HTTP timeout, 30s when zero
}

// NewVaultClient creates a Vault API client for cfg.
func NewVaultClient(cfg VaultConfig) (*api.Client, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	config := api.DefaultConfig()
	if cfg.Address != "" {
		config.Address = cfg.Address
	}
	config.HttpClient = &http.Client{Timeout: timeout}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}
	return client, nil
}

// LoadVault reads the secret at path and returns its fields as a store.
//
// Both KV v2 responses (fields nested under "data") and KV v1 / generic responses
// (flat fields) are accepted. A path with no secret yields an empty store; transport
// and permission errors are returned.
func LoadVault(ctx context.Context, client *api.Client, path string) (Store, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return Empty(), fmt.Errorf("vault path is required")
	}

	secret, err := client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return Empty(), fmt.Errorf("failed to read vault secret %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return Empty(), nil
	}

	fields := secret.Data
	if nested, ok := secret.Data["data"].(map[string]interface{}); ok {
		fields = nested
	}

	values := make(map[string]string, len(fields))
	for k, v := range fields {
		if v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			values[k] = val
		default:
			values[k] = fmt.Sprint(val)
		}
	}
	return Store{values: values}, nil
}
