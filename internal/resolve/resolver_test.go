package resolve

import (
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dmagro/netcfg/internal/config"
	"github.com/dmagro/netcfg/internal/env"
)

const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

const projectYAML = `
default_network: local
defaults:
  timeout: 5s
  max_retries: 2
  overrides:
    gasMultiplier: 1.2
solidity:
  version: 0.8.13
  bytecode_hash: none
  optimizer:
    enabled: true
    runs: 1000000
etherscan:
  api_key: ${ETHERSCAN_API_KEY}
gas_reporter:
  enabled: true
  currency: usd
  coinmarketcap: ${COINMARKETCAP_API_KEY}
abi_exporter:
  path: ./src/artifacts
  clear: true
  spacing: 2
networks:
  - name: local
    url: http://127.0.0.1:8545
    overrides:
      gasPrice: 875000000
      initialBaseFeePerGas: 0
  - name: mainnet
    url: https://mainnet.infura.io/v3/${INFURA_APP_ID}
    accounts: &keys
      - ${PRIVATE_KEY}
  - name: polygon-mumbai
    url: https://polygon-mumbai.infura.io/v3/${INFURA_APP_ID}
    accounts: *keys
    overrides:
      chainId: 80001
`

func newResolver(t *testing.T, yamlDoc string, secrets map[string]string) *Resolver {
	t.Helper()
	f, err := config.Parse([]byte(yamlDoc), nil)
	require.NoError(t, err)
	r, err := New(f, env.FromMap(secrets), nil)
	require.NoError(t, err)
	return r
}

func TestResolveLocalOverrides(t *testing.T) {
	r := newResolver(t, projectYAML, nil)

	cfg, err := r.Resolve("local", nil)
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Network())
	assert.Equal(t, "http://127.0.0.1:8545", cfg.URL())
	assert.Empty(t, cfg.Accounts())

	gasPrice, ok := cfg.GasPrice()
	require.True(t, ok)
	assert.Equal(t, int64(875000000), gasPrice.Int64())

	baseFee, ok := cfg.InitialBaseFeePerGas()
	require.True(t, ok)
	assert.Equal(t, int64(0), baseFee.Int64())

	mult, ok := cfg.Float("gasMultiplier")
	require.True(t, ok)
	assert.InDelta(t, 1.2, mult, 1e-9)

	assert.Equal(t, 5*time.Second, cfg.Timeout())
	assert.Equal(t, 2, cfg.MaxRetries())
}

func TestResolveDefaultNetwork(t *testing.T) {
	r := newResolver(t, projectYAML, nil)
	assert.Equal(t, "local", r.DefaultNetwork())

	cfg, err := r.Resolve("", nil)
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Network())
}

func TestResolveMissingSecret(t *testing.T) {
	r := newResolver(t, projectYAML, map[string]string{"PRIVATE_KEY": testKey})

	_, err := r.Resolve("mainnet", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingSecret))

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "mainnet", rerr.Profile)
	assert.Contains(t, rerr.Msg, "INFURA_APP_ID")
	assert.NotContains(t, err.Error(), testKey)
}

func TestResolveMissingSecretsReportedTogether(t *testing.T) {
	r := newResolver(t, projectYAML, map[string]string{"INFURA_APP_ID": ""})

	_, err := r.Resolve("mainnet", nil)
	require.ErrorIs(t, err, ErrMissingSecret)
	assert.Contains(t, err.Error(), "INFURA_APP_ID, PRIVATE_KEY")
}

func TestResolveSubstitutesSecrets(t *testing.T) {
	secrets := map[string]string{
		"INFURA_APP_ID":     "abc123",
		"PRIVATE_KEY":       testKey,
		"ETHERSCAN_API_KEY": "ES-KEY",
	}
	r := newResolver(t, projectYAML, secrets)

	cfg, err := r.Resolve("polygon-mumbai", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://polygon-mumbai.infura.io/v3/abc123", cfg.URL())
	assert.Equal(t, []string{testKey}, cfg.Accounts())
	assert.NotContains(t, cfg.URL(), "${")

	chainID, ok := cfg.ChainID()
	require.True(t, ok)
	assert.Equal(t, uint64(80001), chainID)

	assert.Equal(t, "ES-KEY", cfg.Verification().APIKey)
	assert.Equal(t, "", cfg.GasReporter().PricingAPIKey)
	assert.Equal(t, "USD", cfg.GasReporter().Currency)
	assert.Equal(t, []string{"COINMARKETCAP_API_KEY"}, cfg.Unset())

	assert.Equal(t, Compiler{
		Version:          "0.8.13",
		BytecodeHash:     "none",
		OptimizerEnabled: true,
		OptimizerRuns:    1000000,
	}, cfg.Compiler())
	assert.Equal(t, AbiExporter{Path: "./src/artifacts", Clear: true, Spacing: 2}, cfg.AbiExporter())
}

func TestResolveUnknownProfile(t *testing.T) {
	r := newResolver(t, projectYAML, nil)

	_, err := r.Resolve("goerli", nil)
	require.ErrorIs(t, err, ErrUnknownProfile)
	assert.Contains(t, err.Error(), "local, mainnet, polygon-mumbai")
}

func TestResolveOverrideLayering(t *testing.T) {
	r := newResolver(t, projectYAML, nil)

	cfg, err := r.Resolve("local", map[string]string{
		"gasPrice":      "30gwei",
		"gasMultiplier": "2",
		"chainId":       "31337",
	})
	require.NoError(t, err)

	gasPrice, _ := cfg.GasPrice()
	assert.Equal(t, "30000000000", gasPrice.String(), "caller overrides win over the profile")

	mult, _ := cfg.Float("gasMultiplier")
	assert.Equal(t, 2.0, mult, "caller overrides win over defaults")

	baseFee, ok := cfg.InitialBaseFeePerGas()
	require.True(t, ok, "profile values survive when not overridden")
	assert.Zero(t, baseFee.Sign())

	chainID, _ := cfg.ChainID()
	assert.Equal(t, uint64(31337), chainID)
}

func TestResolveInvalidOverride(t *testing.T) {
	r := newResolver(t, projectYAML, nil)

	tests := []struct {
		name      string
		overrides map[string]string
	}{
		{name: "unknown parameter", overrides: map[string]string{"gasPrise": "1"}},
		{name: "not a number", overrides: map[string]string{"gasPrice": "cheap"}},
		{name: "negative wei", overrides: map[string]string{"gasPrice": "-1"}},
		{name: "gas below intrinsic", overrides: map[string]string{"gas": "20999"}},
		{name: "zero chain id", overrides: map[string]string{"chainId": "0"}},
		{name: "multiplier out of range", overrides: map[string]string{"gasMultiplier": "0"}},
		{name: "fractional wei", overrides: map[string]string{"gasPrice": "0.5wei"}},
		{name: "empty", overrides: map[string]string{"gas": " "}},
		{name: "timeout beyond uint64 ms", overrides: map[string]string{"timeout": "18446744073709551615"}},
		{name: "timeout overflowing duration", overrides: map[string]string{"timeout": "10000000000000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve("local", tt.overrides)
			require.ErrorIs(t, err, ErrInvalidOverride)
		})
	}
}

func TestResolveInvalidProfileOverride(t *testing.T) {
	doc := `
networks:
  - name: local
    url: http://127.0.0.1:8545
    overrides:
      gasPrice: [1, 2]
`
	r := newResolver(t, doc, nil)

	_, err := r.Resolve("local", nil)
	require.ErrorIs(t, err, ErrInvalidOverride)
}

func TestResolveInvalidTemplate(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "unterminated marker", url: "https://node/${INFURA_APP_ID"},
		{name: "empty marker", url: "https://node/${}"},
		{name: "bad scheme", url: "ftp://node/${INFURA_APP_ID}"},
		{name: "no host", url: "${INFURA_APP_ID}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := "networks:\n  - name: n\n    url: \"" + tt.url + "\"\n"
			r := newResolver(t, doc, map[string]string{"INFURA_APP_ID": "abc"})

			_, err := r.Resolve("n", nil)
			require.ErrorIs(t, err, ErrInvalidTemplate)
		})
	}
}

func TestResolveDoesNotMutateInputs(t *testing.T) {
	f, err := config.Parse([]byte(projectYAML), nil)
	require.NoError(t, err)
	store := env.FromMap(map[string]string{"INFURA_APP_ID": "abc", "PRIVATE_KEY": testKey})

	r, err := New(f, store, nil)
	require.NoError(t, err)

	cfg, err := r.Resolve("mainnet", map[string]string{"gasPrice": "1"})
	require.NoError(t, err)

	accounts := cfg.Accounts()
	accounts[0] = "tampered"
	params := cfg.Params()
	delete(params, "gasPrice")

	assert.Equal(t, []string{testKey}, cfg.Accounts())
	_, ok := cfg.GasPrice()
	assert.True(t, ok)

	p, _ := r.Table().Get("mainnet")
	assert.Equal(t, "https://mainnet.infura.io/v3/${INFURA_APP_ID}", p.URL)
	assert.Equal(t, []string{"${PRIVATE_KEY}"}, p.Accounts)
	assert.Equal(t, 2, store.Len())

	again, err := r.Resolve("mainnet", nil)
	require.NoError(t, err)
	_, ok = again.GasPrice()
	assert.False(t, ok, "caller overrides do not leak between resolutions")
}

func TestRedacted(t *testing.T) {
	secrets := map[string]string{
		"INFURA_APP_ID":         "abc123",
		"PRIVATE_KEY":           testKey,
		"ETHERSCAN_API_KEY":     "ES-KEY",
		"COINMARKETCAP_API_KEY": "CMC-KEY",
	}
	r := newResolver(t, projectYAML, secrets)

	cfg, err := r.Resolve("mainnet", map[string]string{"gasPrice": "1gwei"})
	require.NoError(t, err)

	view := cfg.Redacted()
	assert.Equal(t, "https://mainnet.infura.io/v3/****", view.URL)
	assert.Equal(t, []string{"****"}, view.Accounts)
	assert.Equal(t, "****", view.Verification.APIKey)
	assert.Equal(t, "****", view.GasReporter.PricingAPIKey)
	assert.Equal(t, "5s", view.Timeout)

	out, err := yaml.Marshal(view)
	require.NoError(t, err)
	for _, secret := range secrets {
		assert.NotContains(t, string(out), secret)
	}
	assert.Contains(t, string(out), "gasPrice: 1000000000")

	js, err := json.Marshal(view)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(js), `"gasPrice":1000000000`), string(js))

	// the Config itself is untouched
	assert.Equal(t, "https://mainnet.infura.io/v3/abc123", cfg.URL())
}

func TestCheck(t *testing.T) {
	r := newResolver(t, projectYAML, map[string]string{"PRIVATE_KEY": testKey})

	statuses := r.Check()
	require.Len(t, statuses, 3)

	assert.Equal(t, "local", statuses[0].Name)
	assert.True(t, statuses[0].Default)
	assert.NoError(t, statuses[0].Err)
	assert.Empty(t, statuses[0].Refs)

	assert.Equal(t, "mainnet", statuses[1].Name)
	assert.False(t, statuses[1].Default)
	assert.ErrorIs(t, statuses[1].Err, ErrMissingSecret)
	assert.Equal(t, []string{"INFURA_APP_ID", "PRIVATE_KEY"}, statuses[1].Refs)
}

func TestConfigTimeoutParam(t *testing.T) {
	r := newResolver(t, projectYAML, nil)

	cfg, err := r.Resolve("local", map[string]string{"timeout": "1500"})
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout())

	v, ok := cfg.Param("timeout")
	require.True(t, ok)
	n, ok := v.Int()
	require.True(t, ok)
	assert.Equal(t, 0, n.Cmp(big.NewInt(1500)))
}

func TestResolveLargestTimeout(t *testing.T) {
	r := newResolver(t, projectYAML, nil)

	cfg, err := r.Resolve("local", map[string]string{"timeout": "9223372036854"})
	require.NoError(t, err)
	assert.Greater(t, cfg.Timeout(), time.Duration(0))
}

func TestResolveSecretWithMarker(t *testing.T) {
	tests := []struct {
		name    string
		secrets map[string]string
	}{
		{name: "url", secrets: map[string]string{"INFURA_APP_ID": "${OTHER}", "PRIVATE_KEY": testKey}},
		{name: "account", secrets: map[string]string{"INFURA_APP_ID": "abc", "PRIVATE_KEY": "${OTHER}"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newResolver(t, projectYAML, tt.secrets)

			_, err := r.Resolve("mainnet", nil)
			require.ErrorIs(t, err, ErrInvalidTemplate)
		})
	}
}

func TestResolveErrorHidesSecret(t *testing.T) {
	secrets := map[string]string{"INFURA_APP_ID": "SUPERSECRET\x7f", "PRIVATE_KEY": testKey}
	r := newResolver(t, projectYAML, secrets)

	_, err := r.Resolve("mainnet", nil)
	require.ErrorIs(t, err, ErrInvalidTemplate)
	assert.NotContains(t, err.Error(), "SUPERSECRET")

	st := r.Check()
	require.Len(t, st, 3)
	require.Error(t, st[1].Err)
	assert.NotContains(t, st[1].Err.Error(), "SUPERSECRET")
}

func TestResolveMalformedOptionalTemplate(t *testing.T) {
	doc := strings.Replace(projectYAML, "api_key: ${ETHERSCAN_API_KEY}", "api_key: ${ETHERSCAN", 1)
	r := newResolver(t, doc, map[string]string{"COINMARKETCAP_API_KEY": "CMC-KEY"})

	cfg, err := r.Resolve("local", nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.Verification().APIKey)
	assert.Equal(t, []string{"etherscan.api_key"}, cfg.Unset())
}
