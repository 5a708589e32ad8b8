package resolve

import (
	"math/big"
	"sort"
	"strings"
	"time"
)

// Compiler holds solidity compiler settings.
type Compiler struct {
	Version          string `yaml:"version" json:"version"`
	BytecodeHash     string `yaml:"bytecode_hash,omitempty" json:"bytecode_hash,omitempty"`
	OptimizerEnabled bool   `yaml:"optimizer_enabled" json:"optimizer_enabled"`
	OptimizerRuns    uint32 `yaml:"optimizer_runs" json:"optimizer_runs"`
}

// Verification holds contract verification service settings.
type Verification struct {
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty"`
}

// GasReporter holds gas cost reporting settings.
type GasReporter struct {
	Enabled       bool   `yaml:"enabled" json:"enabled"`
	Currency      string `yaml:"currency,omitempty" json:"currency,omitempty"`
	PricingAPIKey string `yaml:"pricing_api_key,omitempty" json:"pricing_api_key,omitempty"`
}

// AbiExporter controls ABI export after compilation.
type AbiExporter struct {
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
	Clear   bool   `yaml:"clear" json:"clear"`
	Flat    bool   `yaml:"flat" json:"flat"`
	Spacing int    `yaml:"spacing" json:"spacing"`
}

// Config is an assembled configuration: static defaults merged with exactly one
// network profile, caller overrides and the global settings, with every secret
// substituted.
//
// A Config is read-only after construction and safe to share between goroutines.
type Config struct {
	network      string
	url          string
	accounts     []string
	params       map[string]Value
	compiler     Compiler
	verification Verification
	gasReporter  GasReporter
	abiExporter  AbiExporter
	timeout      time.Duration
	maxRetries   int
	unset        []string // optional secrets that were not available
	secrets      []string // substituted secret values, for redaction
}

// Network returns the name of the active profile.
func (c *Config) Network() string { return c.network }

// URL returns the fully substituted endpoint.
func (c *Config) URL() string { return c.url }

// Accounts returns the resolved credential references of the profile.
func (c *Config) Accounts() []string { return append([]string(nil), c.accounts...) }

// Param returns a numeric parameter.
func (c *Config) Param(name string) (Value, bool) {
	v, ok := c.params[name]
	return v, ok
}

// Int returns an integer parameter.
func (c *Config) Int(name string) (*big.Int, bool) {
	v, ok := c.params[name]
	if !ok {
		return nil, false
	}
	return v.Int()
}

// Float returns a real-valued parameter such as gasMultiplier.
func (c *Config) Float(name string) (float64, bool) {
	v, ok := c.params[name]
	if !ok {
		return 0, false
	}
	return v.Float(), true
}

// GasPrice returns the gasPrice parameter in wei.
func (c *Config) GasPrice() (*big.Int, bool) { return c.Int("gasPrice") }

// InitialBaseFeePerGas returns the initialBaseFeePerGas parameter in wei.
func (c *Config) InitialBaseFeePerGas() (*big.Int, bool) { return c.Int("initialBaseFeePerGas") }

// ChainID returns the expected chain id, when configured.
func (c *Config) ChainID() (uint64, bool) {
	n, ok := c.Int("chainId")
	if !ok {
		return 0, false
	}
	return n.Uint64(), true
}

// Params returns a copy of all numeric parameters.
func (c *Config) Params() map[string]Value {
	out := make(map[string]Value, len(c.params))
	for k, v := range c.params {
		out[k] = v
	}
	return out
}

func (c *Config) Compiler() Compiler         { return c.compiler }
func (c *Config) Verification() Verification { return c.verification }
func (c *Config) GasReporter() GasReporter   { return c.gasReporter }
func (c *Config) AbiExporter() AbiExporter   { return c.abiExporter }

// Timeout is the RPC timeout for tasks talking to the node. A timeout parameter on the
// profile (milliseconds) wins over the file default.
func (c *Config) Timeout() time.Duration {
	if n, ok := c.Int("timeout"); ok {
		return time.Duration(n.Int64()) * time.Millisecond
	}
	return c.timeout
}

// MaxRetries is the number of RPC retry attempts.
func (c *Config) MaxRetries() int { return c.maxRetries }

// Unset lists optional secrets that were referenced but not available, and the
// settings whose optional template was malformed.
func (c *Config) Unset() []string { return append([]string(nil), c.unset...) }

const mask = "****"

// View is a serialisable snapshot of a Config.
type View struct {
	Network      string           `yaml:"network" json:"network"`
	URL          string           `yaml:"url" json:"url"`
	Accounts     []string         `yaml:"accounts,omitempty" json:"accounts,omitempty"`
	Params       map[string]Value `yaml:"params,omitempty" json:"params,omitempty"`
	Compiler     Compiler         `yaml:"compiler" json:"compiler"`
	Verification Verification     `yaml:"verification" json:"verification"`
	GasReporter  GasReporter      `yaml:"gas_reporter" json:"gas_reporter"`
	AbiExporter  AbiExporter      `yaml:"abi_exporter" json:"abi_exporter"`
	Timeout      string           `yaml:"timeout" json:"timeout"`
	MaxRetries   int              `yaml:"max_retries" json:"max_retries"`
	Unset        []string         `yaml:"unset,omitempty" json:"unset,omitempty"`
}

// Redacted returns a View in which every substituted secret value is masked and
// credential references are hidden entirely.
func (c *Config) Redacted() View {
	redact := func(s string) string { return maskSecrets(s, c.secrets) }

	accounts := make([]string, len(c.accounts))
	for i := range c.accounts {
		accounts[i] = mask
	}

	verification := c.verification
	verification.APIKey = redact(verification.APIKey)
	gasReporter := c.gasReporter
	gasReporter.PricingAPIKey = redact(gasReporter.PricingAPIKey)

	var params map[string]Value
	if len(c.params) > 0 {
		params = c.Params()
	}

	return View{
		Network:      c.network,
		URL:          redact(c.url),
		Accounts:     accounts,
		Params:       params,
		Compiler:     c.compiler,
		Verification: verification,
		GasReporter:  gasReporter,
		AbiExporter:  c.abiExporter,
		Timeout:      c.Timeout().String(),
		MaxRetries:   c.maxRetries,
		Unset:        c.Unset(),
	}
}

// maskSecrets replaces every occurrence of a secret value in s. Longest secrets go first
// so a secret that contains another is masked whole.
func maskSecrets(s string, secrets []string) string {
	sorted := append([]string(nil), secrets...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	for _, secret := range sorted {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, mask)
		}
	}
	return s
}
