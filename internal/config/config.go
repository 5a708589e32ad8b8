// Package config provides project file loading and validation.
//
// The project file declares the network profiles and the global compiler, verification
// and reporting settings. Unlike a plain YAML load, "${VAR}" markers are NOT expanded
// here: profile templates stay raw until a single profile is resolved against the
// secret store (see package resolve).
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultTimeout applies when defaults.timeout is omitted.
const DefaultTimeout = 10 * time.Second

var (
	ErrNoProfiles       = errors.New("at least one network is required")
	ErrDuplicateProfile = errors.New("duplicate network name")
)

// File represents the root project file loaded from YAML.
type File struct {
	DefaultNetwork string      `yaml:"default_network"`
	Defaults       Defaults    `yaml:"defaults"`
	Solidity       Solidity    `yaml:"solidity"`
	Etherscan      Etherscan   `yaml:"etherscan"`
	GasReporter    GasReporter `yaml:"gas_reporter"`
	AbiExporter    AbiExporter `yaml:"abi_exporter"`
	Networks       []Profile   `yaml:"networks"`
}

// Defaults contains values that apply to every network unless a profile or the
// caller overrides them.
type Defaults struct {
	Timeout    time.Duration  `yaml:"timeout"`     // RPC timeout for tasks that talk to the node
	MaxRetries int            `yaml:"max_retries"` // RPC retry attempts (0 = no retries)
	Overrides  map[string]any `yaml:"overrides"`   // numeric parameters shared by all networks
}

// Solidity holds compiler settings handed to the external runner.
type Solidity struct {
	Version      string    `yaml:"version"`
	BytecodeHash string    `yaml:"bytecode_hash"` // metadata hash appended to bytecode
	Optimizer    Optimizer `yaml:"optimizer"`
}

type Optimizer struct {
	Enabled bool  `yaml:"enabled"`
	Runs    int64 `yaml:"runs"`
}

// Etherscan holds the contract verification service settings.
type Etherscan struct {
	APIKey string `yaml:"api_key"` // template, optional
}

// GasReporter holds gas cost reporting settings.
type GasReporter struct {
	Enabled       bool   `yaml:"enabled"`
	Currency      string `yaml:"currency"`
	CoinMarketCap string `yaml:"coinmarketcap"` // pricing service key template, optional
}

// AbiExporter controls where contract ABIs are exported after compilation.
type AbiExporter struct {
	Path    string `yaml:"path"`
	Clear   bool   `yaml:"clear"`
	Flat    bool   `yaml:"flat"`
	Spacing int    `yaml:"spacing"`
}

var (
	versionRe  = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	currencyRe = regexp.MustCompile(`^[A-Za-z]{3}$`)

	bytecodeHashes = map[string]bool{"": true, "none": true, "ipfs": true, "bzzr1": true}
)

// Validate checks the file and fills in defaults. Suspicious but legal values are
// reported through log and do not fail validation.
func (f *File) Validate(log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	if f.Defaults.Timeout == 0 {
		f.Defaults.Timeout = DefaultTimeout
	}
	if f.Defaults.Timeout < 0 {
		return fmt.Errorf("defaults.timeout must be > 0")
	}
	if f.Defaults.MaxRetries < 0 {
		return fmt.Errorf("defaults.max_retries must be >= 0")
	}

	const low = 500 * time.Millisecond
	const high = 2 * time.Minute
	if f.Defaults.Timeout < low {
		log.Warn("timeout is very low; requests may fail under normal network jitter",
			zap.Duration("timeout", f.Defaults.Timeout))
	}
	if f.Defaults.Timeout > high {
		log.Warn("timeout is very high; failures may take a long time to surface",
			zap.Duration("timeout", f.Defaults.Timeout))
	}

	if f.Solidity.Version != "" && !versionRe.MatchString(f.Solidity.Version) {
		return fmt.Errorf("solidity.version %q must look like MAJOR.MINOR.PATCH", f.Solidity.Version)
	}
	if !bytecodeHashes[f.Solidity.BytecodeHash] {
		return fmt.Errorf("solidity.bytecode_hash %q must be one of none, ipfs, bzzr1", f.Solidity.BytecodeHash)
	}
	if f.Solidity.Optimizer.Runs < 0 || f.Solidity.Optimizer.Runs > math.MaxUint32 {
		return fmt.Errorf("solidity.optimizer.runs must be between 0 and %d", uint32(math.MaxUint32))
	}
	if f.GasReporter.Currency != "" && !currencyRe.MatchString(f.GasReporter.Currency) {
		return fmt.Errorf("gas_reporter.currency %q must be a three letter code", f.GasReporter.Currency)
	}
	if f.AbiExporter.Spacing < 0 {
		return fmt.Errorf("abi_exporter.spacing must be >= 0")
	}

	if _, err := NewTable(f.Networks...); err != nil {
		return err
	}

	if f.DefaultNetwork != "" {
		found := false
		for _, p := range f.Networks {
			if p.Name == f.DefaultNetwork {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("default_network %q is not a configured network", f.DefaultNetwork)
		}
	}

	return nil
}

// Table returns the profile table declared by the file.
func (f *File) Table() (*Table, error) {
	return NewTable(f.Networks...)
}

// Load reads, parses and validates a project file.
//
// Validation rules:
//   - at least one network, each with a unique name and a non-empty url
//   - default_network, when set, names a configured network
//   - defaults.timeout > 0 (10s when omitted), defaults.max_retries >= 0
//   - solidity.version is MAJOR.MINOR.PATCH, optimizer runs fit in uint32
//   - gas_reporter.currency is a three letter code
func Load(path string, log *zap.Logger) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data, log)
}

// Parse decodes and validates project file content.
func Parse(data []byte, log *zap.Logger) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := f.Validate(log); err != nil {
		return nil, err
	}
	return &f, nil
}
