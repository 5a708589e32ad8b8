// Package resolve assembles the configuration handed to the external runner.
//
// A Resolver combines the static settings of a project file, its profile table and a
// secret store. Resolve selects exactly one profile, substitutes every ${SECRET}
// marker, layers numeric overrides and validates the result before anything runs:
//
//	defaults.overrides  <  profile.overrides  <  caller overrides
//
// Resolution never mutates the store, the table or the file.
package resolve

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/dmagro/netcfg/internal/config"
	"github.com/dmagro/netcfg/internal/env"
)

// Resolver resolves network profiles against a secret store.
type Resolver struct {
	file    config.File
	table   *config.Table
	secrets env.Store
	log     *zap.Logger
}

// New creates a resolver for a validated project file.
func New(file *config.File, secrets env.Store, log *zap.Logger) (*Resolver, error) {
	if log == nil {
		log = zap.NewNop()
	}
	table, err := file.Table()
	if err != nil {
		return nil, err
	}
	return &Resolver{
		file:    *file,
		table:   table,
		secrets: secrets,
		log:     log,
	}, nil
}

// Table returns the profile table.
func (r *Resolver) Table() *config.Table { return r.table }

// DefaultNetwork returns the profile selected when Resolve is called with an empty
// name: default_network, or the first declared profile.
func (r *Resolver) DefaultNetwork() string {
	if r.file.DefaultNetwork != "" {
		return r.file.DefaultNetwork
	}
	return r.table.Names()[0]
}

// Resolve assembles the configuration of profileName with caller overrides applied.
//
// Errors (all wrapping *Error):
//   - ErrUnknownProfile: profileName is not in the table
//   - ErrMissingSecret: the url or an account references an unset or empty secret
//   - ErrInvalidTemplate: malformed marker, or the substituted url is not a valid endpoint
//   - ErrInvalidOverride: unknown parameter, non-numeric or out-of-range value
func (r *Resolver) Resolve(profileName string, overrides map[string]string) (*Config, error) {
	if profileName == "" {
		profileName = r.DefaultNetwork()
	}

	profile, ok := r.table.Get(profileName)
	if !ok {
		return nil, newError(ErrUnknownProfile, "", "%q (available: %s)",
			profileName, strings.Join(r.table.Names(), ", "))
	}

	cfg := &Config{
		network:    profile.Name,
		timeout:    r.file.Defaults.Timeout,
		maxRetries: r.file.Defaults.MaxRetries,
	}

	if err := r.resolveEndpoint(cfg, profile); err != nil {
		return nil, err
	}

	params, err := r.layerParams(profile, overrides)
	if err != nil {
		return nil, err
	}
	cfg.params = params

	r.resolveGlobals(cfg)

	r.log.Debug("resolved network",
		zap.String("network", cfg.network),
		zap.Int("accounts", len(cfg.accounts)),
		zap.Int("params", len(cfg.params)),
		zap.Strings("unset", cfg.unset))

	return cfg, nil
}

// resolveEndpoint substitutes the url and account templates of profile into cfg.
func (r *Resolver) resolveEndpoint(cfg *Config, profile config.Profile) error {
	templates := append([]string{profile.URL}, profile.Accounts...)
	for _, tmpl := range templates {
		if malformed(tmpl) {
			return newError(ErrInvalidTemplate, profile.Name, "malformed secret marker in %q", redactTemplate(tmpl))
		}
	}

	var missing []string

	u := substitute(profile.URL, r.secrets)
	missing = append(missing, u.missing...)
	cfg.secrets = append(cfg.secrets, u.secrets...)

	accounts := make([]string, 0, len(profile.Accounts))
	for _, ref := range profile.Accounts {
		a := substitute(ref, r.secrets)
		missing = append(missing, a.missing...)
		cfg.secrets = append(cfg.secrets, a.secrets...)
		accounts = append(accounts, a.value)
	}

	if len(missing) > 0 {
		return newError(ErrMissingSecret, profile.Name, "%s", strings.Join(dedupSorted(missing), ", "))
	}

	// a secret value may itself carry marker syntax
	if strings.Contains(u.value, "${") {
		return newError(ErrInvalidTemplate, profile.Name, "url %q: secret value contains a marker", redactTemplate(profile.URL))
	}
	for i, a := range accounts {
		if strings.Contains(a, "${") {
			return newError(ErrInvalidTemplate, profile.Name, "account #%d: secret value contains a marker", i)
		}
	}

	if err := validateEndpoint(u.value); err != nil {
		return newError(ErrInvalidTemplate, profile.Name, "url %q: %s",
			redactTemplate(profile.URL), maskSecrets(err.Error(), u.secrets))
	}

	cfg.url = u.value
	cfg.accounts = accounts
	return nil
}

// layerParams merges defaults, profile and caller overrides and validates the result.
func (r *Resolver) layerParams(profile config.Profile, overrides map[string]string) (map[string]Value, error) {
	raw := make(map[string]string)

	for _, layer := range []map[string]any{r.file.Defaults.Overrides, profile.Overrides} {
		for name, v := range layer {
			s, ok := rawParam(v)
			if !ok {
				return nil, newError(ErrInvalidOverride, profile.Name, "%s: %v is not a number", name, v)
			}
			raw[name] = s
		}
	}
	for name, v := range overrides {
		raw[name] = v
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make(map[string]Value, len(raw))
	for _, name := range names {
		v, err := parseParam(name, raw[name])
		if err != nil {
			return nil, newError(ErrInvalidOverride, profile.Name, "%v", err)
		}
		params[name] = v
	}
	return params, nil
}

// resolveGlobals fills compiler and service settings. Service keys are optional: an
// unavailable secret leaves the key empty and is reported through Config.Unset. A
// malformed template is reported by its setting name.
func (r *Resolver) resolveGlobals(cfg *Config) {
	optional := func(field, tmpl string) string {
		if tmpl == "" {
			return ""
		}
		if malformed(tmpl) {
			r.log.Warn("ignoring malformed optional secret template",
				zap.String("network", cfg.network), zap.String("setting", field))
			cfg.unset = append(cfg.unset, field)
			return ""
		}
		s := substitute(tmpl, r.secrets)
		if len(s.missing) > 0 || strings.Contains(s.value, "${") {
			cfg.unset = append(cfg.unset, s.missing...)
			if len(s.missing) == 0 {
				cfg.unset = append(cfg.unset, field)
			}
			return ""
		}
		cfg.secrets = append(cfg.secrets, s.secrets...)
		return s.value
	}

	sol := r.file.Solidity
	cfg.compiler = Compiler{
		Version:          sol.Version,
		BytecodeHash:     sol.BytecodeHash,
		OptimizerEnabled: sol.Optimizer.Enabled,
		OptimizerRuns:    uint32(sol.Optimizer.Runs),
	}
	cfg.verification = Verification{APIKey: optional("etherscan.api_key", r.file.Etherscan.APIKey)}
	cfg.gasReporter = GasReporter{
		Enabled:       r.file.GasReporter.Enabled,
		Currency:      strings.ToUpper(r.file.GasReporter.Currency),
		PricingAPIKey: optional("gas_reporter.coinmarketcap", r.file.GasReporter.CoinMarketCap),
	}
	ae := r.file.AbiExporter
	cfg.abiExporter = AbiExporter{Path: ae.Path, Clear: ae.Clear, Flat: ae.Flat, Spacing: ae.Spacing}
	cfg.unset = dedupSorted(cfg.unset)
}

// ProfileStatus reports whether a profile resolves with the current secrets.
type ProfileStatus struct {
	Name    string
	Default bool
	Refs    []string // secret names referenced by the url and accounts
	Err     error
}

// Check resolves every profile without caller overrides.
func (r *Resolver) Check() []ProfileStatus {
	def := r.DefaultNetwork()
	statuses := make([]ProfileStatus, 0, r.table.Len())
	for _, p := range r.table.Profiles() {
		var refs []string
		for _, tmpl := range append([]string{p.URL}, p.Accounts...) {
			refs = append(refs, References(tmpl)...)
		}
		_, err := r.Resolve(p.Name, nil)
		statuses = append(statuses, ProfileStatus{
			Name:    p.Name,
			Default: p.Name == def,
			Refs:    dedupSorted(refs),
			Err:     err,
		})
	}
	return statuses
}

func validateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		// the *url.Error text repeats the substituted url
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return uerr.Err
		}
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("missing scheme or host")
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("scheme %q (expected http, https, ws or wss)", u.Scheme)
	}
	return nil
}

// redactTemplate hides literal credentials in error messages. Templates that are not
// marker-only are truncated.
func redactTemplate(tmpl string) string {
	if strings.HasPrefix(tmpl, "http") || strings.HasPrefix(tmpl, "ws") {
		return tmpl
	}
	if len(tmpl) > 8 {
		return tmpl[:6] + "…"
	}
	return tmpl
}
