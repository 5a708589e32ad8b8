// Package env builds the secret store that network profiles are resolved against.
//
// Secrets come from the process environment, an optional .env file and an optional
// Vault KV path. Each source produces an immutable Store; sources are layered with
// Merge so that later sources win, the same way values in a .env file take precedence
// over variables already present in the shell.
//
// Nothing in this package touches os.Setenv: the resulting Store is passed explicitly
// to the resolver instead of leaking into process-wide state.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
)

// Store is an immutable set of secret values keyed by name.
// The zero value is an empty store.
type Store struct {
	values map[string]string
}

// Empty returns a store with no entries.
func Empty() Store {
	return Store{}
}

// Lookup returns the value stored under key. ok is false when the key is unset;
// absence is an expected outcome and never an error.
func (s Store) Lookup(key string) (value string, ok bool) {
	value, ok = s.values[key]
	return value, ok
}

// Len reports the number of entries.
func (s Store) Len() int { return len(s.values) }

// Keys returns the stored keys in sorted order.
func (s Store) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge returns a new store holding the entries of s overwritten by the entries of
// other. Neither s nor other is modified.
func (s Store) Merge(other Store) Store {
	merged := make(map[string]string, len(s.values)+len(other.values))
	for k, v := range s.values {
		merged[k] = v
	}
	for k, v := range other.values {
		merged[k] = v
	}
	return Store{values: merged}
}

// FromMap copies m into a new store.
func FromMap(m map[string]string) Store {
	values := make(map[string]string, len(m))
	for k, v := range m {
		values[k] = v
	}
	return Store{values: values}
}

// FromEnviron imports KEY=VALUE pairs in the shape returned by os.Environ.
// Entries without "=" are ignored.
func FromEnviron(environ []string) Store {
	values := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, found := strings.Cut(kv, "=")
		if !found || key == "" {
			continue
		}
		values[key] = value
	}
	return Store{values: values}
}

// Load reads a .env file and returns its entries.
//
// File format:
//   - Each line contains KEY=VALUE, optionally prefixed with "export "
//   - Empty lines are ignored
//   - Lines starting with # are treated as comments
//   - Values can be quoted with single or double quotes (quotes are stripped)
//
// Examples:
//
//	INFURA_APP_ID=0123456789abcdef
//	export ETHERSCAN_API_KEY="ABCDEF"
//	# This is a comment
//
// Behavior:
//   - If the file doesn't exist, Load returns an empty store and no error
//   - Malformed lines are skipped
//   - A key repeated within the file keeps its last value
func Load(path string) (Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Empty(), nil
		}
		return Empty(), fmt.Errorf("failed to read env file: %w", err)
	}
	return Parse(data), nil
}

// Parse parses .env content. See Load for the accepted format.
func Parse(data []byte) Store {
	values := make(map[string]string)

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		// Split on first "=" to handle values that might contain "="
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if !validKey(key) {
			continue
		}

		values[key] = unquote(strings.TrimSpace(value))
	}

	return Store{values: values}
}

// unquote strips one pair of matching surrounding quotes.
func unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' || first == '\'') && first == last {
			return value[1 : len(value)-1]
		}
	}
	return value
}

func validKey(key string) bool {
	if key == "" || (key[0] >= '0' && key[0] <= '9') {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
