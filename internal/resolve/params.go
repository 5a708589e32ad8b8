package resolve

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/params"
)

type paramKind int

const (
	kindWei   paramKind = iota // integer amount of wei, unit suffixes allowed
	kindUint                   // plain unsigned integer
	kindFloat                  // positive real number
)

type paramSpec struct {
	kind paramKind
	min  int64   // inclusive lower bound for integer kinds
	max  float64 // inclusive upper bound for kindFloat
	ceil uint64  // inclusive upper bound for kindUint, 0 means any uint64
}

// maxTimeoutMs is the largest millisecond timeout that fits a time.Duration.
const maxTimeoutMs = uint64(math.MaxInt64 / int64(time.Millisecond))

// knownParams lists the numeric network parameters understood by the external runner.
var knownParams = map[string]paramSpec{
	"gasPrice":             {kind: kindWei},
	"initialBaseFeePerGas": {kind: kindWei},
	"maxFeePerGas":         {kind: kindWei},
	"maxPriorityFeePerGas": {kind: kindWei},
	"gas":                  {kind: kindUint, min: 21000},
	"blockGasLimit":        {kind: kindUint, min: 21000},
	"chainId":              {kind: kindUint, min: 1},
	"timeout":              {kind: kindUint, min: 1, ceil: maxTimeoutMs},
	"gasMultiplier":        {kind: kindFloat, max: 100},
}

// KnownParams returns the names of the supported numeric parameters, sorted.
func KnownParams() []string {
	names := make([]string, 0, len(knownParams))
	for name := range knownParams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Value is a validated numeric parameter.
type Value struct {
	integer *big.Int
	real    float64
	isReal  bool
}

// Int returns the value as an integer. ok is false for real-valued parameters.
func (v Value) Int() (*big.Int, bool) {
	if v.isReal || v.integer == nil {
		return nil, false
	}
	return new(big.Int).Set(v.integer), true
}

// Float returns the value as a float64.
func (v Value) Float() float64 {
	if v.isReal {
		return v.real
	}
	f, _ := new(big.Float).SetInt(v.integer).Float64()
	return f
}

func (v Value) String() string {
	if v.isReal {
		return strconv.FormatFloat(v.real, 'f', -1, 64)
	}
	if v.integer == nil {
		return ""
	}
	return v.integer.String()
}

// MarshalYAML renders integers exactly; large wei amounts would lose precision as
// floats.
func (v Value) MarshalYAML() (interface{}, error) {
	if v.isReal {
		return v.real, nil
	}
	if v.integer == nil {
		return nil, nil
	}
	if v.integer.IsUint64() {
		return v.integer.Uint64(), nil
	}
	return v.integer.String(), nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.isReal && v.integer == nil {
		return []byte("null"), nil
	}
	return []byte(v.String()), nil
}

var units = []struct {
	suffix string
	factor *big.Int
}{
	// gwei before wei, ether before eth
	{"ether", big.NewInt(params.Ether)},
	{"gwei", big.NewInt(params.GWei)},
	{"wei", big.NewInt(params.Wei)},
	{"eth", big.NewInt(params.Ether)},
}

// parseParam validates raw against the known parameter table entry for name.
func parseParam(name, raw string) (Value, error) {
	spec, ok := knownParams[name]
	if !ok {
		return Value{}, fmt.Errorf("unknown parameter %q", name)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Value{}, fmt.Errorf("%s: empty value", name)
	}

	switch spec.kind {
	case kindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, fmt.Errorf("%s: %q is not a number", name, raw)
		}
		if f <= 0 || f > spec.max {
			return Value{}, fmt.Errorf("%s: %v out of range (0, %v]", name, f, spec.max)
		}
		return Value{real: f, isReal: true}, nil

	case kindWei:
		n, err := parseWei(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%s: %w", name, err)
		}
		if n.Cmp(big.NewInt(spec.min)) < 0 {
			return Value{}, fmt.Errorf("%s: %s out of range (must be >= %d)", name, n, spec.min)
		}
		return Value{integer: n}, nil

	default:
		n, err := parseInteger(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%s: %w", name, err)
		}
		if n.Cmp(big.NewInt(spec.min)) < 0 || !n.IsUint64() {
			return Value{}, fmt.Errorf("%s: %s out of range (must be >= %d and fit in 64 bits)", name, n, spec.min)
		}
		if spec.ceil > 0 && n.Uint64() > spec.ceil {
			return Value{}, fmt.Errorf("%s: %s out of range (must be <= %d)", name, n, spec.ceil)
		}
		return Value{integer: n}, nil
	}
}

// parseInteger accepts decimal or 0x-prefixed hex integers, optionally negative.
func parseInteger(s string) (*big.Int, error) {
	neg := strings.HasPrefix(s, "-")
	body := strings.TrimPrefix(s, "-")

	base := 10
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		body, base = body[2:], 16
	}
	if body == "" || strings.HasPrefix(body, "-") || strings.HasPrefix(body, "+") {
		return nil, fmt.Errorf("%q is not a number", s)
	}

	n, ok := new(big.Int).SetString(body, base)
	if !ok {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	if neg {
		n.Neg(n)
	}
	return n, nil
}

// parseWei parses amounts like "875000000", "25gwei", "0.5ether" or "1e9" into wei.
// The result must be a whole number of wei.
func parseWei(s string) (*big.Int, error) {
	lower := strings.ToLower(s)

	factor := big.NewInt(1)
	num := lower
	for _, u := range units {
		if strings.HasSuffix(lower, u.suffix) {
			factor = u.factor
			num = strings.TrimSpace(strings.TrimSuffix(lower, u.suffix))
			break
		}
	}
	if num == "" {
		return nil, fmt.Errorf("%q is not a number", s)
	}

	if isHex(num) || !strings.ContainsAny(num, ".e") {
		n, err := parseInteger(num)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", s)
		}
		return n.Mul(n, factor), nil
	}

	if strings.Contains(num, "/") {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	r, ok := new(big.Rat).SetString(num)
	if !ok {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	r.Mul(r, new(big.Rat).SetInt(factor))
	if !r.IsInt() {
		return nil, fmt.Errorf("%q is not a whole number of wei", s)
	}
	return new(big.Int).Set(r.Num()), nil
}

func isHex(s string) bool {
	return strings.HasPrefix(strings.TrimPrefix(s, "-"), "0x")
}

// rawParam normalises a decoded YAML scalar to the string form parsed by parseParam.
func rawParam(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case uint64:
		return strconv.FormatUint(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return "", false
	}
}
