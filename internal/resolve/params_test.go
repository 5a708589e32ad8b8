package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/netcfg/internal/env"
)

func TestParseParam(t *testing.T) {
	tests := []struct {
		name    string
		param   string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain wei", param: "gasPrice", raw: "875000000", want: "875000000"},
		{name: "zero", param: "initialBaseFeePerGas", raw: "0", want: "0"},
		{name: "gwei suffix", param: "gasPrice", raw: "25gwei", want: "25000000000"},
		{name: "suffix with space", param: "maxFeePerGas", raw: "2 gwei", want: "2000000000"},
		{name: "decimal ether", param: "maxFeePerGas", raw: "0.5ether", want: "500000000000000000"},
		{name: "eth alias", param: "maxFeePerGas", raw: "1eth", want: "1000000000000000000"},
		{name: "exponent", param: "gasPrice", raw: "1e9", want: "1000000000"},
		{name: "hex", param: "gasPrice", raw: "0x3b9aca00", want: "1000000000"},
		{name: "hex with e digit", param: "gasPrice", raw: "0xe", want: "14"},
		{name: "uppercase unit", param: "gasPrice", raw: "3GWEI", want: "3000000000"},
		{name: "gas", param: "gas", raw: "21000", want: "21000"},
		{name: "chain id hex", param: "chainId", raw: "0x7a69", want: "31337"},
		{name: "multiplier", param: "gasMultiplier", raw: "1.5", want: "1.5"},

		{name: "unknown", param: "gasLimit", raw: "1", wantErr: true},
		{name: "garbage", param: "gasPrice", raw: "fast", wantErr: true},
		{name: "fraction of wei", param: "gasPrice", raw: "1.5", wantErr: true},
		{name: "rational", param: "gasPrice", raw: "1/2gwei", wantErr: true},
		{name: "negative", param: "gasPrice", raw: "-5gwei", wantErr: true},
		{name: "double sign", param: "gasPrice", raw: "--5", wantErr: true},
		{name: "unit only", param: "gasPrice", raw: "gwei", wantErr: true},
		{name: "unit on uint", param: "gas", raw: "30000wei", wantErr: true},
		{name: "gas too low", param: "gas", raw: "100", wantErr: true},
		{name: "chain id overflow", param: "chainId", raw: "18446744073709551616", wantErr: true},
		{name: "multiplier nan", param: "gasMultiplier", raw: "NaN", wantErr: true},
		{name: "multiplier too big", param: "gasMultiplier", raw: "101", wantErr: true},
		{name: "multiplier negative", param: "gasMultiplier", raw: "-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := parseParam(tt.param, tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestRawParam(t *testing.T) {
	tests := []struct {
		in   any
		want string
		ok   bool
	}{
		{in: 875000000, want: "875000000", ok: true},
		{in: int64(-1), want: "-1", ok: true},
		{in: uint64(1 << 63), want: "9223372036854775808", ok: true},
		{in: 1.25, want: "1.25", ok: true},
		{in: "30gwei", want: "30gwei", ok: true},
		{in: true, ok: false},
		{in: nil, ok: false},
	}

	for _, tt := range tests {
		got, ok := rawParam(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestKnownParamsSorted(t *testing.T) {
	names := KnownParams()
	assert.Len(t, names, len(knownParams))
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "gasPrice")
}

func TestReferences(t *testing.T) {
	assert.Equal(t, []string{"A", "B_2"}, References("${A}/${B_2}/${A}"))
	assert.Nil(t, References("http://127.0.0.1:8545"))
}

func TestSubstitute(t *testing.T) {
	store := env.FromMap(map[string]string{"HOST": "node", "EMPTY": ""})

	s := substitute("https://${HOST}/${EMPTY}/${GONE}", store)
	assert.Equal(t, "https://node/${EMPTY}/${GONE}", s.value)
	assert.Equal(t, []string{"EMPTY", "GONE"}, s.missing)
	assert.Equal(t, []string{"node"}, s.secrets)
}

func TestMalformed(t *testing.T) {
	assert.False(t, malformed("https://${HOST}/path"))
	assert.False(t, malformed("$HOST"))
	assert.True(t, malformed("https://${HOST"))
	assert.True(t, malformed("${}"))
	assert.True(t, malformed("${1ABC}"))
}
