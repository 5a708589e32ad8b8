package rpc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// BlockTag converts a block identifier (tag, decimal or hex number) to the form the
// node expects. An empty identifier means "latest".
func BlockTag(arg string) (string, error) {
	arg = strings.TrimSpace(strings.ToLower(arg))

	switch arg {
	case "":
		return "latest", nil
	case "latest", "pending", "earliest", "safe", "finalized":
		return arg, nil
	}

	if strings.HasPrefix(arg, "0x") {
		n, err := hexutil.DecodeUint64(arg)
		if err != nil {
			return "", fmt.Errorf("invalid block %q: %w", arg, err)
		}
		return hexutil.EncodeUint64(n), nil
	}

	num, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid block %q", arg)
	}
	return hexutil.EncodeUint64(num), nil
}
