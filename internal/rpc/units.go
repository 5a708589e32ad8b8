package rpc

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/params"
)

// FormatEther renders a wei amount in ether with up to 6 decimals.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "—"
	}
	eth := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether))
	return eth.Text('f', 6) + " ETH"
}

// FormatGwei converts wei to gwei for display, e.g. 875000000 -> "0.88 gwei".
func FormatGwei(wei *big.Int) string {
	if wei == nil {
		return "—"
	}
	gwei := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.GWei))
	f, _ := gwei.Float64()
	return fmt.Sprintf("%.2f gwei", f)
}

// FormatNumber adds thousand separators, e.g. 24277510 -> "24,277,510".
func FormatNumber(n uint64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result []byte
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}
