package btc

import (
	"fmt"
	"math"
	"strings"
)

// SatsPerBTC is the number of satoshis in one bitcoin.
const SatsPerBTC = 100_000_000

// SatsToBTC converts satoshis to bitcoin.
func SatsToBTC(sats int64) float64 {
	return float64(sats) / SatsPerBTC
}

// BTCToSats converts bitcoin to satoshis. Rounding absorbs the float
// representation error of decimal amounts like 0.00015.
func BTCToSats(amount float64) int64 {
	return int64(math.Round(amount * SatsPerBTC))
}

// FormatBTCAmount renders a bitcoin amount with up to eight decimal
// places, trimming trailing zeros. Whole amounts keep one decimal so
// the unit is unambiguous.
func FormatBTCAmount(amount float64) string {
	s := fmt.Sprintf("%.8f", amount)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}
