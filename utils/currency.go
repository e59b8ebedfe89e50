package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatCurrencyDKK formats an amount as a Danish kroner display string.
// Example: 1250.5 -> "1.250,50 kr.". A zero amount renders as "gratis",
// matching how free products are shown on the kiosk.
func FormatCurrencyDKK(amount float64) string {
	if amount == 0 {
		return "gratis"
	}

	// Round to øre first so the decimal part never shows drift.
	amount = math.Round(amount*100) / 100

	formatted := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(formatted, ".")
	integerPart := parts[0]
	decimalPart := parts[1]

	negative := false
	if strings.HasPrefix(integerPart, "-") {
		negative = true
		integerPart = integerPart[1:]
	}

	// Danish grouping: "." as thousands separator, "," before the decimals.
	var groups []string
	for i := len(integerPart); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{integerPart[start:i]}, groups...)
	}

	result := strings.Join(groups, ".")
	if negative {
		result = "-" + result
	}

	if decimalPart == "00" {
		return result + " kr."
	}
	return result + "," + decimalPart + " kr."
}
