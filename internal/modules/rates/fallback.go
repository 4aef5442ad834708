package rates

// Static fallback rates, used only when the live rate source is unreachable
// and tagged as degraded. Approximations keyed "BASE/TARGET" with USD as the
// anchor currency; lookups resolve direct, then inverse, then cross via USD.
var fallbackRates = map[string]float64{
	"USD/EUR": 0.92,
	"USD/GBP": 0.79,
	"USD/JPY": 149.50,
	"USD/CHF": 0.88,
	"USD/CAD": 1.36,
	"USD/AUD": 1.52,
	"USD/CNY": 7.24,
	"USD/INR": 83.10,
	"USD/BRL": 4.97,
	"USD/MXN": 17.05,
	"USD/SEK": 10.45,
	"USD/NOK": 10.60,
	"USD/DKK": 6.87,
	"USD/PLN": 3.98,
	"USD/HKD": 7.82,
	"USD/SGD": 1.34,
	"USD/NZD": 1.64,
	"USD/KRW": 1330.00,
	"USD/TRY": 30.90,
	"USD/ZAR": 18.70,
}

// lookupFallback resolves a pair from the static table: direct entry first,
// then the inverse of the reverse entry, then a cross-rate through USD.
func lookupFallback(base, target string) (float64, bool) {
	if rate, ok := fallbackRates[base+"/"+target]; ok {
		return rate, true
	}
	if rate, ok := fallbackRates[target+"/"+base]; ok && rate != 0 {
		return 1 / rate, true
	}

	// Cross via USD: base -> USD -> target.
	baseToUSD, ok := directOrInverse(base, "USD")
	if !ok {
		return 0, false
	}
	usdToTarget, ok := directOrInverse("USD", target)
	if !ok {
		return 0, false
	}
	return baseToUSD * usdToTarget, true
}

func directOrInverse(base, target string) (float64, bool) {
	if base == target {
		return 1, true
	}
	if rate, ok := fallbackRates[base+"/"+target]; ok {
		return rate, true
	}
	if rate, ok := fallbackRates[target+"/"+base]; ok && rate != 0 {
		return 1 / rate, true
	}
	return 0, false
}

// FallbackCurrencies returns the currency codes covered by the static table,
// USD included.
func FallbackCurrencies() []string {
	seen := map[string]bool{"USD": true}
	out := []string{"USD"}
	for pair := range fallbackRates {
		target := pair[4:] // every key is "USD/XXX"
		if !seen[target] {
			seen[target] = true
			out = append(out, target)
		}
	}
	return out
}
