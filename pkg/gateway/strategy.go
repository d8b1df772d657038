package gateway

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// LotSize returns the index lot size for the given underlying, defaulting
// to 75 (the NIFTY lot size) for anything not in the table.
func LotSize(underlying string) int {
	sizes := map[string]int{
		"NIFTY": 75, "BANKNIFTY": 30, "FINNIFTY": 65,
		"MIDCPNIFTY": 120, "NIFTYNXT50": 25,
		"SENSEX": 20, "BANKEX": 30, "SENSEX50": 25,
	}
	if s, ok := sizes[underlying]; ok {
		return s
	}
	return 75
}

// ExchangePair returns the underlying's index exchange and its
// futures-and-options exchange. SENSEX/BANKEX/SENSEX50 trade on BSE
// (BSE_INDEX / BFO); every other underlying is assumed to be NSE
// (NSE_INDEX / NFO).
func ExchangePair(underlying string) (underlyingExchange, foExchange string) {
	switch underlying {
	case "SENSEX", "BANKEX", "SENSEX50":
		return "BSE_INDEX", "BFO"
	default:
		return "NSE_INDEX", "NFO"
	}
}

// BuildStrategyLegs expands a named options strategy into its component
// legs. Returns nil for an unrecognized strategy name.
func BuildStrategyLegs(strategy, action string, quantity int, expiryDate, product, priceType string) []Leg {
	const buy, sell = "BUY", "SELL"

	makeLeg := func(offset, optionType, legAction string) Leg {
		return Leg{
			OptionType: optionType,
			Offset:     offset,
			Action:     legAction,
			Quantity:   quantity,
		}
	}

	switch strategy {
	case "straddle":
		return []Leg{makeLeg("ATM", "CE", action), makeLeg("ATM", "PE", action)}

	case "strangle":
		return []Leg{makeLeg("OTM2", "CE", action), makeLeg("OTM2", "PE", action)}

	case "iron_condor":
		if action == sell {
			return []Leg{
				makeLeg("OTM5", "CE", sell), makeLeg("OTM5", "PE", sell),
				makeLeg("OTM10", "CE", buy), makeLeg("OTM10", "PE", buy),
			}
		}
		return []Leg{
			makeLeg("OTM5", "CE", buy), makeLeg("OTM5", "PE", buy),
			makeLeg("OTM10", "CE", sell), makeLeg("OTM10", "PE", sell),
		}

	case "iron_butterfly":
		if action == sell {
			return []Leg{
				makeLeg("ATM", "CE", sell), makeLeg("ATM", "PE", sell),
				makeLeg("OTM3", "CE", buy), makeLeg("OTM3", "PE", buy),
			}
		}
		return []Leg{
			makeLeg("ATM", "CE", buy), makeLeg("ATM", "PE", buy),
			makeLeg("OTM3", "CE", sell), makeLeg("OTM3", "PE", sell),
		}

	case "bull_call_spread":
		return []Leg{makeLeg("ATM", "CE", buy), makeLeg("OTM3", "CE", sell)}

	case "bear_put_spread":
		return []Leg{makeLeg("ATM", "PE", buy), makeLeg("OTM3", "PE", sell)}

	case "bull_put_spread":
		return []Leg{makeLeg("ATM", "PE", sell), makeLeg("OTM3", "PE", buy)}

	case "bear_call_spread":
		return []Leg{makeLeg("ATM", "CE", sell), makeLeg("OTM3", "CE", buy)}

	default:
		return nil
	}
}

// expiryLayouts are the two date formats the gateway returns expiry
// strings in: "10-JUL-25" and "25DEC25".
var expiryLayouts = []string{"02-Jan-06", "02Jan06"}

func parseExpiry(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	// time.Parse matches month/day names case-insensitively against the
	// reference layout, so "10-JUL-25" parses fine against "02-Jan-06".
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatExpiryForAPI strips dashes and upper-cases an expiry string, e.g.
// "10-JUL-25" -> "10JUL25".
func FormatExpiryForAPI(expiry string) string {
	return strings.ToUpper(strings.ReplaceAll(expiry, "-", ""))
}

// ResolveExpiryDate picks one expiry out of a gateway-provided list
// according to expiryType (current_week/next_week/current_month/
// next_month), using now as the reference instant. Unparseable entries
// are dropped. Returns ("", false) if no entry satisfies expiryType.
func ResolveExpiryDate(expiryList []string, expiryType string, now time.Time) (string, bool) {
	type parsed struct {
		raw string
		t   time.Time
	}
	var valid []parsed
	for _, raw := range expiryList {
		if t, ok := parseExpiry(raw); ok {
			valid = append(valid, parsed{raw, t})
		}
	}
	if len(valid) == 0 {
		return "", false
	}
	sort.Slice(valid, func(i, j int) bool { return valid[i].t.Before(valid[j].t) })

	currentMonth, currentYear := int(now.Month()), now.Year()
	nextMonth, nextYear := currentMonth+1, currentYear
	if currentMonth == 12 {
		nextMonth, nextYear = 1, currentYear+1
	}

	switch expiryType {
	case "current_week":
		return FormatExpiryForAPI(valid[0].raw), true

	case "next_week":
		if len(valid) > 1 {
			return FormatExpiryForAPI(valid[1].raw), true
		}
		return "", false

	case "current_month":
		var result string
		for _, p := range valid {
			if int(p.t.Month()) == currentMonth && p.t.Year() == currentYear {
				result = p.raw
			}
		}
		if result == "" {
			return "", false
		}
		return FormatExpiryForAPI(result), true

	case "next_month":
		var result string
		for _, p := range valid {
			if int(p.t.Month()) == nextMonth && p.t.Year() == nextYear {
				result = p.raw
			}
		}
		if result == "" {
			return "", false
		}
		return FormatExpiryForAPI(result), true

	default:
		return "", false
	}
}

// ExpiryListFromEnvelope extracts the []string expiry list out of a
// gateway Envelope, reading the Data "expiry" key or, when that is absent,
// the Data "data" key. The value must be a list; non-string items are
// skipped.
func ExpiryListFromEnvelope(env *Envelope) ([]string, error) {
	raw, ok := env.Data["expiry"]
	if !ok {
		raw, ok = env.Data["data"]
	}
	if !ok {
		return nil, fmt.Errorf("gateway: expiry response missing expiry list")
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("gateway: expiry response field is not a list")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}
