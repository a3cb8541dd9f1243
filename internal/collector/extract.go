package collector

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultInstruments is the whitelist scanned for in row text. The code that
// appears earliest in a row wins.
var DefaultInstruments = []string{
	"EURUSD", "GBPUSD", "USDJPY", "USDCHF", "AUDUSD", "USDCAD", "NZDUSD",
	"EURGBP", "EURJPY", "GBPJPY", "EURCHF", "EURAUD", "EURCAD", "AUDJPY",
	"CADJPY", "CHFJPY", "GBPCHF", "AUDNZD", "NZDJPY", "XAUUSD", "XAGUSD",
	"BTCUSD", "ETHUSD", "GOLD", "SILVER",
}

// percentPattern takes whole digit runs, so "1234%" is one (out of range)
// token rather than "234%".
var percentPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)

// codeKey strips separators so "EUR/USD" and "EUR USD" match "EURUSD".
func codeKey(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', ' ', '-', '_', '\t', '\n', '\r':
			return -1
		}
		return r
	}, strings.ToUpper(s))
}

// FormatInstrument turns 6-letter codes into XXX/YYY and passes others through.
func FormatInstrument(code string) string {
	code = codeKey(code)
	if len(code) == 6 {
		return code[:3] + "/" + code[3:]
	}
	return code
}

// matchInstrument returns the whitelisted code that starts earliest in text.
func matchInstrument(text string, whitelist []string) (string, bool) {
	key := codeKey(text)
	best, at := "", -1
	for _, code := range whitelist {
		if i := strings.Index(key, code); i >= 0 && (at < 0 || i < at) {
			best, at = code, i
		}
	}
	if at < 0 {
		return "", false
	}
	return FormatInstrument(best), true
}

func containsKnownCode(text string, whitelist []string) bool {
	_, ok := matchInstrument(text, whitelist)
	return ok
}

// percentTokens returns every percentage-shaped number in text, in order.
func percentTokens(text string) []float64 {
	var out []float64
	for _, m := range percentPattern.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// nthPercent returns the n-th (0-based) percentage token in text.
func nthPercent(text string, n int) (float64, bool) {
	tokens := percentTokens(text)
	if n < len(tokens) {
		return tokens[n], true
	}
	return 0, false
}

func inPercentRange(v float64) bool { return v >= 0 && v <= 100 }
